package ephemeris

import "fmt"

// Accept is the engine's success rule. A status is accepted when it is
// non-negative (strictly positive when strict is set, as for vector
// calculations) and carries at least one bit of expected. An expected of zero
// requires no particular bit.
func Accept(status, expected Flags, strict bool) bool {
	if status < 0 || (strict && status == 0) {
		return false
	}
	return expected == 0 || status&expected != 0
}

// Outcome is a classified engine result: either a success carrying a value and
// the returned status flags, or a failure carrying the status and the
// engine's message. A failure never carries a value.
type Outcome[V any] struct {
	Value   V
	Flags   Flags
	Message string
	ok      bool
}

// Success returns a successful Outcome.
func Success[V any](v V, flags Flags) Outcome[V] {
	return Outcome[V]{Value: v, Flags: flags, ok: true}
}

// Failure returns a failed Outcome.
func Failure[V any](flags Flags, message string) Outcome[V] {
	return Outcome[V]{Flags: flags, Message: message}
}

// OK reports whether the Outcome is a success.
func (o Outcome[V]) OK() bool { return o.ok }

// classify turns a raw engine return into an Outcome. err carries the
// engine's message text; it is used only on the failure branch.
func classify[V any](v V, status, expected Flags, strict bool, err error) Outcome[V] {
	if Accept(status, expected, strict) {
		return Success(v, status)
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = fmt.Sprintf("unexpected status flags %d", status)
	}
	return Failure[V](status, msg)
}
