// Package report builds the JSON documents served by the API and the CLI.
//
// Every document is written into a fixed-capacity buffer. The structural text
// a document still needs (closing brackets, the batch summary, a truncation
// notice) is reserved before any item is written, so the result is valid
// JSON at any capacity: items that do not fit are left out, never cut.
package report

import (
	"fmt"
	"strings"

	"github.com/astroahava/astro-sweph/internal/ephemeris"
	"github.com/astroahava/astro-sweph/internal/metrics"
	"github.com/astroahava/astro-sweph/internal/record"
	"github.com/astroahava/astro-sweph/internal/textbuf"
)

// Document capacities in bytes, terminator included.
const (
	ChartCapacity      = 100000
	PlanetsCapacity    = 50000
	HousesCapacity     = 10000
	NodesCapacity      = 50000
	AsteroidsCapacity  = 100000
	SingleCapacity     = 1000
	JulianDayCapacity  = 500
	DMSCapacity        = 100
	EphemerisCapacity  = 1000
	MinCapacity        = 256
	scratchCapacity    = 4096
	DefaultMargin      = 1000
	MaxListedAsteroids = 1000
)

// State is the progress of a document through the batch pipeline.
type State int

const (
	Init State = iota
	Iterating
	Truncated
	Completed
	Closed
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case Iterating:
		return "iterating"
	case Truncated:
		return "truncated"
	case Completed:
		return "completed"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Summary counts the items of a batch.
type Summary struct {
	Calculated     int `json:"calculated"`
	Errors         int `json:"errors"`
	TotalRequested int `json:"total_requested"`
}

// Document is one rendered JSON document. Its bytes stay valid until Release.
type Document struct {
	kind      string
	w         *textbuf.Writer
	held      int
	state     State
	truncated bool
	summary   Summary
}

// Footprint is the largest buffer any entry point allocates when asked for
// capacity bytes. Capacities are raised to hold the longest record and the
// widest envelope, so the allocation can exceed the request.
func Footprint(capacity int) int {
	return max(capacity, MinCapacity, record.MaxRecordLen+1, maxEnvelope)
}

// maxEnvelope bounds header plus reserved tail over every batch document:
// the widest date, a list echo at full escape capacity and the longest
// notice, plus the chart and nodes extras.
var maxEnvelope = func() int {
	m := ephemeris.Moment{
		DateTime: ephemeris.DateTime{Year: -99999, Month: 12, Day: 31, Hour: 23, Minute: 59, Second: 59},
		UT:       -1e10,
		ET:       -1e10,
	}
	header := docOpen + render(
		func(w *textbuf.Writer) bool { return record.InitDate(w, m, record.ET) },
		func(w *textbuf.Writer) bool { return record.RequestedList(w, strings.Repeat(`"`, 2*MaxListedAsteroids)) },
		func(w *textbuf.Writer) bool { return record.Range(w, MaxListedAsteroids, MaxListedAsteroids) },
	) + fmt.Sprintf(`"method": %d, `, -1<<31)

	b := batch{
		key:    "asteroids",
		n:      MaxListedAsteroids,
		notice: func(int) string { return fmt.Sprintf(rangeNotice, MaxListedAsteroids) },
	}
	tail := len(batchOpen(b)) + batchTail(b) + len(record.Next) + anglesTail + len(docClose)
	return len(header) + tail + 1
}()

// newDocument allocates a document large enough for header plus tail bytes
// of structural text, writes the header and reserves the tail.
func newDocument(kind string, capacity int, header string, tail int) *Document {
	capacity = max(capacity, MinCapacity, len(header)+tail+1)
	d := &Document{kind: kind, w: textbuf.New(capacity)}
	d.w.Append(header)
	d.hold(tail)
	return d
}

// hold reserves n bytes for structural text written later.
func (d *Document) hold(n int) {
	if d.w.Reserve(n) {
		d.held += n
	}
}

// unhold returns up to n reserved bytes to the free space.
func (d *Document) unhold(n int) {
	n = min(n, d.held)
	d.w.Unreserve(n)
	d.held -= n
}

// mark writes structural text out of the reservation.
func (d *Document) mark(s string) {
	d.unhold(len(s))
	d.w.Append(s)
}

// close releases what is left of the reservation and finishes the document.
func (d *Document) close() *Document {
	d.unhold(d.held)
	d.state = Closed
	metrics.ObserveDocumentBytes(d.kind, d.w.Len())
	return d
}

// Kind names the entry point that produced the document.
func (d *Document) Kind() string { return d.kind }

// Bytes returns the document text. The slice is only valid until Release.
func (d *Document) Bytes() []byte { return d.w.Bytes() }

// String returns a copy of the document text.
func (d *Document) String() string { return d.w.String() }

// Len returns the document length in bytes.
func (d *Document) Len() int { return d.w.Len() }

// Cap returns the capacity the document was written into.
func (d *Document) Cap() int { return d.w.Cap() }

// State returns the pipeline state. Finished documents are Closed.
func (d *Document) State() State { return d.state }

// Truncated reports whether items were left out for lack of room.
func (d *Document) Truncated() bool { return d.truncated }

// Summary returns the batch counters. It is zero for documents without a
// batch.
func (d *Document) Summary() Summary { return d.summary }

// Release hands the buffer back for reuse. The document is empty afterwards.
func (d *Document) Release() {
	if d == nil || d.w == nil {
		return
	}
	d.w.Release()
}

// list writes n fixed items separated by record.Next. When item i does not
// fit, item i-1 is rewritten as the last one and the rest are left out.
func (d *Document) list(n int, item func(w *textbuf.Writer, i int, sep string) bool) int {
	prev := 0
	for i := 0; i < n; i++ {
		mark := d.w.Mark()
		if item(d.w, i, record.Sep(i, n)) {
			prev = mark
			continue
		}
		d.truncated = true
		if i > 0 {
			d.w.Rollback(prev)
			item(d.w, i-1, record.Last)
		}
		return i
	}
	return n
}

// render captures the output of record writers as a string.
func render(parts ...func(w *textbuf.Writer) bool) string {
	w := textbuf.New(scratchCapacity)
	defer w.Release()
	for _, p := range parts {
		p(w)
	}
	return w.String()
}
