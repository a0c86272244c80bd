package format

import (
	"strings"
	"unicode/utf8"
)

// Field capacities (terminator included) for escaped text.
const (
	NameCapacity    = 100
	MessageCapacity = 500
)

// Escape makes s safe to place between double quotes in a JSON document.
//
// Quote, backslash, newline, carriage return, tab, backspace and form feed
// become two-character escapes; any other control character becomes a space.
// The result is at most capacity-1 bytes. Copying stops before an escape or a
// multi-byte character would cross that limit, so the output never ends in a
// dangling backslash or a split rune. Invalid UTF-8 is replaced by U+FFFD.
func Escape(s string, capacity int) string {
	if capacity < 2 {
		return ""
	}
	limit := capacity - 1

	var b strings.Builder
	if len(s) < limit {
		b.Grow(len(s))
	} else {
		b.Grow(limit)
	}

	for _, r := range s {
		var esc string
		switch r {
		case '"':
			esc = `\"`
		case '\\':
			esc = `\\`
		case '\n':
			esc = `\n`
		case '\r':
			esc = `\r`
		case '\t':
			esc = `\t`
		case '\b':
			esc = `\b`
		case '\f':
			esc = `\f`
		}

		if esc != "" {
			if b.Len()+len(esc) > limit {
				break
			}
			b.WriteString(esc)
			continue
		}

		if r < 0x20 {
			r = ' '
		}
		if b.Len()+utf8.RuneLen(r) > limit {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}
