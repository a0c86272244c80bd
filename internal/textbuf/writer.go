// Package textbuf provides a fixed-capacity, append-only text buffer.
//
// A Writer never grows past the capacity it was created with. The last byte of
// the allocation is kept free as a terminator slot, so at most capacity-1 bytes
// of text are ever stored. Appends that do not fit are cut short and reported
// to the caller; running out of room is a condition, not an error.
package textbuf

import (
	"fmt"
	"sync"
)

var pool sync.Pool // *[]byte

// Writer accumulates text into a buffer of fixed capacity.
// A Writer is not safe for concurrent use.
type Writer struct {
	buf       []byte // len(buf) == capacity
	n         int    // write cursor
	reserved  int    // bytes held back for closing markers
	truncated bool
}

// New returns a Writer with the given capacity in bytes, terminator included.
// Capacities below 1 are treated as 1 (room for the terminator only).
func New(capacity int) *Writer {
	if capacity < 1 {
		capacity = 1
	}
	if p, ok := pool.Get().(*[]byte); ok && cap(*p) >= capacity {
		return &Writer{buf: (*p)[:capacity]}
	}
	return &Writer{buf: make([]byte, capacity)}
}

// Cap returns the capacity the Writer was created with.
func (w *Writer) Cap() int { return len(w.buf) }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.n }

// Remaining returns the bytes still free, including the terminator slot and
// excluding any reservation.
func (w *Writer) Remaining() int {
	r := len(w.buf) - w.n - w.reserved
	if r < 0 {
		return 0
	}
	return r
}

// NearCapacity reports whether fewer than threshold bytes remain.
func (w *Writer) NearCapacity(threshold int) bool {
	return w.Remaining() < threshold
}

// Truncated reports whether any append was cut short.
func (w *Writer) Truncated() bool { return w.truncated }

// Append writes as much of s as fits and returns the number of bytes written
// and whether s was written in full.
func (w *Writer) Append(s string) (int, bool) {
	room := w.Remaining() - 1 // terminator
	if room < 0 {
		room = 0
	}
	if len(s) <= room {
		w.n += copy(w.buf[w.n:], s)
		return len(s), true
	}
	written := copy(w.buf[w.n:w.n+room], s)
	w.n += written
	w.truncated = true
	return written, false
}

// Appendf formats according to a format specifier and appends the result.
func (w *Writer) Appendf(format string, args ...any) (int, bool) {
	return w.Append(fmt.Sprintf(format, args...))
}

// Mark returns the current cursor for a later Rollback.
func (w *Writer) Mark() int { return w.n }

// Rollback discards everything written after mark.
func (w *Writer) Rollback(mark int) {
	if mark >= 0 && mark < w.n {
		w.n = mark
	}
}

// Reserve holds back n bytes from subsequent appends and reports whether the
// reservation fit. A reservation that does not fit is not taken.
func (w *Writer) Reserve(n int) bool {
	if n <= 0 {
		return true
	}
	if w.n+w.reserved+n > len(w.buf)-1 {
		return false
	}
	w.reserved += n
	return true
}

// Unreserve returns n previously reserved bytes to the writable space.
func (w *Writer) Unreserve(n int) {
	w.reserved -= n
	if w.reserved < 0 {
		w.reserved = 0
	}
}

// Bytes returns the written text. The slice aliases the Writer's buffer and is
// only valid until Release.
func (w *Writer) Bytes() []byte { return w.buf[:w.n] }

// String returns a copy of the written text.
func (w *Writer) String() string { return string(w.buf[:w.n]) }

// Release hands the buffer back for reuse. The Writer is empty afterwards and
// every subsequent append writes nothing.
func (w *Writer) Release() {
	if w.buf == nil {
		return
	}
	b := w.buf[:0]
	pool.Put(&b)
	w.buf = nil
	w.n = 0
	w.reserved = 0
}
