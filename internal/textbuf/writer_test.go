package textbuf

import (
	"strings"
	"testing"
)

func TestAppendFits(t *testing.T) {
	w := New(16)
	n, ok := w.Append("hello")
	if !ok || n != 5 {
		t.Fatalf("Append = (%d, %v), want (5, true)", n, ok)
	}
	if got := w.String(); got != "hello" {
		t.Errorf("String() = %q, want %q", got, "hello")
	}
	if got := w.Remaining(); got != 11 {
		t.Errorf("Remaining() = %d, want 11", got)
	}
	if w.Truncated() {
		t.Error("Truncated() = true after a full append")
	}
}

// TestAppendNeverOverruns verifies the terminator slot is always kept free.
func TestAppendNeverOverruns(t *testing.T) {
	tests := []struct {
		capacity int
		input    string
		want     string
		full     bool
	}{
		{capacity: 1, input: "a", want: "", full: false},
		{capacity: 0, input: "a", want: "", full: false},
		{capacity: 6, input: "hello", want: "hello", full: true},
		{capacity: 6, input: "hello!", want: "hello", full: false},
		{capacity: 4, input: "hello", want: "hel", full: false},
		{capacity: 4, input: "", want: "", full: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			w := New(tt.capacity)
			n, ok := w.Append(tt.input)
			if ok != tt.full {
				t.Errorf("full = %v, want %v", ok, tt.full)
			}
			if n != len(tt.want) {
				t.Errorf("written = %d, want %d", n, len(tt.want))
			}
			if got := w.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if w.Len() > w.Cap()-1 && w.Cap() > 0 {
				t.Errorf("Len() = %d exceeds Cap()-1 = %d", w.Len(), w.Cap()-1)
			}
		})
	}
}

func TestRepeatedAppendsStopAtCapacity(t *testing.T) {
	w := New(100)
	for i := 0; i < 50; i++ {
		w.Append("abcdefg")
	}
	if w.Len() != 99 {
		t.Errorf("Len() = %d, want 99", w.Len())
	}
	if w.Remaining() != 1 {
		t.Errorf("Remaining() = %d, want 1 (terminator)", w.Remaining())
	}
	if !w.Truncated() {
		t.Error("Truncated() = false after overflowing appends")
	}
}

func TestNearCapacity(t *testing.T) {
	w := New(2000)
	if w.NearCapacity(1000) {
		t.Fatal("fresh 2000-byte writer reported near capacity")
	}
	w.Append(strings.Repeat("x", 1001))
	if !w.NearCapacity(1000) {
		t.Errorf("Remaining() = %d, expected NearCapacity(1000)", w.Remaining())
	}
}

func TestMarkRollback(t *testing.T) {
	w := New(32)
	w.Append("[ ")
	mark := w.Mark()
	w.Append("{ partial record")
	w.Rollback(mark)
	if got := w.String(); got != "[ " {
		t.Errorf("after rollback String() = %q, want %q", got, "[ ")
	}
	w.Rollback(100) // beyond cursor: no-op
	if got := w.String(); got != "[ " {
		t.Errorf("rollback past cursor changed text to %q", got)
	}
}

func TestReserve(t *testing.T) {
	w := New(10)
	if !w.Reserve(3) {
		t.Fatal("Reserve(3) failed on empty 10-byte writer")
	}
	n, ok := w.Append("abcdefghij")
	if ok || n != 6 {
		t.Errorf("Append with reservation = (%d, %v), want (6, false)", n, ok)
	}
	w.Unreserve(3)
	if _, ok := w.Append("] }"); !ok {
		t.Error("closing marker did not fit into the released reservation")
	}
	if got := w.String(); got != "abcdef] }" {
		t.Errorf("String() = %q", got)
	}
	if w.Reserve(1) {
		t.Error("Reserve succeeded on a full writer")
	}
}

func TestAppendf(t *testing.T) {
	w := New(64)
	w.Appendf("{ \"index\": %d }", 42)
	if got := w.String(); got != `{ "index": 42 }` {
		t.Errorf("String() = %q", got)
	}
}

func TestRelease(t *testing.T) {
	w := New(64)
	w.Append("data")
	w.Release()
	if w.Len() != 0 || w.Bytes() != nil && len(w.Bytes()) != 0 {
		t.Errorf("released writer still holds %q", w.Bytes())
	}
	if _, ok := w.Append("more"); ok {
		t.Error("append after Release reported success")
	}
	w.Release() // second release is a no-op

	// A pooled buffer comes back empty.
	w2 := New(32)
	if w2.Len() != 0 {
		t.Errorf("new writer Len() = %d, want 0", w2.Len())
	}
}
