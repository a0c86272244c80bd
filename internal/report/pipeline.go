package report

import (
	"log/slog"

	"github.com/astroahava/astro-sweph/internal/metrics"
	"github.com/astroahava/astro-sweph/internal/record"
	"github.com/astroahava/astro-sweph/internal/textbuf"
)

// batch describes one run of the pipeline: n items written into the array
// member key, followed by a summary.
type batch struct {
	key string
	n   int

	// item computes and writes item i. ok reports an engine success, fit
	// whether the record was written.
	item func(w *textbuf.Writer, i int, sep string) (ok, fit bool)

	// notice is the truncation text when stopping at item i.
	notice func(i int) string
}

// batchTail is the structural text a batch needs after its opening marker.
func batchTail(b batch) int {
	n := len(batchClose) + len(record.SummaryText(b.n, b.n, b.n))
	if b.n > 0 {
		n += max(record.NoticeLen(b.notice(0)), record.NoticeLen(b.notice(b.n-1)))
	}
	return n
}

const batchClose = "]" + record.Next

// batchOpen is the opening marker of the batch array.
func batchOpen(b batch) string { return `"` + b.key + `": [ ` }

// runBatch drives the pipeline over a document whose reservation already
// covers batchOpen and batchTail. Items are written until they run out or
// fewer than margin bytes remain; in the second case a notice closes the
// array. The array and the summary are always written.
func runBatch(d *Document, b batch, margin int, logger *slog.Logger) Summary {
	sum := Summary{TotalRequested: b.n}
	noticeHeld := 0
	if b.n > 0 {
		noticeHeld = max(record.NoticeLen(b.notice(0)), record.NoticeLen(b.notice(b.n-1)))
	}

	d.mark(batchOpen(b))
	d.state = Iterating

	for i := 0; i < b.n; i++ {
		ok, fit := b.item(d.w, i, record.Sep(i, b.n))
		if !fit {
			d.truncate(b.notice(i), noticeHeld)
			break
		}
		if ok {
			sum.Calculated++
		} else {
			sum.Errors++
		}
		if i < b.n-1 && d.w.NearCapacity(margin) {
			d.truncate(b.notice(i), noticeHeld)
			break
		}
	}
	if d.state == Iterating {
		d.state = Completed
	}
	if d.state == Truncated {
		logger.Warn("batch truncated",
			"kind", d.kind,
			"capacity", d.w.Cap(),
			"written", sum.Calculated+sum.Errors,
			"total_requested", sum.TotalRequested,
		)
	}

	logger.Debug("batch finished",
		"kind", d.kind,
		"state", d.state.String(),
		"calculated", sum.Calculated,
		"errors", sum.Errors,
		"total_requested", sum.TotalRequested,
	)
	metrics.AddBatchItems(d.kind, sum.Calculated, sum.Errors)

	d.mark(batchClose)
	d.mark(record.SummaryText(sum.Calculated, sum.Errors, sum.TotalRequested))
	d.summary = sum
	return sum
}

// truncate writes the notice out of its reservation and stops the batch.
func (d *Document) truncate(text string, held int) {
	d.unhold(held)
	record.Notice(d.w, text)
	d.state = Truncated
	d.truncated = true
	metrics.IncBatchTruncations(d.kind)
}
