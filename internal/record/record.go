// Package record writes one JSON record per engine result through a bounded
// writer.
//
// Every emitter is atomic: a record that does not fit is rolled back and the
// emitter reports false, so a document never holds half a record. Free text
// is escaped and numbers are always finite, so every record that is written
// is valid JSON on its own. Separators between records are supplied by the
// caller.
package record

import (
	"fmt"
	"math"
	"strings"

	"github.com/astroahava/astro-sweph/internal/ephemeris"
	"github.com/astroahava/astro-sweph/internal/format"
	"github.com/astroahava/astro-sweph/internal/textbuf"
)

// Separators placed after a record.
const (
	Next = ", "
	Last = " "
)

// Sep returns Next unless i is the last of n items.
func Sep(i, n int) string {
	if i == n-1 {
		return Last
	}
	return Next
}

// put appends s whole or not at all.
func put(w *textbuf.Writer, s string) bool {
	mark := w.Mark()
	if _, ok := w.Append(s); !ok {
		w.Rollback(mark)
		return false
	}
	return true
}

// num keeps non-finite engine output out of the JSON text.
func num(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func name(s string) string    { return format.Escape(s, format.NameCapacity) }
func message(s string) string { return format.Escape(s, format.MessageCapacity) }
func zodiac(v float64) string { return format.Degrees(num(v), format.Zodiac) }

// Body writes a position record. Asteroids are indexed by catalog number.
func Body(w *textbuf.Writer, r ephemeris.BodyResult, sep string) bool {
	return put(w, " "+bodyFields(r, nil)+sep)
}

// BodyDetail writes a standalone position record carrying the UT Julian day.
func BodyDetail(w *textbuf.Writer, r ephemeris.BodyResult, jdUT float64) bool {
	return put(w, bodyFields(r, &jdUT))
}

func bodyFields(r ephemeris.BodyResult, jdUT *float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, `{ "index": %d, "name": "%s", `, r.ID.Number(), name(r.Name))
	if r.OK() {
		v := r.Value
		fmt.Fprintf(&b, `"long": %.6f, "lat": %.6f, "distance": %.9f, "speed": %.6f, "long_s": "%s", `,
			num(v.Long()), num(v.Lat()), num(v.Dist()), num(v.SpeedLong()), zodiac(v.Long()))
	} else {
		b.WriteString(`"long": 0.0, "lat": 0.0, "distance": 0.0, "speed": 0.0, "long_s": "", `)
	}
	if jdUT != nil {
		fmt.Fprintf(&b, `"jd_ut": %.6f, `, num(*jdUT))
	}
	fmt.Fprintf(&b, `"iflagret": %d, `, r.Flags)
	if r.OK() {
		b.WriteString(`"error": false }`)
	} else {
		fmt.Fprintf(&b, `"error": true, "error_msg": "%s" }`, message(r.Message))
	}
	return b.String()
}

// NodeGroup writes a nodes/apsides record for one body.
func NodeGroup(w *textbuf.Writer, r ephemeris.NodeApsidesResult, sep string) bool {
	var b strings.Builder
	fmt.Fprintf(&b, ` { "index": %d, "name": "%s", `, int(r.ID), name(r.Name))
	nodeFields(&b, r)
	b.WriteString(sep)
	return put(w, b.String())
}

// NodeDetail writes a standalone nodes/apsides record carrying the ET Julian
// day and the method.
func NodeDetail(w *textbuf.Writer, r ephemeris.NodeApsidesResult, jdET float64, method ephemeris.NodeMethod) bool {
	var b strings.Builder
	fmt.Fprintf(&b, `{ "index": %d, "name": "%s", "jd_et": %.6f, "method": %d, `, int(r.ID), name(r.Name), num(jdET), int(method))
	nodeFields(&b, r)
	return put(w, b.String())
}

func nodeFields(b *strings.Builder, r ephemeris.NodeApsidesResult) {
	if !r.OK() {
		fmt.Fprintf(b, `"error": true, "error_msg": "%s" }`, message(r.Message))
		return
	}
	points := []struct {
		key string
		v   ephemeris.Vector
	}{
		{"ascending_node", r.Value.Ascending},
		{"descending_node", r.Value.Descending},
		{"perihelion", r.Value.Perihelion},
		{"aphelion", r.Value.Aphelion},
	}
	for _, p := range points {
		v := p.v
		fmt.Fprintf(b, `"%s": { "long": %.6f, "lat": %.6f, "distance": %.9f, "speed_long": %.6f, "speed_lat": %.6f, "speed_dist": %.9f, "long_s": "%s" }, `,
			p.key, num(v.Long()), num(v.Lat()), num(v.Dist()), num(v.SpeedLong()), num(v.SpeedLat()), num(v.SpeedDist()), zodiac(v.Long()))
	}
	b.WriteString(`"error": false }`)
}

// Angle writes a named chart angle such as the ascendant.
func Angle(w *textbuf.Writer, label string, lon float64, sep string) bool {
	return put(w, fmt.Sprintf(`{ "name": "%s", "long": %.6f, "long_s": "%s" }%s`, name(label), num(lon), zodiac(lon), sep))
}

// Cusp writes house cusp n.
func Cusp(w *textbuf.Writer, n int, lon float64, sep string) bool {
	return put(w, fmt.Sprintf(`{ "name": "%d", "long": %.6f, "long_s": "%s" }%s `, n, num(lon), zodiac(lon), sep))
}

// TimeScale selects which Julian day InitDate echoes.
type TimeScale int

const (
	UT TimeScale = iota
	ET
)

// InitDate writes the "initDate" member echoing the request time.
func InitDate(w *textbuf.Writer, m ephemeris.Moment, scale TimeScale) bool {
	key, jd := "jd_ut", m.UT
	if scale == ET {
		key, jd = "jd_et", m.ET
	}
	return put(w, fmt.Sprintf(`"initDate": { "year": %d, "month": %d, "day": %d, "hour": %d, "minute": %d, "second": %d, "%s": %.6f }, `,
		m.Year, m.Month, m.Day, m.Hour, m.Minute, m.Second, key, num(jd)))
}

// Range writes the "asteroid_range" member.
func Range(w *textbuf.Writer, start, end int) bool {
	return put(w, fmt.Sprintf(`"asteroid_range": { "start": %d, "end": %d }, `, start, end))
}

// RequestedList writes the "requested_list" member echoing the raw list.
func RequestedList(w *textbuf.Writer, list string) bool {
	return put(w, fmt.Sprintf(`"requested_list": "%s", `, message(list)))
}

// Notice writes a warning record inside a result array.
func Notice(w *textbuf.Writer, text string) bool {
	return put(w, fmt.Sprintf(` { "warning": "%s" } `, message(text)))
}

// NoticeLen is the length Notice writes for text.
func NoticeLen(text string) int {
	return len(` { "warning": "" } `) + len(message(text))
}

// Summary writes the "summary" member of a batch document.
func Summary(w *textbuf.Writer, calculated, errored, total int) bool {
	return put(w, SummaryText(calculated, errored, total))
}

// SummaryText renders the summary member.
func SummaryText(calculated, errored, total int) string {
	return fmt.Sprintf(`"summary": { "calculated": %d, "errors": %d, "total_requested": %d }`, calculated, errored, total)
}

// Result is a classified engine result that has a record shape.
type Result interface {
	ephemeris.BodyResult | ephemeris.NodeApsidesResult
	OK() bool
}

// Emit performs one engine call and writes its record. It returns the result
// and whether the record fit.
func Emit[R Result](w *textbuf.Writer, call func() R, write func(*textbuf.Writer, R) bool) (R, bool) {
	r := call()
	return r, write(w, r)
}

// MaxRecordLen is the longest record an emitter can write: a node group
// with the longest name and widest numbers.
var MaxRecordLen = maxRecordLen()

func maxRecordLen() int {
	wide := ephemeris.Vector{-359.999999, -89.999999, -99999.999999999, -9999.999999, -9999.999999, -99999.999999999}
	longName := strings.Repeat("x", format.NameCapacity)
	longMsg := strings.Repeat("x", format.MessageCapacity)

	nodes := ephemeris.NodeApsidesResult{
		ID:      ephemeris.AsteroidOffset * 10,
		Name:    longName,
		Outcome: ephemeris.Success(ephemeris.NodeSet{Ascending: wide, Descending: wide, Perihelion: wide, Aphelion: wide}, math.MinInt32),
	}
	body := ephemeris.BodyResult{
		ID:      ephemeris.AsteroidOffset * 10,
		Name:    longName,
		Outcome: ephemeris.Failure[ephemeris.Vector](math.MinInt32, longMsg),
	}

	w := textbuf.New(1 << 14)
	defer w.Release()

	longest := 0
	measure := func(write func() bool) {
		mark := w.Mark()
		write()
		if n := w.Len() - mark; n > longest {
			longest = n
		}
		w.Rollback(mark)
	}
	measure(func() bool { return NodeGroup(w, nodes, Next) })
	measure(func() bool { return NodeDetail(w, nodes, -9999999.999999, ephemeris.NodeFocal) })
	measure(func() bool { return Body(w, body, Next) })
	measure(func() bool { return BodyDetail(w, body, -9999999.999999) })
	return longest
}
