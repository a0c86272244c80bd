package report

import (
	"strconv"
	"strings"
)

// ClampRange orders an asteroid range and limits both ends to
// 1..MaxListedAsteroids. The result always holds at least one number.
func ClampRange(start, end int) (int, int) {
	if start > end {
		start, end = end, start
	}
	clamp := func(n int) int { return min(max(n, 1), MaxListedAsteroids) }
	return clamp(start), clamp(end)
}

// ParseList reads a comma separated list of asteroid numbers. Tokens that are
// not integers in 1..MaxListedAsteroids are dropped; at most
// MaxListedAsteroids numbers are kept, in input order.
func ParseList(list string) []int {
	var ids []int
	for _, tok := range strings.Split(list, ",") {
		if len(ids) == MaxListedAsteroids {
			break
		}
		n, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil || n < 1 || n > MaxListedAsteroids {
			continue
		}
		ids = append(ids, n)
	}
	return ids
}
