// Package selection parses human-entered trade picks like "1,3,5-8" into
// slice indices.
package selection

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Parse turns a selection expression into sorted, de-duplicated zero-based
// indices. The input uses one-based positions and accepts "all", single
// numbers, ranges like "5-8" and comma-separated combinations of both.
func Parse(input string, total int) ([]int, error) {
	if total <= 0 {
		return nil, fmt.Errorf("nothing to select from")
	}

	trimmed := strings.TrimSpace(input)
	if trimmed == "" || strings.EqualFold(trimmed, "all") {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out, nil
	}

	picked := make(map[int]struct{})
	for _, part := range strings.Split(trimmed, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if lo, hi, ok := strings.Cut(part, "-"); ok {
			from, err := parsePosition(lo, total)
			if err != nil {
				return nil, err
			}
			to, err := parsePosition(hi, total)
			if err != nil {
				return nil, err
			}
			if to < from {
				return nil, fmt.Errorf("range %q is reversed", part)
			}
			for i := from; i <= to; i++ {
				picked[i] = struct{}{}
			}
			continue
		}

		idx, err := parsePosition(part, total)
		if err != nil {
			return nil, err
		}
		picked[idx] = struct{}{}
	}

	if len(picked) == 0 {
		return nil, fmt.Errorf("selection %q picks nothing", input)
	}

	out := make([]int, 0, len(picked))
	for i := range picked {
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

// parsePosition converts a one-based position to a zero-based index with
// bounds checking.
func parsePosition(s string, total int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid selection %q", s)
	}
	if n < 1 || n > total {
		return 0, fmt.Errorf("selection %d is out of range 1-%d", n, total)
	}
	return n - 1, nil
}
