// Package builtin contains reusable row transformers.
package builtin

import "sort"

// DeDup collapses rows sharing a key to the earliest occurrence. Winners are
// emitted in input order. Rows without a key are passed through after the
// winners, in input order.
type DeDup[T any] struct {
	// Key returns the business key of a row and whether it has one.
	Key func(T) (string, bool)
}

// Apply returns a new slice holding the first row for each key.
func (d DeDup[T]) Apply(in []T) []T {
	if len(in) == 0 || d.Key == nil {
		return in
	}

	first := make(map[string]int, len(in))
	var passthrough []int
	for i, r := range in {
		key, ok := d.Key(r)
		if !ok {
			passthrough = append(passthrough, i)
			continue
		}
		if _, exists := first[key]; !exists {
			first[key] = i
		}
	}

	indexes := make([]int, 0, len(first))
	for _, i := range first {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	out := make([]T, 0, len(indexes)+len(passthrough))
	for _, i := range indexes {
		out = append(out, in[i])
	}
	for _, i := range passthrough {
		out = append(out, in[i])
	}
	return out
}
