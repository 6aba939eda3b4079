// Package transformer applies ordered batch transformations to parsed rows.
package transformer

// Transformer rewrites a batch. Implementations must not modify the input
// slice's backing array.
type Transformer[T any] interface {
	Apply([]T) []T
}

// Chain is an ordered list of transformers.
type Chain[T any] []Transformer[T]

func (c Chain[T]) Apply(in []T) []T {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
