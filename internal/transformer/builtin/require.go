package builtin

// Require drops rows for which Present reports false.
type Require[T any] struct {
	Present func(T) bool
}

// Apply returns a new slice with the rows that pass Present.
func (r Require[T]) Apply(in []T) []T {
	if r.Present == nil {
		return in
	}
	out := make([]T, 0, len(in))
	for _, row := range in {
		if r.Present(row) {
			out = append(out, row)
		}
	}
	return out
}
