// Package xslices contains generic slice helpers.
package xslices

// Map returns a new slice with the results of applying f to every element.
func Map[S ~[]E, E, R any](s S, f func(E) R) []R {
	r := make([]R, len(s))
	for i, e := range s {
		r[i] = f(e)
	}
	return r
}

// Filter returns a new slice with the elements for which keep returns true.
func Filter[S ~[]E, E any](s S, keep func(E) bool) []E {
	r := make([]E, 0, len(s))
	for _, e := range s {
		if keep(e) {
			r = append(r, e)
		}
	}
	return r
}
