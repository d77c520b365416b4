// Package cow provides copy-on-write slice updates. The input slice is never modified.
package cow

// Replace returns a copy of s with s[i] set to v. i must be in range.
func Replace[T any](s []T, i int, v T) []T {
	out := make([]T, len(s))
	copy(out, s)
	out[i] = v
	return out
}

// Update returns a copy of s with s[i] replaced by fn(s[i]). i must be in range.
func Update[T any](s []T, i int, fn func(T) T) []T {
	return Replace(s, i, fn(s[i]))
}

// Remove returns a copy of s without element i, later elements shifted down. i must be in range.
func Remove[T any](s []T, i int) []T {
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

func InRange[T any](s []T, i int) bool {
	return i >= 0 && i < len(s)
}
