package filter

// Take keeps only the first n items.
// If n <= 0, the result is empty; if n >= len(items), items are kept whole.
func Take[T any](items []T, n int) []T {
	if n <= 0 {
		return items[:0:0]
	}
	if n >= len(items) {
		return items
	}
	return items[:n:n]
}

// Skip drops the first n items and keeps the rest.
// If n <= 0, items are kept whole; if n >= len(items), the result is empty.
func Skip[T any](items []T, n int) []T {
	if n <= 0 {
		return items
	}
	if n >= len(items) {
		return items[:0:0]
	}
	return items[n:]
}

// Step keeps every nth item starting with the first one (indexes 0, n,
// 2n, ...). If n <= 1, items are kept whole.
func Step[T any](items []T, n int) []T {
	if n <= 1 {
		return items
	}
	if n >= len(items) {
		return Take(items, 1)
	}
	out := make([]T, 0, (len(items)-1)/n+1)
	for i := 0; i < len(items); i += n {
		out = append(out, items[i])
	}
	return out
}
