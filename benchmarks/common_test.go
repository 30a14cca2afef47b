// Package benchmarks provides comparative benchmarks of min-view recomputes
// against popular Go slice and stream processing libraries.
package benchmarks

import (
	"strconv"
)

// Test data sizes
const (
	SmallSize  = 100
	MediumSize = 1_000
	LargeSize  = 10_000
)

// generateInts creates a shuffled slice of integers for benchmarking.
func generateInts(n int) []int {
	data := make([]int, n)
	for i := range data {
		data[i] = (i * 7919) % n
	}
	return data
}

// generateStrings creates a slice of strings for benchmarking.
func generateStrings(n int) []string {
	data := make([]string, n)
	for i := range data {
		data[i] = "item-" + strconv.Itoa(i)
	}
	return data
}

// isEven returns true if the number is even.
func isEven(x int) bool {
	return x%2 == 0
}

// Every pipeline benchmark computes
// filter(isEven) -> sort ascending -> skip(pageSkip) -> take(pageSize).
const (
	pageSkip = 10
	pageSize = 20
)
