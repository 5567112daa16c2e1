// Package kmp implements Knuth-Morris-Pratt searches over slices of comparable values.
package kmp

// Overlap returns the length of the longest suffix of left that is also a prefix of right in O(n+m) time.  Returns 0
// if either slice is empty or nothing overlaps.
func Overlap[T comparable](left, right []T) int {
	return OverlapFunc(left, right, nil)
}

// OverlapFunc is like Overlap, but only returns lengths accepted by the accept function, which may be nil.  If the
// longest overlap is rejected, shorter overlaps are tried in descending order until one is accepted; zero is never
// passed to accept.
func OverlapFunc[T comparable](left, right []T, accept func(n int) bool) int {
	if len(left) == 0 || len(right) == 0 {
		return 0
	}
	table := buildKMP(right)
	j := 0
	for _, v := range left {
		for j > 0 && (j == len(right) || v != right[j]) {
			j = table[j-1]
		}
		if v == right[j] {
			j++
		}
	}
	// every shorter overlap is a border of right[:j], so the table lists them longest first.
	for j > 0 && accept != nil && !accept(j) {
		j = table[j-1]
	}
	return j
}

// Search returns the size and offset of the largest prefix of pattern in space in O(n) time.
// Returns (0, 0) if no prefix is found.
func Search[T comparable](pattern, space []T) (max, pos int) {
	patternSz, spaceSz := len(pattern), len(space)
	if patternSz == 0 || spaceSz == 0 {
		return
	}

	table := buildKMP(pattern)
	for i, j := 0, 0; i < spaceSz; i++ {
		for j > 0 && space[i] != pattern[j] {
			j = table[j-1]
		}
		if space[i] == pattern[j] {
			j++
		}
		if j > max {
			max, pos = j, i-j+1
		}
		if j == patternSz {
			return
		}
	}
	return
}

// buildKMP returns the prefix function of pattern: table[i] is the length of the longest proper prefix of
// pattern[:i+1] that is also its suffix.
func buildKMP[T comparable](pattern []T) []int {
	n := len(pattern)
	table := make([]int, n)
	for i := 1; i < n; i++ {
		j := table[i-1]
		for j > 0 && pattern[i] != pattern[j] {
			j = table[j-1]
		}
		if pattern[i] == pattern[j] {
			j++
		}
		table[i] = j
	}
	return table
}
