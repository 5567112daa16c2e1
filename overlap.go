// Package overlap finds the largest substring that is both a suffix of one string and a prefix of another.  This is
// the boundary shared by two chunks of a text stream, and trimming it is how chunks are joined without duplication.
//
// The overlap is only evaluated in one direction, so that it is always clear which input the result belongs to.
// Callers that want both directions call the function twice with the arguments swapped:
//
//	overlap.Overlap("abcd", "cdab") // "cd"
//	overlap.Overlap("cdab", "abcd") // "ab"
//
// Results are always slices of an input, never copies, and always begin and end on a rune boundary when the inputs are
// valid UTF-8.
package overlap

import (
	"bytes"
	"unicode/utf8"
)

// Index returns the offset into left where its overlap with right begins, or len(left) if there is no overlap.
//
// Offsets are tried from the start of left, so the first match is the longest one.  Only offsets that start a rune
// are candidates; since the matched suffix of left is made of whole runes, the same length is also a rune boundary in
// right.
func Index(left, right string) int {
	n := len(left)
	for i := 0; i < n; i++ {
		if !utf8.RuneStart(left[i]) {
			continue
		}
		m := n - i
		if m > len(right) {
			continue
		}
		if left[i:] == right[:m] {
			return i
		}
	}
	return n
}

// Overlap returns the largest suffix of left that is also a prefix of right.  The result is a slice of left; it is
// empty if either string is empty or nothing overlaps.
func Overlap(left, right string) string {
	return left[Index(left, right):]
}

// End returns the overlap between the end of self and the start of other, as a slice of self.  This is the same as
// Overlap.
func End(self, other string) string {
	return self[Index(self, other):]
}

// Start returns the overlap between the start of self and the end of other, as a slice of self.
func Start(self, other string) string {
	return self[:len(other)-Index(other, self)]
}

// IndexBytes is Index for byte slices containing UTF-8 text.
func IndexBytes(left, right []byte) int {
	n := len(left)
	for i := 0; i < n; i++ {
		if !utf8.RuneStart(left[i]) {
			continue
		}
		m := n - i
		if m > len(right) {
			continue
		}
		if bytes.Equal(left[i:], right[:m]) {
			return i
		}
	}
	return n
}

// OverlapBytes is Overlap for byte slices; the result aliases left.
func OverlapBytes(left, right []byte) []byte {
	return left[IndexBytes(left, right):]
}

// EndBytes is End for byte slices; the result aliases self.
func EndBytes(self, other []byte) []byte {
	return self[IndexBytes(self, other):]
}

// StartBytes is Start for byte slices; the result aliases self.
func StartBytes(self, other []byte) []byte {
	return self[:len(other)-IndexBytes(other, self)]
}

// Interface describes text that can report its overlap with other text of the same type.  Both methods return a
// slice of the receiver.
type Interface[T any] interface {
	// OverlapStart returns the prefix of the receiver that is also a suffix of other.
	OverlapStart(other T) T

	// OverlapEnd returns the suffix of the receiver that is also a prefix of other.
	OverlapEnd(other T) T
}

// Text is a string that implements Interface.
type Text string

var _ Interface[Text] = Text(``)

// OverlapStart implements Interface using Start.
func (t Text) OverlapStart(other Text) Text {
	return Text(Start(string(t), string(other)))
}

// OverlapEnd implements Interface using End.
func (t Text) OverlapEnd(other Text) Text {
	return Text(End(string(t), string(other)))
}

// String implements fmt.Stringer.
func (t Text) String() string { return string(t) }
