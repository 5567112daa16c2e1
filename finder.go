package overlap

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/swdunlop/overlap-go/internal/kmp"
)

// A Finder returns the offset into left where its overlap with right begins, or len(left) if there is none.  Every
// registered Finder agrees with Index for valid UTF-8 input.
type Finder func(left, right string) int

// Register will register a named Finder.  Register panics if the name is already in use.
func Register(name string, fn Finder) {
	_, dup := finders[name]
	if dup {
		panic(fmt.Errorf(`%w, %q`, errDuplicateFinder{}, name))
	}
	finders[name] = fn
}

// Lookup returns the named Finder.  An empty name returns the default finder, Index.
func Lookup(name string) (Finder, error) {
	if name == `` {
		return Index, nil
	}
	fn, ok := finders[name]
	if !ok {
		return nil, fmt.Errorf(`%w, %q`, ErrUnknownFinder, name)
	}
	return fn, nil
}

// Finders returns the names of the registered finders, sorted.
func Finders() []string {
	names := make([]string, 0, len(finders))
	for name := range finders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// finders maps finder names to their functions.
var finders = map[string]Finder{
	`scan`: Index,
	`kmp`:  IndexKMP,
}

// ErrUnknownFinder is returned by Lookup when an unknown finder is requested.
var ErrUnknownFinder error = errUnknownFinder{}

type errUnknownFinder struct{}

// Error implements the error interface by returning a static string, "unknown finder"
func (errUnknownFinder) Error() string { return "unknown finder" }

// errDuplicateFinder is raised when a finder is registered with a name that is already in use.
type errDuplicateFinder struct{}

// Error implements the error interface by returning a static string, "duplicate finder"
func (errDuplicateFinder) Error() string { return "duplicate finder" }

// IndexKMP is Index in O(len(left)+len(right)) time, at the cost of allocating a table the size of right.  Overlaps
// that would start inside a rune of left are skipped in favor of the next shorter one.
func IndexKMP(left, right string) int {
	if left == `` || right == `` {
		return len(left)
	}
	n := kmp.OverlapFunc([]byte(left), []byte(right), func(m int) bool {
		return utf8.RuneStart(left[len(left)-m])
	})
	return len(left) - n
}
