// Package join stitches streamed chunks of text back together, dropping the text that a chunk repeats from the end
// of the text before it.  This is common when a producer resends the tail of its previous output, such as sliding
// window transcription, models that echo context, or log followers that reconnect.
package join

import (
	"unicode/utf8"

	"github.com/swdunlop/overlap-go"
	"github.com/swdunlop/overlap-go/internal/kmp"
	"golang.org/x/text/unicode/norm"
)

// Merge concatenates parts, omitting the overlap between each part and the text accumulated before it.
func Merge(parts ...string) string {
	var out string
	for _, part := range parts {
		out += part[len(overlap.Overlap(out, part)):]
	}
	return out
}

// Tokens appends b to a, omitting the overlap between the end of a and the start of b.  Neither slice is altered.
func Tokens(a, b []int) []int {
	n := kmp.Overlap(a, b)
	out := make([]int, 0, len(a)+len(b)-n)
	out = append(out, a...)
	return append(out, b[n:]...)
}

// New constructs a Joiner with the provided options.
func New(options ...Option) *Joiner {
	j := &Joiner{cfg: config{
		window:     DefaultWindow,
		minOverlap: 1,
		find:       overlap.Index,
	}}
	for _, option := range options {
		option(&j.cfg)
	}
	return j
}

// DefaultWindow is the number of bytes retained by a Joiner unless the Window option is used.
const DefaultWindow = 4096

// A Joiner retains the tail of the text it has emitted so that it can recognize and drop text that is repeated at the
// start of the next chunk.  A Joiner is not safe for concurrent use; each stream should have its own.
type Joiner struct {
	cfg  config
	tail string
}

// Write returns the part of chunk that does not overlap with the retained tail, and retains it.  Write returns an
// empty string if chunk is entirely repeated text.
//
// Any prefix of chunk that matches the tail is treated as repeated, so a single character coincidence will be dropped
// unless MinOverlap is used to demand a longer match.
func (j *Joiner) Write(chunk string) string {
	if j.cfg.form != nil {
		chunk = j.cfg.form.String(chunk)
	}
	n := len(j.tail) - j.cfg.find(j.tail, chunk)
	if n < j.cfg.minOverlap {
		n = 0
	}
	fresh := chunk[n:]
	j.retain(fresh)
	return fresh
}

func (j *Joiner) retain(fresh string) {
	if fresh == `` {
		return
	}
	tail := j.tail + fresh
	if j.cfg.window > 0 && len(tail) > j.cfg.window {
		i := len(tail) - j.cfg.window
		for i < len(tail) && !utf8.RuneStart(tail[i]) {
			i++
		}
		tail = tail[i:]
	}
	j.tail = tail
}

// Tail returns the retained text, which is at most the window size and always starts on a rune boundary.
func (j *Joiner) Tail() string { return j.tail }

// Reset forgets the retained text, so the next chunk is returned unaltered.
func (j *Joiner) Reset() { j.tail = `` }

// An Option alters the behavior of a Joiner.
type Option func(*config)

type config struct {
	window     int
	minOverlap int
	form       *norm.Form
	find       overlap.Finder
}

// Window limits the retained tail to n bytes, which is also the longest overlap that can be recognized.  A window of
// zero or less retains everything.
func Window(n int) Option {
	return func(cfg *config) { cfg.window = n }
}

// MinOverlap causes overlaps shorter than n bytes to be ignored.  Values below one are treated as one, since an empty
// overlap is never a match.
func MinOverlap(n int) Option {
	if n < 1 {
		n = 1
	}
	return func(cfg *config) { cfg.minOverlap = n }
}

// Normalize applies a Unicode normalization form to each chunk before it is compared, so that text that is encoded
// differently by the producer is still recognized.  Chunks are normalized independently.
func Normalize(form norm.Form) Option {
	return func(cfg *config) { cfg.form = &form }
}

// Finder selects the function used to find overlaps, such as one returned by overlap.Lookup.  Nil is ignored.
func Finder(fn overlap.Finder) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.find = fn
		}
	}
}
