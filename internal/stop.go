package internal

import (
	"github.com/swdunlop/overlap-go"
	"github.com/swdunlop/overlap-go/internal/kmp"
)

// NewStopFilter constructs a stop filter with the provided set of case sensitive stop strings.
func NewStopFilter(stops ...string) *StopFilter {
	f := &StopFilter{stops: make([]string, 0, len(stops))}
	for _, stop := range stops {
		if stop == "" {
			continue
		}
		f.stops = append(f.stops, stop)
	}
	return f
}

// A StopFilter buffers the end of a stream that may be the start of one of the stops provided to its constructor.
type StopFilter struct {
	stops  []string
	buffer string
}

// Filter will append content to its internal buffer and return the portion of the buffer that cannot contain any of
// its stops.  Filter will return true if the buffer contains any of its stops, false otherwise.  Once a stop has been
// fully matched, the content after it is discarded and the stop filter buffer is emptied.
func (f *StopFilter) Filter(content string) (string, bool) {
	if content == "" {
		return "", false
	}
	f.buffer += content

	// the earliest complete stop wins.
	found := -1
	for _, stop := range f.stops {
		n, pos := kmp.Search([]byte(stop), []byte(f.buffer))
		if n == len(stop) && (found < 0 || pos < found) {
			found = pos
		}
	}
	if found >= 0 {
		content := f.buffer[:found]
		f.buffer = ""
		return content, true
	}

	// hold back the longest tail of the buffer that could still become a stop.
	hold := len(f.buffer)
	for _, stop := range f.stops {
		if i := overlap.Index(f.buffer, stop); i < hold {
			hold = i
		}
	}
	content = f.buffer[:hold]
	f.buffer = f.buffer[hold:]
	return content, false
}

// String returns the content of the internal buffer, which might partially match one of the stops.
func (f *StopFilter) String() string {
	return f.buffer
}
