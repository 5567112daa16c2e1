package worker

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/swdunlop/overlap-go/join"
)

// sessions holds the joiners of up to max sessions, forgetting the least recently used one when a new session would
// exceed that.  It is only used by the worker's request loop.
type sessions struct {
	cache    *lru.Cache[string, *join.Joiner]
	evicted  string
	removing bool
}

func newSessions(max int) (*sessions, error) {
	s := new(sessions)
	var err error
	s.cache, err = lru.NewWithEvict[string, *join.Joiner](max, s.forgot)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// forgot is called by the cache when it drops a session, including by remove.
func (s *sessions) forgot(id string, _ *join.Joiner) {
	if !s.removing {
		s.evicted = id
	}
}

// get returns the joiner for id, creating it with fn if needed.  If adding it forgot another session, that session's
// id is returned as evicted.
func (s *sessions) get(id string, fn func() (*join.Joiner, error)) (j *join.Joiner, evicted string, err error) {
	if j, ok := s.cache.Get(id); ok {
		return j, ``, nil
	}
	j, err = fn()
	if err != nil {
		return nil, ``, err
	}
	s.evicted = ``
	s.cache.Add(id, j)
	return j, s.evicted, nil
}

// remove forgets the session, returning true if it existed.
func (s *sessions) remove(id string) bool {
	s.removing = true
	defer func() { s.removing = false }()
	return s.cache.Remove(id)
}

func (s *sessions) len() int { return s.cache.Len() }
