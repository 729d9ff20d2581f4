package deeplink

import (
	"sync"
	"sync/atomic"
)

// arrivals orders links across slots so a drain can pick the newest.
var arrivals atomic.Uint64

// Slot holds at most one pending link until the content view is ready for
// it. Set overwrites, Consume returns and clears in one step.
type Slot struct {
	mu  sync.Mutex
	url string
	seq uint64
}

func (s *Slot) Set(rawURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = rawURL
	s.seq = arrivals.Add(1)
}

func (s *Slot) Consume() (string, bool) {
	u, seq := s.take()
	return u, seq != 0
}

func (s *Slot) Peek() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url, s.seq != 0
}

func (s *Slot) Clear() {
	s.take()
}

func (s *Slot) take() (string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, seq := s.url, s.seq
	s.url, s.seq = "", 0
	return u, seq
}
