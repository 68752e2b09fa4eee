package openlibrary

import (
	"context"
	"strings"
	"sync"

	"BookShelf/internal/catalog"
)

// Session keeps one generation counter per search box (catalog.SearchBox):
// only the most recently started search of a box may deliver results. A
// response that lands after a newer search in the same box began is dropped
// and reported as catalog.ErrStaleSearch. Searches in other boxes never
// interfere.
type Session struct {
	searcher catalog.Searcher
	metrics  *Metrics

	mu    sync.Mutex
	boxes map[string]*box
}

type box struct {
	gen      uint64
	inflight int
}

func NewSession(s catalog.Searcher, metrics *Metrics) *Session {
	return &Session{
		searcher: s,
		metrics:  metrics,
		boxes:    make(map[string]*box),
	}
}

func (s *Session) Search(ctx context.Context, query string) ([]catalog.Fields, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	key := catalog.SearchBox(ctx)
	gen := s.begin(key)
	res, err := s.searcher.Search(ctx, query)

	if !s.end(key, gen) {
		s.metrics.observe(outcomeStale)
		return nil, catalog.ErrStaleSearch
	}
	return res, err
}

func (s *Session) begin(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.boxes[key]
	if !ok {
		b = &box{}
		s.boxes[key] = b
	}
	b.gen++
	b.inflight++
	return b.gen
}

// end reports whether gen is still the newest search of the box. Boxes with
// nothing in flight are forgotten.
func (s *Session) end(key string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.boxes[key]
	current := b.gen == gen
	b.inflight--
	if b.inflight == 0 {
		delete(s.boxes, key)
	}
	return current
}
