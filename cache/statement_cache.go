package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Konsultn-Engineering/xqlorm/utils"
)

const DefaultSize = 256

// StatementCache keeps compiled statements keyed by the dialect they target
// and their source text. Cached values are shared and must not be mutated.
type StatementCache[V any] struct {
	cache  *lru.Cache[uint64, V]
	hits   atomic.Uint64
	misses atomic.Uint64
	evicts atomic.Uint64
}

// Stats reports cache effectiveness.
type Stats struct {
	Size      int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

func NewStatementCache[V any](size int) (*StatementCache[V], error) {
	if size <= 0 {
		size = DefaultSize
	}
	s := &StatementCache[V]{}
	c, err := lru.NewWithEvict(size, func(uint64, V) {
		s.evicts.Add(1)
	})
	if err != nil {
		return nil, err
	}
	s.cache = c
	return s, nil
}

func (s *StatementCache[V]) Get(dialect, source string) (V, bool) {
	v, ok := s.cache.Get(utils.Fingerprint(dialect, source))
	if ok {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
	return v, ok
}

func (s *StatementCache[V]) Set(dialect, source string, v V) {
	s.cache.Add(utils.Fingerprint(dialect, source), v)
}

func (s *StatementCache[V]) Len() int {
	return s.cache.Len()
}

func (s *StatementCache[V]) Purge() {
	s.cache.Purge()
}

func (s *StatementCache[V]) Stats() Stats {
	return Stats{
		Size:      s.cache.Len(),
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evicts.Load(),
	}
}
