package model

import (
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// DefaultInternShards is the default number of intern pool shards.
const DefaultInternShards = 64

// InternStats contains intern pool counters.
type InternStats struct {
	Distinct int    // Number of canonical values held
	Hits     uint64 // Lookups answered from the pool
	Misses   uint64 // Lookups that added a new value
}

type internShard struct {
	mu     sync.RWMutex
	values map[string]string
}

// InternPool decodes raw field bytes and deduplicates the result, so equal field
// values across the whole input share one canonical string.
//
// The pool is split into shards selected by the xxhash of the raw bytes; each shard
// has its own lock, so workers interning unrelated values rarely contend.
//
// Thread Safety: All methods are safe for concurrent use by multiple goroutines.
type InternPool struct {
	shards []internShard
	mask   uint64
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewInternPool creates a pool. shards is rounded up to a power of two; values
// below one select DefaultInternShards.
func NewInternPool(shards int) *InternPool {
	if shards <= 0 {
		shards = DefaultInternShards
	}
	n := 1
	for n < shards {
		n <<= 1
	}

	p := &InternPool{
		shards: make([]internShard, n),
		mask:   uint64(n - 1),
	}
	for i := range p.shards {
		p.shards[i].values = make(map[string]string)
	}
	return p
}

// Intern returns the canonical decoded string for b. Calls with byte-for-byte
// identical input return the same string instance.
func (p *InternPool) Intern(b []byte) string {
	if len(b) == 0 {
		return ""
	}

	s := &p.shards[xxhash.Sum64(b)&p.mask]

	s.mu.RLock()
	v, ok := s.values[string(b)]
	s.mu.RUnlock()
	if ok {
		p.hits.Add(1)
		return v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[string(b)]; ok {
		p.hits.Add(1)
		return v
	}

	key := string(b)
	v = key
	if !utf8.ValidString(key) {
		v = strings.ToValidUTF8(key, string(utf8.RuneError))
	}
	s.values[key] = v
	p.misses.Add(1)
	return v
}

// Len returns the number of distinct values in the pool.
func (p *InternPool) Len() int {
	n := 0
	for i := range p.shards {
		s := &p.shards[i]
		s.mu.RLock()
		n += len(s.values)
		s.mu.RUnlock()
	}
	return n
}

// Stats returns a snapshot of the pool counters.
func (p *InternPool) Stats() InternStats {
	return InternStats{
		Distinct: p.Len(),
		Hits:     p.hits.Load(),
		Misses:   p.misses.Load(),
	}
}
