// Package lockedmap provides a sharded concurrent map with first-writer-wins
// inserts, shared by the analysis workers to memoize per-key results.
package lockedmap

import (
	"hash/maphash"
	"iter"
	"sync"
	"sync/atomic"

	"typewalk/internal/shared/observability"

	"github.com/cespare/xxhash/v2"
)

const shardBits = 6

// ShardCount is the fixed number of independently locked shards.
const ShardCount = 1 << shardBits

// Hasher hashes a key. Equal keys must hash equally.
type Hasher[K comparable] func(K) uint64

type entry[K comparable, V any] struct {
	hash  uint64
	key   K
	value V
}

type shard[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]*entry[K, V]
}

// Map is safe for concurrent use. Once a value is stored for a key it is never
// replaced; later inserts for that key are rejected until Clear.
type Map[K comparable, V any] struct {
	hash    Hasher[K]
	shards  [ShardCount]shard[K, V]
	count   atomic.Int64
	metrics bool
}

type Option func(*options)

type options struct {
	metrics bool
}

// WithMetrics records insert/lookup outcomes in the shared prometheus counters.
func WithMetrics() Option {
	return func(o *options) { o.metrics = true }
}

// New creates a map hashing keys with hash/maphash under a per-map seed.
func New[K comparable, V any](opts ...Option) *Map[K, V] {
	seed := maphash.MakeSeed()
	return NewWithHasher[K, V](func(k K) uint64 {
		return maphash.Comparable(seed, k)
	}, opts...)
}

// NewStringMap creates a map for string keys hashed with xxhash.
func NewStringMap[V any](opts ...Option) *Map[string, V] {
	return NewWithHasher[string, V](xxhash.Sum64String, opts...)
}

func NewWithHasher[K comparable, V any](hash Hasher[K], opts ...Option) *Map[K, V] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	m := &Map[K, V]{hash: hash, metrics: o.metrics}
	for i := range m.shards {
		m.shards[i].entries = make(map[K]*entry[K, V])
	}
	return m
}

func (m *Map[K, V]) shardFor(hash uint64) *shard[K, V] {
	// The top bits are the best mixed for both hashers in use.
	return &m.shards[hash>>(64-shardBits)]
}

// Insert stores value if key is absent and returns (zero, false). If key is
// already present the map is left unchanged and the caller's own value is
// handed back with true.
func (m *Map[K, V]) Insert(key K, value V) (V, bool) {
	if _, stored := m.insert(m.hash(key), key, value); !stored {
		return value, true
	}
	var zero V
	return zero, false
}

// insert returns the entry that ends up in the map and whether it is ours.
func (m *Map[K, V]) insert(hash uint64, key K, value V) (*entry[K, V], bool) {
	s := m.shardFor(hash)
	s.mu.Lock()
	if existing, ok := s.entries[key]; ok {
		s.mu.Unlock()
		m.observeInsert(false)
		return existing, false
	}
	e := &entry[K, V]{hash: hash, key: key, value: value}
	s.entries[key] = e
	m.count.Add(1)
	s.mu.Unlock()
	m.observeInsert(true)
	return e, true
}

func (m *Map[K, V]) lookup(hash uint64, key K) (*entry[K, V], bool) {
	s := m.shardFor(hash)
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if m.metrics {
		if ok {
			observability.CacheLookupsTotal.WithLabelValues("hit").Inc()
		} else {
			observability.CacheLookupsTotal.WithLabelValues("miss").Inc()
		}
	}
	return e, ok
}

func (m *Map[K, V]) Get(key K) (V, bool) {
	e, ok := m.lookup(m.hash(key), key)
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Ensure returns the value stored for key, computing and inserting it when
// absent. compute runs without any lock held, so under contention it may run
// in several goroutines; only one result is kept and every caller receives it.
func (m *Map[K, V]) Ensure(key K, compute func() V) V {
	hash := m.hash(key)
	if e, ok := m.lookup(hash, key); ok {
		return e.value
	}
	e, stored := m.insert(hash, key, compute())
	if !stored && m.metrics {
		observability.CacheEnsureRacesTotal.Inc()
	}
	return e.value
}

func (m *Map[K, V]) Len() int {
	return int(m.count.Load())
}

func (m *Map[K, V]) IsEmpty() bool {
	return m.Len() == 0
}

// All iterates every entry in no particular order. Each shard is snapshotted
// before its entries are yielded, so the loop body may use the map freely.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i := range m.shards {
			for _, e := range m.snapshot(&m.shards[i]) {
				if !yield(e.key, e.value) {
					return
				}
			}
		}
	}
}

func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range m.All() {
			if !yield(k) {
				return
			}
		}
	}
}

func (m *Map[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range m.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// Clear drops every entry. Individual entries are never removed.
func (m *Map[K, V]) Clear() {
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		m.count.Add(-int64(len(s.entries)))
		s.entries = make(map[K]*entry[K, V])
		s.mu.Unlock()
	}
}

func (m *Map[K, V]) snapshot(s *shard[K, V]) []*entry[K, V] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entry[K, V], 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}

func (m *Map[K, V]) observeInsert(stored bool) {
	if !m.metrics {
		return
	}
	if stored {
		observability.CacheInsertsTotal.WithLabelValues("stored").Inc()
	} else {
		observability.CacheInsertsTotal.WithLabelValues("rejected").Inc()
	}
}
