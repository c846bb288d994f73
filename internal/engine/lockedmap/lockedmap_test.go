package lockedmap

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_InsertTwiceKeepsFirst(t *testing.T) {
	m := New[int, string]()

	prev, existed := m.Insert(1, "foo")
	assert.False(t, existed)
	assert.Equal(t, "", prev)

	prev, existed = m.Insert(1, "bar")
	assert.True(t, existed)
	assert.Equal(t, "bar", prev, "rejected insert hands back the caller's value")

	got, ok := m.Get(1)
	require.True(t, ok)
	assert.Equal(t, "foo", got)
	assert.Equal(t, 1, m.Len())
}

func TestMap_GetMissing(t *testing.T) {
	m := NewStringMap[int]()
	_, ok := m.Get("absent")
	assert.False(t, ok)
	assert.True(t, m.IsEmpty())
}

func TestMap_LenCountsDistinctKeys(t *testing.T) {
	m := NewStringMap[int]()
	const n = 1000
	for i := 0; i < n; i++ {
		_, existed := m.Insert(fmt.Sprintf("key-%d", i), i)
		require.False(t, existed)
	}
	assert.Equal(t, n, m.Len())
	assert.False(t, m.IsEmpty())
}

func TestMap_EnsureComputesOnceWhenUncontended(t *testing.T) {
	m := New[string, int]()
	calls := 0
	compute := func() int {
		calls++
		return 42
	}

	assert.Equal(t, 42, m.Ensure("answer", compute))
	assert.Equal(t, 42, m.Ensure("answer", compute))
	assert.Equal(t, 1, calls)
}

func TestMap_EnsureReturnsExistingValue(t *testing.T) {
	m := New[string, int]()
	m.Insert("k", 1)
	got := m.Ensure("k", func() int {
		t.Fatal("compute must not run for a present key")
		return 0
	})
	assert.Equal(t, 1, got)
}

func TestMap_ConcurrentEnsureAgreesOnWinner(t *testing.T) {
	for round := 0; round < 50; round++ {
		m := New[string, *int]()
		var computed atomic.Int32

		const workers = 16
		results := make([]*int, workers)
		var start, done sync.WaitGroup
		start.Add(1)
		for i := 0; i < workers; i++ {
			done.Add(1)
			go func(i int) {
				defer done.Done()
				start.Wait()
				results[i] = m.Ensure("shared", func() *int {
					computed.Add(1)
					v := i
					return &v
				})
			}(i)
		}
		start.Done()
		done.Wait()

		require.GreaterOrEqual(t, computed.Load(), int32(1))
		stored, ok := m.Get("shared")
		require.True(t, ok)
		for i, r := range results {
			assert.Same(t, stored, r, "worker %d saw a different winner", i)
		}
		assert.Equal(t, 1, m.Len())
	}
}

func TestMap_ConcurrentInsertDistinctKeys(t *testing.T) {
	m := New[int, int]()
	const workers = 8
	const perWorker = 500

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				m.Insert(w*perWorker+i, i)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, m.Len())
}

func TestMap_CollidingHashesStayDistinct(t *testing.T) {
	m := NewWithHasher[string, int](func(string) uint64 { return 7 })
	m.Insert("a", 1)
	m.Insert("b", 2)

	a, _ := m.Get("a")
	b, _ := m.Get("b")
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
	assert.Equal(t, 2, m.Len())
}

func TestMap_Iteration(t *testing.T) {
	m := NewStringMap[int]()
	m.Insert("x", 1)
	m.Insert("y", 2)
	m.Insert("z", 3)

	keys := slices.Sorted(m.Keys())
	assert.Equal(t, []string{"x", "y", "z"}, keys)

	values := slices.Sorted(m.Values())
	assert.Equal(t, []int{1, 2, 3}, values)

	seen := map[string]int{}
	for k, v := range m.All() {
		seen[k] = v
	}
	assert.Equal(t, map[string]int{"x": 1, "y": 2, "z": 3}, seen)
}

func TestMap_IterationStopsEarly(t *testing.T) {
	m := New[int, int]()
	for i := 0; i < 10; i++ {
		m.Insert(i, i)
	}
	count := 0
	for range m.All() {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}

func TestMap_InsertDuringIteration(t *testing.T) {
	m := New[int, int]()
	m.Insert(1, 1)
	for k := range m.Keys() {
		m.Insert(k+100, k)
	}
	_, ok := m.Get(101)
	assert.True(t, ok)
}

func TestMap_Clear(t *testing.T) {
	m := NewStringMap[int](WithMetrics())
	m.Insert("a", 1)
	m.Insert("b", 2)
	m.Clear()

	assert.True(t, m.IsEmpty())
	_, ok := m.Get("a")
	assert.False(t, ok)

	_, existed := m.Insert("a", 3)
	assert.False(t, existed, "cleared keys accept a fresh first value")
	got, _ := m.Get("a")
	assert.Equal(t, 3, got)
}
