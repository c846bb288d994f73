package parser

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParserPool_LeaseAndRelease(t *testing.T) {
	pool := NewParserPool(PythonLanguage())

	sp := pool.lease()
	require.NotNil(t, sp)
	assert.Equal(t, 1, pool.Leased())

	pool.release(sp)
	assert.Zero(t, pool.Leased())

	// Releasing nothing is a no-op.
	pool.release(nil)
	assert.Zero(t, pool.Leased())
}

func TestParserPool_Parse(t *testing.T) {
	pool := NewParserPool(PythonLanguage())

	tree, err := pool.Parse([]byte("def main() -> None:\n    pass\n"))
	require.NoError(t, err)
	defer tree.Close()

	root := tree.RootNode()
	require.NotNil(t, root)
	assert.False(t, root.HasError())
	assert.Equal(t, "module", root.Kind())
	assert.Zero(t, pool.Leased())
}

func TestParserPool_ConcurrentParses(t *testing.T) {
	pool := NewParserPool(PythonLanguage())
	src := []byte("x: int = 1\n")

	const goroutines = 20
	const iters = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iters; j++ {
				tree, err := pool.Parse(src)
				if !assert.NoError(t, err) {
					return
				}
				tree.Close()
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, pool.Leased())
}

func TestParserPool_LanguageRestoredAfterReset(t *testing.T) {
	pool := NewParserPool(PythonLanguage())

	sp := pool.lease()
	sp.Reset()
	pool.release(sp)

	tree, err := pool.Parse([]byte("import os\n"))
	require.NoError(t, err)
	defer tree.Close()
	assert.False(t, tree.RootNode().HasError())
}

func TestParserPool_MalformedInputStillParses(t *testing.T) {
	// Syntax errors are marked inside the tree rather than failing Parse.
	pool := NewParserPool(PythonLanguage())
	tree, err := pool.Parse([]byte("def (:\n"))
	require.NoError(t, err)
	defer tree.Close()
	assert.True(t, tree.RootNode().HasError())
}
