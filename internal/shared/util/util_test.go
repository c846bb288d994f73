package util

import (
	"log/slog"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePatternPath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty", input: "", expected: ""},
		{name: "Dot", input: ".", expected: ""},
		{name: "Trim", input: "  ./foo/bar  ", expected: "foo/bar"},
		{name: "Relative", input: "foo/../bar", expected: "bar"},
		{name: "Backslashes", input: `pkg\sub\mod.py`, expected: "pkg/sub/mod.py"},
		{name: "Glob", input: "./src/**.py", expected: "src/**.py"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, NormalizePatternPath(tc.input))
		})
	}
}

func TestReadMemory(t *testing.T) {
	runtime.GC()
	snap := ReadMemory()
	assert.Positive(t, snap.HeapObjects)
	assert.Positive(t, snap.NumGC)
	assert.Less(t, snap.HeapAllocMB, uint64(1<<20))

	v := snap.LogValue()
	require.Equal(t, slog.KindGroup, v.Kind())
	var keys []string
	for _, attr := range v.Group() {
		keys = append(keys, attr.Key)
	}
	assert.Equal(t, []string{"heap_mb", "heap_objects", "gc_cycles"}, keys)
}
