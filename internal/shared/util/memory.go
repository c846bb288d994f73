package util

import (
	"log/slog"
	"runtime"
)

// MemorySnapshot is the part of runtime.MemStats worth logging next to
// cache sizes.
type MemorySnapshot struct {
	HeapAllocMB uint64
	HeapObjects uint64
	NumGC       uint32
}

// ReadMemory samples the runtime. It stops the world briefly, so callers use
// it at batch boundaries rather than per file.
func ReadMemory() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemorySnapshot{
		HeapAllocMB: m.HeapAlloc / 1024 / 1024,
		HeapObjects: m.HeapObjects,
		NumGC:       m.NumGC,
	}
}

func (m MemorySnapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("heap_mb", m.HeapAllocMB),
		slog.Uint64("heap_objects", m.HeapObjects),
		slog.Uint64("gc_cycles", uint64(m.NumGC)),
	)
}
