// Package diagnostics collects user-facing problems found while building type
// forms. Reporting never interrupts evaluation: every report yields a
// fallback type so the caller can keep going.
package diagnostics

import (
	"fmt"
	"sort"
	"sync"

	"typewalk/internal/engine/ast"
	"typewalk/internal/engine/types"
	"typewalk/internal/shared/observability"
)

type ErrorKind int

const (
	BadUnpacking ErrorKind = iota
	InvalidArgument
	InvalidLiteral
	BadSpecialization
	InvalidTypeVarTuple
	InvalidAnnotation
	InvalidSyntax
	UnknownName
)

var errorKindNames = [...]string{
	BadUnpacking:        "bad-unpacking",
	InvalidArgument:     "invalid-argument",
	InvalidLiteral:      "invalid-literal",
	BadSpecialization:   "bad-specialization",
	InvalidTypeVarTuple: "invalid-type-var-tuple",
	InvalidAnnotation:   "invalid-annotation",
	InvalidSyntax:       "invalid-syntax",
	UnknownName:         "unknown-name",
}

func (k ErrorKind) String() string {
	if int(k) < 0 || int(k) >= len(errorKindNames) {
		return "unknown"
	}
	return errorKindNames[k]
}

type Diagnostic struct {
	Range   ast.TextRange
	Kind    ErrorKind
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s [%s] %s", d.Range, d.Kind, d.Message)
}

// Collector accumulates diagnostics for one file. Safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	path  string
	items []Diagnostic
}

func NewCollector(path string) *Collector {
	return &Collector{path: path}
}

func (c *Collector) Path() string {
	return c.path
}

func (c *Collector) Add(rng ast.TextRange, kind ErrorKind, msg string) {
	c.mu.Lock()
	c.items = append(c.items, Diagnostic{Range: rng, Kind: kind, Message: msg})
	c.mu.Unlock()
	observability.DiagnosticsTotal.WithLabelValues(kind.String()).Inc()
}

// Error records a diagnostic and returns the error-marked Any to use in place
// of the offending type.
func (c *Collector) Error(rng ast.TextRange, kind ErrorKind, msg string) types.Type {
	c.Add(rng, kind, msg)
	return types.AnyErrorType()
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Diagnostics returns a copy ordered by start offset, then report order.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	out := append([]Diagnostic(nil), c.items...)
	c.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Range.Start < out[j].Range.Start
	})
	return out
}

// Absorb moves every diagnostic of other into c, anchored at rng. It is used
// when a nested evaluation has ranges that do not map onto this file.
func (c *Collector) Absorb(other *Collector, rng ast.TextRange) {
	moved := other.Diagnostics()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range moved {
		d.Range = rng
		c.items = append(c.items, d)
	}
}
