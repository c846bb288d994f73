// Package bindings is the per-module binding graph: an append-only arena of
// keys and the bindings that produce their values. Edges between bindings are
// arena indices, so cycles are harmless to hold and are bounded by the walker.
package bindings

import (
	"fmt"
	"iter"

	"typewalk/internal/core/errors"
)

// Bindings is immutable once built and safe to query from many goroutines.
type Bindings struct {
	module    string
	keys      []Key
	values    []Binding
	index     map[Key]Idx
	functions []FunctionBinding
	classes   []BindingClass
	legacy    []LegacyTypeParam
}

func (b *Bindings) Module() string {
	return b.module
}

func (b *Bindings) Len() int {
	return len(b.keys)
}

func (b *Bindings) KeyToIdx(key Key) (Idx, bool) {
	idx, ok := b.index[key]
	return idx, ok
}

// IdxToKey panics on an index not issued by this arena; indices are never
// forged by callers.
func (b *Bindings) IdxToKey(idx Idx) Key {
	return b.keys[idx]
}

func (b *Bindings) Get(idx Idx) Binding {
	return b.values[idx]
}

func (b *Bindings) Function(idx FunctionIdx) FunctionBinding {
	return b.functions[idx]
}

func (b *Bindings) Class(idx ClassIdx) BindingClass {
	return b.classes[idx]
}

func (b *Bindings) LegacyTypeParam(idx LegacyTypeParamIdx) LegacyTypeParam {
	return b.legacy[idx]
}

// Keys yields every key with its index in insertion order.
func (b *Bindings) Keys() iter.Seq2[Idx, Key] {
	return func(yield func(Idx, Key) bool) {
		for i, k := range b.keys {
			if !yield(Idx(i), k) {
				return
			}
		}
	}
}

// Builder assembles a Bindings arena. It is not safe for concurrent use. The
// first error is kept and reported by Build.
type Builder struct {
	out *Bindings
	err error
}

func NewBuilder(module string) *Builder {
	return &Builder{out: &Bindings{module: module, index: make(map[Key]Idx)}}
}

// Reserve allocates an index for key before its binding is known, so that
// later bindings can point at it. Reserving a known key returns its index.
func (bb *Builder) Reserve(key Key) Idx {
	if idx, ok := bb.out.index[key]; ok {
		return idx
	}
	idx := Idx(len(bb.out.keys))
	bb.out.keys = append(bb.out.keys, key)
	bb.out.values = append(bb.out.values, nil)
	bb.out.index[key] = idx
	return idx
}

// Insert adds key with its binding. A key may be bound only once.
func (bb *Builder) Insert(key Key, binding Binding) Idx {
	idx := bb.Reserve(key)
	bb.Set(idx, binding)
	return idx
}

func (bb *Builder) Set(idx Idx, binding Binding) {
	if int(idx) >= len(bb.out.values) {
		bb.fail(errors.Newf(errors.CodeInternal, "binding index %d out of range", idx))
		return
	}
	if bb.out.values[idx] != nil {
		bb.fail(errors.Newf(errors.CodeConflict, "key %s is already bound", bb.out.keys[idx]))
		return
	}
	bb.out.values[idx] = binding
}

func (bb *Builder) Lookup(key Key) (Idx, bool) {
	return bb.out.KeyToIdx(key)
}

func (bb *Builder) AddFunction(fn FunctionBinding) FunctionIdx {
	bb.out.functions = append(bb.out.functions, fn)
	return FunctionIdx(len(bb.out.functions) - 1)
}

func (bb *Builder) AddClass(cls BindingClass) ClassIdx {
	bb.out.classes = append(bb.out.classes, cls)
	return ClassIdx(len(bb.out.classes) - 1)
}

func (bb *Builder) AddLegacyTypeParam(p LegacyTypeParam) LegacyTypeParamIdx {
	bb.out.legacy = append(bb.out.legacy, p)
	return LegacyTypeParamIdx(len(bb.out.legacy) - 1)
}

func (bb *Builder) fail(err error) {
	if bb.err == nil {
		bb.err = err
	}
}

// Build validates the arena and freezes it. Every reserved key must be bound
// and every edge must point inside the arena.
func (bb *Builder) Build() (*Bindings, error) {
	if bb.err != nil {
		return nil, bb.err
	}
	out := bb.out
	n := Idx(len(out.keys))
	for i, binding := range out.values {
		if binding == nil {
			return nil, errors.Newf(errors.CodeInternal, "key %s was reserved but never bound", out.keys[i])
		}
		if err := checkEdges(out, binding, n); err != nil {
			return nil, errors.AddContext(err, "key", out.keys[i].String())
		}
	}
	bb.out = nil
	return out, nil
}

func checkEdges(b *Bindings, binding Binding, n Idx) error {
	inRange := func(idx Idx) error {
		if idx >= n {
			return errors.New(errors.CodeInternal, fmt.Sprintf("edge to index %d outside arena of %d", idx, n))
		}
		return nil
	}
	switch v := binding.(type) {
	case *Forward:
		return inRange(v.To)
	case *Narrow:
		return inRange(v.To)
	case *Pin:
		return inRange(v.To)
	case *PinUpstream:
		return inRange(v.To)
	case *Default:
		return inRange(v.To)
	case *Phi:
		for _, idx := range v.Branches {
			if err := inRange(idx); err != nil {
				return err
			}
		}
	case *CheckLegacyTypeParam:
		if int(v.Param) >= len(b.legacy) {
			return errors.Newf(errors.CodeInternal, "legacy type param %d missing", v.Param)
		}
		return inRange(b.legacy[v.Param].Key)
	case *Function:
		if int(v.Def) >= len(b.functions) {
			return errors.Newf(errors.CodeInternal, "function %d missing", v.Def)
		}
	case *ClassDef:
		if int(v.Def) >= len(b.classes) {
			return errors.Newf(errors.CodeInternal, "class %d missing", v.Def)
		}
	}
	return nil
}
