package parser

import (
	"sync"
	"sync/atomic"

	"typewalk/internal/core/errors"
	"typewalk/internal/shared/observability"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ParserPool shares tree-sitter parsers for one grammar between goroutines.
// A parser is leased for exactly one Parse call and reset on return, so no
// tree outlives its lease through the parser.
type ParserPool struct {
	lang   *sitter.Language
	pool   sync.Pool
	leased atomic.Int64
}

// NewParserPool creates a pool for lang, which must stay valid for the
// lifetime of the pool.
func NewParserPool(lang *sitter.Language) *ParserPool {
	p := &ParserPool{lang: lang}
	p.pool.New = func() any {
		sp := sitter.NewParser()
		sp.SetLanguage(lang)
		return sp
	}
	return p
}

// Parse parses src with a leased parser. The caller owns the returned tree
// and must Close it.
func (p *ParserPool) Parse(src []byte) (*sitter.Tree, error) {
	sp := p.lease()
	defer p.release(sp)

	tree := sp.Parse(src, nil)
	if tree == nil {
		return nil, errors.New(errors.CodeParseError, "tree-sitter returned no tree")
	}
	return tree, nil
}

// Leased returns the number of parsers currently checked out.
func (p *ParserPool) Leased() int {
	return int(p.leased.Load())
}

func (p *ParserPool) lease() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	// A parser that was Reset externally loses its language.
	sp.SetLanguage(p.lang)
	p.leased.Add(1)
	observability.ParsersLeased.Inc()
	return sp
}

func (p *ParserPool) release(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	p.leased.Add(-1)
	observability.ParsersLeased.Dec()
	sp.Reset()
	p.pool.Put(sp)
}
