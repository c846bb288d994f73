package config

import (
	"strings"

	"typewalk/internal/shared/util"

	"github.com/gobwas/glob"
)

// Matcher decides which files under a root belong to a check run.
type Matcher struct {
	include []glob.Glob
	exclude []glob.Glob
}

// Matcher compiles the include and exclude patterns.
func (p Paths) Matcher() (*Matcher, error) {
	include, err := compileAll(p.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compileAll(p.Exclude)
	if err != nil {
		return nil, err
	}
	return &Matcher{include: include, exclude: exclude}, nil
}

func compileAll(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(util.NormalizePatternPath(pattern), '/')
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// Match reports whether the file at rel (relative to the root) is checked.
func (m *Matcher) Match(rel string) bool {
	rel = util.NormalizePatternPath(rel)
	if m.Excluded(rel) {
		return false
	}
	for _, g := range m.include {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Excluded reports whether rel, or any directory on it, matches an exclude
// pattern. Walks use it to prune whole directories.
func (m *Matcher) Excluded(rel string) bool {
	rel = util.NormalizePatternPath(rel)
	if rel == "" {
		return false
	}
	segments := strings.Split(rel, "/")
	for _, g := range m.exclude {
		if g.Match(rel) {
			return true
		}
		for _, segment := range segments {
			if g.Match(segment) {
				return true
			}
		}
	}
	return false
}
