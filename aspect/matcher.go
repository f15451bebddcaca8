package aspect

import (
	"strings"
)

// DeclMatcher selects declarations by type and member name.
type DeclMatcher interface {
	Match(typeName, member string) bool
}

// ExactMatcher matches exact "Type.Member" or just "Member" patterns.
type ExactMatcher struct {
	patterns map[string]bool
}

// NewExactMatcher creates a matcher from a list of patterns.
// Patterns can be "Member" (matches any type) or "Type.Member" (exact match).
func NewExactMatcher(patterns []string) *ExactMatcher {
	m := &ExactMatcher{patterns: make(map[string]bool)}
	for _, p := range patterns {
		m.patterns[p] = true
	}
	return m
}

// Match returns true if the declaration matches any pattern.
func (m *ExactMatcher) Match(typeName, member string) bool {
	if m.patterns[typeName+"."+member] {
		return true
	}
	return m.patterns[member]
}

// WildcardMatcher matches declaration patterns with wildcard support.
//
// Supports patterns like:
//   - "Type.Member" - exact match
//   - "Member" or "*.Member" - matches the member on any type
//   - "Type.*" - matches all members of a type
//   - "*" - matches everything
type WildcardMatcher struct {
	exact     map[string]bool // exact "Type.Member" matches
	names     map[string]bool // unqualified "Member" matches
	typeWilds map[string]bool // "Type.*" matches
	matchAll  bool            // "*" matches everything
}

// NewWildcardMatcher creates a matcher with wildcard support.
func NewWildcardMatcher(patterns []string) *WildcardMatcher {
	m := &WildcardMatcher{
		exact:     make(map[string]bool),
		names:     make(map[string]bool),
		typeWilds: make(map[string]bool),
	}
	for _, p := range patterns {
		switch {
		case p == "*" || p == "*.*":
			m.matchAll = true
		case strings.HasSuffix(p, ".*"):
			m.typeWilds[strings.TrimSuffix(p, ".*")] = true
		case strings.HasPrefix(p, "*."):
			m.names[strings.TrimPrefix(p, "*.")] = true
		case strings.Contains(p, "."):
			m.exact[p] = true
		default:
			m.names[p] = true
		}
	}
	return m
}

// Match returns true if the declaration matches any pattern.
func (m *WildcardMatcher) Match(typeName, member string) bool {
	if m.matchAll {
		return true
	}
	if m.typeWilds[typeName] {
		return true
	}
	if m.exact[typeName+"."+member] {
		return true
	}
	return m.names[member]
}

// PrefixMatcher matches "Type.Prefix*" patterns against qualified names.
type PrefixMatcher struct {
	prefixes []string
}

// NewPrefixMatcher creates a matcher from patterns ending in "*". The
// trailing star is stripped.
func NewPrefixMatcher(patterns []string) *PrefixMatcher {
	m := &PrefixMatcher{}
	for _, p := range patterns {
		m.prefixes = append(m.prefixes, strings.TrimSuffix(p, "*"))
	}
	return m
}

// Match returns true if "Type.Member" starts with any prefix.
func (m *PrefixMatcher) Match(typeName, member string) bool {
	full := typeName + "." + member
	for _, prefix := range m.prefixes {
		if strings.HasPrefix(full, prefix) {
			return true
		}
	}
	return false
}

// CompositeMatcher combines multiple matchers.
type CompositeMatcher struct {
	matchers []DeclMatcher
}

// NewCompositeMatcher creates a matcher that matches if any sub-matcher matches.
func NewCompositeMatcher(matchers ...DeclMatcher) *CompositeMatcher {
	return &CompositeMatcher{matchers: matchers}
}

// Match returns true if any sub-matcher matches.
func (m *CompositeMatcher) Match(typeName, member string) bool {
	for _, matcher := range m.matchers {
		if matcher.Match(typeName, member) {
			return true
		}
	}
	return false
}

// NewPatternMatcher sorts patterns into wildcard and prefix matchers.
// Patterns ending in "*" after a partial name ("Type.Dep*") are prefixes;
// everything else goes to the wildcard matcher.
func NewPatternMatcher(patterns []string) DeclMatcher {
	var wild, prefix []string
	for _, p := range patterns {
		if strings.HasSuffix(p, "*") && !strings.HasSuffix(p, ".*") && p != "*" {
			prefix = append(prefix, p)
		} else {
			wild = append(wild, p)
		}
	}
	if len(prefix) == 0 {
		return NewWildcardMatcher(wild)
	}
	return NewCompositeMatcher(NewWildcardMatcher(wild), NewPrefixMatcher(prefix))
}
