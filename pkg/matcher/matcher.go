// Package matcher decides whether a recipe ingredient name and an inventory
// ingredient name refer to the same thing.
package matcher

import (
	"strings"
)

// Matcher reports whether a recipe ingredient name matches an inventory name.
type Matcher interface {
	Match(recipeName, inventoryName string) bool
}

// Exact matches trimmed names case-insensitively and nothing else.
type Exact struct{}

// Match implements Matcher.
func (Exact) Match(recipeName, inventoryName string) bool {
	return Matches(recipeName, inventoryName)
}

// Matches is the default name policy: trimmed, case-insensitive equality.
// Empty names never match.
func Matches(recipeName, inventoryName string) bool {
	a, b := strings.TrimSpace(recipeName), strings.TrimSpace(inventoryName)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

// Synonyms extends Exact with alias groups such as {"대파", "파"}. Names in
// the same group match each other; anything else falls back to Exact.
type Synonyms struct {
	canonical map[string]string
}

// NewSynonyms builds a Synonyms matcher from alias groups. The first name of
// each group is its canonical form. A name listed in several groups belongs
// to the first one.
func NewSynonyms(groups ...[]string) *Synonyms {
	s := &Synonyms{canonical: make(map[string]string)}
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		head := normalize(group[0])
		for _, name := range group {
			key := normalize(name)
			if key == "" {
				continue
			}
			if _, taken := s.canonical[key]; !taken {
				s.canonical[key] = head
			}
		}
	}
	return s
}

// Canonical returns the canonical form of name, or its normalized self.
func (s *Synonyms) Canonical(name string) string {
	key := normalize(name)
	if c, ok := s.canonical[key]; ok {
		return c
	}
	return key
}

// Match implements Matcher.
func (s *Synonyms) Match(recipeName, inventoryName string) bool {
	if Matches(recipeName, inventoryName) {
		return true
	}
	a, b := s.Canonical(recipeName), s.Canonical(inventoryName)
	return a != "" && a == b
}

// normalize lowercases and trims a name and drops a trailing parenthetical
// note such as "식용유(올리브유)".
func normalize(name string) string {
	if idx := strings.Index(name, "("); idx > 0 {
		name = name[:idx]
	}
	return strings.ToLower(strings.TrimSpace(name))
}
