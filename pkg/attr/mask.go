package attr

import (
	"fmt"
	"regexp"
)

// Redacted replaces masked values.
const Redacted = "***"

// Masker hides the values of keys matching any of its patterns, at any depth.
type Masker struct {
	patterns []*regexp.Regexp
}

// NewMasker compiles patterns. A Masker without patterns masks nothing.
func NewMasker(patterns []string) (*Masker, error) {
	m := &Masker{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, re)
	}
	return m, nil
}

// Mask returns a masked deep copy of tree; tree itself is left untouched.
func (m *Masker) Mask(tree map[string]any) map[string]any {
	if tree == nil {
		return nil
	}
	out := Clone(tree).(map[string]any)
	if m == nil || len(m.patterns) == 0 {
		return out
	}
	m.mask(out)
	return out
}

func (m *Masker) mask(node map[string]any) {
	for k, v := range node {
		if m.matches(k) {
			node[k] = Redacted
			continue
		}
		switch child := v.(type) {
		case map[string]any:
			m.mask(child)
		case []any:
			for _, item := range child {
				if sub, ok := item.(map[string]any); ok {
					m.mask(sub)
				}
			}
		}
	}
}

func (m *Masker) matches(key string) bool {
	for _, re := range m.patterns {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}
