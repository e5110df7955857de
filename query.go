package multistream

import "regexp"

// Query selects index records.
//
// A record matches when any supplied predicate matches it. Nil predicates
// are skipped, but at least one must be supplied. A non-nil empty IDs or
// Titles slice is supplied and matches nothing.
type Query struct {
	// IDs matches records whose document id is in the set.
	IDs []int64

	// Titles matches records whose title equals one of the values exactly.
	Titles []string

	// Pattern matches records whose title contains a match of the expression.
	Pattern *regexp.Regexp
}

// IsEmpty reports whether q has no predicates.
func (q Query) IsEmpty() bool {
	return q.IDs == nil && q.Titles == nil && q.Pattern == nil
}

// matcher is a compiled Query.
type matcher struct {
	ids     map[int64]struct{}
	titles  map[string]struct{}
	pattern *regexp.Regexp
}

func newMatcher(q Query) *matcher {
	m := &matcher{pattern: q.Pattern}
	if len(q.IDs) > 0 {
		m.ids = make(map[int64]struct{}, len(q.IDs))
		for _, id := range q.IDs {
			m.ids[id] = struct{}{}
		}
	}
	if len(q.Titles) > 0 {
		m.titles = make(map[string]struct{}, len(q.Titles))
		for _, title := range q.Titles {
			m.titles[title] = struct{}{}
		}
	}
	return m
}

func (m *matcher) match(r Record) bool {
	if _, ok := m.ids[r.ID]; ok {
		return true
	}
	if _, ok := m.titles[r.Title]; ok {
		return true
	}
	return m.pattern != nil && m.pattern.MatchString(r.Title)
}
