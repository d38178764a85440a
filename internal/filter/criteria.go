package filter

import (
	"strings"

	"github.com/pdxmph/people-tui/internal/contact"
	"github.com/pdxmph/people-tui/internal/normalize"
)

// Set holds one TokenList per field.
type Set struct {
	lists [numFields]TokenList
}

// List returns the token list of f for in-place editing.
func (s *Set) List(f Field) *TokenList {
	return &s.lists[f]
}

// Active reports whether any field has a token.
func (s *Set) Active() bool {
	for i := range s.lists {
		if s.lists[i].Len() > 0 {
			return true
		}
	}
	return false
}

// ClearAll empties every field.
func (s *Set) ClearAll() {
	for i := range s.lists {
		s.lists[i].Clear()
	}
}

// Clone returns a deep copy.
func (s Set) Clone() Set {
	var out Set
	for i := range s.lists {
		out.lists[i] = s.lists[i].clone()
	}
	return out
}

// ToMap returns the non-empty token lists keyed by field name.
func (s *Set) ToMap() map[string][]string {
	out := make(map[string][]string)
	for _, f := range Fields {
		if toks := s.lists[f].Tokens(); len(toks) > 0 {
			out[f.String()] = toks
		}
	}
	return out
}

// SetFromMap rebuilds a Set from ToMap output. Unknown field names are
// skipped.
func SetFromMap(m map[string][]string) Set {
	var s Set
	for name, toks := range m {
		f, err := ParseField(name)
		if err != nil {
			continue
		}
		for _, t := range toks {
			s.lists[f].Add(t)
		}
	}
	return s
}

// Criteria is everything that narrows the loaded contacts to the filtered
// ones.
type Criteria struct {
	Tokens       Set
	Query        string
	RequireEmail bool
	RequirePhone bool
}

// Active reports whether any criterion is set. An active criteria puts the
// view in search mode.
func (c *Criteria) Active() bool {
	return c.Tokens.Active() || strings.TrimSpace(c.Query) != "" || c.RequireEmail || c.RequirePhone
}

// Clone returns a deep copy.
func (c Criteria) Clone() Criteria {
	c.Tokens = c.Tokens.Clone()
	return c
}

type matcher struct {
	fields       [numFields][]string
	query        string
	requireEmail bool
	requirePhone bool
	none         bool
}

func compile(c *Criteria) matcher {
	m := matcher{
		query:        normalize.String(c.Query),
		requireEmail: c.RequireEmail,
		requirePhone: c.RequirePhone,
	}
	// Visitor-domain filtering has no backing data; any token empties the
	// result.
	if c.Tokens.lists[VisitorDomain].Len() > 0 {
		m.none = true
		return m
	}
	for _, f := range Fields {
		for _, t := range c.Tokens.lists[f].tokens {
			m.fields[f] = append(m.fields[f], normalize.String(t))
		}
	}
	return m
}

func (m *matcher) match(c contact.Contact) bool {
	if m.none {
		return false
	}
	if m.requireEmail && strings.TrimSpace(c.Email) == "" {
		return false
	}
	if m.requirePhone && !c.HasPhone() {
		return false
	}
	for f, toks := range m.fields {
		if len(toks) == 0 {
			continue
		}
		v := normalize.String(Value(c, Field(f)))
		hit := false
		for _, t := range toks {
			if strings.Contains(v, t) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if m.query != "" {
		for _, v := range []string{c.DisplayName(), c.Email, c.Title, c.CompanyName, c.City, c.State} {
			if strings.Contains(normalize.String(v), m.query) {
				return true
			}
		}
		return false
	}
	return true
}

// Match reports whether c satisfies every criterion: tokens of one field
// are ORed, fields are ANDed with each other, the quick search and flags.
func Match(c contact.Contact, cr *Criteria) bool {
	m := compile(cr)
	return m.match(c)
}

// Apply returns the contacts matching cr, in input order.
func Apply(contacts []contact.Contact, cr *Criteria) []contact.Contact {
	m := compile(cr)
	out := make([]contact.Contact, 0, len(contacts))
	if m.none {
		return out
	}
	for _, c := range contacts {
		if m.match(c) {
			out = append(out, c)
		}
	}
	return out
}
