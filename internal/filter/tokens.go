package filter

import (
	"strings"

	"github.com/pdxmph/people-tui/internal/normalize"
)

// DefaultSuggestionLimit caps Suggestions when the caller passes 0.
const DefaultSuggestionLimit = 8

// TokenList is the ordered chip list of one field. Entries are unique under
// normalize.String and keep their insertion order.
type TokenList struct {
	tokens []string
}

// Tokens returns a copy of the entries in display order.
func (l *TokenList) Tokens() []string {
	return append([]string(nil), l.tokens...)
}

// Len returns the number of tokens.
func (l *TokenList) Len() int {
	return len(l.tokens)
}

// Contains reports whether label is present, ignoring case and surrounding
// whitespace.
func (l *TokenList) Contains(label string) bool {
	key := normalize.String(label)
	for _, t := range l.tokens {
		if normalize.String(t) == key {
			return true
		}
	}
	return false
}

// Add appends the trimmed label unless it is empty or already present.
func (l *TokenList) Add(label string) bool {
	label = strings.TrimSpace(label)
	if label == "" || l.Contains(label) {
		return false
	}
	l.tokens = append(l.tokens, label)
	return true
}

// RemoveLast drops the last token.
func (l *TokenList) RemoveLast() bool {
	if len(l.tokens) == 0 {
		return false
	}
	l.tokens = l.tokens[:len(l.tokens)-1]
	return true
}

// RemoveAt removes exactly the i-th token; later tokens shift down by one.
func (l *TokenList) RemoveAt(i int) bool {
	if i < 0 || i >= len(l.tokens) {
		return false
	}
	next := make([]string, 0, len(l.tokens)-1)
	next = append(next, l.tokens[:i]...)
	l.tokens = append(next, l.tokens[i+1:]...)
	return true
}

// Clear empties the list.
func (l *TokenList) Clear() bool {
	if len(l.tokens) == 0 {
		return false
	}
	l.tokens = nil
	return true
}

// Suggestions returns up to limit pool entries containing query, skipping
// entries that are already tokens. Pool order is preserved.
func (l *TokenList) Suggestions(query string, pool []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	q := normalize.String(query)
	var out []string
	for _, v := range pool {
		if len(out) >= limit {
			break
		}
		if !strings.Contains(normalize.String(v), q) || l.Contains(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (l TokenList) clone() TokenList {
	return TokenList{tokens: append([]string(nil), l.tokens...)}
}
