package filter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxmph/people-tui/internal/contact"
)

func TestTokenListDeduplicates(t *testing.T) {
	var s Set
	city := s.List(City)

	assert.True(t, city.Add("Austin"))
	assert.False(t, city.Add("austin"))
	assert.False(t, city.Add("  AUSTIN "))
	assert.False(t, city.Add("   "))

	assert.Equal(t, []string{"Austin"}, city.Tokens())
}

func TestTokenListRemoveAtIsIndexStable(t *testing.T) {
	var l TokenList
	for _, tok := range []string{"A", "B", "C"} {
		require.True(t, l.Add(tok))
	}

	assert.True(t, l.RemoveAt(1))
	assert.Equal(t, []string{"A", "C"}, l.Tokens())

	assert.False(t, l.RemoveAt(2))
	assert.False(t, l.RemoveAt(-1))
	assert.Equal(t, []string{"A", "C"}, l.Tokens())

	assert.True(t, l.RemoveAt(0))
	assert.Equal(t, []string{"C"}, l.Tokens())
}

func TestTokenListRemoveAtDoesNotAliasClones(t *testing.T) {
	var s Set
	for _, tok := range []string{"A", "B", "C"} {
		s.List(Title).Add(tok)
	}
	snapshot := s.Clone()

	s.List(Title).RemoveAt(0)

	assert.Equal(t, []string{"A", "B", "C"}, snapshot.List(Title).Tokens())
	assert.Equal(t, []string{"B", "C"}, s.List(Title).Tokens())
}

func TestTokenListRemoveLastAndClear(t *testing.T) {
	var l TokenList
	assert.False(t, l.RemoveLast())
	assert.False(t, l.Clear())

	l.Add("x")
	l.Add("y")
	assert.True(t, l.RemoveLast())
	assert.Equal(t, []string{"x"}, l.Tokens())

	assert.True(t, l.Clear())
	assert.Zero(t, l.Len())
}

func TestSuggestions(t *testing.T) {
	pool := []string{"San Antonio", "Austin", "Santa Fe", "Boston", "san diego"}
	var l TokenList
	l.Add("SANTA FE")

	assert.Equal(t, []string{"San Antonio", "san diego"}, l.Suggestions("san", pool, 0))
	assert.Equal(t, []string{"San Antonio"}, l.Suggestions(" SAN ", pool, 1))
	assert.Equal(t, []string{"Austin", "Boston"}, l.Suggestions("ST", pool, 8))
	assert.Empty(t, l.Suggestions("zzz", pool, 8))
}

func TestSuggestionsDefaultLimit(t *testing.T) {
	var pool []string
	for i := 0; i < 20; i++ {
		pool = append(pool, fmt.Sprintf("City %d", i))
	}
	var l TokenList
	assert.Len(t, l.Suggestions("city", pool, 0), DefaultSuggestionLimit)
}

func TestMatchOrWithinFieldAndAcrossFields(t *testing.T) {
	c := contact.Contact{ID: "1", City: "Austin", Title: "VP Sales"}

	var both Criteria
	both.Tokens.List(City).Add("Austin")
	both.Tokens.List(City).Add("Dallas")
	both.Tokens.List(Title).Add("VP")
	assert.True(t, Match(c, &both))

	var miss Criteria
	miss.Tokens.List(City).Add("Dallas")
	miss.Tokens.List(Title).Add("VP")
	assert.False(t, Match(c, &miss))
}

func TestMatchQueryAndFlags(t *testing.T) {
	c := contact.Contact{ID: "1", FirstName: "Grace", LastName: "Hopper", Email: "grace@navy.mil"}

	tests := []struct {
		name string
		cr   Criteria
		want bool
	}{
		{"empty", Criteria{}, true},
		{"name query", Criteria{Query: "hopper"}, true},
		{"email query", Criteria{Query: "NAVY"}, true},
		{"query miss", Criteria{Query: "lovelace"}, false},
		{"needs email", Criteria{RequireEmail: true}, true},
		{"needs phone", Criteria{RequirePhone: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(c, &tt.cr))
		})
	}
}

func TestApplyVisitorDomainShortCircuit(t *testing.T) {
	contacts := []contact.Contact{
		{ID: "1", City: "Austin", CompanyDomain: "acme.com"},
		{ID: "2", City: "Dallas"},
	}

	var cr Criteria
	cr.Tokens.List(VisitorDomain).Add("acme.com")
	assert.Empty(t, Apply(contacts, &cr))

	cr.Tokens.List(City).Add("Austin")
	assert.Empty(t, Apply(contacts, &cr))
	assert.True(t, cr.Active())
}

func TestApplyPreservesOrder(t *testing.T) {
	contacts := []contact.Contact{
		{ID: "1", Title: "VP Sales"},
		{ID: "2", Title: "Engineer"},
		{ID: "3", Title: "SVP Marketing"},
	}
	var cr Criteria
	cr.Tokens.List(Title).Add("vp")

	got := Apply(contacts, &cr)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
}

func TestSetMapRoundTrip(t *testing.T) {
	var s Set
	s.List(City).Add("Austin")
	s.List(City).Add("Dallas")
	s.List(Industry).Add("Software")

	m := s.ToMap()
	assert.Equal(t, map[string][]string{
		"city":     {"Austin", "Dallas"},
		"industry": {"Software"},
	}, m)

	back := SetFromMap(m)
	assert.Equal(t, s.ToMap(), back.ToMap())

	_, err := ParseField("nope")
	assert.Error(t, err)
}

func TestBuildPoolsFirstOccurrenceOrder(t *testing.T) {
	contacts := []contact.Contact{
		{ID: "1", City: "Zurich"},
		{ID: "2", City: "austin"},
		{ID: "3", City: "Austin"},
		{ID: "4", City: ""},
		{ID: "5", City: "Boston", Title: "CTO"},
	}
	pools := BuildPools(contacts)

	assert.Equal(t, []string{"Zurich", "austin", "Boston"}, pools[City])
	assert.Equal(t, []string{"CTO"}, pools[Title])
	assert.Empty(t, pools[Industry])
}

func TestBuildPoolsCapped(t *testing.T) {
	contacts := make([]contact.Contact, 0, MaxPoolSize+50)
	for i := 0; i < MaxPoolSize+50; i++ {
		contacts = append(contacts, contact.Contact{ID: fmt.Sprint(i), Title: fmt.Sprintf("title %d", i)})
	}
	pools := BuildPools(contacts)
	assert.Len(t, pools[Title], MaxPoolSize)
	assert.Equal(t, "title 0", pools[Title][0])
}
