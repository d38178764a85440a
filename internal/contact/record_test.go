package contact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRecordMapsLegacyFields(t *testing.T) {
	c := FromRecord("c1", map[string]any{
		"firstName":        "Ada",
		"lastName":         "Lovelace",
		"locationCity":     "Austin",
		"locationState":    "TX",
		"companyIndustry":  "Software",
		"company":          "Analytical Engines",
		"accountEmployees": float64(250),
		"createdAt":        "2024-03-01T10:00:00Z",
	})

	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, "Ada Lovelace", c.DisplayName())
	assert.Equal(t, "Austin", c.City)
	assert.Equal(t, "TX", c.State)
	assert.Equal(t, "Software", c.Industry)
	assert.Equal(t, "Analytical Engines", c.CompanyName)
	assert.Equal(t, "250", c.AccountEmployees)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), c.CreatedAt)
}

func TestFromRecordCanonicalWinsOverAlias(t *testing.T) {
	c := FromRecord("", map[string]any{
		"id":            "c2",
		"city":          "Dallas",
		"locationCity":  "Austin",
		"state":         "",
		"locationState": "TX",
	})
	assert.Equal(t, "c2", c.ID)
	assert.Equal(t, "Dallas", c.City)
	assert.Equal(t, "TX", c.State)
}

func TestApplyIsShallow(t *testing.T) {
	c := Contact{ID: "c1", Title: "Engineer", City: "Austin"}
	got := c.Apply(Patch{"title": "VP", "id": "other", "unknown": "x"})

	assert.Equal(t, "c1", got.ID)
	assert.Equal(t, "VP", got.Title)
	assert.Equal(t, "Austin", got.City)
	assert.Equal(t, "Engineer", c.Title, "receiver must not change")
}

func TestCoerceTime(t *testing.T) {
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		ok   bool
	}{
		{"time", want, true},
		{"pointer", &want, true},
		{"epoch seconds", float64(want.Unix()), true},
		{"epoch millis", want.UnixMilli(), true},
		{"iso", "2024-01-02T03:04:05Z", true},
		{"seconds map", map[string]any{"seconds": float64(want.Unix()), "nanoseconds": float64(0)}, true},
		{"underscore map", map[string]any{"_seconds": float64(want.Unix())}, true},
		{"timestamp", Timestamp{Seconds: want.Unix()}, true},
		{"garbage", "not a date", false},
		{"empty", "", false},
		{"nil", nil, false},
		{"bad map", map[string]any{"foo": 1}, false},
		{"negative", float64(-5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceTime(tt.in)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, want.Equal(got), "got %v", got)
			} else {
				assert.True(t, got.IsZero())
			}
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "N/A", FormatTimestamp(time.Time{}))

	c := FromRecord("c1", map[string]any{"updatedAt": "yesterday-ish"})
	assert.Equal(t, "N/A", FormatTimestamp(c.UpdatedAt))
}

func TestPhonePreference(t *testing.T) {
	c := Contact{Mobile: "+15550001", WorkDirectPhone: "+15550002", PreferredPhoneField: "workDirectPhone"}
	assert.Equal(t, "+15550002", c.Phone())

	c.PreferredPhoneField = "otherPhone"
	assert.Equal(t, "+15550001", c.Phone())

	assert.False(t, Contact{}.HasPhone())
}

func TestEnrichKeepsExistingFields(t *testing.T) {
	c := Contact{ID: "c1", CompanyName: "Acme", CompanyWebsite: "acme.example"}
	got := c.Enrich(&Account{ID: "a1", Name: "Acme Corp", Employees: "500", Website: "www.acme.com", Domain: "acme.com"})

	assert.Equal(t, "Acme", got.CompanyName)
	assert.Equal(t, "acme.example", got.CompanyWebsite)
	assert.Equal(t, "500", got.AccountEmployees)
	assert.Equal(t, "acme.com", got.CompanyDomain)
	assert.Equal(t, "a1", got.AccountID)

	assert.Equal(t, c, c.Enrich(nil))
}
