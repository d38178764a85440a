package contact

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Patch is a partial contact keyed by canonical field name ("title",
// "companyName", ...). Values are applied with shallow-merge semantics.
type Patch map[string]any

// aliases maps legacy and alternate payload keys onto canonical ones.
var aliases = map[string]string{
	"locationCity":    "city",
	"locationState":   "state",
	"companyIndustry": "industry",
	"company":         "companyName",
	"employees":       "accountEmployees",
	"website":         "companyWebsite",
	"domain":          "companyDomain",
	"linkedin":        "linkedinUrl",
	"workPhone":       "workDirectPhone",
	"fullName":        "name",
}

// NormalizePatch rewrites alias keys to canonical ones. A canonical key that
// is already present with a non-empty value wins over its alias.
func NormalizePatch(raw map[string]any) Patch {
	p := make(Patch, len(raw))
	for k, v := range raw {
		if _, isAlias := aliases[k]; isAlias {
			continue
		}
		p[k] = v
	}
	for alias, canonical := range aliases {
		v, ok := raw[alias]
		if !ok {
			continue
		}
		if existing, ok := p[canonical]; ok && toString(existing) != "" {
			continue
		}
		p[canonical] = v
	}
	delete(p, "id")
	return p
}

// FromRecord builds a Contact from a loosely shaped payload.
func FromRecord(id string, raw map[string]any) Contact {
	if id == "" {
		id = toString(raw["id"])
	}
	return Contact{ID: id}.Apply(NormalizePatch(raw))
}

// Apply returns c with every known field in p overwritten. Unknown keys are
// ignored; the ID never changes.
func (c Contact) Apply(p Patch) Contact {
	for k, v := range p {
		switch k {
		case "firstName":
			c.FirstName = toString(v)
		case "lastName":
			c.LastName = toString(v)
		case "name":
			c.Name = toString(v)
		case "title":
			c.Title = toString(v)
		case "companyName":
			c.CompanyName = toString(v)
		case "email":
			c.Email = toString(v)
		case "emailStatus":
			c.EmailStatus = toString(v)
		case "mobile":
			c.Mobile = toString(v)
		case "workDirectPhone":
			c.WorkDirectPhone = toString(v)
		case "otherPhone":
			c.OtherPhone = toString(v)
		case "preferredPhoneField":
			c.PreferredPhoneField = toString(v)
		case "city":
			c.City = toString(v)
		case "state":
			c.State = toString(v)
		case "industry":
			c.Industry = toString(v)
		case "seniority":
			c.Seniority = toString(v)
		case "department":
			c.Department = toString(v)
		case "accountId":
			c.AccountID = toString(v)
		case "accountEmployees":
			c.AccountEmployees = toString(v)
		case "companyWebsite":
			c.CompanyWebsite = toString(v)
		case "companyDomain":
			c.CompanyDomain = toString(v)
		case "linkedinUrl":
			c.LinkedinURL = toString(v)
		case "ownerId":
			c.OwnerID = toString(v)
		case "assignedTo":
			c.AssignedTo = toString(v)
		case "createdAt":
			c.CreatedAt, _ = CoerceTime(v)
		case "updatedAt":
			c.UpdatedAt, _ = CoerceTime(v)
		}
	}
	return c
}

// Timestamp is the {seconds, nanoseconds} pair some payloads carry.
type Timestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// CoerceTime converts the timestamp shapes found in payloads to a time.
// Anything it cannot read yields the zero time and false.
func CoerceTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case Timestamp:
		return time.Unix(t.Seconds, t.Nanoseconds).UTC(), true
	case *Timestamp:
		if t == nil {
			return time.Time{}, false
		}
		return time.Unix(t.Seconds, t.Nanoseconds).UTC(), true
	case int:
		return fromEpoch(float64(t))
	case int64:
		return fromEpoch(float64(t))
	case float64:
		return fromEpoch(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return fromEpoch(n)
		}
	case map[string]any:
		secs, ok := numberField(t, "seconds", "_seconds")
		if !ok {
			return time.Time{}, false
		}
		nanos, _ := numberField(t, "nanoseconds", "_nanoseconds")
		return time.Unix(int64(secs), int64(nanos)).UTC(), true
	}
	return time.Time{}, false
}

// FormatTimestamp renders t for display, "N/A" when unknown.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Local().Format("Jan 2, 2006")
}

func fromEpoch(n float64) (time.Time, bool) {
	if n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return time.Time{}, false
	}
	// Values this large are milliseconds.
	if n >= 1e12 {
		return time.UnixMilli(int64(n)).UTC(), true
	}
	return time.Unix(int64(n), 0).UTC(), true
}

func numberField(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch n := m[k].(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		}
	}
	return 0, false
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}
