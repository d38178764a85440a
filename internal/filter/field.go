// Package filter holds the per-field token filters of the People view, the
// rules that evaluate them against contacts, and the suggestion pools that
// feed the token inputs.
package filter

import (
	"fmt"

	"github.com/pdxmph/people-tui/internal/contact"
)

// Field identifies a filterable contact attribute.
type Field int

const (
	Title Field = iota
	Company
	City
	State
	Employees
	Industry
	Seniority
	Department
	VisitorDomain

	numFields
)

// Fields lists every filterable field in display order.
var Fields = []Field{Title, Company, City, State, Employees, Industry, Seniority, Department, VisitorDomain}

var fieldNames = [numFields]string{
	Title:         "title",
	Company:       "company",
	City:          "city",
	State:         "state",
	Employees:     "employees",
	Industry:      "industry",
	Seniority:     "seniority",
	Department:    "department",
	VisitorDomain: "visitor-domain",
}

func (f Field) String() string {
	if f < 0 || f >= numFields {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldNames[f]
}

// ParseField looks a field up by its String form.
func ParseField(name string) (Field, error) {
	for f, n := range fieldNames {
		if n == name {
			return Field(f), nil
		}
	}
	return 0, fmt.Errorf("unknown filter field %q", name)
}

// Value returns the contact attribute a field filters on.
func Value(c contact.Contact, f Field) string {
	switch f {
	case Title:
		return c.Title
	case Company:
		return c.CompanyName
	case City:
		return c.City
	case State:
		return c.State
	case Employees:
		return c.AccountEmployees
	case Industry:
		return c.Industry
	case Seniority:
		return c.Seniority
	case Department:
		return c.Department
	case VisitorDomain:
		return c.CompanyDomain
	}
	return ""
}
