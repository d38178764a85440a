// Package contact defines the canonical contact and account records and the
// ingestion step that maps loosely shaped payloads onto them.
package contact

import (
	"strings"
	"time"
)

// Contact is a person in the CRM, in canonical form.
type Contact struct {
	ID                  string    `json:"id"`
	FirstName           string    `json:"firstName,omitempty"`
	LastName            string    `json:"lastName,omitempty"`
	Name                string    `json:"name,omitempty"`
	Title               string    `json:"title,omitempty"`
	CompanyName         string    `json:"companyName,omitempty"`
	Email               string    `json:"email,omitempty"`
	EmailStatus         string    `json:"emailStatus,omitempty"`
	Mobile              string    `json:"mobile,omitempty"`
	WorkDirectPhone     string    `json:"workDirectPhone,omitempty"`
	OtherPhone          string    `json:"otherPhone,omitempty"`
	PreferredPhoneField string    `json:"preferredPhoneField,omitempty"`
	City                string    `json:"city,omitempty"`
	State               string    `json:"state,omitempty"`
	Industry            string    `json:"industry,omitempty"`
	Seniority           string    `json:"seniority,omitempty"`
	Department          string    `json:"department,omitempty"`
	AccountID           string    `json:"accountId,omitempty"`
	AccountEmployees    string    `json:"accountEmployees,omitempty"`
	CompanyWebsite      string    `json:"companyWebsite,omitempty"`
	CompanyDomain       string    `json:"companyDomain,omitempty"`
	LinkedinURL         string    `json:"linkedinUrl,omitempty"`
	OwnerID             string    `json:"ownerId,omitempty"`
	AssignedTo          string    `json:"assignedTo,omitempty"`
	CreatedAt           time.Time `json:"createdAt,omitempty"`
	UpdatedAt           time.Time `json:"updatedAt,omitempty"`
}

// Account is the company record a contact can be enriched from.
type Account struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Employees   string `json:"employees,omitempty"`
	Website     string `json:"website,omitempty"`
	Domain      string `json:"domain,omitempty"`
	LinkedinURL string `json:"linkedinUrl,omitempty"`
}

// DisplayName returns "First Last", falling back to Name and then Email.
func (c Contact) DisplayName() string {
	full := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if full != "" {
		return full
	}
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return c.Email
}

// Phone returns the preferred phone number, or the first non-empty one.
func (c Contact) Phone() string {
	switch c.PreferredPhoneField {
	case "mobile":
		if c.Mobile != "" {
			return c.Mobile
		}
	case "workDirectPhone":
		if c.WorkDirectPhone != "" {
			return c.WorkDirectPhone
		}
	case "otherPhone":
		if c.OtherPhone != "" {
			return c.OtherPhone
		}
	}
	for _, p := range []string{c.Mobile, c.WorkDirectPhone, c.OtherPhone} {
		if p != "" {
			return p
		}
	}
	return ""
}

// HasPhone reports whether any phone field is set.
func (c Contact) HasPhone() bool {
	return c.Phone() != ""
}

// Enrich fills empty company fields of c from a. Fields c already has are
// kept.
func (c Contact) Enrich(a *Account) Contact {
	if a == nil {
		return c
	}
	if c.AccountID == "" {
		c.AccountID = a.ID
	}
	if c.CompanyName == "" {
		c.CompanyName = a.Name
	}
	if c.AccountEmployees == "" {
		c.AccountEmployees = a.Employees
	}
	if c.CompanyWebsite == "" {
		c.CompanyWebsite = a.Website
	}
	if c.CompanyDomain == "" {
		c.CompanyDomain = a.Domain
	}
	if c.LinkedinURL == "" {
		c.LinkedinURL = a.LinkedinURL
	}
	return c
}
