package db

import (
	"database/sql"
	"time"

	"github.com/pdxmph/people-tui/internal/contact"
)

// contactColumns is the select list scanContact expects, in order.
const contactColumns = `
	id, first_name, last_name, name, title, company_name,
	email, email_status, mobile, work_direct_phone, other_phone, preferred_phone_field,
	city, state, industry, seniority, department,
	account_id, company_website, company_domain, linkedin_url,
	owner_id, assigned_to, created_at, updated_at`

// columnFor maps canonical patch keys onto the columns UpdateContactFields
// may write.
var columnFor = map[string]string{
	"firstName":           "first_name",
	"lastName":            "last_name",
	"name":                "name",
	"title":               "title",
	"companyName":         "company_name",
	"email":               "email",
	"emailStatus":         "email_status",
	"mobile":              "mobile",
	"workDirectPhone":     "work_direct_phone",
	"otherPhone":          "other_phone",
	"preferredPhoneField": "preferred_phone_field",
	"city":                "city",
	"state":               "state",
	"industry":            "industry",
	"seniority":           "seniority",
	"department":          "department",
	"accountId":           "account_id",
	"companyWebsite":      "company_website",
	"companyDomain":       "company_domain",
	"linkedinUrl":         "linkedin_url",
	"ownerId":             "owner_id",
	"assignedTo":          "assigned_to",
}

type rowScanner interface {
	Scan(dest ...any) error
}

// contactRow mirrors a contacts row. Every column is nullable.
type contactRow struct {
	ID                  string
	FirstName           sql.NullString
	LastName            sql.NullString
	Name                sql.NullString
	Title               sql.NullString
	CompanyName         sql.NullString
	Email               sql.NullString
	EmailStatus         sql.NullString
	Mobile              sql.NullString
	WorkDirectPhone     sql.NullString
	OtherPhone          sql.NullString
	PreferredPhoneField sql.NullString
	City                sql.NullString
	State               sql.NullString
	Industry            sql.NullString
	Seniority           sql.NullString
	Department          sql.NullString
	AccountID           sql.NullString
	CompanyWebsite      sql.NullString
	CompanyDomain       sql.NullString
	LinkedinURL         sql.NullString
	OwnerID             sql.NullString
	AssignedTo          sql.NullString
	CreatedAt           sql.NullString
	UpdatedAt           sql.NullString
}

func scanContact(s rowScanner) (contact.Contact, error) {
	var r contactRow
	err := s.Scan(
		&r.ID, &r.FirstName, &r.LastName, &r.Name, &r.Title, &r.CompanyName,
		&r.Email, &r.EmailStatus, &r.Mobile, &r.WorkDirectPhone, &r.OtherPhone, &r.PreferredPhoneField,
		&r.City, &r.State, &r.Industry, &r.Seniority, &r.Department,
		&r.AccountID, &r.CompanyWebsite, &r.CompanyDomain, &r.LinkedinURL,
		&r.OwnerID, &r.AssignedTo, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return contact.Contact{}, err
	}
	return r.toContact(), nil
}

func (r contactRow) toContact() contact.Contact {
	c := contact.Contact{
		ID:                  r.ID,
		FirstName:           r.FirstName.String,
		LastName:            r.LastName.String,
		Name:                r.Name.String,
		Title:               r.Title.String,
		CompanyName:         r.CompanyName.String,
		Email:               r.Email.String,
		EmailStatus:         r.EmailStatus.String,
		Mobile:              r.Mobile.String,
		WorkDirectPhone:     r.WorkDirectPhone.String,
		OtherPhone:          r.OtherPhone.String,
		PreferredPhoneField: r.PreferredPhoneField.String,
		City:                r.City.String,
		State:               r.State.String,
		Industry:            r.Industry.String,
		Seniority:           r.Seniority.String,
		Department:          r.Department.String,
		AccountID:           r.AccountID.String,
		CompanyWebsite:      r.CompanyWebsite.String,
		CompanyDomain:       r.CompanyDomain.String,
		LinkedinURL:         r.LinkedinURL.String,
		OwnerID:             r.OwnerID.String,
		AssignedTo:          r.AssignedTo.String,
	}
	// sqlite hands timestamps back in whatever shape they were written.
	c.CreatedAt, _ = contact.CoerceTime(r.CreatedAt.String)
	c.UpdatedAt, _ = contact.CoerceTime(r.UpdatedAt.String)
	return c
}

// contactArgs returns c's column values in contactColumns order.
func contactArgs(c contact.Contact) []any {
	return []any{
		c.ID, NewNullString(c.FirstName), NewNullString(c.LastName), NewNullString(c.Name),
		NewNullString(c.Title), NewNullString(c.CompanyName),
		NewNullString(c.Email), NewNullString(c.EmailStatus), NewNullString(c.Mobile),
		NewNullString(c.WorkDirectPhone), NewNullString(c.OtherPhone), NewNullString(c.PreferredPhoneField),
		NewNullString(c.City), NewNullString(c.State), NewNullString(c.Industry),
		NewNullString(c.Seniority), NewNullString(c.Department),
		NewNullString(c.AccountID), NewNullString(c.CompanyWebsite), NewNullString(c.CompanyDomain),
		NewNullString(c.LinkedinURL), NewNullString(c.OwnerID), NewNullString(c.AssignedTo),
		timeArg(c.CreatedAt), timeArg(c.UpdatedAt),
	}
}

// NewNullString creates a sql.NullString from a string
func NewNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

const timeFormat = "2006-01-02 15:04:05"

// timeArg formats t for storage. A zero time means now.
func timeArg(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeFormat)
}
