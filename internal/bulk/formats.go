package bulk

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/pdxmph/people-tui/internal/contact"
)

var csvHeader = []string{
	"id", "name", "title", "company", "email", "email_status", "phone",
	"city", "state", "industry", "seniority", "department",
	"employees", "domain", "linkedin", "created_at",
}

// CSVExporter writes one row per contact under a header row.
type CSVExporter struct{}

func (CSVExporter) Name() string      { return "csv" }
func (CSVExporter) Extension() string { return ".csv" }

// Export writes contacts as CSV.
func (CSVExporter) Export(w io.Writer, contacts []contact.Contact) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, c := range contacts {
		created := ""
		if !c.CreatedAt.IsZero() {
			created = c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		row := []string{
			c.ID, c.DisplayName(), c.Title, c.CompanyName, c.Email, c.EmailStatus, c.Phone(),
			c.City, c.State, c.Industry, c.Seniority, c.Department,
			c.AccountEmployees, c.CompanyDomain, c.LinkedinURL, created,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %s: %w", c.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONExporter writes an indented JSON array in the canonical schema.
type JSONExporter struct{}

func (JSONExporter) Name() string      { return "json" }
func (JSONExporter) Extension() string { return ".json" }

// Export writes contacts as JSON.
func (JSONExporter) Export(w io.Writer, contacts []contact.Contact) error {
	if contacts == nil {
		contacts = []contact.Contact{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(contacts); err != nil {
		return fmt.Errorf("encoding contacts: %w", err)
	}
	return nil
}

func init() {
	Register("csv", func() Exporter { return CSVExporter{} })
	Register("json", func() Exporter { return JSONExporter{} })
}
