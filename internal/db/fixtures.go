package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdxmph/people-tui/internal/contact"
)

// FixtureOwner is the user ID fixture contacts are owned by or assigned to.
const FixtureOwner = "user-demo"

var fixtureAccounts = []contact.Account{
	{Name: "Tech Startup Inc", Employees: "45", Website: "https://techstartup.example", Domain: "techstartup.example"},
	{Name: "Design Studio", Employees: "12", Website: "https://designstudio.example", Domain: "designstudio.example"},
	{Name: "Big Corp Ltd", Employees: "12000", Website: "https://bigcorp.example", Domain: "bigcorp.example", LinkedinURL: "https://linkedin.com/company/bigcorp"},
	{Name: "Harbor Logistics", Employees: "860", Domain: "harborlogistics.example"},
	{Name: "Northwind Health", Employees: "2300", Website: "https://northwind.example", Domain: "northwind.example"},
}

// fixturePeople is first, last, title, company, city, state, seniority,
// department, industry.
var fixturePeople = [][9]string{
	{"Sarah", "Chen", "VP Engineering", "Tech Startup Inc", "San Francisco", "CA", "VP", "Engineering", "Software"},
	{"Marcus", "Williams", "Creative Director", "Design Studio", "Portland", "OR", "Director", "Design", "Media"},
	{"Jennifer", "Rodriguez", "Head of Procurement", "Big Corp Ltd", "Chicago", "IL", "Director", "Operations", "Manufacturing"},
	{"David", "Kim", "Software Engineer", "Tech Startup Inc", "Seattle", "WA", "Individual Contributor", "Engineering", "Software"},
	{"Emily", "Watson", "Chief Financial Officer", "Northwind Health", "Boston", "MA", "C-Level", "Finance", "Healthcare"},
	{"Michael", "Brown", "Operations Manager", "Harbor Logistics", "Long Beach", "CA", "Manager", "Operations", "Logistics"},
	{"Lisa", "Park", "Product Manager", "Big Corp Ltd", "Austin", "TX", "Manager", "Product", "Manufacturing"},
	{"James", "Miller", "CTO", "Tech Startup Inc", "San Francisco", "CA", "C-Level", "Engineering", "Software"},
	{"Rachel", "Green", "Recruiter", "Northwind Health", "Boston", "MA", "Individual Contributor", "Human Resources", "Healthcare"},
	{"Tom", "Anderson", "Sales Director", "Harbor Logistics", "Seattle", "WA", "Director", "Sales", "Logistics"},
	{"Priya", "Natarajan", "Data Scientist", "Northwind Health", "Austin", "TX", "Individual Contributor", "Engineering", "Healthcare"},
	{"Omar", "Haddad", "Account Executive", "Big Corp Ltd", "Chicago", "IL", "Individual Contributor", "Sales", "Manufacturing"},
	{"Grace", "Liu", "UX Researcher", "Design Studio", "Portland", "OR", "Individual Contributor", "Design", "Media"},
	{"Carlos", "Mendez", "VP Sales", "Harbor Logistics", "Long Beach", "CA", "VP", "Sales", "Logistics"},
	{"Hannah", "Schmidt", "Controller", "Big Corp Ltd", "Milwaukee", "WI", "Manager", "Finance", "Manufacturing"},
	{"Ben", "Okafor", "Engineering Manager", "Tech Startup Inc", "Denver", "CO", "Manager", "Engineering", "Software"},
}

// CreateFixturesDatabase creates a test database with realistic sample data
func CreateFixturesDatabase(dbPath string) error {
	if err := Initialize(dbPath); err != nil {
		return fmt.Errorf("initializing fixtures database: %w", err)
	}

	database, err := Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening fixtures database: %w", err)
	}
	defer database.Close()

	ctx := context.Background()
	accountIDs := make(map[string]string, len(fixtureAccounts))
	for _, a := range fixtureAccounts {
		stored, err := database.AddAccount(ctx, a)
		if err != nil {
			return fmt.Errorf("adding fixture account %s: %w", a.Name, err)
		}
		accountIDs[a.Name] = stored.ID
	}

	now := time.Now()
	contacts := make([]contact.Contact, 0, len(fixturePeople))
	for i, p := range fixturePeople {
		c := contact.Contact{
			FirstName:   p[0],
			LastName:    p[1],
			Title:       p[2],
			CompanyName: p[3],
			City:        p[4],
			State:       p[5],
			Seniority:   p[6],
			Department:  p[7],
			Industry:    p[8],
			AccountID:   accountIDs[p[3]],
			CreatedAt:   now.AddDate(0, 0, -i*3),
		}
		if i%4 != 3 {
			c.Email = fmt.Sprintf("%s.%s@%s", strings.ToLower(p[0]), strings.ToLower(p[1]), domainFor(p[3]))
			c.EmailStatus = "verified"
		}
		switch i % 3 {
		case 0:
			c.Mobile = fmt.Sprintf("+1503555%04d", 100+i)
			c.PreferredPhoneField = "mobile"
		case 1:
			c.WorkDirectPhone = fmt.Sprintf("+1206555%04d", 200+i)
		}
		switch i % 5 {
		case 0, 1:
			c.OwnerID = FixtureOwner
		case 2:
			c.AssignedTo = FixtureOwner
		default:
			c.OwnerID = "user-other"
		}
		contacts = append(contacts, c)
	}

	if _, err := database.UpsertContacts(ctx, contacts); err != nil {
		return fmt.Errorf("adding fixture contacts: %w", err)
	}

	return nil
}

func domainFor(company string) string {
	for _, a := range fixtureAccounts {
		if a.Name == company && a.Domain != "" {
			return a.Domain
		}
	}
	return "example.com"
}
