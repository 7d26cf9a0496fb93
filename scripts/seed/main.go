package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"praxismail/internal/config"
)

// ANSI color codes for terminal output
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

// Command-line flags
var (
	contactsCount  = flag.Int("contacts", 24, "Number of contacts to create")
	campaignsCount = flag.Int("campaigns", 3, "Number of campaigns to create")
	clearData      = flag.Bool("clear", false, "Clear existing seed data before inserting")
	showHelp       = flag.Bool("help", false, "Show usage information")
)

func main() {
	flag.Parse()

	if *showHelp {
		printUsage()
		os.Exit(0)
	}

	// Load .env file (ignore error if not present)
	_ = godotenv.Load()

	printInfo("=== PraxisMail Database Seeder ===\n")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		printError(fmt.Sprintf("Failed to load configuration: %v", err))
		os.Exit(1)
	}

	// Connect to database
	printInfo("Connecting to database...")
	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		printError(fmt.Sprintf("Failed to open database connection: %v", err))
		os.Exit(1)
	}
	defer db.Close()

	// Test connection
	if err := db.Ping(); err != nil {
		printError(fmt.Sprintf("Failed to ping database: %v", err))
		os.Exit(1)
	}
	printSuccess("✓ Connected to database\n")

	// Clear data if requested
	if *clearData {
		if err := clearSeedData(db); err != nil {
			printError(fmt.Sprintf("Failed to clear seed data: %v", err))
			os.Exit(1)
		}
	}

	// Seed templates first, campaigns reference them
	templatesCreated, err := seedTemplates(db)
	if err != nil {
		printError(fmt.Sprintf("Failed to seed templates: %v", err))
		os.Exit(1)
	}

	// Seed contacts
	contactsCreated, err := seedContacts(db, *contactsCount)
	if err != nil {
		printError(fmt.Sprintf("Failed to seed contacts: %v", err))
		os.Exit(1)
	}

	// Seed campaigns
	campaignsCreated, err := seedCampaigns(db, *campaignsCount)
	if err != nil {
		printError(fmt.Sprintf("Failed to seed campaigns: %v", err))
		os.Exit(1)
	}

	// Print summary
	printInfo("\n=== Seeding Summary ===")
	printSuccess(fmt.Sprintf("✓ Templates created: %d", templatesCreated))
	printSuccess(fmt.Sprintf("✓ Contacts created: %d", contactsCreated))
	printSuccess(fmt.Sprintf("✓ Campaigns created: %d", campaignsCreated))
	printInfo("\nSeeding completed successfully!")
}

// clearSeedData removes existing seed data
func clearSeedData(db *sql.DB) error {
	printWarning("Clearing existing seed data...")

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Delete campaigns by seeded naming pattern
	_, err = tx.Exec("DELETE FROM campaigns WHERE name LIKE 'Frühlings-Newsletter%' OR name LIKE 'Produkt-Update%' OR name LIKE 'Einladung Anwendertreffen%'")
	if err != nil {
		return fmt.Errorf("failed to delete campaigns: %w", err)
	}

	// Delete templates by seeded handle
	_, err = tx.Exec("DELETE FROM templates WHERE handle IN ('newsletter', 'produkt-update')")
	if err != nil {
		return fmt.Errorf("failed to delete templates: %w", err)
	}

	// Contacts are tagged with their source, remove only ours
	_, err = tx.Exec("DELETE FROM contacts WHERE source = 'seed'")
	if err != nil {
		return fmt.Errorf("failed to delete contacts: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	printSuccess("✓ Seed data cleared\n")
	return nil
}

// seedTemplates inserts the sample email templates
func seedTemplates(db *sql.DB) (int, error) {
	printInfo("Seeding templates...")

	templates := []struct {
		handle    string
		name      string
		subject   string
		htmlBody  string
		textBody  string
		preheader string
		variables string
	}{
		{
			handle:    "newsletter",
			name:      "Newsletter",
			subject:   "Neuigkeiten für {{organization}}",
			htmlBody:  "<h1>Guten Tag {{name}}</h1><p>Hier sind die Neuigkeiten des Monats für {{organization}}.</p><p><a href=\"{{unsubscribe_url}}\">Newsletter abbestellen</a></p>",
			textBody:  "Guten Tag {{name}}\n\nHier sind die Neuigkeiten des Monats für {{organization}}.\n\nAbbestellen: {{unsubscribe_url}}",
			preheader: "Die wichtigsten Neuigkeiten des Monats auf einen Blick",
			variables: `["name", "organization", "unsubscribe_url"]`,
		},
		{
			handle:    "produkt-update",
			name:      "Produkt-Update",
			subject:   "Neue Funktionen für Ihre Praxis",
			htmlBody:  "<h1>Guten Tag {{name}}</h1><p>Wir haben neue Funktionen für {{organization}} freigeschaltet.</p><p><a href=\"{{unsubscribe_url}}\">Keine weiteren Mitteilungen</a></p>",
			textBody:  "Guten Tag {{name}}\n\nWir haben neue Funktionen für {{organization}} freigeschaltet.\n\nAbbestellen: {{unsubscribe_url}}",
			preheader: "Ein Überblick über die neuen Funktionen",
			variables: `["name", "organization", "unsubscribe_url"]`,
		},
	}

	created := 0
	for _, t := range templates {
		query := `
			INSERT INTO templates (handle, name, subject, html_body, text_body, preheader, variables, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
			ON CONFLICT (handle) DO NOTHING
		`

		result, err := db.Exec(query, t.handle, t.name, t.subject, t.htmlBody, t.textBody, t.preheader, t.variables)
		if err != nil {
			return created, fmt.Errorf("failed to insert template %s: %w", t.handle, err)
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected > 0 {
			created++
		}
	}

	printSuccess(fmt.Sprintf("✓ Seeded %d templates (skipped %d existing)", created, len(templates)-created))
	return created, nil
}

// seedContacts generates and inserts healthcare organization contacts
func seedContacts(db *sql.DB, count int) (int, error) {
	printInfo(fmt.Sprintf("Seeding %d contacts...", count))

	// Organization name patterns per type
	patterns := []struct {
		orgType string
		format  string
	}{
		{"hospital", "Kantonsspital %s"},
		{"clinic", "Klinik %s"},
		{"group-practice", "Gemeinschaftspraxis %s"},
		{"medical-center", "Ärztezentrum %s"},
	}

	// Swiss cities with their cantons
	locations := []struct {
		city   string
		canton string
	}{
		{"Zürich", "ZH"},
		{"Bern", "BE"},
		{"Aarau", "AG"},
		{"Lausanne", "VD"},
		{"Genf", "GE"},
		{"Basel", "BS"},
		{"St. Gallen", "SG"},
		{"Luzern", "LU"},
		{"Lugano", "TI"},
		{"Chur", "GR"},
		{"Winterthur", "ZH"},
		{"Thun", "BE"},
	}

	firstNames := []string{"Anna", "Markus", "Claudia", "Stefan", "Nicole", "Thomas", "Sandra", "Peter", "Laura", "Daniel", "Martina", "Urs"}
	lastNames := []string{"Keller", "Brunner", "Meier", "Huber", "Schneider", "Weber", "Baumann", "Frei", "Gerber", "Steiner", "Widmer", "Zbinden"}

	created := 0
	for i := 1; i <= count; i++ {
		pattern := patterns[i%len(patterns)]
		location := locations[(i/len(patterns))%len(locations)]
		organization := fmt.Sprintf(pattern.format, location.city)
		slug := slugify(organization)

		// Generate varied data with some NULL fields
		var contactPerson, email, contactEmail, website *string

		// Most organizations have a named contact person
		if i%7 != 0 { // ~86% have a contact person
			contactPerson = stringPtr(fmt.Sprintf("Dr. med. %s %s", firstNames[i%len(firstNames)], lastNames[i%len(lastNames)]))
		}

		// Some organizations have a primary address
		if i%5 != 0 { // 80% have a primary address
			email = stringPtr(fmt.Sprintf("info@%s.ch", slug))
		}

		// Some have a separate office address
		if i%3 != 0 && contactPerson != nil { // person-based office address
			contactEmail = stringPtr(fmt.Sprintf("%s.%s@%s.ch",
				strings.ToLower(firstNames[i%len(firstNames)]),
				strings.ToLower(lastNames[i%len(lastNames)]),
				slug))
		}

		// Some have a website
		if i%4 != 0 { // 75% have a website
			website = stringPtr(fmt.Sprintf("https://www.%s.ch", slug))
		}

		phone := fmt.Sprintf("+41 44 555 %02d %02d", i/100, i%100)

		// Insert with NOT EXISTS for idempotency, contacts have no natural unique key
		query := `
			INSERT INTO contacts (organization, organization_type, canton, contact_person, email, contact_email, phone, website, source)
			SELECT $1, $2, $3, $4, $5, $6, $7, $8, 'seed'
			WHERE NOT EXISTS (
				SELECT 1 FROM contacts WHERE organization = $1 AND source = 'seed'
			)
		`

		result, err := db.Exec(query, organization, pattern.orgType, location.canton, contactPerson, email, contactEmail, phone, website)
		if err != nil {
			return created, fmt.Errorf("failed to insert contact %s: %w", organization, err)
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected > 0 {
			created++
		}
	}

	printSuccess(fmt.Sprintf("✓ Seeded %d contacts (skipped %d existing)", created, count-created))
	return created, nil
}

// seedCampaigns generates and inserts campaign data
func seedCampaigns(db *sql.DB, count int) (int, error) {
	printInfo(fmt.Sprintf("Seeding %d campaigns...", count))

	campaigns := []struct {
		name           string
		subject        string
		templateHandle string
		replyTo        *string
		status         string
		scheduledAt    *time.Time
	}{
		{
			name:           "Frühlings-Newsletter",
			subject:        "Neuigkeiten aus der Praxiswelt",
			templateHandle: "newsletter",
			status:         "draft",
		},
		{
			name:           "Produkt-Update Q3",
			subject:        "Neue Funktionen für Ihre Praxis",
			templateHandle: "produkt-update",
			replyTo:        stringPtr("support@praxismail.ch"),
			status:         "scheduled",
			scheduledAt:    timePtr(time.Now().Add(48 * time.Hour)),
		},
		{
			name:           "Einladung Anwendertreffen",
			subject:        "Einladung zum Anwendertreffen in Zürich",
			templateHandle: "newsletter",
			status:         "draft",
		},
	}

	created := 0
	for i := 0; i < count && i < len(campaigns); i++ {
		campaign := campaigns[i]

		query := `
			INSERT INTO campaigns (name, subject, template_id, from_name, from_email, reply_to, status, scheduled_at)
			SELECT $1, $2, (SELECT id FROM templates WHERE handle = $3), $4, $5, $6, $7, $8
			WHERE NOT EXISTS (
				SELECT 1 FROM campaigns WHERE name = $1
			)
		`

		result, err := db.Exec(query, campaign.name, campaign.subject, campaign.templateHandle,
			"PraxisMail", "newsletter@praxismail.ch", campaign.replyTo, campaign.status, campaign.scheduledAt)
		if err != nil {
			return created, fmt.Errorf("failed to insert campaign %s: %w", campaign.name, err)
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected > 0 {
			created++
		}
	}

	printSuccess(fmt.Sprintf("✓ Seeded %d campaigns (skipped %d existing)", created, count-created))
	return created, nil
}

// Helper functions

// slugify turns an organization name into a lowercase domain label
func slugify(s string) string {
	repl := strings.NewReplacer(
		"ä", "ae", "ö", "oe", "ü", "ue",
		"Ä", "Ae", "Ö", "Oe", "Ü", "Ue",
		"é", "e", "è", "e", "à", "a",
		".", "", " ", "-",
	)
	return strings.ToLower(repl.Replace(s))
}

// stringPtr returns a pointer to a string
func stringPtr(s string) *string {
	return &s
}

// timePtr returns a pointer to a time.Time
func timePtr(t time.Time) *time.Time {
	return &t
}

// printSuccess prints a success message in green
func printSuccess(msg string) {
	fmt.Printf("%s%s%s\n", colorGreen, msg, colorReset)
}

// printError prints an error message in red
func printError(msg string) {
	fmt.Fprintf(os.Stderr, "%s%s%s\n", colorRed, msg, colorReset)
}

// printInfo prints an info message in cyan
func printInfo(msg string) {
	fmt.Printf("%s%s%s\n", colorCyan, msg, colorReset)
}

// printWarning prints a warning message in yellow
func printWarning(msg string) {
	fmt.Printf("%s%s%s\n", colorYellow, msg, colorReset)
}

// printUsage displays usage information
func printUsage() {
	printInfo("=== PraxisMail Database Seeder ===\n")
	fmt.Println("Usage: go run ./scripts/seed [flags]")
	fmt.Println("\nFlags:")
	flag.PrintDefaults()
	fmt.Println("\nExamples:")
	fmt.Println("  go run ./scripts/seed")
	fmt.Println("  go run ./scripts/seed -contacts=48 -campaigns=3")
	fmt.Println("  go run ./scripts/seed -clear")
	fmt.Println("  go run ./scripts/seed -clear -contacts=48")
	fmt.Println("\nNotes:")
	fmt.Println("  - Contacts are tagged with source='seed' (SQL seeds use 'sql-seed')")
	fmt.Println("  - Some contacts are created without any email address on purpose")
	fmt.Println("  - The script is idempotent - running multiple times won't create duplicates")
	fmt.Println("  - Use -clear to remove existing seed data before inserting new data")
}
