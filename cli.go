package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdxmph/people-tui/internal/bulk"
	"github.com/pdxmph/people-tui/internal/config"
	"github.com/pdxmph/people-tui/internal/contact"
	"github.com/pdxmph/people-tui/internal/db"
	"github.com/pdxmph/people-tui/internal/filter"
)

// decodeRecords maps a JSON array of loosely shaped contact records onto
// contacts. Records without an id get a fresh one.
func decodeRecords(data []byte) ([]contact.Contact, error) {
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing records: %w", err)
	}
	out := make([]contact.Contact, 0, len(raw))
	for _, r := range raw {
		c := contact.FromRecord("", r)
		if strings.TrimSpace(c.ID) == "" {
			c.ID = uuid.NewString()
		}
		out = append(out, c)
	}
	return out, nil
}

func runImport(cmd *cobra.Command, configPath, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}
	records, err := decodeRecords(data)
	if err != nil {
		return err
	}
	return withDB(configPath, func(_ *config.Config, database *db.DB, logger *zap.Logger) error {
		n, err := importRecords(cmd.Context(), database, records)
		if err != nil {
			return err
		}
		logger.Info("imported contacts", zap.String("file", file), zap.Int("records", n))
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d contacts\n", n)
		return nil
	})
}

// importRecords upserts records and drops every cached contact list, so the
// next bulk load reads the imported rows.
func importRecords(ctx context.Context, database *db.DB, records []contact.Contact) (int, error) {
	n, err := database.UpsertContacts(ctx, records)
	if err != nil {
		return 0, err
	}
	if _, err := database.DeletePrefix(cachePrefix); err != nil {
		return n, err
	}
	return n, nil
}

// criteriaFromFlags builds filter criteria from a query and field=value
// token filters.
func criteriaFromFlags(query string, tokens []string) (filter.Criteria, error) {
	cr := filter.Criteria{Query: query}
	for _, t := range tokens {
		name, value, ok := strings.Cut(t, "=")
		if !ok || strings.TrimSpace(value) == "" {
			return cr, fmt.Errorf("filter %q: want field=value", t)
		}
		f, err := filter.ParseField(strings.TrimSpace(name))
		if err != nil {
			return cr, err
		}
		cr.Tokens.List(f).Add(strings.TrimSpace(value))
	}
	return cr, nil
}

func runExport(cmd *cobra.Command, configPath string) error {
	format, _ := cmd.Flags().GetString("format")
	query, _ := cmd.Flags().GetString("query")
	tokens, _ := cmd.Flags().GetStringArray("filter")

	cr, err := criteriaFromFlags(query, tokens)
	if err != nil {
		return err
	}
	exp, err := bulk.CreateExporter(format)
	if err != nil {
		return err
	}

	return withDB(configPath, func(cfg *config.Config, database *db.DB, _ *zap.Logger) error {
		all, err := database.Scoped(scopesFor(cfg)...).FetchAll(cmd.Context())
		if err != nil {
			return err
		}
		return exp.Export(cmd.OutOrStdout(), filter.Apply(all, &cr))
	})
}
