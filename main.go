package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdxmph/people-tui/internal/bulk"
	"github.com/pdxmph/people-tui/internal/config"
	"github.com/pdxmph/people-tui/internal/db"
	"github.com/pdxmph/people-tui/internal/events"
	"github.com/pdxmph/people-tui/internal/livesync"
	"github.com/pdxmph/people-tui/internal/logging"
	"github.com/pdxmph/people-tui/internal/people"
	"github.com/pdxmph/people-tui/internal/tui"
)

const (
	cachePrefix  = "contacts:"
	viewStateKey = "view:people"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "people",
		Short:        "Browse, filter and act on CRM contacts",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), configPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "config file (.toml or .yaml)")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty contacts database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFrom(configPath)
			if err != nil {
				return err
			}
			if err := db.Initialize(cfg.Database.Path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", cfg.Database.Path)
			return nil
		},
	}

	fixturesCmd := &cobra.Command{
		Use:   "fixtures [path]",
		Short: "Create a database filled with sample people",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "fixtures.db"
			if len(args) == 1 {
				path = args[0]
			}
			if err := db.CreateFixturesDatabase(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (owner %s)\n", path, db.FixtureOwner)
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import contact records from a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, configPath, args[0])
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write contacts to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, configPath)
		},
	}
	exportCmd.Flags().String("format", "csv", "export format")
	exportCmd.Flags().String("query", "", "only contacts matching this search")
	exportCmd.Flags().StringArray("filter", nil, "token filter as field=value, repeatable")

	countCmd := &cobra.Command{
		Use:   "count",
		Short: "Print the number of contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(configPath, func(cfg *config.Config, database *db.DB, _ *zap.Logger) error {
				n, err := database.Scoped(scopesFor(cfg)...).FetchTotalCount(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}

	rootCmd.AddCommand(initCmd, fixturesCmd, importCmd, exportCmd, countCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// withDB loads the configuration, sets up logging and opens the database
// for the duration of fn.
func withDB(configPath string, fn func(*config.Config, *db.DB, *zap.Logger) error) error {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	database, err := db.Open(cfg.Database.Path, db.WithLogger(logger), db.WithDebounce(cfg.Sync.DebounceDuration()))
	if err != nil {
		return err
	}
	defer database.Close()

	return fn(cfg, database, logger)
}

func scopesFor(cfg *config.Config) []livesync.Scope {
	if cfg.Sync.Scope == config.ScopeMine {
		return []livesync.Scope{
			{Kind: livesync.ScopeOwned, UserID: cfg.Sync.UserID},
			{Kind: livesync.ScopeAssigned, UserID: cfg.Sync.UserID},
		}
	}
	return []livesync.Scope{{Kind: livesync.ScopeAll}}
}

func runTUI(ctx context.Context, configPath string) error {
	return withDB(configPath, func(cfg *config.Config, database *db.DB, logger *zap.Logger) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		scoped := database.Scoped(scopesFor(cfg)...)
		cached := people.NewCachedSource(scoped, database, cachePrefix+scoped.Key(), logger)
		store := people.New(cached, people.Options{
			PageSize:      cfg.People.PageSize,
			BatchSize:     cfg.People.BatchSize,
			InitialLoad:   cfg.People.InitialLoad,
			EnrichWorkers: cfg.People.EnrichWorkers,
			Accounts:      database,
			Logger:        logger,
		})
		if err := store.Load(ctx); err != nil {
			logger.Warn("starting with an empty view", zap.Error(err))
		}

		bus := events.NewBus[livesync.RecordEvent]()
		defer bus.Close()
		records, unsubRecords := bus.Subscribe(0)
		defer unsubRecords()

		reconciler := livesync.New(store, database,
			livesync.WithRestoreTimeout(cfg.Sync.RestoreTimeoutDuration()),
			livesync.WithLogger(logger),
			livesync.WithOnApplied(cached.Put),
		)
		defer reconciler.SoftCleanup()
		go reconciler.Run(ctx, records)

		if err := reconciler.Subscribe(ctx, scopesFor(cfg)...); err != nil {
			return fmt.Errorf("subscribing to contact feeds: %w", err)
		}

		if v, ok := people.LoadViewState(database, viewStateKey); ok {
			if err := reconciler.RestoreView(ctx, v); err != nil {
				logger.Warn("restoring view", zap.Error(err))
			}
		}

		actions := bulk.NewService(store, database, bus, logger)
		model := tui.New(store, actions, tui.Options{Logger: logger})
		defer model.Close()

		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running people view: %w", err)
		}

		if err := people.SaveViewState(database, viewStateKey, store.CurrentViewState()); err != nil {
			logger.Warn("saving view state", zap.Error(err))
		}
		store.Wait()
		return nil
	})
}
