package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"amcmath/internal/config"
	"amcmath/internal/database"
	"amcmath/internal/logger"
	"amcmath/internal/repository"
)

var rootCmd = &cobra.Command{
	Use:           "mathctl",
	Short:         "Operate the AMC math engine",
	Long:          "mathctl seeds the catalog, backs up and restores the database, mints development tokens and prints learner progression.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("db-type", "", "Database type: sqlite, postgres or mysql (overrides DATABASE_TYPE)")
	flags.String("db-path", "", "SQLite database file (overrides DB_PATH)")
	flags.String("db-url", "", "Postgres or MySQL connection string (overrides DATABASE_URL)")
	flags.Bool("verbose", false, "Log at debug level")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(tokenCmd)
}

// loadConfig reads the environment and applies the global flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Load()
	if v, _ := cmd.Flags().GetString("db-type"); v != "" {
		cfg.DatabaseType = v
	}
	if v, _ := cmd.Flags().GetString("db-path"); v != "" {
		cfg.DatabasePath = v
	}
	if v, _ := cmd.Flags().GetString("db-url"); v != "" {
		cfg.DatabaseURL = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command) (*logger.Logger, error) {
	mode := "prod"
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		mode = "dev"
	}
	return logger.New(mode)
}

// app is the opened database with its repositories
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	catalog  *repository.CatalogRepository
	attempts *repository.AttemptRepository
}

// openApp connects to the database and brings the schema up to date
func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if _, err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		catalog:  repository.NewCatalogRepository(db),
		attempts: repository.NewAttemptRepository(db),
	}, nil
}

func (a *app) Close() {
	a.log.Sync()
	a.db.Close()
}
