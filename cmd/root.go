package cmd

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nanomed-sim/nanomed-sim/sim"
)

var (
	// Persistent flags shared by every subcommand
	storeBackend     string // Record store backend (memory, sqlite, postgres)
	dbPath           string // SQLite database file
	dsn              string // Postgres connection string
	defaultsFilePath string // Path to defaults.yaml
	logLevel         string // Log verbosity level
	outputFormat     string // Report encoding (json, yaml)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "nanomed",
	Short: "Nanoparticle drug-delivery design and simulation",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if !ValidOutputFormats[outputFormat] {
			logrus.Fatalf("Invalid output format: %s (valid: json, yaml)", outputFormat)
		}
	},
}

// session carries what a subcommand needs to run against one store.
type session struct {
	ctx context.Context
	eng *sim.Engine
	cfg Config
	out reporter
}

// applyStoreFlags overrides the store section of cfg with flags the user set explicitly.
// Flags left at their defaults never override defaults.yaml.
func applyStoreFlags(cfg Config, changed func(name string) bool) Config {
	if changed("store") {
		cfg.Store.Backend = storeBackend
	}
	if changed("db") {
		cfg.Store.Path = dbPath
	}
	if changed("dsn") {
		cfg.Store.DSN = dsn
	}
	return cfg
}

// withSession loads configuration, opens the store once and runs fn against it.
// Any error from fn is fatal.
func withSession(cmd *cobra.Command, fn func(s session) error) {
	cfg, err := LoadConfig(defaultsFilePath)
	if err != nil {
		logrus.Fatalf("Failed to load defaults: %v", err)
	}
	cfg = applyStoreFlags(cfg, cmd.Flags().Changed)
	if err := cfg.validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		logrus.Fatalf("Failed to open %s store: %v", cfg.Store.Backend, err)
	}

	s := session{
		ctx: ctx,
		eng: sim.NewEngine(store),
		cfg: cfg,
		out: reporter{w: cmd.OutOrStdout(), format: outputFormat},
	}
	runErr := fn(s)
	if err := store.Close(); err != nil {
		logrus.Warnf("closing store: %v", err)
	}
	if runErr != nil {
		logrus.Fatalf("%v", runErr)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "sqlite", "Record store backend (memory, sqlite, postgres)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "~/.nanomed/nanomed.db", "SQLite database file")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "Postgres connection string")
	rootCmd.PersistentFlags().StringVar(&defaultsFilePath, "defaults", "defaults.yaml", "Path to defaults.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "json", "Report format (json, yaml)")

	designCmd.Flags().StringVar(&designLigand, "ligand", "", "Targeting ligand (empty for none)")
	designCmd.Flags().Float64Var(&designEncapsulation, "encapsulation", 85, "Encapsulation efficiency in percent (default from defaults.yaml)")

	rootCmd.AddCommand(designCmd, showCmd, simulateCmd, pkCmd, toxicityCmd, optimizeCmd, historyCmd, treatCmd)
}
