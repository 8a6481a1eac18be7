// Package main provides the zotlink CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noterools/zotlink/internal/config"
	"github.com/noterools/zotlink/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool

	// configPath overrides the default config file location
	configPath string
)

func main() {
	defer config.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		config.Cleanup()
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "zotlink",
	Short: "Link Zotero citations to their bibliography entries",
	Long: `zotlink turns every in-text Zotero citation of a Word manuscript into an
internal hyperlink to its entry in the rendered bibliography.

Each bibliography paragraph gets a bookmark (Ref_<authors>_<year>, Ref_<item key>
or Ref_<n> in numbered styles) and each cited work inside a citation group
becomes a link to it.

Documents can be .docx files or JSON snapshots of their fields and bibliography.
Every pass is recorded in a JSONL ledger with a SQLite index for queries.
All commands output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/zotlink/config.yml)")
	rootCmd.Version = Version
}

// mustLoadConfig loads the config file, .env and ZOTLINK_* overrides,
// exits on error.
func mustLoadConfig() *config.Config {
	config.LoadDotEnv()

	loaded, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	// Work on a copy so flag overrides never leak into the cache
	cfg := *loaded
	if err := cfg.ApplyEnv(); err != nil {
		exitWithError(ExitConfigError, "reading environment: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid config: %v", err)
	}
	return &cfg
}

// mustInitLogger builds the logger for the configured level, exits on error.
func mustInitLogger(cfg *config.Config) *zap.Logger {
	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		exitWithError(ExitError, "initializing logger: %v", err)
	}
	return logger
}

// mustOpenLedger opens the ledger index, building it from the JSONL file
// when it does not exist yet. The caller is responsible for calling Close().
func mustOpenLedger(cfg *config.Config) *storage.DB {
	if cfg.LedgerDir == "" {
		exitWithError(ExitConfigError, "no ledger directory configured\n\nSet ledger_dir in %s or ZOTLINK_LEDGER_DIR.", config.ConfigPath())
	}
	jsonlPath, dbPath := storage.Paths(cfg.LedgerDir)
	if err := os.MkdirAll(cfg.LedgerDir, 0755); err != nil {
		exitWithError(ExitError, "creating ledger directory: %v", err)
	}

	_, statErr := os.Stat(dbPath)
	db, err := storage.OpenDB(dbPath)
	if err != nil {
		exitWithError(ExitError, "opening ledger index: %v", err)
	}
	if os.IsNotExist(statErr) {
		if _, err := db.RebuildFromJSONL(jsonlPath); err != nil {
			db.Close()
			exitWithError(ExitDataError, "building ledger index: %v", err)
		}
	}
	return db
}
