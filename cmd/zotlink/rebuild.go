package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noterools/zotlink/internal/storage"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the ledger index from the run ledger",
	Long: `Rebuild the SQLite ledger index from the JSONL run ledger.

Use this after copying or editing the ledger, or if the index becomes corrupted.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status string `json:"status"`
	Runs   int    `json:"runs"`
	Path   string `json:"path"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if cfg.LedgerDir == "" {
		exitWithError(ExitConfigError, "no ledger directory configured")
	}
	if err := os.MkdirAll(cfg.LedgerDir, 0755); err != nil {
		exitWithError(ExitError, "creating ledger directory: %v", err)
	}

	jsonlPath, dbPath := storage.Paths(cfg.LedgerDir)
	db, err := storage.OpenDB(dbPath)
	if err != nil {
		exitWithError(ExitError, "opening ledger index: %v", err)
	}
	defer db.Close()

	count, err := db.RebuildFromJSONL(jsonlPath)
	if err != nil {
		exitWithError(ExitDataError, "rebuilding ledger index: %v", err)
	}

	if humanOutput {
		fmt.Printf("Rebuilt ledger index with %d runs\n", count)
	} else {
		outputJSON(RebuildResult{Status: "rebuilt", Runs: count, Path: dbPath})
	}
	return nil
}
