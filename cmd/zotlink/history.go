package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/noterools/zotlink/internal/storage"
)

var (
	historyLimit    int
	historyProblems string
	historySearch   string
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", DefaultHistoryLimit, "Maximum number of results (0 for all)")
	historyCmd.Flags().StringVar(&historyProblems, "problems", "", "Show the problems of one run")
	historyCmd.Flags().StringVar(&historySearch, "search", "", "Full-text search over problem messages")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [document]",
	Short: "List previous linking passes",
	Long: `List previous linking passes from the run ledger, newest first.

Examples:
  zotlink history
  zotlink history paper.docx --limit 5
  zotlink history --problems 6f1c...
  zotlink history --search "Jones"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

// ProblemsResult is the response for history --problems.
type ProblemsResult struct {
	Run      storage.Run       `json:"run"`
	Problems []storage.Problem `json:"problems"`
}

// SearchResult is the response for history --search.
type SearchResult struct {
	Query string   `json:"query"`
	Runs  []string `json:"runs"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenLedger(cfg)
	defer db.Close()

	ctx := context.Background()

	switch {
	case historyProblems != "":
		run, err := db.GetRun(ctx, historyProblems)
		if err != nil {
			exitWithError(ExitError, "reading run: %v", err)
		}
		if run == nil {
			exitWithError(ExitError, "run not found: %s", historyProblems)
		}
		problems, err := db.Problems(ctx, run.ID)
		if err != nil {
			exitWithError(ExitError, "reading problems: %v", err)
		}
		if problems == nil {
			problems = []storage.Problem{}
		}
		if humanOutput {
			printRunHuman(*run)
			for _, p := range problems {
				outputHuman("  [%s] %s\n", p.Kind, p.Message)
			}
		} else {
			outputJSON(ProblemsResult{Run: *run, Problems: problems})
		}

	case historySearch != "":
		ids, err := db.SearchProblems(ctx, historySearch, historyLimit)
		if err != nil {
			exitWithError(ExitError, "searching problems: %v", err)
		}
		if ids == nil {
			ids = []string{}
		}
		if humanOutput {
			for _, id := range ids {
				outputHuman("%s\n", id)
			}
		} else {
			outputJSON(SearchResult{Query: historySearch, Runs: ids})
		}

	default:
		document := ""
		if len(args) == 1 {
			document = args[0]
		}
		runs, err := db.ListRuns(ctx, document, historyLimit)
		if err != nil {
			exitWithError(ExitError, "listing runs: %v", err)
		}
		if runs == nil {
			runs = []storage.Run{}
		}
		if humanOutput {
			if len(runs) == 0 {
				outputHuman("No runs recorded\n")
			}
			for _, r := range runs {
				printRunHuman(r)
			}
		} else {
			outputJSON(runs)
		}
	}
	return nil
}

func printRunHuman(r storage.Run) {
	status := "not saved"
	switch {
	case r.Fatal != "":
		status = "aborted: " + r.Fatal
	case r.Saved:
		status = "saved to " + r.Output
	}
	outputHuman("%s  %s  %s\n", r.StartedAt.Local().Format(time.DateTime), r.ID, r.Document)
	outputHuman("  %s, %d entries (%d unmatched), %d bookmarks, %d hyperlinks, %d problems; %s\n",
		r.Mode, r.Entries, r.Unmatched, r.Bookmarks, r.Hyperlinks, len(r.Problems), status)
}
