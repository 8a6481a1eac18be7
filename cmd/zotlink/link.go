package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noterools/zotlink/internal/config"
	"github.com/noterools/zotlink/internal/linker"
	"github.com/noterools/zotlink/internal/linkerr"
	"github.com/noterools/zotlink/internal/storage"
)

var (
	linkOutput   string
	linkSnapshot bool
	linkForce    bool
	linkDryRun   bool
	linkNumbered bool
	linkIDStyle  string
	linkStrict   bool
)

func init() {
	linkCmd.Flags().StringVarP(&linkOutput, "output", "o", "", "Output path (default <name>_linked.docx, or <name>_plan.json for snapshots)")
	linkCmd.Flags().BoolVar(&linkSnapshot, "snapshot", false, "Read the input as a JSON snapshot (implied by a .json extension)")
	linkCmd.Flags().BoolVar(&linkForce, "force", false, "Save the output even when the pass reports problems")
	linkCmd.Flags().BoolVar(&linkDryRun, "dry-run", false, "Run the pass and report without saving")
	linkCmd.Flags().BoolVar(&linkNumbered, "numbered", false, "Numbered citation style: link [n] to the n-th bibliography entry")
	linkCmd.Flags().StringVar(&linkIDStyle, "id-style", "", "Identifier style: author-year or source-key")
	linkCmd.Flags().BoolVar(&linkStrict, "strict", false, "Abort the pass on an identifier collision")
	rootCmd.AddCommand(linkCmd)
}

var linkCmd = &cobra.Command{
	Use:   "link <document>",
	Short: "Hyperlink every in-text citation to its bibliography entry",
	Long: `Run a linking pass over a document.

The pass removes links left by a previous pass, bookmarks every bibliography
entry, and hyperlinks each cited work of every citation group to its entry.
The result is written to --output; an existing output is first backed up to
<name>_bak.docx.

Unmatched entries, unresolved citations and identifier collisions are listed in
the report. A document with problems is only saved with --force.

Examples:
  zotlink link paper.docx
  zotlink link paper.docx -o linked.docx --id-style source-key
  zotlink link paper.json --human`,
	Args: cobra.ExactArgs(1),
	RunE: runLink,
}

// LinkResult is the response for the link command.
type LinkResult struct {
	RunID      string           `json:"run_id"`
	Document   string           `json:"document"`
	Output     string           `json:"output,omitempty"`
	Saved      bool             `json:"saved"`
	Mode       string           `json:"mode"`
	Entries    int              `json:"entries"`
	Bookmarks  int              `json:"bookmarks"`
	Hyperlinks int              `json:"hyperlinks"`
	CrossRefs  int              `json:"cross_refs"`
	Unmatched  int              `json:"unmatched"`
	Problems   []linker.Problem `json:"problems"`
}

func runLink(cmd *cobra.Command, args []string) error {
	input := args[0]
	cfg := mustLoadConfig()
	applyLinkFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid options: %v", err)
	}
	logger := mustInitLogger(cfg)

	ids, err := cfg.Generator()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	snapshot := isSnapshot(input, linkSnapshot)
	output := linkOutput
	if output == "" {
		output = defaultOutput(input, snapshot)
	}
	if err := checkOutput(input, output); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	doc, err := openDocument(input, snapshot)
	if err != nil {
		exitWithError(ExitError, "opening document: %v", err)
	}

	run := storage.NewRun(input)
	run.Mode = cfg.Mode()

	crossRef := linker.CrossRefStyle{
		Keywords: cfg.CrossRefKeywords,
		Color:    cfg.CrossRefColor,
		Bold:     cfg.CrossRefBold,
	}
	l := linker.New(linker.Options{
		Numbered:          cfg.Numbered,
		IDs:               ids,
		StrictCollisions:  cfg.StrictCollisions,
		ItalicCNContainer: cfg.ItalicCNContainer,
		LinkColor:         cfg.LinkColor,
		NoUnderline:       cfg.NoUnderline,
		CrossRef:          crossRef,
		Logger:            logger,
	})
	report, err := l.Link(doc)
	if err != nil {
		run.Fatal = err.Error()
		recordRun(cfg, run, logger)
		code := ExitError
		if linkerr.IsFatal(err) || errors.Is(err, linkerr.ErrIdentifierCollision) {
			code = ExitDataError
		}
		exitWithError(code, "linking %s: %v", input, err)
	}

	fillRun(&run, report)

	save := !linkDryRun && (report.OK() || linkForce)
	if save {
		if err := doc.save(output); err != nil {
			exitWithError(ExitError, "saving %s: %v", output, err)
		}
		run.Output = output
		run.Saved = true
		logger.Info("saved document", zap.String("output", output))
	}
	recordRun(cfg, run, logger)

	result := LinkResult{
		RunID:      run.ID,
		Document:   input,
		Output:     run.Output,
		Saved:      run.Saved,
		Mode:       run.Mode,
		Entries:    run.Entries,
		Bookmarks:  run.Bookmarks,
		Hyperlinks: run.Hyperlinks,
		CrossRefs:  report.CrossRefs,
		Unmatched:  run.Unmatched,
		Problems:   report.Problems,
	}
	if result.Problems == nil {
		result.Problems = []linker.Problem{}
	}

	if humanOutput {
		printLinkResultHuman(result)
	} else {
		outputJSON(result)
	}

	if !save && !linkDryRun {
		if humanOutput {
			fmt.Fprintf(os.Stderr, "\n%d problem(s) found; %s was not saved. Use --force to save anyway.\n", len(result.Problems), output)
		}
		os.Exit(ExitUnresolved)
	}
	return nil
}

// applyLinkFlags overrides config values with flags given on the command line.
func applyLinkFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("numbered") {
		cfg.Numbered = linkNumbered
	}
	if flags.Changed("id-style") {
		cfg.IDStyle = linkIDStyle
	}
	if flags.Changed("strict") {
		cfg.StrictCollisions = linkStrict
	}
}

// fillRun copies the counts and problems of a report into a ledger run.
func fillRun(run *storage.Run, report *linker.Report) {
	run.Entries = len(report.Entries)
	run.Bookmarks = report.Bookmarks
	run.Hyperlinks = report.Hyperlinks
	run.Unmatched = report.Unmatched()
	for _, p := range report.Problems {
		run.Problems = append(run.Problems, storage.Problem{Kind: p.Kind, Message: p.Message})
	}
}

// recordRun appends a run to the ledger and refreshes its index. Ledger
// failures never fail the pass.
func recordRun(cfg *config.Config, run storage.Run, logger *zap.Logger) {
	if cfg.LedgerDir == "" {
		return
	}
	jsonlPath, dbPath := storage.Paths(cfg.LedgerDir)
	if err := storage.Append(jsonlPath, run); err != nil {
		logger.Warn("recording run", zap.String("run", run.ID), zap.Error(err))
		return
	}

	db, err := storage.OpenDB(dbPath)
	if err != nil {
		logger.Warn("opening ledger index", zap.Error(err))
		return
	}
	defer db.Close()
	if _, err := db.RebuildFromJSONL(jsonlPath); err != nil {
		logger.Warn("refreshing ledger index", zap.Error(err))
	}
}

func printLinkResultHuman(r LinkResult) {
	outputHuman("Document:   %s\n", r.Document)
	if r.Saved {
		outputHuman("Output:     %s\n", r.Output)
	}
	outputHuman("Mode:       %s\n", r.Mode)
	outputHuman("Entries:    %d (%d unmatched)\n", r.Entries, r.Unmatched)
	outputHuman("Bookmarks:  %d\n", r.Bookmarks)
	outputHuman("Hyperlinks: %d\n", r.Hyperlinks)
	if r.CrossRefs > 0 {
		outputHuman("Cross-refs: %d restyled\n", r.CrossRefs)
	}
	if len(r.Problems) == 0 {
		return
	}
	outputHuman("\nProblems:\n")
	for _, p := range r.Problems {
		outputHuman("  [%s] %s\n", p.Kind, p.Message)
	}
}
