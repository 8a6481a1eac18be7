package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noterools/zotlink/internal/bibliography"
	"github.com/noterools/zotlink/internal/citation"
	"github.com/noterools/zotlink/internal/extract"
	"github.com/noterools/zotlink/internal/linker"
	"github.com/noterools/zotlink/internal/linkerr"
	"github.com/noterools/zotlink/internal/reference"
)

var (
	inspectSnapshot bool
	inspectSection  string
)

func init() {
	inspectCmd.Flags().BoolVar(&inspectSnapshot, "snapshot", false, "Read the input as a JSON snapshot (implied by a .json extension)")
	inspectCmd.Flags().StringVar(&inspectSection, "section", "all", "What to show: records, bibliography, groups or all")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <document>",
	Short: "Show what a linking pass would bind, without changing anything",
	Long: `Show the citation records of a document, how its bibliography entries bind
to them, and how each citation group splits into cited works.

The document is never modified.

Examples:
  zotlink inspect paper.docx
  zotlink inspect paper.docx --section groups --human`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

// InspectResult is the response for the inspect command.
type InspectResult struct {
	Records      []reference.Record   `json:"records,omitempty"`
	Bibliography []bibliography.Entry `json:"bibliography,omitempty"`
	Groups       []linker.Group       `json:"groups,omitempty"`
	Problems     []linker.Problem     `json:"problems"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	section := strings.ToLower(inspectSection)
	switch section {
	case "all", "records", "bibliography", "groups":
	default:
		exitWithError(ExitError, "unknown section %q (want records, bibliography, groups or all)", inspectSection)
	}

	cfg := mustLoadConfig()
	ids, err := cfg.Generator()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	input := args[0]
	doc, err := openDocument(input, isSnapshot(input, inspectSnapshot))
	if err != nil {
		exitWithError(ExitError, "opening document: %v", err)
	}

	fields, err := doc.CitationFields()
	if err != nil {
		exitWithError(ExitError, "reading citation fields: %v", err)
	}
	pool, groups, err := extract.BuildPool(fields)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	paragraphs, err := doc.BibliographyParagraphs()
	if err != nil {
		exitWithError(ExitError, "reading bibliography: %v", err)
	}

	result := InspectResult{Problems: []linker.Problem{}}
	addProblems := func(errs []error) {
		for _, e := range errs {
			result.Problems = append(result.Problems, linker.Problem{Kind: linkerr.Kind(e), Message: e.Error()})
		}
	}

	if section == "all" || section == "records" {
		result.Records = pool.All()
	}

	matcher := bibliography.Matcher{IDs: ids, Numbered: cfg.Numbered}
	entries, errs := matcher.Match(paragraphs, pool)
	if section == "all" || section == "bibliography" {
		result.Bibliography = entries
		addProblems(errs)
	}

	if section == "all" || section == "groups" {
		resolver := citation.Resolver{IDs: ids, Numbered: cfg.Numbered}
		for _, g := range groups {
			segs, errs := resolver.Resolve(g)
			result.Groups = append(result.Groups, linker.Group{Field: g.Field, Text: g.Text, Segments: segs})
			addProblems(errs)
		}
	}

	if humanOutput {
		printInspectHuman(result)
	} else {
		outputJSON(result)
	}
	return nil
}

func printInspectHuman(r InspectResult) {
	if len(r.Records) > 0 {
		outputHuman("Records (%d):\n", len(r.Records))
		for _, rec := range r.Records {
			outputHuman("  %s  %s (%s) %s\n", rec.SourceKey, rec.FirstAuthorName(), rec.Year, truncateString(rec.Title, EntryTextMaxLen))
		}
		outputHuman("\n")
	}

	if len(r.Bibliography) > 0 {
		outputHuman("Bibliography (%d):\n", len(r.Bibliography))
		for _, e := range r.Bibliography {
			id := e.ID
			if !e.Matched {
				id = "(unmatched)"
			}
			outputHuman("  %3d. %-24s %s\n", e.Index+1, id, truncateString(e.Text, EntryTextMaxLen))
		}
		outputHuman("\n")
	}

	if len(r.Groups) > 0 {
		outputHuman("Citations (%d):\n", len(r.Groups))
		for _, g := range r.Groups {
			outputHuman("  field %d: %s\n", g.Field, g.Text)
			for _, s := range g.Segments {
				target := s.ID
				if !s.Matched() {
					target = "(unresolved)"
				}
				outputHuman("    %-24s -> %s\n", fmt.Sprintf("%q", s.Anchor.Slice(g.Text)), target)
			}
		}
		outputHuman("\n")
	}

	if len(r.Problems) > 0 {
		outputHuman("Problems:\n")
		for _, p := range r.Problems {
			outputHuman("  [%s] %s\n", p.Kind, p.Message)
		}
	}
}
