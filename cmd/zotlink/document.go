package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/noterools/zotlink/internal/docx"
	"github.com/noterools/zotlink/internal/host"
)

// document is an opened input the CLI can link and write back.
type document struct {
	host.Host
	snapshot bool
	save     func(output string) error
}

// isSnapshot reports whether path should be read as a JSON snapshot.
func isSnapshot(path string, forced bool) bool {
	return forced || strings.EqualFold(filepath.Ext(path), ".json")
}

// openDocument opens a .docx file or a JSON snapshot.
func openDocument(path string, snapshot bool) (*document, error) {
	if snapshot {
		m, err := host.LoadSnapshot(path)
		if err != nil {
			return nil, err
		}
		return &document{Host: m, snapshot: true, save: m.WritePlan}, nil
	}

	d, err := docx.Open(path)
	if err != nil {
		return nil, err
	}
	return &document{Host: d, save: d.Save}, nil
}

// defaultOutput names the output of a pass over input: the linked copy of a
// .docx, or the applied-operations plan of a snapshot.
func defaultOutput(input string, snapshot bool) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	if snapshot {
		return base + "_plan.json"
	}
	return base + "_linked" + ext
}

// checkOutput refuses to overwrite the input document in place.
func checkOutput(input, output string) error {
	in, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return err
	}
	if in == out {
		return fmt.Errorf("output %s is the input document; choose another --output", output)
	}
	return nil
}
