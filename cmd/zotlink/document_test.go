package main

import (
	"path/filepath"
	"testing"
)

func TestDefaultOutput(t *testing.T) {
	tests := []struct {
		input    string
		snapshot bool
		want     string
	}{
		{"paper.docx", false, "paper_linked.docx"},
		{"/a/b/论文.docx", false, "/a/b/论文_linked.docx"},
		{"paper.json", true, "paper_plan.json"},
		{"noext", true, "noext_plan.json"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := defaultOutput(tt.input, tt.snapshot); got != tt.want {
				t.Errorf("defaultOutput(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsSnapshot(t *testing.T) {
	if !isSnapshot("doc.JSON", false) {
		t.Error("isSnapshot(doc.JSON) = false")
	}
	if isSnapshot("doc.docx", false) {
		t.Error("isSnapshot(doc.docx) = true")
	}
	if !isSnapshot("doc.docx", true) {
		t.Error("forced isSnapshot() = false")
	}
}

func TestCheckOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "paper.docx")

	if err := checkOutput(in, filepath.Join(dir, "paper_linked.docx")); err != nil {
		t.Errorf("checkOutput() error = %v", err)
	}
	if err := checkOutput(in, filepath.Join(dir, ".", "paper.docx")); err == nil {
		t.Error("checkOutput(input) expected error")
	}
}

func TestOpenDocument_Missing(t *testing.T) {
	dir := t.TempDir()
	if _, err := openDocument(filepath.Join(dir, "missing.docx"), false); err == nil {
		t.Error("openDocument(missing docx) expected error")
	}
	if _, err := openDocument(filepath.Join(dir, "missing.json"), true); err == nil {
		t.Error("openDocument(missing snapshot) expected error")
	}
}
