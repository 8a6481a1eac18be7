package main

import (
	"testing"

	"github.com/noterools/zotlink/internal/linker"
	"github.com/noterools/zotlink/internal/storage"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer sentence", 10, "a longe..."},
		{"王芳李华张伟", 5, "王芳..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestFillRun(t *testing.T) {
	report := &linker.Report{
		Bookmarks:  2,
		Hyperlinks: 3,
		Problems:   []linker.Problem{{Kind: "match_failure", Message: "x"}},
	}
	run := storage.NewRun("paper.docx")
	fillRun(&run, report)

	if run.Bookmarks != 2 || run.Hyperlinks != 3 || run.Entries != 0 {
		t.Errorf("run counts = %+v", run)
	}
	if len(run.Problems) != 1 || run.Problems[0].Kind != "match_failure" {
		t.Errorf("run problems = %+v", run.Problems)
	}
}
