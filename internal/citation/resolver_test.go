package citation

import (
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/noterools/zotlink/internal/bookmark"
	"github.com/noterools/zotlink/internal/host"
	"github.com/noterools/zotlink/internal/linkerr"
	"github.com/noterools/zotlink/internal/reference"
)

func rec(key, family, given, year string, lang reference.Language) reference.Record {
	return reference.Record{
		SourceKey: key,
		Title:     "Title " + key,
		Year:      year,
		Authors:   []reference.Name{{Family: family, Given: given}},
		Language:  lang,
	}
}

// checkPartition asserts segments cover the text contiguously without overlap.
func checkPartition(t *testing.T, text string, segs []Segment) {
	t.Helper()
	n := utf8.RuneCountInString(text)
	pos := 0
	for i, s := range segs {
		if s.Span.Start != pos {
			t.Errorf("segment %d starts at %d, want %d", i, s.Span.Start, pos)
		}
		if s.Span.End < s.Span.Start {
			t.Errorf("segment %d has negative length: %+v", i, s.Span)
		}
		if s.Anchor.Start < s.Span.Start || s.Anchor.End > s.Span.End {
			t.Errorf("segment %d anchor %+v outside span %+v", i, s.Anchor, s.Span)
		}
		pos = s.Span.End
	}
	if pos != n {
		t.Errorf("segments end at %d, want %d", pos, n)
	}
}

func TestResolve_TwoWorks(t *testing.T) {
	smith := rec("S1", "Smith", "John", "2020", reference.English)
	jones := rec("J1", "Jones", "Alice", "2019", reference.English)
	g := Group{Text: "(Smith, 2020; Jones et al., 2019a)", Records: []reference.Record{jones, smith}}

	segs, errs := Resolver{}.Resolve(g)
	if len(errs) != 0 {
		t.Fatalf("Resolve() errors = %v", errs)
	}
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	checkPartition(t, g.Text, segs)

	boundary := utf8.RuneCountInString("(Smith, 2020;")
	if segs[0].Span.End != boundary {
		t.Errorf("split at %d, want %d (right after \"2020;\")", segs[0].Span.End, boundary)
	}

	if segs[0].Record == nil || segs[0].Record.SourceKey != "S1" {
		t.Errorf("segment 0 bound to %+v, want Smith", segs[0].Record)
	}
	if segs[1].Record == nil || segs[1].Record.SourceKey != "J1" {
		t.Errorf("segment 1 bound to %+v, want Jones", segs[1].Record)
	}
	if segs[0].ID != "Ref_SmithJ_2020" || segs[1].ID != "Ref_JonesA_2019" {
		t.Errorf("IDs = %q, %q", segs[0].ID, segs[1].ID)
	}

	if got := segs[0].Anchor.Slice(g.Text); got != "Smith, 2020" {
		t.Errorf("anchor 0 = %q", got)
	}
	if got := segs[1].Anchor.Slice(g.Text); got != "Jones et al., 2019a" {
		t.Errorf("anchor 1 = %q", got)
	}
}

func TestResolve_SharedAuthorSuffixes(t *testing.T) {
	a := rec("A", "Jones", "Alice", "2019", reference.English)
	b := rec("B", "Jones", "Alice", "2019", reference.English)
	g := Group{Text: "(Jones, 2019a, 2019b)", Records: []reference.Record{a, b}}

	segs, errs := Resolver{IDs: bookmark.Generator{Style: bookmark.StyleSourceKey}}.Resolve(g)
	if len(errs) != 0 {
		t.Fatalf("Resolve() errors = %v", errs)
	}
	checkPartition(t, g.Text, segs)

	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if segs[0].Shared || !segs[1].Shared {
		t.Errorf("Shared = %v, %v; want false, true", segs[0].Shared, segs[1].Shared)
	}
	if segs[0].ID != "Ref_A" || segs[1].ID != "Ref_B" {
		t.Errorf("IDs = %q, %q; want Ref_A, Ref_B", segs[0].ID, segs[1].ID)
	}
	if got := segs[1].Anchor.Slice(g.Text); got != "2019b" {
		t.Errorf("anchor 1 = %q, want 2019b", got)
	}
}

func TestResolve_CJK(t *testing.T) {
	wang := rec("W", "王", "芳", "2019", reference.Chinese)
	li := rec("L", "李", "华", "2020", reference.Chinese)
	g := Group{Text: "（王芳，2019；李华等，2020）", Records: []reference.Record{wang, li}}

	segs, errs := Resolver{}.Resolve(g)
	if len(errs) != 0 {
		t.Fatalf("Resolve() errors = %v", errs)
	}
	checkPartition(t, g.Text, segs)
	if segs[0].ID != "Ref_王芳_2019" || segs[1].ID != "Ref_李华_2020" {
		t.Errorf("IDs = %q, %q", segs[0].ID, segs[1].ID)
	}
	if got := segs[1].Anchor.Slice(g.Text); got != "李华等，2020" {
		t.Errorf("anchor 1 = %q", got)
	}
}

func TestResolve_ShortGroup(t *testing.T) {
	smith := rec("S", "Smith", "John", "2020", reference.English)
	g := Group{Text: "(2020)", Records: []reference.Record{smith}}

	segs, errs := Resolver{}.Resolve(g)
	if len(errs) != 0 {
		t.Fatalf("Resolve() errors = %v", errs)
	}
	if len(segs) != 1 || segs[0].ID != "Ref_SmithJ_2020" {
		t.Errorf("segments = %+v", segs)
	}
	if got := segs[0].Anchor.Slice(g.Text); got != "2020" {
		t.Errorf("anchor = %q, want 2020", got)
	}
}

func TestResolve_PartialFailure(t *testing.T) {
	smith := rec("S", "Smith", "John", "2020", reference.English)
	g := Group{Field: 4, Text: "(Smith, 2020; Brown, 2018)", Records: []reference.Record{smith}}

	segs, errs := Resolver{}.Resolve(g)
	checkPartition(t, g.Text, segs)
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if !segs[0].Matched() || segs[1].Matched() {
		t.Errorf("Matched = %v, %v; want true, false", segs[0].Matched(), segs[1].Matched())
	}
	if len(errs) != 1 {
		t.Fatalf("errors = %v, want 1", errs)
	}
	var mf *linkerr.MatchFailure
	if !errors.As(errs[0], &mf) || mf.Index != 4 || mf.Kind != linkerr.MatchCitation {
		t.Errorf("error = %#v", errs[0])
	}
}

func TestResolve_NoYear(t *testing.T) {
	smith := rec("S", "Smith", "John", "2020", reference.English)
	g := Group{Text: "(Smith, n.d.)", Records: []reference.Record{smith}}

	segs, errs := Resolver{}.Resolve(g)
	checkPartition(t, g.Text, segs)
	if len(segs) != 1 || segs[0].Matched() {
		t.Errorf("segments = %+v", segs)
	}
	if len(errs) != 1 || !errors.Is(errs[0], linkerr.ErrMatchFailure) {
		t.Errorf("errors = %v", errs)
	}
}

func TestResolve_Numbered(t *testing.T) {
	g := Group{Text: "[1, 3-5]"}

	segs, errs := Resolver{Numbered: true}.Resolve(g)
	if len(errs) != 0 {
		t.Fatalf("Resolve() errors = %v", errs)
	}
	checkPartition(t, g.Text, segs)

	want := []string{"Ref_1", "Ref_3", "Ref_5"}
	if len(segs) != len(want) {
		t.Fatalf("got %d segments, want %d", len(segs), len(want))
	}
	for i, w := range want {
		if segs[i].ID != w {
			t.Errorf("segment %d ID = %q, want %q", i, segs[i].ID, w)
		}
		if got := segs[i].Anchor.Slice(g.Text); bookmark.Prefix+got != w {
			t.Errorf("segment %d anchor = %q", i, got)
		}
	}
}

func TestResolve_PartitionProperty(t *testing.T) {
	texts := []string{
		"(Smith, 2020)",
		"(Smith, 2020; Jones et al., 2019a)",
		"Smith (2020, 2021a, 2021b)",
		"(A 1999; B 2000; C 2001)",
		"（王芳，2019）",
		"",
		"no years here",
	}
	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			segs, _ := Resolver{}.Resolve(Group{Text: text})
			if text == "" {
				if len(segs) != 1 || segs[0].Span != (host.Span{}) {
					t.Errorf("empty text segments = %+v", segs)
				}
				return
			}
			checkPartition(t, text, segs)
		})
	}
}
