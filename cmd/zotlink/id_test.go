package main

import (
	"testing"

	"github.com/noterools/zotlink/internal/bookmark"
	"github.com/noterools/zotlink/internal/reference"
)

func TestParseIDInput(t *testing.T) {
	gen := bookmark.Generator{Style: bookmark.StyleAuthorYear, EtAl: 3}

	tests := []struct {
		name     string
		authors  string
		year     string
		language string
		want     string
		wantErr  bool
	}{
		{
			name:     "english",
			authors:  `[{"family":"Smith","given":"John"}]`,
			year:     "2020",
			language: "en",
			want:     "Ref_SmithJ_2020",
		},
		{
			name:    "untagged is chinese",
			authors: `[{"family":"王","given":"芳"}]`,
			year:    "2019",
			want:    "Ref_王芳_2019",
		},
		{
			name:     "et al",
			authors:  `[{"family":"A","given":"B"},{"family":"C","given":"D"},{"family":"E","given":"F"},{"family":"G","given":"H"}]`,
			year:     "2021",
			language: "en-US",
			want:     "Ref_AB_CD_EF_etal_2021",
		},
		{
			name:    "author without family",
			authors: `[{"given":"John"}]`,
			wantErr: true,
		},
		{
			name:    "not json",
			authors: `Smith`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := parseIDInput([]byte(tt.authors), tt.year, tt.language, "")
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseIDInput() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseIDInput() error = %v", err)
			}
			if got := gen.ID(rec); got != tt.want {
				t.Errorf("ID = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseIDInput_SourceKey(t *testing.T) {
	rec, err := parseIDInput(nil, "", "", "ABCD1234")
	if err != nil {
		t.Fatalf("parseIDInput() error = %v", err)
	}
	if rec.Language != reference.Chinese {
		t.Errorf("Language = %q, want default", rec.Language)
	}
	gen := bookmark.Generator{Style: bookmark.StyleSourceKey}
	if got := gen.ID(rec); got != "Ref_ABCD1234" {
		t.Errorf("ID = %q", got)
	}
}
