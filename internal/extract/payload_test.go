package extract

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/noterools/zotlink/internal/host"
	"github.com/noterools/zotlink/internal/reference"
)

const smithItem = `{
	"uris": ["http://zotero.org/users/1/items/ABCD1234"],
	"itemData": {
		"title": "Deep Learning",
		"container-title": "Nature",
		"issued": {"date-parts": [[2020, 5]]},
		"language": "en",
		"author": [{"family": "Smith", "given": "John-Paul"}]
	}
}`

func fieldCode(items ...string) string {
	return host.ItemPayloadPrefix + ` {"citationID":"x","citationItems":[` + strings.Join(items, ",") + `]}`
}

func TestFlexibleString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"2020"`, "2020"},
		{`2020`, "2020"},
		{`null`, ""},
	}
	for _, tt := range tests {
		var f FlexibleString
		if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
			t.Errorf("Unmarshal(%s) error = %v", tt.input, err)
			continue
		}
		if f.String() != tt.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.input, f, tt.want)
		}
	}

	var f FlexibleString
	if err := json.Unmarshal([]byte(`{}`), &f); err == nil {
		t.Error("Unmarshal({}) expected error")
	}
}

func TestParseFieldCode(t *testing.T) {
	// Field codes carry leading whitespace and arbitrary text before the prefix
	code := "  " + fieldCode(smithItem)
	p, err := ParseFieldCode(code)
	if err != nil {
		t.Fatalf("ParseFieldCode() error = %v", err)
	}
	if len(p.CitationItems) != 1 {
		t.Fatalf("items = %d, want 1", len(p.CitationItems))
	}

	records, err := RecordsFromPayload(p)
	if err != nil {
		t.Fatalf("RecordsFromPayload() error = %v", err)
	}
	got := records[0]
	want := reference.Record{
		SourceKey:      "ABCD1234",
		Title:          "Deep Learning",
		ContainerTitle: "Nature",
		Year:           "2020",
		Language:       reference.English,
	}
	if got.SourceKey != want.SourceKey || got.Title != want.Title ||
		got.ContainerTitle != want.ContainerTitle || got.Year != want.Year || got.Language != want.Language {
		t.Errorf("record = %+v, want %+v", got, want)
	}
	if len(got.Authors) != 1 || got.Authors[0].Given != "John-Paul" {
		t.Errorf("authors = %+v", got.Authors)
	}
}

func TestParseFieldCode_Errors(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"no prefix", "ADDIN ZOTERO_BIBL"},
		{"empty payload", host.ItemPayloadPrefix + "   "},
		{"bad json", host.ItemPayloadPrefix + ` {"citationItems": [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseFieldCode(tt.code); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRecordsFromPayload_Invalid(t *testing.T) {
	tests := []struct {
		name string
		item string
		want string
	}{
		{
			"missing title",
			`{"uris":["u/1"],"itemData":{"author":[{"family":"A"}],"issued":{"date-parts":[[2020]]}}}`,
			"title",
		},
		{
			"missing author",
			`{"uris":["u/1"],"itemData":{"title":"T","issued":{"date-parts":[[2020]]}}}`,
			"author",
		},
		{
			"author without family",
			`{"uris":["u/1"],"itemData":{"title":"T","author":[{"given":"Ann"}],"issued":{"date-parts":[[2020]]}}}`,
			"family",
		},
		{
			"missing uris",
			`{"itemData":{"title":"T","author":[{"family":"A"}],"issued":{"date-parts":[[2020]]}}}`,
			"uris",
		},
		{
			"bad year",
			`{"uris":["u/1"],"itemData":{"title":"T","author":[{"family":"A"}],"issued":{"date-parts":[["20x0"]]}}}`,
			"year",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseFieldCode(fieldCode(tt.item))
			if err != nil {
				t.Fatalf("ParseFieldCode() error = %v", err)
			}
			_, err = RecordsFromPayload(p)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestItemToRecord_Defaults(t *testing.T) {
	// Legacy "uri" key, literal author, string year, no language
	item := `{"uri":["http://zotero.org/groups/9/items/KEY9/"],"itemData":{
		"title":"报告","author":[{"literal":"国家统计局"}],"issued":{"date-parts":[["2018"]]}}}`
	p, err := ParseFieldCode(fieldCode(item))
	if err != nil {
		t.Fatalf("ParseFieldCode() error = %v", err)
	}
	records, err := RecordsFromPayload(p)
	if err != nil {
		t.Fatalf("RecordsFromPayload() error = %v", err)
	}
	r := records[0]
	if r.SourceKey != "KEY9" {
		t.Errorf("SourceKey = %q, want KEY9", r.SourceKey)
	}
	if r.Year != "2018" {
		t.Errorf("Year = %q, want 2018", r.Year)
	}
	if r.Language != reference.Chinese {
		t.Errorf("Language = %q, want %q", r.Language, reference.Chinese)
	}
	if r.FirstAuthorName() != "国家统计局" {
		t.Errorf("FirstAuthorName() = %q", r.FirstAuthorName())
	}
}

func TestIssuedYear_Undated(t *testing.T) {
	if _, err := issuedYear(ItemData{}); err == nil {
		t.Error("issuedYear(undated) expected error")
	}
}

func TestFieldKinds(t *testing.T) {
	if !IsItemField(fieldCode()) || IsBibliographyField(fieldCode()) {
		t.Error("item field misclassified")
	}
	if IsItemField(" ADDIN ZOTERO_BIBL {} CSL_BIBLIOGRAPHY") || !IsBibliographyField(" ADDIN ZOTERO_BIBL {} CSL_BIBLIOGRAPHY") {
		t.Error("bibliography field misclassified")
	}
}
