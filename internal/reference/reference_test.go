package reference

import "testing"

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		tag  string
		want Language
	}{
		{"", Chinese},
		{"   ", Chinese},
		{"en", English},
		{"en-US", English},
		{"EN", English},
		{"English", English},
		{"de", English},
		{"cn", Chinese},
		{"CN", Chinese},
		{"zh", Chinese},
		{"zh-CN", Chinese},
		{"zh-Hans", Chinese},
		{"中文", Chinese},
		{"Chinese", Chinese},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := ParseLanguage(tt.tag); got != tt.want {
				t.Errorf("ParseLanguage(%q) = %q, want %q", tt.tag, got, tt.want)
			}
		})
	}
}

func TestFirstAuthorName(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{
			name: "latin family only",
			rec:  Record{Language: English, Authors: []Name{{Family: "Smith", Given: "John"}}},
			want: "Smith",
		},
		{
			name: "cjk family and given",
			rec:  Record{Language: Chinese, Authors: []Name{{Family: "王", Given: "芳"}}},
			want: "王芳",
		},
		{
			name: "literal",
			rec:  Record{Language: English, Authors: []Name{{Literal: "World Health Organization"}}},
			want: "World Health Organization",
		},
		{
			name: "no authors",
			rec:  Record{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.FirstAuthorName(); got != tt.want {
				t.Errorf("FirstAuthorName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNameIsLiteral(t *testing.T) {
	tests := []struct {
		name string
		n    Name
		want bool
	}{
		{"literal", Name{Literal: "World Health Organization"}, true},
		{"family", Name{Family: "Smith", Given: "John"}, false},
		{"family and literal", Name{Family: "Smith", Literal: "J. Smith"}, false},
		{"given only", Name{Given: "X"}, false},
		{"empty", Name{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.n.IsLiteral(); got != tt.want {
				t.Errorf("IsLiteral() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := (Name{Given: "X"}).Rendered(English); got != "" {
		t.Errorf("Rendered() of a given-only name = %q, want empty family", got)
	}
}
