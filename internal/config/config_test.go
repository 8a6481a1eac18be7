package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"go.uber.org/zap"

	"github.com/noterools/zotlink/internal/bookmark"
)

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := ConfigPath(), "/custom/config/zotlink/config.yml"; got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_DATA_HOME", "/custom/data")
	if got, want := DefaultLedgerDir(), "/custom/data/zotlink"; got != want {
		t.Errorf("DefaultLedgerDir() = %q, want %q", got, want)
	}
}

func TestLoad_NotFound(t *testing.T) {
	ResetCache()
	defer ResetCache()

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.IDStyle != "author-year" || cfg.EtAlThreshold != 3 || !cfg.NoUnderline {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoad_File(t *testing.T) {
	ResetCache()
	defer ResetCache()

	path := filepath.Join(t.TempDir(), ConfigFile)
	content := "numbered: true\nid_style: source-key\net_al_threshold: 2\nlink_color: \"\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Numbered || cfg.IDStyle != "source-key" || cfg.EtAlThreshold != 2 || cfg.LinkColor != "" {
		t.Errorf("Load() = %+v", cfg)
	}
	// Keys absent from the file keep their defaults
	if !cfg.ItalicCNContainer || cfg.LogLevel != "info" {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.Mode() != "numbered" {
		t.Errorf("Mode() = %q", cfg.Mode())
	}

	// Cached until reset
	if err := os.WriteFile(path, []byte("numbered: false\n"), 0644); err != nil {
		t.Fatal(err)
	}
	again, _ := Load(path)
	if again != cfg {
		t.Error("Load() did not return the cached config")
	}
}

func TestLoad_Invalid(t *testing.T) {
	ResetCache()
	defer ResetCache()

	path := filepath.Join(t.TempDir(), ConfigFile)
	if err := os.WriteFile(path, []byte("numbered: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	ResetCache()
	defer ResetCache()

	path := filepath.Join(t.TempDir(), "nested", ConfigFile)
	cfg := Default()
	cfg.StrictCollisions = true
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !loaded.StrictCollisions {
		t.Error("StrictCollisions lost in round trip")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("ZOTLINK_NUMBERED", "true")
	t.Setenv("ZOTLINK_ET_AL_THRESHOLD", "5")
	t.Setenv("ZOTLINK_LINK_COLOR", "FF0000")
	t.Setenv("ZOTLINK_NO_UNDERLINE", "0")
	t.Setenv("ZOTLINK_CROSSREF_KEYWORDS", "Figure, 图,,Table ")
	t.Setenv("ZOTLINK_CROSSREF_COLOR", "00FF00")
	t.Setenv("ZOTLINK_CROSSREF_BOLD", "true")

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if !cfg.Numbered || cfg.EtAlThreshold != 5 || cfg.LinkColor != "FF0000" || cfg.NoUnderline {
		t.Errorf("ApplyEnv() = %+v", cfg)
	}
	if !slices.Equal(cfg.CrossRefKeywords, []string{"Figure", "图", "Table"}) || cfg.CrossRefColor != "00FF00" || !cfg.CrossRefBold {
		t.Errorf("ApplyEnv() cross-reference keys = %q %q %v", cfg.CrossRefKeywords, cfg.CrossRefColor, cfg.CrossRefBold)
	}

	t.Setenv("ZOTLINK_STRICT_COLLISIONS", "maybe")
	if err := Default().ApplyEnv(); err == nil {
		t.Error("ApplyEnv() expected error for invalid bool")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty style", func(c *Config) { c.IDStyle = "" }, false},
		{"bad style", func(c *Config) { c.IDStyle = "apa" }, true},
		{"negative et al", func(c *Config) { c.EtAlThreshold = -1 }, true},
		{"no colour", func(c *Config) { c.LinkColor = "" }, false},
		{"short colour", func(c *Config) { c.LinkColor = "FFF" }, true},
		{"non-hex colour", func(c *Config) { c.LinkColor = "GGGGGG" }, true},
		{"cross-reference colour", func(c *Config) { c.CrossRefColor = "00ff00" }, false},
		{"bad cross-reference colour", func(c *Config) { c.CrossRefColor = "#00FF00" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"Figure", []string{"Figure"}},
		{" Figure , Table ", []string{"Figure", "Table"}},
		{"Figure,,图,", []string{"Figure", "图"}},
	}
	for _, tt := range tests {
		if got := SplitList(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("SplitList(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGenerator(t *testing.T) {
	cfg := Default()
	cfg.IDStyle = "source-key"
	g, err := cfg.Generator()
	if err != nil {
		t.Fatalf("Generator() error = %v", err)
	}
	if g.Style != bookmark.StyleSourceKey || g.EtAl != 3 {
		t.Errorf("Generator() = %+v", g)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got := ExpandPath("~/ledger"); got != filepath.Join(home, "ledger") {
		t.Errorf("ExpandPath(~/ledger) = %q", got)
	}
	if got := ExpandPath("/abs"); got != "/abs" {
		t.Errorf("ExpandPath(/abs) = %q", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug": "debug", "WARN": "warn", "warning": "warn", "error": "error", "bogus": "info",
	}
	for in, want := range tests {
		if got := ParseLevel(in).String(); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}

	logger, err := InitLogger("error")
	if err != nil {
		t.Fatalf("InitLogger() error = %v", err)
	}
	if logger.Core().Enabled(zap.WarnLevel) {
		t.Error("error-level logger enables warn")
	}
	Cleanup()
}
