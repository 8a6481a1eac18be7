// Package config handles the zotlink configuration file, its environment
// overrides and the logger built from it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/noterools/zotlink/internal/bookmark"
)

// Config represents configuration stored in ~/.config/zotlink/config.yml.
type Config struct {
	Numbered          bool   `yaml:"numbered" json:"numbered"`
	IDStyle           string `yaml:"id_style" json:"id_style"`
	EtAlThreshold     int    `yaml:"et_al_threshold" json:"et_al_threshold"`
	StrictCollisions  bool   `yaml:"strict_collisions" json:"strict_collisions"`
	ItalicCNContainer bool   `yaml:"italic_cn_container" json:"italic_cn_container"`
	LinkColor         string `yaml:"link_color" json:"link_color"` // RRGGBB, empty leaves colour unchanged
	NoUnderline       bool   `yaml:"no_underline" json:"no_underline"`
	LedgerDir         string `yaml:"ledger_dir" json:"ledger_dir"`
	LogLevel          string `yaml:"log_level" json:"log_level"`

	// Cross-references (REF _Ref fields) whose text contains one of
	// CrossRefKeywords get CrossRefColor and CrossRefBold. No keywords, no styling.
	CrossRefKeywords []string `yaml:"crossref_keywords,omitempty" json:"crossref_keywords,omitempty"`
	CrossRefColor    string   `yaml:"crossref_color,omitempty" json:"crossref_color,omitempty"`
	CrossRefBold     bool     `yaml:"crossref_bold,omitempty" json:"crossref_bold,omitempty"`
}

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME and XDG_DATA_HOME.
	ConfigDir = "zotlink"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// EnvPrefix starts every environment override.
	EnvPrefix = "ZOTLINK_"
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		IDStyle:           string(bookmark.StyleAuthorYear),
		EtAlThreshold:     3,
		ItalicCNContainer: true,
		LinkColor:         "0000FF",
		NoUnderline:       true,
		LedgerDir:         DefaultLedgerDir(),
		LogLevel:          "info",
	}
}

// configCache caches the loaded config per path.
var configCache = map[string]*Config{}

// ConfigPath returns the path to the config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/zotlink/config.yml.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// DefaultLedgerDir returns the run ledger directory.
// Respects XDG_DATA_HOME, defaults to ~/.local/share/zotlink.
func DefaultLedgerDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, ConfigDir)
}

// Load reads the config file at path over the defaults. An empty path
// selects ConfigPath. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	if cfg, ok := configCache[path]; ok {
		return cfg, nil
	}

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			configCache[path] = cfg
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.LedgerDir = ExpandPath(cfg.LedgerDir)

	configCache[path] = cfg
	return cfg, nil
}

// ResetCache clears the cached configs.
// Useful for testing.
func ResetCache() {
	configCache = map[string]*Config{}
}

// Save writes the configuration as YAML, creating its directory.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// LoadDotEnv loads a .env file from the working directory, if any.
// Variables already set in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// ApplyEnv overrides fields from ZOTLINK_* environment variables.
func (c *Config) ApplyEnv() error {
	bools := map[string]*bool{
		"NUMBERED":            &c.Numbered,
		"STRICT_COLLISIONS":   &c.StrictCollisions,
		"ITALIC_CN_CONTAINER": &c.ItalicCNContainer,
		"NO_UNDERLINE":        &c.NoUnderline,
		"CROSSREF_BOLD":       &c.CrossRefBold,
	}
	for name, field := range bools {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*field = b
	}

	strs := map[string]*string{
		"ID_STYLE":       &c.IDStyle,
		"LINK_COLOR":     &c.LinkColor,
		"LEDGER_DIR":     &c.LedgerDir,
		"LOG_LEVEL":      &c.LogLevel,
		"CROSSREF_COLOR": &c.CrossRefColor,
	}
	for name, field := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*field = v
		}
	}
	c.LedgerDir = ExpandPath(c.LedgerDir)

	if v, ok := os.LookupEnv(EnvPrefix + "CROSSREF_KEYWORDS"); ok {
		c.CrossRefKeywords = SplitList(v)
	}

	if v, ok := os.LookupEnv(EnvPrefix + "ET_AL_THRESHOLD"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sET_AL_THRESHOLD: %w", EnvPrefix, err)
		}
		c.EtAlThreshold = n
	}
	return nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if _, err := bookmark.ParseStyle(c.IDStyle); err != nil {
		return err
	}
	if c.EtAlThreshold < 0 {
		return fmt.Errorf("invalid et_al_threshold: %d (must be >= 0)", c.EtAlThreshold)
	}
	if err := ValidateColor(c.LinkColor); err != nil {
		return fmt.Errorf("link_color: %w", err)
	}
	if err := ValidateColor(c.CrossRefColor); err != nil {
		return fmt.Errorf("crossref_color: %w", err)
	}
	return nil
}

// SplitList splits a comma-separated list, dropping blank items.
func SplitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Generator returns the identifier generator the config selects.
func (c *Config) Generator() (bookmark.Generator, error) {
	style, err := bookmark.ParseStyle(c.IDStyle)
	if err != nil {
		return bookmark.Generator{}, err
	}
	return bookmark.Generator{Style: style, EtAl: c.EtAlThreshold}, nil
}

// Mode names the identifier mode for reports: numbered or the id style.
func (c *Config) Mode() string {
	if c.Numbered {
		return "numbered"
	}
	if c.IDStyle == "" {
		return string(bookmark.StyleAuthorYear)
	}
	return c.IDStyle
}

// ValidateColor checks an RRGGBB hex colour. Empty is allowed.
func ValidateColor(color string) error {
	if color == "" {
		return nil
	}
	if len(color) != 6 {
		return fmt.Errorf("invalid colour: %q (want RRGGBB)", color)
	}
	if _, err := strconv.ParseUint(color, 16, 32); err != nil {
		return fmt.Errorf("invalid colour: %q (want RRGGBB)", color)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
