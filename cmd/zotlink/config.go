package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noterools/zotlink/internal/bookmark"
	"github.com/noterools/zotlink/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values.

Without arguments the effective configuration is shown, after .env and
ZOTLINK_* environment overrides. Setting a value writes the config file.

Usage:
  zotlink config                        # Show all config
  zotlink config id-style               # Get specific value
  zotlink config id-style source-key    # Set value
  zotlink config link-color ""          # Leave citation colour unchanged

Keys:
  numbered             Numbered citation style (true/false)
  id-style             author-year or source-key
  et-al-threshold      Authors kept in identifiers before et al. (0 disables)
  strict-collisions    Abort on identifier collisions (true/false)
  italic-cn-container  Italicise container and publisher of Chinese entries
  link-color           Citation colour as RRGGBB, empty leaves it unchanged
  no-underline         Remove the hyperlink underline (true/false)
  ledger-dir           Directory of the run ledger
  log-level            debug, info, warn or error
  crossref-keywords    Comma-separated keywords; REF cross-references containing one are restyled
  crossref-color       Cross-reference colour as RRGGBB, empty leaves it unchanged
  crossref-bold        Make matching cross-references bold (true/false)`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
	Path   string `json:"path"`
}

// configKey reads and writes one config field as text.
type configKey struct {
	get func(*config.Config) string
	set func(*config.Config, string) error
}

func boolKey(field func(*config.Config) *bool) configKey {
	return configKey{
		get: func(c *config.Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *config.Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid boolean %q", v)
			}
			*field(c) = b
			return nil
		},
	}
}

var configKeys = map[string]configKey{
	"numbered":            boolKey(func(c *config.Config) *bool { return &c.Numbered }),
	"strict-collisions":   boolKey(func(c *config.Config) *bool { return &c.StrictCollisions }),
	"italic-cn-container": boolKey(func(c *config.Config) *bool { return &c.ItalicCNContainer }),
	"no-underline":        boolKey(func(c *config.Config) *bool { return &c.NoUnderline }),
	"crossref-bold":       boolKey(func(c *config.Config) *bool { return &c.CrossRefBold }),
	"crossref-keywords": {
		get: func(c *config.Config) string { return strings.Join(c.CrossRefKeywords, ",") },
		set: func(c *config.Config, v string) error {
			c.CrossRefKeywords = config.SplitList(v)
			return nil
		},
	},
	"crossref-color": {
		get: func(c *config.Config) string { return c.CrossRefColor },
		set: func(c *config.Config, v string) error {
			v = strings.ToUpper(strings.TrimPrefix(v, "#"))
			if err := config.ValidateColor(v); err != nil {
				return err
			}
			c.CrossRefColor = v
			return nil
		},
	},
	"id-style": {
		get: func(c *config.Config) string { return c.IDStyle },
		set: func(c *config.Config, v string) error {
			style, err := bookmark.ParseStyle(v)
			if err != nil {
				return err
			}
			c.IDStyle = string(style)
			return nil
		},
	},
	"et-al-threshold": {
		get: func(c *config.Config) string { return strconv.Itoa(c.EtAlThreshold) },
		set: func(c *config.Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid et-al threshold %q (want an integer >= 0)", v)
			}
			c.EtAlThreshold = n
			return nil
		},
	},
	"link-color": {
		get: func(c *config.Config) string { return c.LinkColor },
		set: func(c *config.Config, v string) error {
			v = strings.ToUpper(strings.TrimPrefix(v, "#"))
			if err := config.ValidateColor(v); err != nil {
				return err
			}
			c.LinkColor = v
			return nil
		},
	},
	"ledger-dir": {
		get: func(c *config.Config) string { return c.LedgerDir },
		set: func(c *config.Config, v string) error {
			c.LedgerDir = config.ExpandPath(v)
			return nil
		},
	},
	"log-level": {
		get: func(c *config.Config) string { return c.LogLevel },
		set: func(c *config.Config, v string) error {
			switch strings.ToLower(v) {
			case "debug", "info", "warn", "warning", "error":
				c.LogLevel = strings.ToLower(v)
				return nil
			}
			return fmt.Errorf("invalid log level %q", v)
		},
	},
}

func runConfig(cmd *cobra.Command, args []string) error {
	// No args: show all config
	if len(args) == 0 {
		cfg := mustLoadConfig()
		if humanOutput {
			keys := make([]string, 0, len(configKeys))
			for k := range configKeys {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%-20s %s\n", k+":", configKeys[k].get(cfg))
			}
		} else {
			outputJSON(cfg)
		}
		return nil
	}

	key := normalizeKey(args[0])
	ck, ok := configKeys[key]
	if !ok {
		exitWithError(ExitError, "unknown configuration key: %s", args[0])
	}

	// One arg: get specific value
	if len(args) == 1 {
		cfg := mustLoadConfig()
		if humanOutput {
			fmt.Println(ck.get(cfg))
		} else {
			outputJSON(map[string]string{strings.ReplaceAll(key, "-", "_"): ck.get(cfg)})
		}
		return nil
	}

	// Two args: set value in the file, without environment overrides
	path := configPath
	if path == "" {
		path = config.ConfigPath()
	}
	loaded, err := config.Load(path)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	cfg := *loaded
	if err := ck.set(&cfg, args[1]); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := cfg.Save(path); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}
	*loaded = cfg

	value := ck.get(&cfg)
	if humanOutput {
		fmt.Printf("Updated %s to %q\n", key, value)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value, Path: path})
	}
	return nil
}

// normalizeKey converts key formats (id-style, id_style, ID_STYLE) to consistent format
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "-")
	return key
}
