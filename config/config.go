package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kirsle/configdir"
	"github.com/pelletier/go-toml/v2"
	"github.com/titanous/json5"
)

const (
	JSONName = "passnote.json"
	TOMLName = "passnote.toml"
)

type Config struct {
	// Indent is the number of spaces per level in JSON output; 0 writes
	// compact JSON.
	Indent int `toml:"indent" json:"indent"`
	// Verify decodes every file written by encode and compares it with
	// the input tree.
	Verify bool `toml:"verify" json:"verify"`
	// CompressionLevel applies to .zst outputs: fastest, default,
	// better or best.
	CompressionLevel  string `toml:"compression_level" json:"compression_level"`
	MaxDepth          int    `toml:"max_depth" json:"max_depth"`
	ProgressThreshold int64  `toml:"progress_threshold" json:"progress_threshold"`
	Listen            string `toml:"listen" json:"listen"`
	// Color is auto, always or never.
	Color string `toml:"color" json:"color"`
}

func Default() Config {
	return Config{
		CompressionLevel:  "default",
		MaxDepth:          1024,
		ProgressThreshold: 8 << 20,
		Listen:            "localhost:4000",
		Color:             "auto",
	}
}

// Dir is where the configuration lives: $PASSNOTE_CONFIG, or the
// per-user config directory.
func Dir() string {
	if dir := os.Getenv("PASSNOTE_CONFIG"); dir != "" {
		return dir
	}
	return configdir.LocalConfig("passnote")
}

// Load reads passnote.json (JSON5) from dir, or passnote.toml if there
// is no JSON file, over the defaults. A missing file is not an error.
// Environment overrides are applied last. It returns the path of the
// file that was read, if any.
func Load(dir string) (Config, string, error) {
	cfg := Default()
	jsonPath := filepath.Join(dir, JSONName)
	tomlPath := filepath.Join(dir, TOMLName)
	used := ""
	b, err := os.ReadFile(jsonPath)
	if err == nil {
		if err := json5.Unmarshal(b, &cfg); err != nil {
			return cfg, jsonPath, fmt.Errorf("%s: %w", jsonPath, err)
		}
		used = jsonPath
	} else if os.IsNotExist(err) {
		b, err = os.ReadFile(tomlPath)
		if err == nil {
			if err := toml.Unmarshal(b, &cfg); err != nil {
				return cfg, tomlPath, fmt.Errorf("%s: %w", tomlPath, err)
			}
			used = tomlPath
		} else if !os.IsNotExist(err) {
			return cfg, tomlPath, fmt.Errorf("%s: %w", tomlPath, err)
		}
	} else {
		return cfg, jsonPath, fmt.Errorf("%s: %w", jsonPath, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, used, err
	}
	return cfg, used, cfg.validate()
}

func (c *Config) applyEnv() error {
	if s := os.Getenv("PASSNOTE_INDENT"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("PASSNOTE_INDENT: %w", err)
		}
		c.Indent = v
	}
	if s := os.Getenv("PASSNOTE_VERIFY"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("PASSNOTE_VERIFY: %w", err)
		}
		c.Verify = v
	}
	if s := os.Getenv("PASSNOTE_MAX_DEPTH"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("PASSNOTE_MAX_DEPTH: %w", err)
		}
		c.MaxDepth = v
	}
	if s := os.Getenv("LISTEN"); s != "" {
		c.Listen = s
	}
	return nil
}

func (c *Config) validate() error {
	if c.Indent < 0 || c.Indent > 16 {
		return fmt.Errorf("indent %d out of range 0-16", c.Indent)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("negative max_depth %d", c.MaxDepth)
	}
	switch c.Color {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("color must be auto, always or never, not %q", c.Color)
	}
	return nil
}
