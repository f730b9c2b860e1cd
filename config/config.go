// Package config loads the optional qoiconv TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"qoiconv/qoi"
)

const DefaultPath = "qoiconv.toml"

type WatchConfig struct {
	Dirs       []string `toml:"dirs"`
	Dest       string   `toml:"dest"`
	DebounceMS int      `toml:"debounce_ms"` // 0 = default (500ms)
}

func (w WatchConfig) Debounce() time.Duration {
	if w.DebounceMS > 0 {
		return time.Duration(w.DebounceMS) * time.Millisecond
	}
	return 500 * time.Millisecond
}

type Config struct {
	Workers    int         `toml:"workers"`
	Colorspace string      `toml:"colorspace"`
	Watch      WatchConfig `toml:"watch"`
}

func Default() *Config {
	return &Config{
		Colorspace: "srgb",
		Watch: WatchConfig{
			Dest: "qoi",
		},
	}
}

// ColorspaceTag maps the configured name to the header tag.
func (c *Config) ColorspaceTag() (qoi.Colorspace, error) {
	switch c.Colorspace {
	case "", "srgb":
		return qoi.SRGB, nil
	case "linear":
		return qoi.Linear, nil
	}
	return 0, fmt.Errorf("invalid colorspace %q, should be srgb or linear", c.Colorspace)
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if _, err := cfg.ColorspaceTag(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}
