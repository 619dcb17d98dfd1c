package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds optional loader settings read from a JSON file. Everything
// has a working default; the loader runs fine with no config at all.
type Config struct {
	// PackagePaths are extra ROS 1 style package roots searched after the
	// ROS_PACKAGE_PATH entries.
	PackagePaths []string `json:"package_paths"`
	// AmentPrefixes are extra ROS 2 install prefixes searched before the
	// AMENT_PREFIX_PATH entries.
	AmentPrefixes []string `json:"ament_prefixes"`

	EntityPathPrefix string `json:"entity_path_prefix"`
	TextureMaxDim    int    `json:"texture_max_dim"`
}

// Load reads a JSON config file. Fields not set in the file keep their
// zero values until Resolve fills in defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	EntityPathPrefix string
}

// Resolve applies flag overrides and fills in defaults.
func (c *Config) Resolve(flags Flags) {
	if flags.EntityPathPrefix != "" {
		c.EntityPathPrefix = flags.EntityPathPrefix
	}
	if c.TextureMaxDim <= 0 {
		c.TextureMaxDim = 1024
	}
}
