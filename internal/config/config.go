// Package config provides configuration loading and discovery for
// buildfacts.
//
// Configuration is loaded from multiple sources with the following
// priority (highest to lowest):
//  1. CLI flags
//  2. Environment variables (BUILDFACTS_* prefix)
//  3. Config file (closest .buildfacts.toml or buildfacts.toml)
//  4. Built-in defaults
//
// Config file discovery follows a cascading pattern similar to Ruff:
// starting from the target file's directory, walk up the filesystem
// until a config file is found. The closest config wins (no merging).
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigFileNames defines the config file names to search for, in priority order.
var ConfigFileNames = []string{".buildfacts.toml", "buildfacts.toml"}

// EnvPrefix is the prefix for environment variables.
const EnvPrefix = "BUILDFACTS_"

// Config represents the complete buildfacts configuration.
type Config struct {
	// Output configures output format and destination.
	Output OutputConfig `json:"output" koanf:"output"`

	// Checks contains configuration for individual checks.
	Checks ChecksConfig `json:"checks" koanf:"checks"`

	// ConfigFile is the path to the config file that was loaded (if any).
	// This is metadata, not loaded from config.
	ConfigFile string `json:"-" koanf:"-"`
}

// OutputConfig configures output formatting and behavior.
type OutputConfig struct {
	// Format specifies the output format (text, json, sarif).
	Format string `json:"format,omitempty" koanf:"format"`

	// Path specifies where to write output (stdout, stderr, or a file path).
	Path string `json:"path,omitempty" koanf:"path"`
}

// ChecksConfig configures the checks run by the check command.
//
// Example TOML configuration:
//
//	[checks]
//	unused-stages = "on"
//	max-lines = 500
//	fail-mode = "auto"
type ChecksConfig struct {
	// UnusedStages controls the unused-stage check: on, off.
	UnusedStages string `json:"unused-stages,omitempty" koanf:"unused-stages"`

	// MaxLines is the maximum allowed file length (0 = unlimited).
	MaxLines int `json:"max-lines,omitempty" koanf:"max-lines"`

	// FailMode controls when findings cause a non-zero exit:
	// always, never, or auto (fail only when running in CI).
	FailMode string `json:"fail-mode,omitempty" koanf:"fail-mode"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Format: "text",
			Path:   "stdout",
		},
		Checks: ChecksConfig{
			UnusedStages: "on",
			MaxLines:     0,
			FailMode:     "auto",
		},
	}
}

// Load loads configuration for a target file path.
// It discovers the closest config file, loads it, applies environment
// variable overrides, then flag overrides (highest priority).
func Load(targetPath string, overrides map[string]any) (*Config, error) {
	return loadWithConfigPath(Discover(targetPath), overrides)
}

// LoadFromFile loads configuration from a specific config file path.
// Unlike Load, it does not perform config discovery.
func LoadFromFile(configPath string, overrides map[string]any) (*Config, error) {
	return loadWithConfigPath(configPath, overrides)
}

func loadWithConfigPath(configPath string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, err
	}

	// 2. Load config file if provided
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, err
		}
	}

	// 3. Load environment variables (BUILDFACTS_* prefix)
	// BUILDFACTS_CHECKS_MAX_LINES -> checks.max-lines
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKeyTransform,
	}), nil); err != nil {
		return nil, err
	}

	// 4. CLI flag overrides win over everything.
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.ConfigFile = configPath
	return cfg, nil
}

// knownHyphenatedKeys maps dot-separated patterns to their hyphenated
// equivalents. Add new entries here when adding hyphenated config keys.
var knownHyphenatedKeys = map[string]string{
	"unused.stages": "unused-stages",
	"max.lines":     "max-lines",
	"fail.mode":     "fail-mode",
}

var allowedEnvTopLevelKeys = map[string]struct{}{
	"output": {},
	"checks": {},
}

// envKeyTransform converts environment variable names to config keys.
// BUILDFACTS_OUTPUT_FORMAT -> output.format
// BUILDFACTS_CHECKS_MAX_LINES -> checks.max-lines
func envKeyTransform(k, v string) (string, any) {
	s := strings.TrimPrefix(k, EnvPrefix)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", ".")
	for pattern, replacement := range knownHyphenatedKeys {
		s = strings.ReplaceAll(s, pattern, replacement)
	}

	topLevel := s
	if before, _, ok := strings.Cut(s, "."); ok {
		topLevel = before
	}
	if _, ok := allowedEnvTopLevelKeys[topLevel]; !ok {
		return "", nil
	}

	return s, v
}

// Discover finds the closest config file for a target file path.
// It walks up the directory tree from the target's directory, checking
// for config files at each level. Returns empty string if no config
// file is found.
func Discover(targetPath string) string {
	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return ""
	}

	dir := filepath.Dir(absPath)

	for {
		for _, name := range ConfigFileNames {
			configPath := filepath.Join(dir, name)
			if fileExists(configPath) {
				return configPath
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
