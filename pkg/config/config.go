// Package config manages the persistent etch configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/inkmem/etch/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	// If no .etch/ directory was resolved, targetPath stays empty;
	// LoadConfig will return defaults and SaveConfig will error clearly.
	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Always set targetPath when the directory exists so SaveConfig
	// can create or overwrite the file.
	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns the supported configuration key names in a stable,
// logical order matching the TOML section layout.
func ValidConfigKeys() []string {
	ordered := []string{
		"insert.default_importance",
		"insert.memory_type",
		"insert.max_content_chars",
		"insert.engine_plugin",
		"summary.primary_separator",
		"summary.secondary_separator",
		"summary.max_facts",
		"extract.provider",
		"extract.model",
		"extract.target",
		"extract.timeout_seconds",
		"mcp.listen",
		"dev.sqlite_path",
	}

	// Sanity: only return keys that actually exist in the map, then append
	// any map keys missing from the ordered list.
	result := make([]string, 0, len(configKeys))
	seen := make(map[string]bool, len(configKeys))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
			seen[k] = true
		}
	}
	for k := range configKeys {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads the configuration from config.toml in the target .etch/
// directory. If the file does not exist, returns NewDefaultConfig() so
// callers always receive a fully-populated Config with sane defaults.
// Fields explicitly set in the file override the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, md, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg, md)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults fills unset fields in cfg with values from
// NewDefaultConfig(). For default_importance the decode metadata decides
// presence, since 0 is a valid importance; the remaining fields treat
// their zero value as unset (0 is out of range for all of them anyway).
func applyDefaults(cfg *Config, md toml.MetaData) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}

	if !md.IsDefined("insert", "default_importance") {
		cfg.Insert.DefaultImportance = defaults.Insert.DefaultImportance
	}
	if cfg.Insert.MemoryType == "" {
		cfg.Insert.MemoryType = defaults.Insert.MemoryType
	}
	if cfg.Insert.MaxContentChars == 0 {
		cfg.Insert.MaxContentChars = defaults.Insert.MaxContentChars
	}
	if cfg.Insert.EnginePlugin == "" {
		cfg.Insert.EnginePlugin = defaults.Insert.EnginePlugin
	}

	if cfg.Summary.PrimarySeparator == "" {
		cfg.Summary.PrimarySeparator = defaults.Summary.PrimarySeparator
	}
	if cfg.Summary.SecondarySeparator == "" {
		cfg.Summary.SecondarySeparator = defaults.Summary.SecondarySeparator
	}
	if cfg.Summary.MaxFacts == 0 {
		cfg.Summary.MaxFacts = defaults.Summary.MaxFacts
	}

	if cfg.Extract.Provider == "" {
		cfg.Extract.Provider = defaults.Extract.Provider
	}
	if cfg.Extract.TimeoutSeconds == 0 {
		cfg.Extract.TimeoutSeconds = defaults.Extract.TimeoutSeconds
	}

	if cfg.MCP.Listen == "" {
		cfg.MCP.Listen = defaults.MCP.Listen
	}

	if cfg.Dev.SQLitePath == "" {
		cfg.Dev.SQLitePath = defaults.Dev.SQLitePath
	}
}

// Validate checks invariants that the typed fields cannot express.
func (c *Config) Validate() error {
	if c.Insert.DefaultImportance < 0 || c.Insert.DefaultImportance > 1 {
		return fmt.Errorf("insert.default_importance %v out of range [0, 1]",
			c.Insert.DefaultImportance)
	}
	if c.Insert.MaxContentChars <= 0 {
		return fmt.Errorf("insert.max_content_chars must be positive, got %d",
			c.Insert.MaxContentChars)
	}
	if c.Summary.MaxFacts <= 0 {
		return fmt.Errorf("summary.max_facts must be positive, got %d",
			c.Summary.MaxFacts)
	}
	if c.Extract.TimeoutSeconds <= 0 {
		return fmt.Errorf("extract.timeout_seconds must be positive, got %d",
			c.Extract.TimeoutSeconds)
	}

	return nil
}

// SaveConfig persists the configuration to config.toml in the target .etch/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// ParseConfigTOML parses raw TOML bytes into a Config. The returned
// metadata tells callers which keys were actually present in the file.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, toml.MetaData, error) {
	cfg := &Config{}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, md, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, md, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, md, nil
}
