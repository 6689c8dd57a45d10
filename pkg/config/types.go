package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent etch configuration stored as config.toml
// in the .etch/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int           `toml:"version"`
	Insert  InsertConfig  `toml:"insert"`
	Summary SummaryConfig `toml:"summary"`
	Extract ExtractConfig `toml:"extract"`
	MCP     MCPConfig     `toml:"mcp"`
	Dev     DevConfig     `toml:"dev"`
}

// InsertConfig holds the insertion defaults applied when a command does not
// override them.
type InsertConfig struct {
	// DefaultImportance is used when a command carries no importance
	// argument. Must be within [0, 1]. No omitempty: 0 is a valid
	// importance and must survive a save/load round-trip.
	DefaultImportance float64 `toml:"default_importance"`

	// MemoryType is the default memory_type tag for inserted records.
	MemoryType string `toml:"memory_type,omitempty"`

	// MaxContentChars caps the length of the memory text.
	MaxContentChars int `toml:"max_content_chars,omitempty"`

	// EnginePlugin is the registered name of the host plugin that carries
	// the memory engine.
	EnginePlugin string `toml:"engine_plugin,omitempty"`
}

// SummaryConfig holds the separators used to build the derived summary.
// These must match the external engine's own summarization path exactly.
type SummaryConfig struct {
	PrimarySeparator   string `toml:"primary_separator,omitempty"`
	SecondarySeparator string `toml:"secondary_separator,omitempty"`
	MaxFacts           int    `toml:"max_facts,omitempty"`
}

// ExtractConfig holds the LLM provider settings for structured-field
// extraction on the free-text path.
type ExtractConfig struct {
	Provider       string `toml:"provider,omitempty"`
	Model          string `toml:"model,omitempty"`
	Target         string `toml:"target,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds,omitempty"`
}

// MCPConfig holds MCP server settings.
type MCPConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// DevConfig holds settings for the reference recall engine mounted by
// `etch serve --dev`.
type DevConfig struct {
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"insert.default_importance": {
		get: func(c *Config) string {
			return strconv.FormatFloat(c.Insert.DefaultImportance, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid importance %q: %w", v, err)
			}
			if f < 0 || f > 1 {
				return fmt.Errorf("importance %v out of range [0, 1]", f)
			}
			c.Insert.DefaultImportance = f
			return nil
		},
	},
	"insert.memory_type": {
		get: func(c *Config) string { return c.Insert.MemoryType },
		set: func(c *Config, v string) error { c.Insert.MemoryType = v; return nil },
	},
	"insert.max_content_chars": {
		get: func(c *Config) string { return strconv.Itoa(c.Insert.MaxContentChars) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid max_content_chars %q", v)
			}
			c.Insert.MaxContentChars = n
			return nil
		},
	},
	"insert.engine_plugin": {
		get: func(c *Config) string { return c.Insert.EnginePlugin },
		set: func(c *Config, v string) error { c.Insert.EnginePlugin = v; return nil },
	},
	"summary.primary_separator": {
		get: func(c *Config) string { return c.Summary.PrimarySeparator },
		set: func(c *Config, v string) error { c.Summary.PrimarySeparator = v; return nil },
	},
	"summary.secondary_separator": {
		get: func(c *Config) string { return c.Summary.SecondarySeparator },
		set: func(c *Config, v string) error { c.Summary.SecondarySeparator = v; return nil },
	},
	"summary.max_facts": {
		get: func(c *Config) string { return strconv.Itoa(c.Summary.MaxFacts) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid max_facts %q", v)
			}
			c.Summary.MaxFacts = n
			return nil
		},
	},
	"extract.provider": {
		get: func(c *Config) string { return c.Extract.Provider },
		set: func(c *Config, v string) error { c.Extract.Provider = v; return nil },
	},
	"extract.model": {
		get: func(c *Config) string { return c.Extract.Model },
		set: func(c *Config, v string) error { c.Extract.Model = v; return nil },
	},
	"extract.target": {
		get: func(c *Config) string { return c.Extract.Target },
		set: func(c *Config, v string) error { c.Extract.Target = v; return nil },
	},
	"extract.timeout_seconds": {
		get: func(c *Config) string { return strconv.Itoa(c.Extract.TimeoutSeconds) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid timeout_seconds %q", v)
			}
			c.Extract.TimeoutSeconds = n
			return nil
		},
	},
	"mcp.listen": {
		get: func(c *Config) string { return c.MCP.Listen },
		set: func(c *Config, v string) error { c.MCP.Listen = v; return nil },
	},
	"dev.sqlite_path": {
		get: func(c *Config) string { return c.Dev.SQLitePath },
		set: func(c *Config, v string) error { c.Dev.SQLitePath = v; return nil },
	},
}
