package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/inkmem/etch/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the ETCH_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (ETCH_INSERT_DEFAULT_IMPORTANCE, ETCH_MCP_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: ETCH_INSERT_MEMORY_TYPE, ETCH_EXTRACT_MODEL, etc.
	v.SetEnvPrefix("ETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Insert
	v.SetDefault("insert.default_importance", d.Insert.DefaultImportance)
	v.SetDefault("insert.memory_type", d.Insert.MemoryType)
	v.SetDefault("insert.max_content_chars", d.Insert.MaxContentChars)
	v.SetDefault("insert.engine_plugin", d.Insert.EnginePlugin)

	// Summary
	v.SetDefault("summary.primary_separator", d.Summary.PrimarySeparator)
	v.SetDefault("summary.secondary_separator", d.Summary.SecondarySeparator)
	v.SetDefault("summary.max_facts", d.Summary.MaxFacts)

	// Extract
	v.SetDefault("extract.provider", d.Extract.Provider)
	v.SetDefault("extract.model", d.Extract.Model)
	v.SetDefault("extract.target", d.Extract.Target)
	v.SetDefault("extract.timeout_seconds", d.Extract.TimeoutSeconds)

	// MCP
	v.SetDefault("mcp.listen", d.MCP.Listen)

	// Dev
	v.SetDefault("dev.sqlite_path", d.Dev.SQLitePath)
}

// FromViper materializes a Config from the viper precedence chain and
// validates it.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		Insert: InsertConfig{
			DefaultImportance: v.GetFloat64("insert.default_importance"),
			MemoryType:        v.GetString("insert.memory_type"),
			MaxContentChars:   v.GetInt("insert.max_content_chars"),
			EnginePlugin:      v.GetString("insert.engine_plugin"),
		},
		Summary: SummaryConfig{
			PrimarySeparator:   v.GetString("summary.primary_separator"),
			SecondarySeparator: v.GetString("summary.secondary_separator"),
			MaxFacts:           v.GetInt("summary.max_facts"),
		},
		Extract: ExtractConfig{
			Provider:       v.GetString("extract.provider"),
			Model:          v.GetString("extract.model"),
			Target:         v.GetString("extract.target"),
			TimeoutSeconds: v.GetInt("extract.timeout_seconds"),
		},
		MCP: MCPConfig{
			Listen: v.GetString("mcp.listen"),
		},
		Dev: DevConfig{
			SQLitePath: v.GetString("dev.sqlite_path"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
