package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so the same logical flag
// cannot drift between commands (e.g. --listen on "etch serve" and a future
// standalone MCP command).
type Flag struct {
	// Name is the long flag name (e.g. "listen").
	Name string

	// Shorthand is the one-letter short flag. Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "mcp.listen").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of registry keys to Flag definitions.
type FlagSet map[string]Flag

// Flag registry keys.
const (
	FlagMCPListen       = "listen"
	FlagDevSQLite       = "dev-sqlite"
	FlagEnginePlugin    = "engine-plugin"
	FlagExtractProvider = "extract-provider"
	FlagExtractModel    = "extract-model"
	FlagExtractTarget   = "extract-target"
)

// DefaultFlagSet returns the flag definitions shared across etch commands.
func DefaultFlagSet() FlagSet {
	return FlagSet{
		FlagMCPListen: {
			Name:        "listen",
			Shorthand:   "l",
			ViperKey:    "mcp.listen",
			Description: "Address for the MCP server to listen on",
		},
		FlagDevSQLite: {
			Name:        "dev-sqlite",
			ViperKey:    "dev.sqlite_path",
			Description: "Path to the reference recall SQLite database",
		},
		FlagEnginePlugin: {
			Name:        "engine-plugin",
			ViperKey:    "insert.engine_plugin",
			Description: "Registered name of the host plugin carrying the memory engine",
		},
		FlagExtractProvider: {
			Name:        "extract-provider",
			ViperKey:    "extract.provider",
			Description: "LLM provider for structured-field extraction (openai, anthropic, ollama)",
		},
		FlagExtractModel: {
			Name:        "extract-model",
			ViperKey:    "extract.model",
			Description: "Model used for structured-field extraction",
		},
		FlagExtractTarget: {
			Name:        "extract-target",
			ViperKey:    "extract.target",
			Description: "Base URL override for the extraction provider",
		},
	}
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}
