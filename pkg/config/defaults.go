package config

const (
	// defaultImportance is higher than the 0.5 the engine assigns to its
	// own automatic summaries: a manually written memory signals intent.
	defaultImportance = 0.8

	defaultMemoryType      = "manual"
	defaultMaxContentChars = 4096
	defaultEnginePlugin    = "recall"

	// The separators must track the engine's summarization path. The
	// secondary separator is the fullwidth semicolon its summarizer emits.
	defaultPrimarySeparator   = " | "
	defaultSecondarySeparator = "；"
	defaultMaxFacts           = 5

	defaultExtractProvider = "ollama"
	defaultExtractTimeout  = 30

	defaultMCPListen = ":8085"

	defaultDevSQLitePath = ".etch/recall.db"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Insert: InsertConfig{
			DefaultImportance: defaultImportance,
			MemoryType:        defaultMemoryType,
			MaxContentChars:   defaultMaxContentChars,
			EnginePlugin:      defaultEnginePlugin,
		},
		Summary: SummaryConfig{
			PrimarySeparator:   defaultPrimarySeparator,
			SecondarySeparator: defaultSecondarySeparator,
			MaxFacts:           defaultMaxFacts,
		},
		Extract: ExtractConfig{
			Provider:       defaultExtractProvider,
			TimeoutSeconds: defaultExtractTimeout,
		},
		MCP: MCPConfig{
			Listen: defaultMCPListen,
		},
		Dev: DevConfig{
			SQLitePath: defaultDevSQLitePath,
		},
	}
}
