// Package record assembles the memory record handed to the recall engine.
//
// The record is the only entity this add-on touches, and it is owned by the
// engine the moment AddMemory accepts it. Assembly merges user-supplied or
// LLM-extracted fields with configured defaults, tags the metadata with the
// current schema version, and computes the derived summary the engine's
// indexer expects.
package record

import (
	"fmt"
	"strings"
)

// SchemaVersion tags assembled metadata so future layouts can detect this
// one. v3 dropped the standalone summary and first-person restatement
// fields; nothing downstream read them.
const SchemaVersion = "v3"

// DefaultMemoryType is used when neither the command nor the configuration
// names a type.
const DefaultMemoryType = "manual"

// MemoryTypePresets are the known memory_type values. The field stays
// free-form; presets exist for help text and completion only.
var MemoryTypePresets = []string{"manual", "fact", "preference", "event"}

// Sentiment values accepted on a record.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// ValidSentiment reports whether s is one of the accepted sentiment values.
func ValidSentiment(s string) bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Fields are the pre-assembly record fields, either parsed from a JSON
// payload or produced by the structured-field extractor.
type Fields struct {
	Text       string
	Topics     []string
	KeyFacts   []string
	Sentiment  string
	Importance *float64 // nil means "use the configured default"
	MemoryType string   // empty means "use the configured default"
}

// Record is an assembled memory record, ready for the engine call.
type Record struct {
	Content    string
	Summary    string
	Importance float64
	Metadata   map[string]any
}

// Config holds the assembly defaults, passed in at construction time.
type Config struct {
	// DefaultImportance is applied when Fields carries no override.
	// Must be within [0, 1].
	DefaultImportance float64

	// DefaultMemoryType is applied when Fields carries no type.
	DefaultMemoryType string

	// PrimarySeparator joins content and the fact list in the derived
	// summary. Defaults to " | ".
	PrimarySeparator string

	// SecondarySeparator joins the facts themselves. Defaults to "；".
	SecondarySeparator string

	// MaxSummaryFacts caps how many key facts enter the summary.
	// Defaults to 5.
	MaxSummaryFacts int
}

// Assembler builds records from fields plus configured defaults.
type Assembler struct {
	cfg Config
}

// NewAssembler validates cfg and returns an Assembler.
func NewAssembler(cfg Config) (*Assembler, error) {
	if cfg.DefaultImportance < 0 || cfg.DefaultImportance > 1 {
		return nil, fmt.Errorf("default importance %v out of range [0, 1]", cfg.DefaultImportance)
	}

	if cfg.DefaultMemoryType == "" {
		cfg.DefaultMemoryType = DefaultMemoryType
	}
	if cfg.PrimarySeparator == "" {
		cfg.PrimarySeparator = " | "
	}
	if cfg.SecondarySeparator == "" {
		cfg.SecondarySeparator = "；"
	}
	if cfg.MaxSummaryFacts <= 0 {
		cfg.MaxSummaryFacts = 5
	}

	return &Assembler{cfg: cfg}, nil
}

// Assemble merges f with the configured defaults into a Record.
func (a *Assembler) Assemble(f Fields) (*Record, error) {
	text := strings.TrimSpace(f.Text)
	if text == "" {
		return nil, fmt.Errorf("memory text is empty")
	}

	importance := a.cfg.DefaultImportance
	if f.Importance != nil {
		if *f.Importance < 0 || *f.Importance > 1 {
			return nil, fmt.Errorf("importance %v out of range [0, 1]", *f.Importance)
		}
		importance = *f.Importance
	}

	sentiment := f.Sentiment
	if sentiment == "" {
		sentiment = SentimentNeutral
	}
	if !ValidSentiment(sentiment) {
		return nil, fmt.Errorf("sentiment %q must be one of positive, negative, neutral", sentiment)
	}

	memoryType := f.MemoryType
	if memoryType == "" {
		memoryType = a.cfg.DefaultMemoryType
	}

	topics := f.Topics
	if topics == nil {
		topics = []string{}
	}
	keyFacts := f.KeyFacts
	if keyFacts == nil {
		keyFacts = []string{}
	}

	return &Record{
		Content:    text,
		Summary:    a.Summary(text, keyFacts),
		Importance: importance,
		Metadata: map[string]any{
			"topics":         topics,
			"key_facts":      keyFacts,
			"sentiment":      sentiment,
			"importance":     importance,
			"memory_type":    memoryType,
			"schema_version": SchemaVersion,
		},
	}, nil
}

// Summary builds the derived summary: text, then the primary separator,
// then up to MaxSummaryFacts key facts joined with the secondary separator.
// The construction must stay byte-identical to the engine's own
// summarization path so retrieval behaves the same on both insertion paths.
func (a *Assembler) Summary(text string, keyFacts []string) string {
	if len(keyFacts) == 0 {
		return text
	}

	facts := keyFacts
	if len(facts) > a.cfg.MaxSummaryFacts {
		facts = facts[:a.cfg.MaxSummaryFacts]
	}

	return text + a.cfg.PrimarySeparator + strings.Join(facts, a.cfg.SecondarySeparator)
}
