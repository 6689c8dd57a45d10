// Package inject orchestrates one manual memory insertion: parse output in,
// engine-assigned identifier out.
//
// Flow: (extract, free-text path only) → assemble → locate → guard →
// AddMemory. Each invocation is one sequential unit of work; nothing is
// queued and nothing is retried beyond the guard's single reconnect.
// Assembly happens strictly before the engine call, so a cancelled command
// never commits a partial record.
package inject

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/inkmem/etch/pkg/command"
	"github.com/inkmem/etch/pkg/engine"
	"github.com/inkmem/etch/pkg/extract"
	"github.com/inkmem/etch/pkg/guard"
	"github.com/inkmem/etch/pkg/locate"
	"github.com/inkmem/etch/pkg/record"
)

// Report is what a successful insertion tells the invoking chat context.
type Report struct {
	// ID is the engine-assigned identifier.
	ID string

	// Importance is the importance actually used (override or default).
	Importance float64

	// Topics and Sentiment echo the metadata that went in.
	Topics    []string
	Sentiment string

	// Content is the full inserted text; Preview trims it for display.
	Content string
}

// Preview returns the first 100 characters of the content for display.
func (r *Report) Preview() string {
	return truncate(r.Content, 100)
}

// Config holds the inserter's own limits.
type Config struct {
	// MaxContentChars caps the memory text length. Defaults to 4096.
	MaxContentChars int
}

// Inserter wires the insertion flow together.
type Inserter struct {
	locator   *locate.Locator
	guard     *guard.Guard
	extractor *extract.Extractor
	assembler *record.Assembler
	cfg       Config
	log       *zap.Logger
}

// New creates an Inserter.
func New(locator *locate.Locator, g *guard.Guard, extractor *extract.Extractor,
	assembler *record.Assembler, cfg Config, log *zap.Logger) *Inserter {
	if cfg.MaxContentChars <= 0 {
		cfg.MaxContentChars = 4096
	}

	return &Inserter{
		locator:   locator,
		guard:     g,
		extractor: extractor,
		assembler: assembler,
		cfg:       cfg,
		log:       log,
	}
}

// InsertText handles the free-text path: validate the input, extract
// structured fields (best-effort), then insert.
func (i *Inserter) InsertText(ctx context.Context, cmd *command.AddCommand, sessionID, personaID string) (*Report, error) {
	if err := i.checkContent(cmd.Text); err != nil {
		return nil, err
	}
	if err := checkSession(sessionID); err != nil {
		return nil, err
	}

	// Input errors must surface before any provider or engine traffic.
	if cmd.Importance != nil && (*cmd.Importance < 0 || *cmd.Importance > 1) {
		return nil, &command.UsageError{
			Reason: fmt.Sprintf("importance %v out of range [0, 1]", *cmd.Importance),
		}
	}

	extracted := i.extractor.Extract(ctx, cmd.Text)

	return i.insert(ctx, record.Fields{
		Text:       cmd.Text,
		Topics:     extracted.Topics,
		KeyFacts:   extracted.KeyFacts,
		Sentiment:  extracted.Sentiment,
		Importance: cmd.Importance,
		MemoryType: cmd.MemoryType,
	}, sessionID, personaID)
}

// InsertPayload handles the JSON path: the payload was already validated by
// the command parser, so no LLM call is involved.
func (i *Inserter) InsertPayload(ctx context.Context, p *command.Payload, sessionID, personaID string) (*Report, error) {
	if err := i.checkContent(p.Text); err != nil {
		return nil, err
	}
	if err := checkSession(sessionID); err != nil {
		return nil, err
	}

	return i.insert(ctx, record.Fields{
		Text:       p.Text,
		Topics:     p.Topics,
		KeyFacts:   p.KeyFacts,
		Sentiment:  p.Sentiment,
		Importance: p.Importance,
		MemoryType: p.MemoryType,
	}, sessionID, personaID)
}

func (i *Inserter) insert(ctx context.Context, fields record.Fields, sessionID, personaID string) (*Report, error) {
	start := time.Now()

	rec, err := i.assembler.Assemble(fields)
	if err != nil {
		return nil, &command.UsageError{Reason: err.Error()}
	}

	eng, err := i.locator.Engine()
	if err != nil {
		return nil, err
	}

	if err := i.guard.Ensure(ctx, eng); err != nil {
		// The plugin may have swapped its engine out entirely; force a
		// fresh resolve on the next command.
		i.locator.Invalidate()
		return nil, err
	}

	id, err := eng.AddMemory(ctx, engine.AddRequest{
		Content:    rec.Content,
		Summary:    rec.Summary,
		SessionID:  sessionID,
		PersonaID:  personaID,
		Importance: rec.Importance,
		Metadata:   rec.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("inserting memory: %w", err)
	}

	i.log.Info("memory inserted",
		zap.String("id", id),
		zap.String("session", truncate(sessionID, 24)),
		zap.Float64("importance", rec.Importance),
		zap.Duration("took", time.Since(start)),
	)

	return &Report{
		ID:         id,
		Importance: rec.Importance,
		Topics:     rec.Metadata["topics"].([]string),
		Sentiment:  rec.Metadata["sentiment"].(string),
		Content:    rec.Content,
	}, nil
}

func (i *Inserter) checkContent(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &command.UsageError{Reason: "memory text is empty"}
	}
	// Characters, not bytes: memory text is routinely CJK.
	if n := utf8.RuneCountInString(trimmed); n > i.cfg.MaxContentChars {
		return &command.UsageError{
			Reason: fmt.Sprintf("memory text too long (%d chars, max %d)", n, i.cfg.MaxContentChars),
		}
	}
	return nil
}

func checkSession(sessionID string) error {
	if sessionID == "" {
		return &command.UsageError{Reason: "session id is required"}
	}
	return nil
}

// truncate cuts s to max characters on a rune boundary.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
