// Package extract turns free memory text into structured record fields
// (topics, key facts, sentiment) via one LLM call.
//
// Extraction is best-effort by contract: provider unavailability, timeouts,
// and unparsable responses all degrade to DefaultResult rather than failing
// the insertion. Manual insertion must succeed even without a working
// provider.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inkmem/etch/pkg/record"
)

// Result holds the extracted structured fields.
type Result struct {
	Topics    []string `json:"topics"`
	KeyFacts  []string `json:"key_facts"`
	Sentiment string   `json:"sentiment"`
}

// DefaultResult is the fallback used whenever extraction fails: empty
// topics and facts, neutral sentiment.
func DefaultResult() Result {
	return Result{
		Topics:    []string{},
		KeyFacts:  []string{},
		Sentiment: record.SentimentNeutral,
	}
}

// CallFunc is the signature of an LLM inference call.
type CallFunc func(ctx context.Context, prompt string) (string, error)

// maxPromptChars caps how much memory text enters the prompt.
const maxPromptChars = 8000

// Extractor requests structured fields from a configured LLM provider.
type Extractor struct {
	call    CallFunc
	timeout time.Duration
	log     *zap.Logger
}

// New creates an Extractor. A nil call means no provider is configured;
// Extract then always returns DefaultResult.
func New(call CallFunc, timeout time.Duration, log *zap.Logger) *Extractor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Extractor{
		call:    call,
		timeout: timeout,
		log:     log,
	}
}

// Extract runs structured-field extraction on text. It never fails: every
// error path logs and returns DefaultResult.
func (e *Extractor) Extract(ctx context.Context, text string) Result {
	if e.call == nil {
		e.log.Warn("no extraction provider configured, using default fields")
		return DefaultResult()
	}

	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	response, err := e.call(ctx, buildPrompt(text))
	if err != nil {
		e.log.Warn("extraction call failed, using default fields", zap.Error(err))
		return DefaultResult()
	}

	result, err := parseResponse(response)
	if err != nil {
		e.log.Warn("extraction response unparsable, using default fields", zap.Error(err))
		return DefaultResult()
	}

	e.log.Info("extracted structured fields",
		zap.Strings("topics", result.Topics),
		zap.String("sentiment", result.Sentiment),
	)

	return result
}

func buildPrompt(text string) string {
	return "Analyze this manually written memory text and extract structured fields.\nReturn ONLY valid JSON with these fields:\n\n{\n  \"topics\": [\"2-4 short phrases naming what the memory is about\"],\n  \"key_facts\": [\"standalone factual statements lifted from the text, one per entry\"],\n  \"sentiment\": \"one of: positive, negative, neutral\"\n}\n\nNo markdown fences, no commentary, JSON only.\n\nMemory text:\n" + text
}

// parseResponse parses the provider response permissively: models wrap JSON
// in markdown fences or prose, so the first balanced-looking brace window
// is taken. Extra fields and whitespace are tolerated; invalid sentiment
// and nil slices are normalized.
func parseResponse(response string) (Result, error) {
	jsonStr := response
	if idx := strings.Index(response, "{"); idx >= 0 {
		endIdx := strings.LastIndex(response, "}")
		if endIdx > idx {
			jsonStr = response[idx : endIdx+1]
		}
	}

	var result Result
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return Result{}, fmt.Errorf("unmarshal extraction JSON: %w", err)
	}

	if result.Topics == nil {
		result.Topics = []string{}
	}
	if result.KeyFacts == nil {
		result.KeyFacts = []string{}
	}
	if !record.ValidSentiment(result.Sentiment) {
		result.Sentiment = record.SentimentNeutral
	}

	return result, nil
}
