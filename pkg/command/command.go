// Package command parses the chat-command surfaces for manual memory
// insertion.
//
// Two shapes are accepted, both delimiting their argument with angle
// brackets the way the host chat framework quotes free text:
//
//	add: <memory text> [importance] [type]
//	put: <{"text": ..., "topics": [...], "key_facts": [...], "sentiment": ...}>
//
// Malformed delimiters, invalid JSON, missing required payload fields, and
// out-of-range importance are all usage errors: the caller reports the
// expected shape to the user, and nothing reaches the engine.
package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// AddUsage describes the free-text command shape, shown on usage errors.
const AddUsage = `usage: add <memory text> [importance] [type]
wrap the memory text in < >, e.g. add <prefers dark roast coffee> 0.95`

// PutUsage describes the JSON command shape, shown on usage errors.
const PutUsage = `usage: put <JSON>
the JSON must contain: text, topics, key_facts, sentiment
optional fields: importance, memory_type
e.g. put <{"text": "adopted a cat named Noir", "topics": ["pets"], "key_facts": ["the cat is called Noir"], "sentiment": "neutral"}>`

// UsageError is an input error: the command was malformed and nothing was
// inserted. Expected carries the shape description for the user.
type UsageError struct {
	Reason   string
	Expected string
}

func (e *UsageError) Error() string {
	if e.Expected == "" {
		return e.Reason
	}
	return e.Reason + "\n" + e.Expected
}

// IsUsageError reports whether err is (or wraps) a UsageError.
func IsUsageError(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}

// AddCommand is a parsed free-text insertion command.
type AddCommand struct {
	Text       string
	Importance *float64
	MemoryType string
}

// Payload is a parsed JSON insertion payload. Required fields are text,
// topics, key_facts, and sentiment; importance and memory_type are
// optional. Unknown keys are tolerated.
type Payload struct {
	Text       string
	Topics     []string
	KeyFacts   []string
	Sentiment  string
	Importance *float64
	MemoryType string
}

// bracketed matches the first < > delimited block, newlines included.
var bracketed = regexp.MustCompile(`(?s)<(.+?)>`)

// ParseAdd parses the free-text command shape.
func ParseAdd(raw string) (*AddCommand, error) {
	m := bracketed.FindStringSubmatchIndex(raw)
	if m == nil {
		return nil, &UsageError{Reason: "memory text must be wrapped in < >", Expected: AddUsage}
	}

	text := strings.TrimSpace(raw[m[2]:m[3]])
	if text == "" {
		return nil, &UsageError{Reason: "memory text is empty", Expected: AddUsage}
	}

	cmd := &AddCommand{Text: text}

	rest := strings.Fields(raw[m[1]:])
	if len(rest) > 2 {
		return nil, &UsageError{
			Reason:   fmt.Sprintf("unexpected trailing arguments: %s", strings.Join(rest[2:], " ")),
			Expected: AddUsage,
		}
	}

	if len(rest) >= 1 {
		imp, err := parseImportance(rest[0])
		if err != nil {
			return nil, err
		}
		cmd.Importance = imp
	}
	if len(rest) == 2 {
		cmd.MemoryType = rest[1]
	}

	return cmd, nil
}

// ParsePut parses the JSON command shape: a single < > delimited JSON block.
func ParsePut(raw string) (*Payload, error) {
	m := bracketed.FindStringSubmatch(raw)
	if m == nil {
		return nil, &UsageError{Reason: "JSON payload must be wrapped in < >", Expected: PutUsage}
	}

	return ParsePayload([]byte(strings.TrimSpace(m[1])))
}

// ParsePayload parses and validates a raw JSON payload. It is shared by
// ParsePut and by surfaces (MCP tools) that receive the JSON without the
// chat delimiters.
func ParsePayload(data []byte) (*Payload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &UsageError{Reason: fmt.Sprintf("invalid JSON: %v", err), Expected: PutUsage}
	}

	var missing []string
	for _, name := range []string{"text", "topics", "key_facts", "sentiment"} {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &UsageError{
			Reason:   "missing required fields: " + strings.Join(missing, ", "),
			Expected: PutUsage,
		}
	}

	p := &Payload{}

	if err := json.Unmarshal(fields["text"], &p.Text); err != nil {
		return nil, &UsageError{Reason: "text must be a string", Expected: PutUsage}
	}
	if strings.TrimSpace(p.Text) == "" {
		return nil, &UsageError{Reason: "text is empty", Expected: PutUsage}
	}
	p.Text = strings.TrimSpace(p.Text)

	if err := json.Unmarshal(fields["topics"], &p.Topics); err != nil {
		return nil, &UsageError{Reason: `topics must be an array of strings, e.g. ["topic1", "topic2"]`, Expected: PutUsage}
	}
	if err := json.Unmarshal(fields["key_facts"], &p.KeyFacts); err != nil {
		return nil, &UsageError{Reason: `key_facts must be an array of strings, e.g. ["fact1", "fact2"]`, Expected: PutUsage}
	}

	if err := json.Unmarshal(fields["sentiment"], &p.Sentiment); err != nil {
		return nil, &UsageError{Reason: "sentiment must be a string", Expected: PutUsage}
	}
	switch p.Sentiment {
	case "positive", "negative", "neutral":
	default:
		return nil, &UsageError{
			Reason:   fmt.Sprintf("sentiment %q must be one of positive, negative, neutral", p.Sentiment),
			Expected: PutUsage,
		}
	}

	if raw, ok := fields["importance"]; ok {
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, &UsageError{Reason: "importance must be a number", Expected: PutUsage}
		}
		imp, err := parseImportance(strconv.FormatFloat(f, 'f', -1, 64))
		if err != nil {
			return nil, err
		}
		p.Importance = imp
	}

	if raw, ok := fields["memory_type"]; ok {
		if err := json.Unmarshal(raw, &p.MemoryType); err != nil {
			return nil, &UsageError{Reason: "memory_type must be a string", Expected: PutUsage}
		}
	}

	return p, nil
}

// parseImportance parses and range-checks an importance argument.
// Out-of-range values are rejected, not clamped, so a typo cannot silently
// pin a record to 0 or 1.
func parseImportance(s string) (*float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, &UsageError{Reason: fmt.Sprintf("invalid importance %q", s), Expected: AddUsage}
	}
	if f < 0 || f > 1 {
		return nil, &UsageError{Reason: fmt.Sprintf("importance %v out of range [0, 1]", f)}
	}
	return &f, nil
}
