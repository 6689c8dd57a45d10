package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/inkmem/etch/pkg/command"
	"github.com/inkmem/etch/pkg/inject"
)

var (
	memoryEtchToolName    = "memory_etch"
	memoryEtchDescription = "Manually insert a memory into the recall memory store from free text. Topics, key facts, and sentiment are extracted by an LLM call when a provider is available, falling back to neutral defaults otherwise. Use this to persist a fact the user stated explicitly."

	memoryPutToolName    = "memory_put"
	memoryPutDescription = "Manually insert a memory into the recall memory store from a fully-specified JSON payload, bypassing the LLM. The payload must contain text, topics, key_facts, and sentiment; importance and memory_type are optional."
)

// MemoryEtchInput represents the input arguments for the memory_etch tool.
type MemoryEtchInput struct {
	Text       string   `json:"text" jsonschema:"the memory text to insert"`
	Importance *float64 `json:"importance,omitempty" jsonschema:"importance weight in [0,1], defaults to the configured default"`
	MemoryType string   `json:"memory_type,omitempty" jsonschema:"memory type tag (e.g. manual, fact, preference, event)"`
	SessionID  string   `json:"session_id" jsonschema:"identifier of the chat session the memory belongs to"`
	PersonaID  string   `json:"persona_id,omitempty" jsonschema:"identifier of the active persona, if any"`
}

// MemoryPutInput represents the input arguments for the memory_put tool.
type MemoryPutInput struct {
	Payload   string `json:"payload" jsonschema:"JSON object with required fields text, topics, key_facts, sentiment and optional fields importance, memory_type"`
	SessionID string `json:"session_id" jsonschema:"identifier of the chat session the memory belongs to"`
	PersonaID string `json:"persona_id,omitempty" jsonschema:"identifier of the active persona, if any"`
}

// MemoryInsertOutput represents the structured output of a successful
// insertion.
type MemoryInsertOutput struct {
	ID         string   `json:"id"`
	Importance float64  `json:"importance"`
	Topics     []string `json:"topics"`
	Sentiment  string   `json:"sentiment"`
	Preview    string   `json:"preview"`
}

// handleMemoryEtch processes a free-text insertion request via MCP.
func (s *Server) handleMemoryEtch(ctx context.Context, _ *mcp.CallToolRequest, input MemoryEtchInput) (*mcp.CallToolResult, MemoryInsertOutput, error) {
	report, err := s.config.Inserter.InsertText(ctx, &command.AddCommand{
		Text:       input.Text,
		Importance: input.Importance,
		MemoryType: input.MemoryType,
	}, input.SessionID, input.PersonaID)
	if err != nil {
		return toolError(err), MemoryInsertOutput{}, nil
	}

	return toolSuccess(report)
}

// handleMemoryPut processes a JSON payload insertion request via MCP.
func (s *Server) handleMemoryPut(ctx context.Context, _ *mcp.CallToolRequest, input MemoryPutInput) (*mcp.CallToolResult, MemoryInsertOutput, error) {
	payload, err := command.ParsePayload([]byte(input.Payload))
	if err != nil {
		return toolError(err), MemoryInsertOutput{}, nil
	}

	report, err := s.config.Inserter.InsertPayload(ctx, payload, input.SessionID, input.PersonaID)
	if err != nil {
		return toolError(err), MemoryInsertOutput{}, nil
	}

	return toolSuccess(report)
}

func toolSuccess(report *inject.Report) (*mcp.CallToolResult, MemoryInsertOutput, error) {
	output := MemoryInsertOutput{
		ID:         report.ID,
		Importance: report.Importance,
		Topics:     report.Topics,
		Sentiment:  report.Sentiment,
		Preview:    report.Preview(),
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return toolError(fmt.Errorf("serializing result: %w", err)), MemoryInsertOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: err.Error()},
		},
	}
}
