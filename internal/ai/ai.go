// Package ai defines the language-model integration contract: given the
// user's text and recent history, a provider returns free text and/or
// structured tool calls. Providers must degrade gracefully; the engine
// treats any error as "fall back to a plain reply".
package ai

import "context"

// Message is one turn of conversation context.
type Message struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// ToolCall is a structured action the model chose. Args values are
// stringified; navigation tools only take string arguments.
type ToolCall struct {
	Name string
	Args map[string]string
}

// Reply is a provider response: optional text plus tool calls in the order
// the model emitted them.
type Reply struct {
	Text      string
	ToolCalls []ToolCall
}

// Param describes one tool argument.
type Param struct {
	Name        string
	Description string
	Required    bool
}

// ToolDef describes a tool offered to the model.
type ToolDef struct {
	Name        string
	Description string
	Params      []Param
}

// Request carries everything a provider needs for one completion.
type Request struct {
	System   string    // system prompt
	History  []Message // rolling conversation history, oldest first
	UserText string    // the inbound message
	Tools    []ToolDef // empty disables tool calling (plain fallback path)
}

// Client is implemented by language-model providers.
type Client interface {
	Respond(ctx context.Context, req Request) (Reply, error)
}
