// Package llm defines the text-generation collaborator consumed by the
// retry policy and the assistant, plus production adapters for it.
//
// The core engine never talks to a provider directly; it depends on the
// Generator interface so tests can substitute scripted fakes.
package llm

import "context"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role/content turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is an ordered conversation plus an optional system instruction.
type Request struct {
	System   string    `json:"system,omitempty"`
	Messages []Message `json:"messages"`
}

// UserRequest builds a single-turn request.
func UserRequest(system, prompt string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	}
}

// Usage reports provider-side consumption, when the provider supplies it.
type Usage struct {
	InputUnits  int `json:"inputUnits"`
	OutputUnits int `json:"outputUnits"`
}

// Response is the generated content.
type Response struct {
	Content string `json:"content"`
	Usage   *Usage `json:"usage,omitempty"`
}

// Generator produces text for a request. Implementations may fail on
// transport or auth problems; timeouts belong to the implementation.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (Response, error)

// Generate calls f(ctx, req).
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
