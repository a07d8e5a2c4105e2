package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/scenekit/internal/llm"
)

// Reply is one scripted generator outcome: content or an error.
type Reply struct {
	Content string
	Err     error
}

// ScriptedGenerator is a fake text-generation collaborator that replays a
// fixed script of replies. When the script runs out the last reply repeats.
//
// Thread-safety: safe for concurrent use via internal mutex.
type ScriptedGenerator struct {
	mu       sync.Mutex
	replies  []Reply
	calls    int
	requests []llm.Request
}

// NewScriptedGenerator creates a generator replaying replies in order.
func NewScriptedGenerator(replies ...Reply) *ScriptedGenerator {
	return &ScriptedGenerator{replies: replies}
}

// Generate implements llm.Generator.
func (g *ScriptedGenerator) Generate(_ context.Context, req llm.Request) (llm.Response, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.requests = append(g.requests, req)
	g.calls++
	if len(g.replies) == 0 {
		return llm.Response{}, errors.New("scripted generator: no replies configured")
	}
	i := g.calls - 1
	if i >= len(g.replies) {
		i = len(g.replies) - 1
	}
	r := g.replies[i]
	if r.Err != nil {
		return llm.Response{}, r.Err
	}
	return llm.Response{Content: r.Content}, nil
}

// Calls returns how many times Generate was invoked.
func (g *ScriptedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// Requests returns a copy of every request received.
func (g *ScriptedGenerator) Requests() []llm.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]llm.Request(nil), g.requests...)
}
