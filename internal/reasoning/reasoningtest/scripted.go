// Package reasoningtest provides scripted reasoning fakes for tests.
package reasoningtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/yungbote/examiner-backend/internal/pkg/errors"
	"github.com/yungbote/examiner-backend/internal/platform/openai"
	"github.com/yungbote/examiner-backend/internal/reasoning"
)

// Reply is one scripted gateway answer: JSON text, or Err.
type Reply struct {
	JSON string
	Err  error
}

// Gateway replays scripted replies per prompt kind. When a kind's script is
// exhausted its last reply repeats.
type Gateway struct {
	mu      sync.Mutex
	script  map[reasoning.PromptKind][]Reply
	calls   map[reasoning.PromptKind]int
	inputs  map[reasoning.PromptKind][]any
	PingErr error
	// Hook, when set, runs before each scripted reply is returned. A non-nil
	// error replaces the reply.
	Hook func(ctx context.Context, kind reasoning.PromptKind, call int) error
}

func NewGateway() *Gateway {
	return &Gateway{
		script: map[reasoning.PromptKind][]Reply{},
		calls:  map[reasoning.PromptKind]int{},
		inputs: map[reasoning.PromptKind][]any{},
	}
}

func (g *Gateway) On(kind reasoning.PromptKind, replies ...Reply) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.script[kind] = append(g.script[kind], replies...)
	return g
}

// OnJSON scripts a reply by marshalling v.
func (g *Gateway) OnJSON(kind reasoning.PromptKind, v any) *Gateway {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return g.On(kind, Reply{JSON: string(b)})
}

func (g *Gateway) Calls(kind reasoning.PromptKind) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[kind]
}

func (g *Gateway) TotalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}

// LastInput returns the most recent inputs passed for kind.
func (g *Gateway) LastInput(kind reasoning.PromptKind) any {
	g.mu.Lock()
	defer g.mu.Unlock()
	in := g.inputs[kind]
	if len(in) == 0 {
		return nil
	}
	return in[len(in)-1]
}

func (g *Gateway) Respond(ctx context.Context, kind reasoning.PromptKind, inputs any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrReasoningProvider, err)
	}
	g.mu.Lock()
	n := g.calls[kind]
	g.calls[kind] = n + 1
	g.inputs[kind] = append(g.inputs[kind], inputs)
	replies := g.script[kind]
	hook := g.Hook
	g.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, kind, n); err != nil {
			return nil, err
		}
	}

	if len(replies) == 0 {
		return nil, fmt.Errorf("%w: no scripted reply for %s", errors.ErrReasoningProvider, kind)
	}
	r := replies[len(replies)-1]
	if n < len(replies) {
		r = replies[n]
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return json.RawMessage(r.JSON), nil
}

func (g *Gateway) Ping(ctx context.Context) error { return g.PingErr }

func (g *Gateway) Info() openai.Info {
	return openai.Info{Provider: "scripted", Model: "scripted-model"}
}
