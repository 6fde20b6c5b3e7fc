package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/examiner-backend/internal/observability"
	"github.com/yungbote/examiner-backend/internal/pkg/errors"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
	"github.com/yungbote/examiner-backend/internal/platform/openai"
)

// Gateway turns a prompt kind plus typed inputs into a cleaned JSON object.
// Provider failures surface as errors.ErrReasoningProvider and malformed
// output as errors.ErrResponseParsing.
type Gateway interface {
	Respond(ctx context.Context, kind PromptKind, inputs any) (json.RawMessage, error)
	Ping(ctx context.Context) error
	Info() openai.Info
}

type Options struct {
	Catalog      *Catalog
	Retry        RetryPolicy
	Pool         *Pool
	Temperatures map[PromptKind]float64
	MaxTokens    int
}

type gateway struct {
	log       *logger.Logger
	provider  openai.Client
	catalog   *Catalog
	retry     RetryPolicy
	pool      *Pool
	maxTokens int
}

func NewGateway(log *logger.Logger, provider openai.Client, opts Options) (Gateway, error) {
	if provider == nil {
		return nil, fmt.Errorf("reasoning gateway: provider required")
	}
	catalog := opts.Catalog
	if catalog == nil {
		var err error
		if catalog, err = DefaultCatalog(); err != nil {
			return nil, err
		}
	}
	for kind, t := range opts.Temperatures {
		catalog.SetTemperature(kind, t)
	}
	retry := opts.Retry
	switch {
	case retry.MaxAttempts == 0 && retry.BaseDelay == 0 && retry.MaxDelay == 0:
		retry = DefaultRetryPolicy()
	case retry.MaxAttempts < 1:
		retry.MaxAttempts = 1
	}
	return &gateway{
		log:       log.With("service", "ReasoningGateway"),
		provider:  provider,
		catalog:   catalog,
		retry:     retry,
		pool:      opts.Pool,
		maxTokens: opts.MaxTokens,
	}, nil
}

func (g *gateway) Info() openai.Info { return g.provider.Info() }

func (g *gateway) Ping(ctx context.Context) error {
	if err := g.provider.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrReasoningProvider, err)
	}
	return nil
}

func (g *gateway) Respond(ctx context.Context, kind PromptKind, inputs any) (json.RawMessage, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "reasoning.respond", attribute.String("reasoning.kind", string(kind)))
	defer span.End()

	out, attempts, err := g.respond(ctx, kind, inputs)
	span.SetAttributes(attribute.Int("reasoning.attempts", attempts))
	if m := observability.Current(); m != nil {
		m.ObserveReasoningCall(string(kind), outcome(err), time.Since(start))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errors.Code(err))
		g.log.Warn("Reasoning call failed", "kind", kind, "attempts", attempts, "code", errors.Code(err), "error", err)
		return nil, err
	}
	g.log.Debug("Reasoning call succeeded", "kind", kind, "attempts", attempts, "elapsed_ms", time.Since(start).Milliseconds())
	return out, nil
}

func (g *gateway) respond(ctx context.Context, kind PromptKind, inputs any) (json.RawMessage, int, error) {
	rendered, err := g.catalog.Render(kind, inputs)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", errors.ErrInvalidArgument, err)
	}
	req := openai.Completion{
		System:      rendered.System,
		User:        rendered.User,
		Temperature: rendered.Temperature,
		JSON:        true,
		MaxTokens:   g.maxTokens,
	}

	var text string
	attempts, err := g.retry.Do(ctx, func(ctx context.Context) error {
		return g.pool.Do(ctx, func(ctx context.Context) error {
			var callErr error
			text, callErr = g.provider.Complete(ctx, req)
			return callErr
		})
	}, func(attempt int, wait time.Duration, err error) {
		if m := observability.Current(); m != nil {
			m.IncReasoningRetry(string(kind))
		}
		g.log.Warn("Reasoning request retrying",
			"kind", kind,
			"attempt", attempt,
			"max_attempts", g.retry.MaxAttempts,
			"sleep", wait.String(),
			"error", err.Error(),
		)
	})
	if err != nil {
		return nil, attempts, fmt.Errorf("%w: %s failed after %d attempt(s): %v", errors.ErrReasoningProvider, kind, attempts, err)
	}

	raw, err := cleanJSON(text)
	if err != nil {
		return nil, attempts, fmt.Errorf("%s: %w", kind, err)
	}
	return raw, attempts, nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return errors.Code(err)
}
