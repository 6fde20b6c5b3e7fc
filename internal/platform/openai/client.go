package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/yungbote/examiner-backend/internal/observability"
	"github.com/yungbote/examiner-backend/internal/pkg/httpx"
	"github.com/yungbote/examiner-backend/internal/pkg/logger"
	"github.com/yungbote/examiner-backend/internal/platform/promptstyle"
)

const (
	ProviderOpenAI = "openai"
	// ProviderGitHub is the GitHub Models endpoint, which speaks the OpenAI wire format.
	ProviderGitHub = "github"

	githubModelsBaseURL = "https://models.inference.ai.azure.com"
)

// Completion is one chat-completion request.
type Completion struct {
	System      string
	User        string
	Temperature *float64
	JSON        bool
	MaxTokens   int
}

// Client is the provider contract the reasoning gateway depends on.
type Client interface {
	Complete(ctx context.Context, c Completion) (string, error)
	Ping(ctx context.Context) error
	Info() Info
}

type Info struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	BaseURL  string `json:"base_url"`
}

type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

type client struct {
	log  *logger.Logger
	api  *goopenai.Client
	info Info

	// Models that rejected a temperature parameter once are called without it afterwards.
	noTempMu sync.RWMutex
	noTemp   map[string]bool
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderOpenAI
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing api key for reasoning provider %q", provider)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" && provider == ProviderGitHub {
		baseURL = githubModelsBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	apiCfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		apiCfg.BaseURL = baseURL
	}
	apiCfg.HTTPClient = &http.Client{Timeout: timeout}

	log = log.With("client", "OpenAIClient", "provider", provider, "model", model)
	log.Info("Initializing reasoning provider", "base_url", apiCfg.BaseURL, "timeout", timeout.String())

	return &client{
		log:    log,
		api:    goopenai.NewClientWithConfig(apiCfg),
		info:   Info{Provider: provider, Model: model, BaseURL: apiCfg.BaseURL},
		noTemp: map[string]bool{},
	}, nil
}

func (c *client) Info() Info { return c.info }

func (c *client) Complete(ctx context.Context, in Completion) (string, error) {
	mode := "text"
	if in.JSON {
		mode = "json"
	}
	req := goopenai.ChatCompletionRequest{
		Model: c.info.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: promptstyle.ApplySystem(in.System, mode)},
			{Role: goopenai.ChatMessageRoleUser, Content: in.User},
		},
	}
	if in.JSON {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{Type: goopenai.ChatCompletionResponseFormatTypeJSONObject}
	}
	if in.MaxTokens > 0 {
		req.MaxCompletionTokens = in.MaxTokens
	}
	if in.Temperature != nil && !c.modelIsNoTemp(req.Model) {
		req.Temperature = float32(*in.Temperature)
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil && req.Temperature != 0 && isUnsupportedTemperature(err) {
		c.log.Warn("Model rejected temperature; retrying without it", "error", err.Error())
		c.noteNoTempModel(req.Model)
		req.Temperature = 0
		resp, err = c.api.CreateChatCompletion(ctx, req)
	}
	if err != nil {
		err = classify(err)
		if m := observability.Current(); m != nil {
			m.ObserveLLMRequest(req.Model, "chat.completions", statusFromErr(err), time.Since(start), 0, 0)
		}
		return "", err
	}
	if m := observability.Current(); m != nil {
		m.ObserveLLMRequest(req.Model, "chat.completions", "200", time.Since(start), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}
	if len(resp.Choices) == 0 {
		return "", &httpx.StatusError{Status: http.StatusBadGateway, Err: errors.New("provider returned no choices")}
	}
	c.log.Debug("Received completion", "finish_reason", resp.Choices[0].FinishReason, "elapsed_ms", time.Since(start).Milliseconds())
	return resp.Choices[0].Message.Content, nil
}

// Ping lists models, which costs no tokens.
func (c *client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return classify(err)
	}
	return nil
}

func (c *client) modelIsNoTemp(model string) bool {
	c.noTempMu.RLock()
	defer c.noTempMu.RUnlock()
	return c.noTemp[strings.ToLower(model)]
}

func (c *client) noteNoTempModel(model string) {
	c.noTempMu.Lock()
	c.noTemp[strings.ToLower(model)] = true
	c.noTempMu.Unlock()
}

// classify attaches the upstream HTTP status so retry logic can inspect it.
func classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &httpx.StatusError{Status: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return &httpx.StatusError{Status: reqErr.HTTPStatusCode, Err: err}
	}
	return err
}

func isUnsupportedTemperature(err error) bool {
	var apiErr *goopenai.APIError
	if !errors.As(err, &apiErr) || apiErr.HTTPStatusCode != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	if !strings.Contains(msg, "temperature") {
		return false
	}
	for _, s := range []string{"unsupported", "not supported", "does not support", "only the default", "unknown parameter"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func statusFromErr(err error) string {
	var sc httpx.HTTPStatusCoder
	if errors.As(err, &sc) {
		return strconv.Itoa(sc.HTTPStatusCode())
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}
