// Package openai provides the hosted-API backend, implemented on the OpenAI
// chat-completions endpoint via the official Go SDK.
//
// The payload is sent as a structured message list; on success the first
// completion's text is extracted. Any transport, authentication, or
// malformed-response failure is returned as a typed [*llm.Error].
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/openmediator/commonground/pkg/provider/llm"
)

const backendName = "openai"

// Compile-time assertion that Backend implements llm.Backend.
var _ llm.Backend = (*Backend)(nil)

// config holds optional configuration for the backend.
type config struct {
	baseURL    string
	httpClient *http.Client
}

// Option is a functional option for Backend.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL. Useful for
// OpenAI-compatible gateways and for tests.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithHTTPClient replaces the SDK's default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.httpClient = hc
	}
}

// Backend implements llm.Backend against the hosted OpenAI API.
type Backend struct {
	client oai.Client
	model  string
}

// New constructs a hosted-API backend. apiKey and model must be non-empty.
func New(apiKey, model string, opts ...Option) (*Backend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty (is OPENAI_API_KEY set?)")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.httpClient))
	}

	return &Backend{client: oai.NewClient(reqOpts...), model: model}, nil
}

// Send implements llm.Backend. It performs exactly one chat-completion call
// and extracts the first choice's text.
func (b *Backend) Send(ctx context.Context, req llm.Request) (string, error) {
	req = req.WithDefaults()

	params, err := buildParams(b.model, req)
	if err != nil {
		return "", llm.NewProtocolError(backendName, err)
	}

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", llm.NewTransportError(backendName, err)
	}
	if len(resp.Choices) == 0 {
		return "", llm.NewProtocolError(backendName, errors.New("response contains no choices"))
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", llm.NewProtocolError(backendName, errors.New("response is missing the message content field"))
	}
	return content, nil
}

// buildParams converts a backend-agnostic request into OpenAI SDK params.
func buildParams(model string, req llm.Request) (oai.ChatCompletionNewParams, error) {
	messages := make([]oai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			messages = append(messages, oai.SystemMessage(m.Content))
		case "user":
			messages = append(messages, oai.UserMessage(m.Content))
		case "assistant":
			messages = append(messages, oai.AssistantMessage(m.Content))
		default:
			return oai.ChatCompletionNewParams{}, fmt.Errorf("unknown message role %q", m.Role)
		}
	}

	return oai.ChatCompletionNewParams{
		Model:            shared.ChatModel(model),
		Messages:         messages,
		Temperature:      param.NewOpt(req.Temperature),
		TopP:             param.NewOpt(req.TopP),
		MaxTokens:        param.NewOpt(int64(req.MaxTokens)),
		FrequencyPenalty: param.NewOpt(req.FrequencyPenalty),
		PresencePenalty:  param.NewOpt(req.PresencePenalty),
	}, nil
}
