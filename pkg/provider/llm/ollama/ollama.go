// Package ollama provides the local-inference backend, implemented against
// an Ollama server's generate endpoint.
//
// Unlike the hosted variant, the generate endpoint takes a single flattened
// prompt string: the system instruction, the conversation rendered as
// alternating lines, and a trailing directive naming the current speaker.
// Streaming is disabled; the call blocks until the full response is ready.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openmediator/commonground/pkg/provider/llm"
)

const (
	backendName = "ollama"

	// DefaultBaseURL is where a locally running Ollama server listens.
	DefaultBaseURL = "http://localhost:11434"

	// defaultTopK matches the generate endpoint's nested sampling option.
	defaultTopK = 40
)

// Compile-time assertion that Backend implements llm.Backend.
var _ llm.Backend = (*Backend)(nil)

// Option is a functional option for Backend.
type Option func(*Backend)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(b *Backend) {
		b.httpClient = hc
	}
}

// Backend implements llm.Backend against a local Ollama server.
type Backend struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// New constructs a local-server backend. baseURL defaults to
// [DefaultBaseURL] when empty; model must be non-empty.
func New(baseURL, model string, opts ...Option) (*Backend, error) {
	if model == "" {
		return nil, fmt.Errorf("ollama: model must not be empty")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	b := &Backend{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(b)
	}
	return b, nil
}

// generateRequest is the wire shape of POST /api/generate.
type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

// generateOptions carries the sampling parameters nested under "options".
type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
	NumPredict  int     `json:"num_predict"`
}

// generateResponse is the subset of the response body we consume.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Send implements llm.Backend. The payload is flattened into a single prompt
// and submitted with streaming disabled.
func (b *Backend) Send(ctx context.Context, req llm.Request) (string, error) {
	req = req.WithDefaults()

	body, err := json.Marshal(generateRequest{
		Model:  b.model,
		Prompt: FlattenPrompt(req),
		Stream: false,
		Options: generateOptions{
			Temperature: req.Temperature,
			TopP:        req.TopP,
			TopK:        defaultTopK,
			NumPredict:  req.MaxTokens,
		},
	})
	if err != nil {
		return "", llm.NewProtocolError(backendName, fmt.Errorf("encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", llm.NewTransportError(backendName, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return "", llm.NewTransportError(backendName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", llm.NewTransportError(backendName, fmt.Errorf("server returned HTTP %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llm.NewTransportError(backendName, fmt.Errorf("read response body: %w", err))
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", llm.NewProtocolError(backendName, fmt.Errorf("parse JSON response: %w", err))
	}
	if out.Response == "" {
		return "", llm.NewProtocolError(backendName, errors.New("response is missing the text field"))
	}
	return out.Response, nil
}

// FlattenPrompt renders a structured request as the single prompt string the
// generate endpoint expects. The leading system instruction comes first,
// then the conversation as alternating lines (user lines already carry their
// speaker prefix, assistant lines are attributed to the mediator), and
// finally the current-speaker directive. Trailing system notes from the
// structured payload are not copied verbatim; the directive is rendered
// from req.CurrentSpeaker instead, which carries the same meaning in the
// flattened format.
func FlattenPrompt(req llm.Request) string {
	var system string
	history := make([]string, 0, len(req.Messages))

	for i, m := range req.Messages {
		switch m.Role {
		case "system":
			if i == 0 {
				system = m.Content
			}
		case "user":
			history = append(history, m.Content)
		case "assistant":
			history = append(history, "Mediator: "+m.Content)
		}
	}

	var sb strings.Builder
	sb.WriteString(system)
	sb.WriteString("\n\nConversation history:\n")
	sb.WriteString(strings.Join(history, "\n"))
	fmt.Fprintf(&sb, "\n\nCurrent speaker: %s\n\nYour response as the mediator:", req.CurrentSpeaker)
	return sb.String()
}
