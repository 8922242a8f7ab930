// Package pyannote provides a diarizer backed by a pyannote.audio HTTP
// sidecar (POST /diarize, GET /health).
//
// The sidecar wraps the pyannote/speaker-diarization pretrained pipeline,
// which requires a Hugging Face access token. When the token is absent the
// provider is constructed in a permanently unavailable state so the caller
// degrades to single-speaker mode instead of crashing.
package pyannote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/openmediator/commonground/pkg/provider/diarize"
)

const (
	defaultBaseURL = "http://localhost:8388"
	defaultTimeout = 300 * time.Second
)

// Compile-time assertion that Diarizer implements diarize.Diarizer.
var _ diarize.Diarizer = (*Diarizer)(nil)

// Option is a functional option for Diarizer.
type Option func(*Diarizer)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(d *Diarizer) {
		d.httpClient = hc
	}
}

// Diarizer implements diarize.Diarizer against a pyannote sidecar.
type Diarizer struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// New creates a Diarizer for the sidecar at baseURL (defaults to
// localhost:8388 when empty). authToken is the Hugging Face access token
// forwarded to the sidecar; when empty the diarizer reports itself
// unavailable and every Diarize call returns [diarize.ErrUnavailable].
func New(baseURL, authToken string, opts ...Option) *Diarizer {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	d := &Diarizer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  authToken,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Available implements diarize.Diarizer. It requires both a configured
// access token and a reachable sidecar.
func (d *Diarizer) Available(ctx context.Context) bool {
	if d.authToken == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// diarizeResponse is the wire shape of the sidecar's reply.
type diarizeResponse struct {
	Segments []struct {
		Speaker string  `json:"speaker"`
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
	} `json:"segments"`
}

// Diarize implements diarize.Diarizer. It uploads the WAV file as
// multipart/form-data and maps the sidecar's segments to [diarize.Turn]
// values.
func (d *Diarizer) Diarize(ctx context.Context, wavPath string) ([]diarize.Turn, error) {
	if d.authToken == "" {
		return nil, fmt.Errorf("pyannote: no access token configured: %w", diarize.ErrUnavailable)
	}

	audioData, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("pyannote: read audio file: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("pyannote: create form file: %w", err)
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, fmt.Errorf("pyannote: write audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("pyannote: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/diarize", &buf)
	if err != nil {
		return nil, fmt.Errorf("pyannote: create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+d.authToken)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pyannote: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, fmt.Errorf("pyannote: sidecar has no pipeline loaded: %w", diarize.ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pyannote: sidecar returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pyannote: read response body: %w", err)
	}

	var out diarizeResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("pyannote: parse JSON response: %w", err)
	}

	turns := make([]diarize.Turn, 0, len(out.Segments))
	for _, s := range out.Segments {
		turns = append(turns, diarize.Turn{Speaker: s.Speaker, Start: s.Start, End: s.End})
	}
	return turns, nil
}
