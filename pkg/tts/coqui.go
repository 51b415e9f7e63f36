package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/realtime-ai/talk-assist/pkg/trace"
)

const (
	// DefaultCoquiURL is where a local Coqui TTS server listens by default.
	DefaultCoquiURL = "http://localhost:5002"

	coquiTTSEndpoint    = "/api/tts"
	coquiDefaultTimeout = 30 * time.Second
)

// CoquiOption configures a Coqui provider.
type CoquiOption func(*Coqui)

// WithCoquiLanguage sets the language_id sent with every request.
func WithCoquiLanguage(lang string) CoquiOption {
	return func(c *Coqui) { c.language = lang }
}

// WithCoquiTimeout sets the HTTP timeout for synthesis requests.
func WithCoquiTimeout(d time.Duration) CoquiOption {
	return func(c *Coqui) { c.httpClient.Timeout = d }
}

// WithCoquiSpeaker sets the default speaker_id.
func WithCoquiSpeaker(speaker string) CoquiOption {
	return func(c *Coqui) { c.speaker = speaker }
}

// Coqui synthesizes speech with a Coqui TTS server's /api/tts endpoint,
// which answers a GET with a WAV file.
type Coqui struct {
	serverURL  string
	language   string
	speaker    string
	httpClient *http.Client
}

// NewCoqui creates a Coqui provider. An empty serverURL selects DefaultCoquiURL.
func NewCoqui(serverURL string, opts ...CoquiOption) *Coqui {
	if serverURL == "" {
		serverURL = DefaultCoquiURL
	}
	c := &Coqui{
		serverURL:  strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{Timeout: coquiDefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the provider name
func (c *Coqui) Name() string {
	return "coqui"
}

// Synthesize implements Provider.
func (c *Coqui) Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error) {
	if err := c.ValidateConfig(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("coqui: empty text")
	}

	speaker := req.Voice
	if speaker == "" {
		speaker = c.speaker
	}
	language := req.Language
	if language == "" {
		language = c.language
	}

	ctx, span := trace.InstrumentTTSRequest(ctx, c.Name(), speaker, req.Text)
	defer span.End()

	params := url.Values{}
	params.Set("text", req.Text)
	if speaker != "" {
		params.Set("speaker_id", speaker)
	}
	if language != "" {
		params.Set("language_id", language)
	}

	endpoint := c.serverURL + coquiTTSEndpoint + "?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("coqui: build request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		trace.RecordError(span, err)
		return nil, fmt.Errorf("coqui: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("coqui: GET %s returned status %d: %s", coquiTTSEndpoint, resp.StatusCode, strings.TrimSpace(string(body)))
		trace.RecordError(span, err)
		return nil, err
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("coqui: read response: %w", err)
	}

	// The server picks the rate from its model, so the header is authoritative.
	return &SynthesizeResponse{
		AudioData:   wav,
		AudioFormat: AudioFormat{Channels: 1, Encoding: EncodingWAV},
	}, nil
}

// GetSupportedVoices returns nil: speakers depend on the model the server loaded.
func (c *Coqui) GetSupportedVoices() []string {
	return nil
}

// GetDefaultVoice returns the configured speaker, empty for single-speaker models.
func (c *Coqui) GetDefaultVoice() string {
	return c.speaker
}

// ValidateConfig validates the provider configuration
func (c *Coqui) ValidateConfig() error {
	u, err := url.Parse(c.serverURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("coqui: invalid server URL %q", c.serverURL)
	}
	return nil
}

var _ Provider = (*Coqui)(nil)
