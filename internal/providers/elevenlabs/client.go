// Package elevenlabs wraps the ElevenLabs voice cloning endpoints.
package elevenlabs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/amelia751/cloudly/internal/providers"
)

const (
	providerName = "elevenlabs"

	// DefaultBaseURL is the public ElevenLabs API.
	DefaultBaseURL = "https://api.elevenlabs.io"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client uploads and removes cloned voices.
type Client struct {
	client  *resty.Client
	baseURL string
	apiKey  string
}

func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c := resty.New().
		SetBaseURL(base).
		SetHeader("xi-api-key", cfg.APIKey).
		SetTimeout(timeout)
	return &Client{client: c, baseURL: base, apiKey: cfg.APIKey}
}

// Sample is an audio file submitted for cloning.
type Sample struct {
	FileName    string
	ContentType string
	Data        io.Reader
}

// AddedVoice is the provider's answer to a clone request.
type AddedVoice struct {
	VoiceID              string          `json:"voice_id"`
	RequiresVerification bool            `json:"requires_verification"`
	Raw                  json.RawMessage `json:"-"`
}

// AddVoice clones a voice from a single sample.
func (c *Client) AddVoice(ctx context.Context, name string, sample Sample) (*AddedVoice, error) {
	if c.apiKey == "" {
		return nil, providers.NotConfigured("ELEVEN_LABS_API_KEY")
	}
	contentType := sample.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req := c.client.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{"name": name}).
		SetMultipartField("files", sample.FileName, contentType, sample.Data)

	raw, err := providers.Do(req, providerName, "add_voice", http.MethodPost, "/v1/voices/add")
	if err != nil {
		return nil, err
	}
	var v AddedVoice
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode voice: %w", err)
	}
	if v.VoiceID == "" {
		return nil, fmt.Errorf("elevenlabs add voice: response has no voice_id")
	}
	v.Raw = raw
	return &v, nil
}

// DeleteVoice removes a cloned voice.
func (c *Client) DeleteVoice(ctx context.Context, voiceID string) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, providers.NotConfigured("ELEVEN_LABS_API_KEY")
	}
	req := c.client.R().SetContext(ctx)
	return providers.Do(req, providerName, "delete_voice", http.MethodDelete, "/v1/voices/"+url.PathEscape(voiceID))
}

// SynthesisURL is the text-to-speech endpoint an assistant calls for voiceID.
func (c *Client) SynthesisURL(voiceID string) string {
	return c.baseURL + "/v1/text-to-speech/" + url.PathEscape(voiceID)
}

// SynthesisHeaders are the headers an assistant sends to SynthesisURL.
func (c *Client) SynthesisHeaders() map[string]string {
	return map[string]string{
		"xi-api-key":   c.apiKey,
		"Content-Type": "application/json",
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.apiKey != "" }
