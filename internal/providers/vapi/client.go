// Package vapi is a thin client for the Vapi assistant API.
package vapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/amelia751/cloudly/internal/providers"
)

const (
	providerName = "vapi"

	// DefaultBaseURL is the public Vapi API.
	DefaultBaseURL = "https://api.vapi.ai"

	// FirstMessageModeAssistantFirst makes the assistant greet the caller.
	FirstMessageModeAssistantFirst = "assistant-speaks-first"
)

// Config configures the Vapi client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client calls the Vapi REST API.
type Client struct {
	client *resty.Client
	apiKey string
}

// New creates a Client. An empty APIKey is accepted; every call then fails
// with providers.ErrNotConfigured.
func New(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := resty.New().
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if cfg.APIKey != "" {
		c.SetAuthToken(cfg.APIKey)
	}
	return &Client{client: c, apiKey: cfg.APIKey}
}

// Message is one entry of the model's message list.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Model selects the language model and its system prompt.
type Model struct {
	Provider string    `json:"provider"`
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// VoiceServer points the assistant at an external text-to-speech endpoint.
type VoiceServer struct {
	URL            string            `json:"url"`
	Headers        map[string]string `json:"headers,omitempty"`
	TimeoutSeconds int               `json:"timeoutSeconds,omitempty"`
}

// Voice configures speech synthesis for an assistant.
type Voice struct {
	Provider       string       `json:"provider"`
	Server         *VoiceServer `json:"server,omitempty"`
	CachingEnabled bool         `json:"cachingEnabled"`
}

// AssistantRequest is the create/update payload. Zero fields are omitted so
// the same type serves partial updates.
type AssistantRequest struct {
	Name             string `json:"name,omitempty"`
	FirstMessage     string `json:"firstMessage,omitempty"`
	FirstMessageMode string `json:"firstMessageMode,omitempty"`
	Model            *Model `json:"model,omitempty"`
	Voice            *Voice `json:"voice,omitempty"`
}

// SystemModel returns a model block carrying prompt as its only system message.
func SystemModel(provider, model, prompt string) *Model {
	return &Model{
		Provider: provider,
		Model:    model,
		Messages: []Message{{Role: "system", Content: prompt}},
	}
}

// CustomVoice returns a cached custom-voice block served by url.
func CustomVoice(url string, headers map[string]string, timeoutSeconds int) *Voice {
	return &Voice{
		Provider:       "custom-voice",
		Server:         &VoiceServer{URL: url, Headers: headers, TimeoutSeconds: timeoutSeconds},
		CachingEnabled: true,
	}
}

// Assistant is the subset of the provider's assistant object we read. Raw
// keeps the full upstream JSON for relaying to callers.
type Assistant struct {
	ID    string          `json:"id"`
	OrgID string          `json:"orgId"`
	Name  string          `json:"name"`
	Raw   json.RawMessage `json:"-"`
}

// Call is a created web call.
type Call struct {
	ID  string          `json:"id"`
	Raw json.RawMessage `json:"-"`
}

// KnowledgeBase is a created knowledge base.
type KnowledgeBase struct {
	ID    string          `json:"id"`
	OrgID string          `json:"orgId"`
	Raw   json.RawMessage `json:"-"`
}

// Chunk is a knowledge base document fragment keyed by a caller-chosen id.
type Chunk struct {
	ExternalID string          `json:"externalId"`
	Content    string          `json:"content"`
	Type       string          `json:"type,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

// CreateAssistant registers a new assistant.
func (c *Client) CreateAssistant(ctx context.Context, req *AssistantRequest) (*Assistant, error) {
	raw, err := c.do(ctx, "create_assistant", http.MethodPost, "/assistant", req)
	if err != nil {
		return nil, err
	}
	return decodeAssistant(raw)
}

// UpdateAssistant patches an existing assistant.
func (c *Client) UpdateAssistant(ctx context.Context, id string, req *AssistantRequest) (*Assistant, error) {
	raw, err := c.do(ctx, "update_assistant", http.MethodPatch, "/assistant/"+url.PathEscape(id), req)
	if err != nil {
		return nil, err
	}
	return decodeAssistant(raw)
}

// GetAssistant fetches an assistant by id.
func (c *Client) GetAssistant(ctx context.Context, id string) (*Assistant, error) {
	raw, err := c.do(ctx, "get_assistant", http.MethodGet, "/assistant/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeAssistant(raw)
}

// CreateWebCall starts a browser call against an assistant.
func (c *Client) CreateWebCall(ctx context.Context, assistantID string) (*Call, error) {
	body := map[string]string{"assistantId": assistantID, "type": "webCall"}
	raw, err := c.do(ctx, "create_call", http.MethodPost, "/call", body)
	if err != nil {
		return nil, err
	}
	var call Call
	if err := json.Unmarshal(raw, &call); err != nil {
		return nil, fmt.Errorf("decode call: %w", err)
	}
	call.Raw = raw
	return &call, nil
}

// CreateKnowledgeBase creates a trieve-backed knowledge base.
func (c *Client) CreateKnowledgeBase(ctx context.Context, name string) (*KnowledgeBase, error) {
	body := map[string]string{"provider": "trieve", "name": name}
	raw, err := c.do(ctx, "create_knowledge_base", http.MethodPost, "/knowledge-base", body)
	if err != nil {
		return nil, err
	}
	var kb KnowledgeBase
	if err := json.Unmarshal(raw, &kb); err != nil {
		return nil, fmt.Errorf("decode knowledge base: %w", err)
	}
	kb.Raw = raw
	return &kb, nil
}

// UpsertChunk adds or replaces a chunk in a knowledge base.
func (c *Client) UpsertChunk(ctx context.Context, knowledgeBaseID string, chunk *Chunk) (json.RawMessage, error) {
	path := "/knowledge-base/" + url.PathEscape(knowledgeBaseID) + "/chunk"
	return c.do(ctx, "upsert_chunk", http.MethodPost, path, chunk)
}

// DeleteChunk removes a chunk by its external id.
func (c *Client) DeleteChunk(ctx context.Context, knowledgeBaseID, externalID string) (json.RawMessage, error) {
	path := "/knowledge-base/" + url.PathEscape(knowledgeBaseID) + "/chunk/" + url.PathEscape(externalID)
	return c.do(ctx, "delete_chunk", http.MethodDelete, path, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body any) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, providers.NotConfigured("VAPI_API_KEY")
	}
	req := c.client.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	return providers.Do(req, providerName, op, method, path)
}

func decodeAssistant(raw json.RawMessage) (*Assistant, error) {
	var a Assistant
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode assistant: %w", err)
	}
	a.Raw = raw
	return &a, nil
}
