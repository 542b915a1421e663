package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/amelia751/cloudly/internal/metrics"
	"github.com/amelia751/cloudly/internal/model"
	"github.com/amelia751/cloudly/internal/prompt"
	"github.com/amelia751/cloudly/internal/providers"
	"github.com/amelia751/cloudly/internal/providers/vapi"
	"github.com/amelia751/cloudly/internal/store"
)

// AssistantService keeps each recipient's assistant at the provider in step
// with the messages and events stored locally.
type AssistantService struct {
	store     store.Store
	assistant AssistantProvider
	voices    VoiceProvider
	cfg       AssistantSettings
	log       zerolog.Logger
}

func NewAssistantService(s store.Store, ap AssistantProvider, vp VoiceProvider, cfg AssistantSettings, log zerolog.Logger) *AssistantService {
	if cfg.Persona == "" {
		cfg.Persona = prompt.Persona()
	}
	if cfg.ModelProvider == "" {
		cfg.ModelProvider = "openai"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	return &AssistantService{store: s, assistant: ap, voices: vp, cfg: cfg, log: log}
}

// SyncRequest describes one create-or-update of a recipient's assistant.
type SyncRequest struct {
	UserID        string
	RecipientID   string
	AssistantName string
	Instructions  string
	FirstMessage  string
	VoiceID       string
	// AssistantID forces an update of this provider assistant. When empty the
	// id on the local record is used, and a new assistant is created if there
	// is none.
	AssistantID string
}

// SyncResult is the outcome of a successful sync.
type SyncResult struct {
	Assistant *model.Assistant `json:"assistant"`
	Remote    json.RawMessage  `json:"remote"`
	Created   bool             `json:"created"`
}

// Sync composes the recipient's prompt and pushes it to the provider, then
// records the provider assistant locally. Re-running it updates in place.
func (s *AssistantService) Sync(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	if strings.TrimSpace(req.VoiceID) == "" {
		metrics.AssistantSync("invalid")
		return nil, model.Invalid("voiceId is required")
	}
	if strings.TrimSpace(req.AssistantName) == "" {
		metrics.AssistantSync("invalid")
		return nil, model.Invalid("assistantName is required")
	}
	if strings.TrimSpace(req.RecipientID) == "" {
		metrics.AssistantSync("invalid")
		return nil, model.Invalid("recipientId is required")
	}

	res, err := s.sync(ctx, req)
	metrics.AssistantSync(syncOutcome(res, err))
	return res, err
}

func (s *AssistantService) sync(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	if req.UserID != "" {
		r, err := s.store.Recipients().Get(ctx, req.RecipientID)
		if err != nil {
			return nil, err
		}
		if r.UserID != req.UserID {
			return nil, model.Forbiddenf("recipient %s belongs to another user", req.RecipientID)
		}
	}

	messages, err := s.store.Messages().ListByRecipient(ctx, req.RecipientID)
	if err != nil {
		return nil, errors.Wrap(err, "list messages")
	}
	events, err := s.store.Events().ListByRecipient(ctx, req.RecipientID)
	if err != nil {
		return nil, errors.Wrap(err, "list events")
	}
	systemPrompt := prompt.Compose(s.cfg.Persona, req.Instructions, messages, events)

	// An explicit id may only name the assistant already linked to the
	// recipient, or link one when none is recorded.
	externalID := req.AssistantID
	existing, err := s.store.Assistants().GetByRecipient(ctx, req.RecipientID)
	switch {
	case err == nil && externalID == "":
		externalID = existing.AssistantID
	case err == nil && existing.AssistantID != "" && existing.AssistantID != externalID:
		return nil, model.Conflictf("recipient %s is linked to assistant %s", req.RecipientID, existing.AssistantID)
	case err != nil && !model.IsNotFound(err):
		return nil, errors.Wrap(err, "load assistant")
	}

	payload, err := s.payload(req.AssistantName, req.FirstMessage, systemPrompt, req.VoiceID)
	if err != nil {
		return nil, err
	}

	var remote *vapi.Assistant
	created := externalID == ""
	if created {
		remote, err = s.assistant.CreateAssistant(ctx, payload)
	} else {
		remote, err = s.assistant.UpdateAssistant(ctx, externalID, payload)
	}
	if err != nil {
		return nil, err
	}
	if remote.ID == "" {
		remote.ID = externalID
	}

	local, err := s.store.Assistants().Upsert(ctx, &model.Assistant{
		DirectoryID:   req.RecipientID,
		AssistantID:   remote.ID,
		OrgID:         remote.OrgID,
		AssistantName: req.AssistantName,
		Content:       req.Instructions,
		FirstMessage:  req.FirstMessage,
	})
	if err != nil {
		s.log.Error().Stack().Err(errors.WithStack(err)).
			Str("recipientId", req.RecipientID).
			Str("assistantId", remote.ID).
			Msg("assistant saved at provider but local write failed")
		return nil, &OutOfSyncError{AssistantID: remote.ID, Err: err}
	}

	s.log.Info().
		Str("recipientId", req.RecipientID).
		Str("assistantId", remote.ID).
		Bool("created", created).
		Int("messages", len(messages)).
		Int("events", len(events)).
		Msg("assistant synced")
	return &SyncResult{Assistant: local, Remote: remote.Raw, Created: created}, nil
}

func syncOutcome(res *SyncResult, err error) string {
	var oos *OutOfSyncError
	switch {
	case err == nil && res.Created:
		return "created"
	case err == nil:
		return "updated"
	case errors.As(err, &oos):
		return "out_of_sync"
	case model.IsValidation(err):
		return "invalid"
	}
	if _, ok := providers.AsError(err); ok {
		return "provider_error"
	}
	return "error"
}

// payload builds a full assistant definition voiced by the cloned voice.
func (s *AssistantService) payload(name, firstMessage, systemPrompt, voiceID string) (*vapi.AssistantRequest, error) {
	if !s.voices.Configured() {
		return nil, providers.NotConfigured("ELEVEN_LABS_API_KEY")
	}
	return &vapi.AssistantRequest{
		Name:             name,
		FirstMessage:     firstMessage,
		FirstMessageMode: vapi.FirstMessageModeAssistantFirst,
		Model:            vapi.SystemModel(s.cfg.ModelProvider, s.cfg.Model, systemPrompt),
		Voice:            vapi.CustomVoice(s.voices.SynthesisURL(voiceID), s.voices.SynthesisHeaders(), s.cfg.VoiceTimeoutSeconds),
	}, nil
}

// Get returns the local assistant record for a recipient owned by userID.
func (s *AssistantService) Get(ctx context.Context, userID, recipientID string) (*model.Assistant, error) {
	if err := s.owns(ctx, userID, recipientID); err != nil {
		return nil, err
	}
	return s.store.Assistants().GetByRecipient(ctx, recipientID)
}

// Publish makes the recipient's assistant visible to the recipient.
func (s *AssistantService) Publish(ctx context.Context, userID, recipientID string) (*model.Assistant, error) {
	if err := s.owns(ctx, userID, recipientID); err != nil {
		return nil, err
	}
	return s.store.Assistants().SetPublish(ctx, recipientID, true)
}

// Refresh recomposes the prompt from current messages and events and patches
// only the provider assistant's model. Name, voice and greeting are untouched.
func (s *AssistantService) Refresh(ctx context.Context, userID, recipientID string) (json.RawMessage, error) {
	if err := s.owns(ctx, userID, recipientID); err != nil {
		return nil, err
	}
	a, err := s.store.Assistants().GetByRecipient(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if a.AssistantID == "" {
		return nil, model.Invalid("recipient %s has no provider assistant", recipientID)
	}
	messages, err := s.store.Messages().ListByRecipient(ctx, recipientID)
	if err != nil {
		return nil, errors.Wrap(err, "list messages")
	}
	events, err := s.store.Events().ListByRecipient(ctx, recipientID)
	if err != nil {
		return nil, errors.Wrap(err, "list events")
	}
	systemPrompt := prompt.Compose(s.cfg.Persona, a.Content, messages, events)
	return s.PatchPrompt(ctx, a.AssistantID, systemPrompt)
}

// PatchPrompt replaces the system prompt of a provider assistant.
func (s *AssistantService) PatchPrompt(ctx context.Context, assistantID, systemPrompt string) (json.RawMessage, error) {
	if strings.TrimSpace(assistantID) == "" {
		return nil, model.Invalid("assistantId is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, model.Invalid("newPrompt is required")
	}
	remote, err := s.assistant.UpdateAssistant(ctx, assistantID, &vapi.AssistantRequest{
		Model: vapi.SystemModel(s.cfg.ModelProvider, s.cfg.Model, systemPrompt),
	})
	if err != nil {
		return nil, err
	}
	return remote.Raw, nil
}

// CreateRequest is the stateless create used by the legacy POST /assistant route.
type CreateRequest struct {
	VoiceID       string
	AssistantName string
	Content       string
	// PromptWithContext, when set, is used verbatim as the system prompt.
	PromptWithContext string
	FirstMessage      string
	Knowledge         *prompt.Knowledge
}

// Create registers an assistant at the provider without touching local storage.
func (s *AssistantService) Create(ctx context.Context, req CreateRequest) (json.RawMessage, error) {
	if strings.TrimSpace(req.VoiceID) == "" {
		return nil, model.Invalid("voiceId is required")
	}
	systemPrompt := req.PromptWithContext
	if systemPrompt == "" {
		systemPrompt = prompt.WithKnowledge(req.Content, req.Knowledge)
	}
	payload, err := s.payload(req.AssistantName, req.FirstMessage, systemPrompt, req.VoiceID)
	if err != nil {
		return nil, err
	}
	remote, err := s.assistant.CreateAssistant(ctx, payload)
	if err != nil {
		return nil, err
	}
	return remote.Raw, nil
}

// UpdateRequest is the stateless update used by PATCH /assistant/{id}.
type UpdateRequest struct {
	AssistantID       string
	AssistantName     string
	PromptWithContext string
	FirstMessage      string
	VoiceID           string
}

// Update overwrites a provider assistant's definition without touching local storage.
func (s *AssistantService) Update(ctx context.Context, req UpdateRequest) (json.RawMessage, error) {
	if strings.TrimSpace(req.AssistantID) == "" {
		return nil, model.Invalid("Missing assistant id")
	}
	if strings.TrimSpace(req.VoiceID) == "" {
		return nil, model.Invalid("Missing ElevenLabs voiceId")
	}
	payload, err := s.payload(req.AssistantName, req.FirstMessage, req.PromptWithContext, req.VoiceID)
	if err != nil {
		return nil, err
	}
	remote, err := s.assistant.UpdateAssistant(ctx, req.AssistantID, payload)
	if err != nil {
		return nil, err
	}
	return remote.Raw, nil
}

// CreateCompanion creates the default companion assistant spoken through the
// Smallest.ai TTS server.
func (s *AssistantService) CreateCompanion(ctx context.Context, voiceID string) (json.RawMessage, error) {
	if strings.TrimSpace(voiceID) == "" {
		return nil, model.Invalid("No voiceId provided.")
	}
	if s.cfg.SmallestAPIKey == "" {
		return nil, providers.NotConfigured("SMALLEST_API_KEY")
	}
	headers := map[string]string{
		"Authorization": "Bearer " + s.cfg.SmallestAPIKey,
		"Content-Type":  "application/json",
	}
	companionModel := s.cfg.CompanionModel
	if companionModel == "" {
		companionModel = s.cfg.Model
	}
	name := s.cfg.CompanionName
	if name == "" {
		name = "Loved One AI"
	}
	remote, err := s.assistant.CreateAssistant(ctx, &vapi.AssistantRequest{
		Name:             name,
		FirstMessage:     prompt.DefaultFirstMessage,
		FirstMessageMode: vapi.FirstMessageModeAssistantFirst,
		Model:            vapi.SystemModel(s.cfg.ModelProvider, companionModel, prompt.Persona()),
		Voice:            vapi.CustomVoice(s.cfg.CompanionTTSURL, headers, s.cfg.VoiceTimeoutSeconds),
	})
	if err != nil {
		return nil, err
	}
	return remote.Raw, nil
}

// Info fetches the provider's view of an assistant.
func (s *AssistantService) Info(ctx context.Context, assistantID string) (json.RawMessage, error) {
	if strings.TrimSpace(assistantID) == "" {
		return nil, model.Invalid("assistantId is required")
	}
	remote, err := s.assistant.GetAssistant(ctx, assistantID)
	if err != nil {
		return nil, err
	}
	return remote.Raw, nil
}

// StartCall opens a web call against an assistant.
func (s *AssistantService) StartCall(ctx context.Context, assistantID string) (string, json.RawMessage, error) {
	if strings.TrimSpace(assistantID) == "" {
		return "", nil, model.Invalid("assistantId is required")
	}
	call, err := s.assistant.CreateWebCall(ctx, assistantID)
	if err != nil {
		return "", nil, err
	}
	return call.ID, call.Raw, nil
}

func (s *AssistantService) owns(ctx context.Context, userID, recipientID string) error {
	r, err := s.store.Recipients().Get(ctx, recipientID)
	if err != nil {
		return err
	}
	if r.UserID != userID {
		return model.Forbiddenf("recipient %s belongs to another user", recipientID)
	}
	return nil
}
