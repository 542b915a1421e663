package services

import (
	"context"
	"encoding/json"

	"github.com/amelia751/cloudly/internal/providers/elevenlabs"
	"github.com/amelia751/cloudly/internal/providers/vapi"
)

// AssistantProvider is the subset of the Vapi client the services use.
type AssistantProvider interface {
	CreateAssistant(ctx context.Context, req *vapi.AssistantRequest) (*vapi.Assistant, error)
	UpdateAssistant(ctx context.Context, id string, req *vapi.AssistantRequest) (*vapi.Assistant, error)
	GetAssistant(ctx context.Context, id string) (*vapi.Assistant, error)
	CreateWebCall(ctx context.Context, assistantID string) (*vapi.Call, error)
	CreateKnowledgeBase(ctx context.Context, name string) (*vapi.KnowledgeBase, error)
	UpsertChunk(ctx context.Context, knowledgeBaseID string, chunk *vapi.Chunk) (json.RawMessage, error)
	DeleteChunk(ctx context.Context, knowledgeBaseID, externalID string) (json.RawMessage, error)
}

// VoiceProvider is the subset of the ElevenLabs client the services use.
type VoiceProvider interface {
	AddVoice(ctx context.Context, name string, sample elevenlabs.Sample) (*elevenlabs.AddedVoice, error)
	DeleteVoice(ctx context.Context, voiceID string) (json.RawMessage, error)
	SynthesisURL(voiceID string) string
	SynthesisHeaders() map[string]string
	Configured() bool
}

var (
	_ AssistantProvider = (*vapi.Client)(nil)
	_ VoiceProvider     = (*elevenlabs.Client)(nil)
)

// AssistantSettings holds the model and voice-server parameters stamped on
// every assistant payload.
type AssistantSettings struct {
	ModelProvider       string
	Model               string
	VoiceTimeoutSeconds int
	// Persona is the preamble placed ahead of instructions, messages and events.
	Persona string

	CompanionName   string
	CompanionModel  string
	CompanionTTSURL string
	SmallestAPIKey  string
}
