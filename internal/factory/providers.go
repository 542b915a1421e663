package factory

import (
	"github.com/amelia751/cloudly/internal/config"
	"github.com/amelia751/cloudly/internal/prompt"
	"github.com/amelia751/cloudly/internal/providers/elevenlabs"
	"github.com/amelia751/cloudly/internal/providers/vapi"
	"github.com/amelia751/cloudly/internal/services"
)

// NewVapiClient builds the assistant provider client from cfg.
func NewVapiClient(cfg *config.Config) *vapi.Client {
	return vapi.New(vapi.Config{
		BaseURL: cfg.VapiBaseURL,
		APIKey:  cfg.VapiAPIKey,
		Timeout: cfg.ProviderTimeout(),
	})
}

// NewElevenLabsClient builds the voice provider client from cfg.
func NewElevenLabsClient(cfg *config.Config) *elevenlabs.Client {
	return elevenlabs.New(elevenlabs.Config{
		BaseURL: cfg.ElevenLabsBaseURL,
		APIKey:  cfg.ElevenLabsAPIKey,
		Timeout: cfg.ProviderTimeout(),
	})
}

// AssistantSettings maps cfg onto the assistant payload parameters.
func AssistantSettings(cfg *config.Config) services.AssistantSettings {
	return services.AssistantSettings{
		ModelProvider:       "openai",
		Model:               cfg.AssistantModel,
		VoiceTimeoutSeconds: cfg.VoiceTimeoutSeconds,
		Persona:             prompt.Persona(),
		CompanionName:       "Loved One AI",
		CompanionModel:      cfg.CompanionModel,
		CompanionTTSURL:     cfg.SmallestTTSURL,
		SmallestAPIKey:      cfg.SmallestAPIKey,
	}
}
