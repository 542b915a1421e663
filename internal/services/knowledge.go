package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/amelia751/cloudly/internal/model"
	"github.com/amelia751/cloudly/internal/providers/vapi"
)

// KnowledgeService proxies knowledge base management to the assistant provider.
type KnowledgeService struct {
	assistant AssistantProvider
}

func NewKnowledgeService(ap AssistantProvider) *KnowledgeService {
	return &KnowledgeService{assistant: ap}
}

// Create makes a trieve-backed knowledge base. An empty name falls back to defaultName.
func (s *KnowledgeService) Create(ctx context.Context, name, defaultName string) (*vapi.KnowledgeBase, error) {
	if strings.TrimSpace(name) == "" {
		name = defaultName
	}
	if strings.TrimSpace(name) == "" {
		return nil, model.Invalid("name is required")
	}
	return s.assistant.CreateKnowledgeBase(ctx, name)
}

func (s *KnowledgeService) UpsertChunk(ctx context.Context, knowledgeBaseID string, chunk *vapi.Chunk) (json.RawMessage, error) {
	if knowledgeBaseID == "" || chunk.ExternalID == "" || chunk.Content == "" {
		return nil, model.Invalid("knowledgeBaseId, externalId and content are required")
	}
	return s.assistant.UpsertChunk(ctx, knowledgeBaseID, chunk)
}

func (s *KnowledgeService) DeleteChunk(ctx context.Context, knowledgeBaseID, externalID string) (json.RawMessage, error) {
	if knowledgeBaseID == "" || externalID == "" {
		return nil, model.Invalid("knowledgeBaseId and externalId are required")
	}
	return s.assistant.DeleteChunk(ctx, knowledgeBaseID, externalID)
}
