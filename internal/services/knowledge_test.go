package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amelia751/cloudly/internal/model"
	"github.com/amelia751/cloudly/internal/providers/vapi"
)

func TestKnowledge_CreateFallsBackToDefaultName(t *testing.T) {
	ap := &fakeAssistantProvider{}
	svc := NewKnowledgeService(ap)
	ctx := context.Background()

	kb, err := svc.Create(ctx, "  ", "My KB")
	require.NoError(t, err)
	assert.Equal(t, "kb_1", kb.ID)

	_, err = svc.Create(ctx, "memories", "My KB")
	require.NoError(t, err)
	assert.Equal(t, []string{"My KB", "memories"}, ap.kbNames)

	_, err = svc.Create(ctx, "", "")
	assert.True(t, model.IsValidation(err))
	assert.Len(t, ap.kbNames, 2)
}

func TestKnowledge_ChunksRequireIdentifiers(t *testing.T) {
	ap := &fakeAssistantProvider{}
	svc := NewKnowledgeService(ap)
	ctx := context.Background()

	_, err := svc.UpsertChunk(ctx, "kb_1", &vapi.Chunk{ExternalID: "m1"})
	assert.True(t, model.IsValidation(err))
	_, err = svc.DeleteChunk(ctx, "", "m1")
	assert.True(t, model.IsValidation(err))
	assert.Empty(t, ap.chunks)
	assert.Empty(t, ap.deleted)

	_, err = svc.UpsertChunk(ctx, "kb_1", &vapi.Chunk{ExternalID: "m1", Content: "I love you", Type: "message"})
	require.NoError(t, err)
	_, err = svc.DeleteChunk(ctx, "kb_1", "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, ap.chunks)
	assert.Equal(t, []string{"m1"}, ap.deleted)
}
