package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amelia751/cloudly/internal/model"
)

func TestDirectory_OwnershipIsEnforced(t *testing.T) {
	svc := NewDirectoryService(newSQLiteStore(t))
	ctx := context.Background()

	r, err := svc.CreateRecipient(ctx, "u1", &model.Recipient{RecipientName: "Mom", RecipientEmail: "mom@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "u1", r.UserID)

	name := "Not Mom"
	_, err = svc.UpdateRecipient(ctx, "u2", r.ID, model.RecipientUpdate{RecipientName: &name})
	assert.True(t, model.IsForbidden(err))

	_, err = svc.AddMessage(ctx, "u2", r.ID, &model.Message{Message: "hi"})
	assert.True(t, model.IsForbidden(err))

	assert.True(t, model.IsForbidden(svc.DeleteRecipient(ctx, "u2", r.ID)))
}

func TestDirectory_MessagesAreScopedToRecipient(t *testing.T) {
	svc := NewDirectoryService(newSQLiteStore(t))
	ctx := context.Background()

	a, err := svc.CreateRecipient(ctx, "u1", &model.Recipient{RecipientName: "A"})
	require.NoError(t, err)
	b, err := svc.CreateRecipient(ctx, "u1", &model.Recipient{RecipientName: "B"})
	require.NoError(t, err)

	m, err := svc.AddMessage(ctx, "u1", a.ID, &model.Message{Message: "for A"})
	require.NoError(t, err)

	err = svc.DeleteMessage(ctx, "u1", b.ID, m.ID)
	assert.True(t, model.IsNotFound(err))

	_, err = svc.AddMessage(ctx, "u1", a.ID, &model.Message{Message: "  "})
	assert.True(t, model.IsValidation(err))

	m.Message = "edited"
	updated, err := svc.UpdateMessage(ctx, "u1", a.ID, m)
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Message)

	list, err := svc.ListMessages(ctx, "u1", a.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "edited", list[0].Message)
}

func TestDirectory_InvitationFlow(t *testing.T) {
	st := newSQLiteStore(t)
	svc := NewDirectoryService(st)
	ctx := context.Background()

	r, err := svc.CreateRecipient(ctx, "u1", &model.Recipient{RecipientName: "Bob", RecipientEmail: "bob@example.com"})
	require.NoError(t, err)
	_, err = st.Assistants().Upsert(ctx, &model.Assistant{DirectoryID: r.ID, AssistantID: "asst_1", AssistantName: "Dad"})
	require.NoError(t, err)

	inv, err := svc.Invitations(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Empty(t, inv.Invites, "unpublished assistants are hidden")

	_, err = st.Assistants().SetPublish(ctx, r.ID, true)
	require.NoError(t, err)
	inv, err = svc.Invitations(ctx, "bob@example.com")
	require.NoError(t, err)
	require.Len(t, inv.Invites, 1)
	assert.Empty(t, inv.Connections)

	_, err = svc.AcceptInvitation(ctx, "eve@example.com", r.ID)
	assert.True(t, model.IsForbidden(err))

	accepted, err := svc.AcceptInvitation(ctx, "bob@example.com", r.ID)
	require.NoError(t, err)
	assert.True(t, accepted.Connect)
	inv, err = svc.Invitations(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Empty(t, inv.Invites)
	require.Len(t, inv.Connections, 1)

	a, err := svc.DeclineInvitation(ctx, "bob@example.com", r.ID)
	require.NoError(t, err)
	assert.False(t, a.Publish)
	inv, err = svc.Invitations(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Empty(t, inv.Invites)
	assert.Empty(t, inv.Connections)
}

func TestDirectory_DeleteRecipientCascades(t *testing.T) {
	st := newSQLiteStore(t)
	svc := NewDirectoryService(st)
	ctx := context.Background()

	r, err := svc.CreateRecipient(ctx, "u1", &model.Recipient{RecipientName: "Mom"})
	require.NoError(t, err)
	_, err = svc.AddEvent(ctx, "u1", r.ID, &model.Event{Event: "Birthday"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRecipient(ctx, "u1", r.ID))
	events, err := st.Events().ListByRecipient(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}
