package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amelia751/cloudly/internal/model"
	"github.com/amelia751/cloudly/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// makeStore must return a clean, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("RecipientLifecycle", func(t *testing.T) { recipientLifecycle(t, makeStore(t)) })
	t.Run("MessagesAndEventsKeepInsertionOrder", func(t *testing.T) { insertionOrder(t, makeStore(t)) })
	t.Run("OneVoicePerUser", func(t *testing.T) { oneVoicePerUser(t, makeStore(t)) })
	t.Run("AssistantUpsertByRecipient", func(t *testing.T) { assistantUpsert(t, makeStore(t)) })
	t.Run("DeleteRecipientCascades", func(t *testing.T) { cascade(t, makeStore(t)) })
}

func uniq(prefix string) string { return prefix + "-" + uuid.New().String() }

func recipientLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	sender := uniq("u")
	email := uniq("mom") + "@example.test"
	bday := time.Date(1960, 3, 14, 0, 0, 0, 0, time.UTC)

	r, err := s.Recipients().Create(ctx, &model.Recipient{
		UserID: sender, RecipientName: "Mom", RecipientEmail: email,
		RecipientRelationship: "mother", RecipientBirthday: &bday, SenderName: "Sam",
	})
	require.NoError(t, err)
	require.NotEmpty(t, r.ID)
	assert.False(t, r.Connect)

	got, err := s.Recipients().Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mom", got.RecipientName)
	require.NotNil(t, got.RecipientBirthday)
	assert.True(t, bday.Equal(*got.RecipientBirthday))

	lst, err := s.Recipients().ListBySender(ctx, sender)
	require.NoError(t, err)
	require.Len(t, lst, 1)

	byEmail, err := s.Recipients().ListByRecipientEmail(ctx, email)
	require.NoError(t, err)
	require.Len(t, byEmail, 1)

	connect := true
	name := "Mother"
	up, err := s.Recipients().Update(ctx, r.ID, model.RecipientUpdate{Connect: &connect, RecipientName: &name})
	require.NoError(t, err)
	assert.True(t, up.Connect)
	assert.Equal(t, "Mother", up.RecipientName)
	assert.Equal(t, email, up.RecipientEmail)

	_, err = s.Recipients().Get(ctx, uniq("missing"))
	assert.True(t, model.IsNotFound(err), "got %v", err)
}

func insertionOrder(t *testing.T, s store.Store) {
	ctx := context.Background()
	dir := uniq("d")
	for _, text := range []string{"one", "two", "three"} {
		_, err := s.Messages().Create(ctx, &model.Message{DirectoryID: dir, Message: text})
		require.NoError(t, err)
	}
	d := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	_, err := s.Events().Create(ctx, &model.Event{DirectoryID: dir, Event: "Birthday", Date: &d})
	require.NoError(t, err)
	ev2, err := s.Events().Create(ctx, &model.Event{DirectoryID: dir, Event: "Reunion", Message: "see you"})
	require.NoError(t, err)

	msgs, err := s.Messages().ListByRecipient(ctx, dir)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Message)
	assert.Equal(t, "two", msgs[1].Message)
	assert.Equal(t, "three", msgs[2].Message)

	evs, err := s.Events().ListByRecipient(ctx, dir)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "Birthday", evs[0].Event)
	require.NotNil(t, evs[0].Date)
	assert.True(t, d.Equal(*evs[0].Date))
	assert.Nil(t, evs[1].Date)

	msgs[1].Context = "ctx"
	updated, err := s.Messages().Update(ctx, msgs[1])
	require.NoError(t, err)
	assert.Equal(t, "ctx", updated.Context)

	ev2.Message = "soon"
	updatedEv, err := s.Events().Update(ctx, ev2)
	require.NoError(t, err)
	assert.Equal(t, "soon", updatedEv.Message)

	require.NoError(t, s.Messages().Delete(ctx, msgs[0].ID))
	assert.True(t, model.IsNotFound(s.Messages().Delete(ctx, msgs[0].ID)))
	require.NoError(t, s.Events().Delete(ctx, ev2.ID))

	msgs, err = s.Messages().ListByRecipient(ctx, dir)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func oneVoicePerUser(t *testing.T, s store.Store) {
	ctx := context.Background()
	user := uniq("u")

	_, err := s.Voices().GetByUser(ctx, user)
	assert.True(t, model.IsNotFound(err))

	v, err := s.Voices().Create(ctx, &model.Voice{UserID: user, VoiceID: uniq("el"), Name: "me"})
	require.NoError(t, err)

	_, err = s.Voices().Create(ctx, &model.Voice{UserID: user, VoiceID: uniq("el"), Name: "again"})
	assert.True(t, model.IsConflict(err), "got %v", err)

	got, err := s.Voices().GetByVoiceID(ctx, v.VoiceID)
	require.NoError(t, err)
	assert.Equal(t, user, got.UserID)

	require.NoError(t, s.Voices().Delete(ctx, v.ID))
	_, err = s.Voices().GetByUser(ctx, user)
	assert.True(t, model.IsNotFound(err))
}

func assistantUpsert(t *testing.T, s store.Store) {
	ctx := context.Background()
	dir := uniq("d")

	_, err := s.Assistants().SetPublish(ctx, dir, true)
	assert.True(t, model.IsNotFound(err))

	a, err := s.Assistants().Upsert(ctx, &model.Assistant{DirectoryID: dir, AssistantID: "va-1", OrgID: "org", AssistantName: "Message for Mom"})
	require.NoError(t, err)
	assert.False(t, a.Publish)

	_, err = s.Assistants().SetPublish(ctx, dir, true)
	require.NoError(t, err)

	b, err := s.Assistants().Upsert(ctx, &model.Assistant{DirectoryID: dir, AssistantID: "va-1", OrgID: "org", AssistantName: "Renamed", Content: "be warm"})
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID, "upsert must keep a single record per recipient")
	assert.Equal(t, "Renamed", b.AssistantName)
	assert.Equal(t, "be warm", b.Content)
	assert.True(t, b.Publish, "publish is preserved on update")

	got, err := s.Assistants().GetByRecipient(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.AssistantName)
}

func cascade(t *testing.T, s store.Store) {
	ctx := context.Background()
	r, err := s.Recipients().Create(ctx, &model.Recipient{UserID: uniq("u"), RecipientName: "Dad", RecipientEmail: uniq("dad") + "@example.test"})
	require.NoError(t, err)
	_, err = s.Messages().Create(ctx, &model.Message{DirectoryID: r.ID, Message: "hi"})
	require.NoError(t, err)
	_, err = s.Events().Create(ctx, &model.Event{DirectoryID: r.ID, Event: "Holiday"})
	require.NoError(t, err)
	_, err = s.Assistants().Upsert(ctx, &model.Assistant{DirectoryID: r.ID, AssistantID: "va", AssistantName: "n"})
	require.NoError(t, err)

	require.NoError(t, s.Recipients().Delete(ctx, r.ID))

	msgs, err := s.Messages().ListByRecipient(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	evs, err := s.Events().ListByRecipient(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, evs)
	_, err = s.Assistants().GetByRecipient(ctx, r.ID)
	assert.True(t, model.IsNotFound(err))
	assert.True(t, model.IsNotFound(s.Recipients().Delete(ctx, r.ID)))
}
