package store

import (
	"context"

	"github.com/amelia751/cloudly/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (sqlite, postgres).
type Store interface {
	Recipients() Recipients
	Messages() Messages
	Events() Events
	Voices() Voices
	Assistants() Assistants
	Close() error
}

type Recipients interface {
	Create(ctx context.Context, r *model.Recipient) (*model.Recipient, error)
	Get(ctx context.Context, id string) (*model.Recipient, error)
	ListBySender(ctx context.Context, userID string) ([]*model.Recipient, error)
	ListByRecipientEmail(ctx context.Context, email string) ([]*model.Recipient, error)
	Update(ctx context.Context, id string, u model.RecipientUpdate) (*model.Recipient, error)
	// Delete removes the recipient together with its messages, events and assistant.
	Delete(ctx context.Context, id string) error
}

type Messages interface {
	Create(ctx context.Context, m *model.Message) (*model.Message, error)
	Get(ctx context.Context, id string) (*model.Message, error)
	ListByRecipient(ctx context.Context, directoryID string) ([]*model.Message, error)
	Update(ctx context.Context, m *model.Message) (*model.Message, error)
	Delete(ctx context.Context, id string) error
}

type Events interface {
	Create(ctx context.Context, e *model.Event) (*model.Event, error)
	Get(ctx context.Context, id string) (*model.Event, error)
	ListByRecipient(ctx context.Context, directoryID string) ([]*model.Event, error)
	Update(ctx context.Context, e *model.Event) (*model.Event, error)
	Delete(ctx context.Context, id string) error
}

type Voices interface {
	// Create fails with model.ErrConflict when the user already has a voice.
	Create(ctx context.Context, v *model.Voice) (*model.Voice, error)
	GetByUser(ctx context.Context, userID string) (*model.Voice, error)
	GetByVoiceID(ctx context.Context, voiceID string) (*model.Voice, error)
	Delete(ctx context.Context, id string) error
}

type Assistants interface {
	GetByRecipient(ctx context.Context, directoryID string) (*model.Assistant, error)
	// Upsert inserts or replaces the assistant keyed by DirectoryID. Publish is
	// preserved on replace.
	Upsert(ctx context.Context, a *model.Assistant) (*model.Assistant, error)
	SetPublish(ctx context.Context, directoryID string, publish bool) (*model.Assistant, error)
}
