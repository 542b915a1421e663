package services

import (
	"context"
	"strings"

	"github.com/amelia751/cloudly/internal/model"
	"github.com/amelia751/cloudly/internal/store"
)

// DirectoryService manages recipients and the messages and events left for them.
// Every mutating call takes the caller's user id; only the sender who created a
// recipient may change it.
type DirectoryService struct {
	store store.Store
}

func NewDirectoryService(s store.Store) *DirectoryService {
	return &DirectoryService{store: s}
}

func (s *DirectoryService) CreateRecipient(ctx context.Context, userID string, r *model.Recipient) (*model.Recipient, error) {
	if strings.TrimSpace(r.RecipientName) == "" {
		return nil, model.Invalid("recipientName is required")
	}
	r.UserID = userID
	r.Connect = false
	return s.store.Recipients().Create(ctx, r)
}

func (s *DirectoryService) ListRecipients(ctx context.Context, userID string) ([]*model.Recipient, error) {
	return s.store.Recipients().ListBySender(ctx, userID)
}

// Recipient returns the recipient when userID is its sender.
func (s *DirectoryService) Recipient(ctx context.Context, userID, id string) (*model.Recipient, error) {
	r, err := s.store.Recipients().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, model.Forbiddenf("recipient %s belongs to another user", id)
	}
	return r, nil
}

func (s *DirectoryService) UpdateRecipient(ctx context.Context, userID, id string, u model.RecipientUpdate) (*model.Recipient, error) {
	if _, err := s.Recipient(ctx, userID, id); err != nil {
		return nil, err
	}
	if u.RecipientName != nil && strings.TrimSpace(*u.RecipientName) == "" {
		return nil, model.Invalid("recipientName cannot be empty")
	}
	// connect is owned by the recipient side of the invitation.
	u.Connect = nil
	return s.store.Recipients().Update(ctx, id, u)
}

// DeleteRecipient removes the recipient with its messages, events and assistant.
func (s *DirectoryService) DeleteRecipient(ctx context.Context, userID, id string) error {
	if _, err := s.Recipient(ctx, userID, id); err != nil {
		return err
	}
	return s.store.Recipients().Delete(ctx, id)
}

// --- messages ---

func (s *DirectoryService) AddMessage(ctx context.Context, userID, recipientID string, m *model.Message) (*model.Message, error) {
	if strings.TrimSpace(m.Message) == "" {
		return nil, model.Invalid("message is required")
	}
	if _, err := s.Recipient(ctx, userID, recipientID); err != nil {
		return nil, err
	}
	m.DirectoryID = recipientID
	return s.store.Messages().Create(ctx, m)
}

func (s *DirectoryService) ListMessages(ctx context.Context, userID, recipientID string) ([]*model.Message, error) {
	if _, err := s.Recipient(ctx, userID, recipientID); err != nil {
		return nil, err
	}
	return s.store.Messages().ListByRecipient(ctx, recipientID)
}

func (s *DirectoryService) UpdateMessage(ctx context.Context, userID, recipientID string, m *model.Message) (*model.Message, error) {
	if strings.TrimSpace(m.Message) == "" {
		return nil, model.Invalid("message is required")
	}
	if _, err := s.ownedMessage(ctx, userID, recipientID, m.ID); err != nil {
		return nil, err
	}
	m.DirectoryID = recipientID
	return s.store.Messages().Update(ctx, m)
}

func (s *DirectoryService) DeleteMessage(ctx context.Context, userID, recipientID, messageID string) error {
	if _, err := s.ownedMessage(ctx, userID, recipientID, messageID); err != nil {
		return err
	}
	return s.store.Messages().Delete(ctx, messageID)
}

func (s *DirectoryService) ownedMessage(ctx context.Context, userID, recipientID, messageID string) (*model.Message, error) {
	if _, err := s.Recipient(ctx, userID, recipientID); err != nil {
		return nil, err
	}
	m, err := s.store.Messages().Get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if m.DirectoryID != recipientID {
		return nil, model.NotFoundf("message %s not found", messageID)
	}
	return m, nil
}

// --- events ---

func (s *DirectoryService) AddEvent(ctx context.Context, userID, recipientID string, e *model.Event) (*model.Event, error) {
	if strings.TrimSpace(e.Event) == "" {
		return nil, model.Invalid("event is required")
	}
	if _, err := s.Recipient(ctx, userID, recipientID); err != nil {
		return nil, err
	}
	e.DirectoryID = recipientID
	return s.store.Events().Create(ctx, e)
}

func (s *DirectoryService) ListEvents(ctx context.Context, userID, recipientID string) ([]*model.Event, error) {
	if _, err := s.Recipient(ctx, userID, recipientID); err != nil {
		return nil, err
	}
	return s.store.Events().ListByRecipient(ctx, recipientID)
}

func (s *DirectoryService) UpdateEvent(ctx context.Context, userID, recipientID string, e *model.Event) (*model.Event, error) {
	if strings.TrimSpace(e.Event) == "" {
		return nil, model.Invalid("event is required")
	}
	if _, err := s.ownedEvent(ctx, userID, recipientID, e.ID); err != nil {
		return nil, err
	}
	e.DirectoryID = recipientID
	return s.store.Events().Update(ctx, e)
}

func (s *DirectoryService) DeleteEvent(ctx context.Context, userID, recipientID, eventID string) error {
	if _, err := s.ownedEvent(ctx, userID, recipientID, eventID); err != nil {
		return err
	}
	return s.store.Events().Delete(ctx, eventID)
}

func (s *DirectoryService) ownedEvent(ctx context.Context, userID, recipientID, eventID string) (*model.Event, error) {
	if _, err := s.Recipient(ctx, userID, recipientID); err != nil {
		return nil, err
	}
	e, err := s.store.Events().Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.DirectoryID != recipientID {
		return nil, model.NotFoundf("event %s not found", eventID)
	}
	return e, nil
}

// --- invitations ---

// Invitation pairs a directory record addressed to the caller with its
// published assistant.
type Invitation struct {
	Recipient *model.Recipient `json:"recipient"`
	Assistant *model.Assistant `json:"assistant"`
}

// Invitations lists what has been shared with an email address.
type Invitations struct {
	Invites     []Invitation `json:"invites"`
	Connections []Invitation `json:"connections"`
}

// Invitations returns records addressed to email whose assistant is published,
// split by whether the caller already accepted them.
func (s *DirectoryService) Invitations(ctx context.Context, email string) (*Invitations, error) {
	out := &Invitations{Invites: []Invitation{}, Connections: []Invitation{}}
	if strings.TrimSpace(email) == "" {
		return out, nil
	}
	records, err := s.store.Recipients().ListByRecipientEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		a, err := s.store.Assistants().GetByRecipient(ctx, r.ID)
		if err != nil {
			if model.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if !a.Publish {
			continue
		}
		inv := Invitation{Recipient: r, Assistant: a}
		if r.Connect {
			out.Connections = append(out.Connections, inv)
		} else {
			out.Invites = append(out.Invites, inv)
		}
	}
	return out, nil
}

// AcceptInvitation marks the directory record as connected.
func (s *DirectoryService) AcceptInvitation(ctx context.Context, email, recipientID string) (*model.Recipient, error) {
	if _, err := s.addressedTo(ctx, email, recipientID); err != nil {
		return nil, err
	}
	connect := true
	return s.store.Recipients().Update(ctx, recipientID, model.RecipientUpdate{Connect: &connect})
}

// DeclineInvitation unpublishes the assistant shared with the caller.
func (s *DirectoryService) DeclineInvitation(ctx context.Context, email, recipientID string) (*model.Assistant, error) {
	if _, err := s.addressedTo(ctx, email, recipientID); err != nil {
		return nil, err
	}
	return s.store.Assistants().SetPublish(ctx, recipientID, false)
}

func (s *DirectoryService) addressedTo(ctx context.Context, email, recipientID string) (*model.Recipient, error) {
	r, err := s.store.Recipients().Get(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if email == "" || r.RecipientEmail != email {
		return nil, model.Forbiddenf("invitation %s is not addressed to the caller", recipientID)
	}
	return r, nil
}
