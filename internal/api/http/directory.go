package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/amelia751/cloudly/internal/api/respond"
	"github.com/amelia751/cloudly/internal/api/validate"
	"github.com/amelia751/cloudly/internal/auth"
	"github.com/amelia751/cloudly/internal/model"
	"github.com/amelia751/cloudly/internal/services"
)

// DirectoryHandler serves recipients, their messages and events, and invitations.
type DirectoryHandler struct {
	directory *services.DirectoryService
	log       zerolog.Logger
}

func NewDirectoryHandler(d *services.DirectoryService, log zerolog.Logger) *DirectoryHandler {
	return &DirectoryHandler{directory: d, log: log}
}

type recipientRequest struct {
	RecipientName         *string `json:"recipientName"`
	RecipientEmail        *string `json:"recipientEmail" validate:"omitempty,email"`
	RecipientRelationship *string `json:"recipientRelationship"`
	RecipientBirthday     *string `json:"recipientBirthday"`
	SenderName            string  `json:"senderName"`
	SenderEmail           string  `json:"senderEmail" validate:"omitempty,email"`
}

// parseDate accepts YYYY-MM-DD or RFC 3339. Empty means no date.
func parseDate(field string, v *string) (*time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, *v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, model.Invalid("%s must be a date (YYYY-MM-DD)", field)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CreateRecipient POST /recipients
func (h *DirectoryHandler) CreateRecipient(w http.ResponseWriter, r *http.Request) {
	var req recipientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	bday, err := parseDate("recipientBirthday", req.RecipientBirthday)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	id := auth.FromContext(r.Context())
	rec := &model.Recipient{
		RecipientName:         deref(req.RecipientName),
		RecipientEmail:        deref(req.RecipientEmail),
		RecipientRelationship: deref(req.RecipientRelationship),
		RecipientBirthday:     bday,
		SenderName:            req.SenderName,
		SenderEmail:           req.SenderEmail,
	}
	if rec.SenderName == "" {
		rec.SenderName = id.Name
	}
	if rec.SenderEmail == "" {
		rec.SenderEmail = id.Email
	}
	out, err := h.directory.CreateRecipient(r.Context(), id.UserID, rec)
	if err != nil {
		writeServiceError(w, h.log, err, "")
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListRecipients GET /recipients
func (h *DirectoryHandler) ListRecipients(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	list, err := h.directory.ListRecipients(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, h.log, err, "")
		return
	}
	if list == nil {
		list = []*model.Recipient{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"recipients": list, "count": len(list)})
}

// GetRecipient GET /recipients/{id}
func (h *DirectoryHandler) GetRecipient(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	rec, err := h.directory.Recipient(r.Context(), id.UserID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.log, err, "")
		return
	}
	respond.WriteJSON(w, http.StatusOK, rec)
}

// UpdateRecipient PATCH /recipients/{id}
func (h *DirectoryHandler) UpdateRecipient(w http.ResponseWriter, r *http.Request) {
	var req recipientRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	bday, err := parseDate("recipientBirthday", req.RecipientBirthday)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	id := auth.FromContext(r.Context())
	out, err := h.directory.UpdateRecipient(r.Context(), id.UserID, mux.Vars(r)["id"], model.RecipientUpdate{
		RecipientName:         req.RecipientName,
		RecipientEmail:        req.RecipientEmail,
		RecipientRelationship: req.RecipientRelationship,
		RecipientBirthday:     bday,
	})
	if err != nil {
		writeServiceError(w, h.log, err, "")
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteRecipient DELETE /recipients/{id}
func (h *DirectoryHandler) DeleteRecipient(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	if err := h.directory.DeleteRecipient(r.Context(), id.UserID, mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, h.log, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- messages ---

type messageRequest struct {
	Message string `json:"message" validate:"notblank"`
	Context string `json:"context"`
	Note    string `json:"note"`
}

// CreateMessage POST /recipients/{id}/messages
func (h *DirectoryHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	id := auth.FromContext(r.Context())
	m, err := h.directory.AddMessage(r.Context(), id.UserID, mux.Vars(r)["id"], &model.Message{
		Message: req.Message, Context: req.Context, Note: req.Note,
	})
	if err != nil {
		writeServiceError(w, h.log, err, "")
		return
	}
	respond.WriteJSON(w, http.StatusCreated, m)
}

// ListMessages GET /recipients/{id}/messages
func (h *DirectoryHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	list, err := h.directory.ListMessages(r.Context(), id.UserID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.log, err, "")
		return
	}
	if list == nil {
		list = []*model.Message{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"messages": list, "count": len(list)})
}

// UpdateMessage PATCH /recipients/{id}/messages/{messageId}
func (h *DirectoryHandler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	vars := mux.Vars(r)
	id := auth.FromContext(r.Context())
	m, err := h.directory.UpdateMessage(r.Context(), id.UserID, vars["id"], &model.Message{
		ID: vars["messageId"], Message: req.Message, Context: req.Context, Note: req.Note,
	})
	if err != nil {
		writeServiceError(w, h.log, err, "")
		return
	}
	respond.WriteJSON(w, http.StatusOK, m)
}

// DeleteMessage DELETE /recipients/{id}/messages/{messageId}
func (h *DirectoryHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := auth.FromContext(r.Context())
	if err := h.directory.DeleteMessage(r.Context(), id.UserID, vars["id"], vars["messageId"]); err != nil {
		writeServiceError(w, h.log, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- events ---

type eventRequest struct {
	Event   string  `json:"event" validate:"notblank"`
	Date    *string `json:"date"`
	Message string  `json:"message"`
}

// CreateEvent POST /recipients/{id}/events
func (h *DirectoryHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	id := auth.FromContext(r.Context())
	e, err := h.directory.AddEvent(r.Context(), id.UserID, mux.Vars(r)["id"], &model.Event{
		Event: req.Event, Date: date, Message: req.Message,
	})
	if err != nil {
		writeServiceError(w, h.log, err, "")
		return
	}
	respond.WriteJSON(w, http.StatusCreated, e)
}

// ListEvents GET /recipients/{id}/events
func (h *DirectoryHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	list, err := h.directory.ListEvents(r.Context(), id.UserID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.log, err, "")
		return
	}
	if list == nil {
		list = []*model.Event{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"events": list, "count": len(list)})
}

// UpdateEvent PATCH /recipients/{id}/events/{eventId}
func (h *DirectoryHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	vars := mux.Vars(r)
	id := auth.FromContext(r.Context())
	e, err := h.directory.UpdateEvent(r.Context(), id.UserID, vars["id"], &model.Event{
		ID: vars["eventId"], Event: req.Event, Date: date, Message: req.Message,
	})
	if err != nil {
		writeServiceError(w, h.log, err, "")
		return
	}
	respond.WriteJSON(w, http.StatusOK, e)
}

// DeleteEvent DELETE /recipients/{id}/events/{eventId}
func (h *DirectoryHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := auth.FromContext(r.Context())
	if err := h.directory.DeleteEvent(r.Context(), id.UserID, vars["id"], vars["eventId"]); err != nil {
		writeServiceError(w, h.log, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EventLabels GET /event-labels
func (h *DirectoryHandler) EventLabels(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"labels": model.EventLabels})
}

// --- invitations ---

// ListInvites GET /invites
func (h *DirectoryHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	inv, err := h.directory.Invitations(r.Context(), id.Email)
	if err != nil {
		writeServiceError(w, h.log, err, "")
		return
	}
	respond.WriteJSON(w, http.StatusOK, inv)
}

// AcceptInvite POST /invites/{id}/accept
func (h *DirectoryHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	rec, err := h.directory.AcceptInvitation(r.Context(), id.Email, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.log, err, "")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "recipient": rec})
}

// DeclineInvite POST /invites/{id}/decline
func (h *DirectoryHandler) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	a, err := h.directory.DeclineInvitation(r.Context(), id.Email, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.log, err, "")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "assistant": a})
}
