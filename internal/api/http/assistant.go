package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/amelia751/cloudly/internal/api/respond"
	"github.com/amelia751/cloudly/internal/api/validate"
	"github.com/amelia751/cloudly/internal/auth"
	"github.com/amelia751/cloudly/internal/prompt"
	"github.com/amelia751/cloudly/internal/providers/vapi"
	"github.com/amelia751/cloudly/internal/services"
)

// AssistantHandler serves the assistant provider routes and the per-recipient
// assistant workflow.
type AssistantHandler struct {
	assistants *services.AssistantService
	knowledge  *services.KnowledgeService
	log        zerolog.Logger
}

func NewAssistantHandler(a *services.AssistantService, k *services.KnowledgeService, log zerolog.Logger) *AssistantHandler {
	return &AssistantHandler{assistants: a, knowledge: k, log: log}
}

// CreateAssistant POST /assistant
func (h *AssistantHandler) CreateAssistant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VoiceID           string            `json:"voiceId" validate:"notblank"`
		AssistantName     string            `json:"assistantName"`
		Content           string            `json:"content"`
		PromptWithContext string            `json:"promptWithContext,omitempty"`
		FirstMessage      string            `json:"firstMessage"`
		Knowledge         *prompt.Knowledge `json:"knowledge,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	raw, err := h.assistants.Create(r.Context(), services.CreateRequest{
		VoiceID:           req.VoiceID,
		AssistantName:     req.AssistantName,
		Content:           req.Content,
		PromptWithContext: req.PromptWithContext,
		FirstMessage:      req.FirstMessage,
		Knowledge:         req.Knowledge,
	})
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create Vapi assistant")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "assistant": raw})
}

// UpdateAssistant PATCH /assistant/{id}
func (h *AssistantHandler) UpdateAssistant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssistantName     string `json:"assistantName"`
		PromptWithContext string `json:"promptWithContext"`
		FirstMessage      string `json:"firstMessage"`
		VoiceID           string `json:"voiceId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	raw, err := h.assistants.Update(r.Context(), services.UpdateRequest{
		AssistantID:       mux.Vars(r)["id"],
		AssistantName:     req.AssistantName,
		PromptWithContext: req.PromptWithContext,
		FirstMessage:      req.FirstMessage,
		VoiceID:           req.VoiceID,
	})
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update Vapi assistant")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "assistant": raw})
}

// CreateCompanion POST /contact
func (h *AssistantHandler) CreateCompanion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VoiceID string `json:"voiceId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	raw, err := h.assistants.CreateCompanion(r.Context(), req.VoiceID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create Vapi assistant")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "assistant": raw})
}

// AssistantInfo POST /vapi-assistant-info
func (h *AssistantHandler) AssistantInfo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssistantID string `json:"assistantId" validate:"notblank"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	raw, err := h.assistants.Info(r.Context(), req.AssistantID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to fetch assistant info")
		return
	}
	respond.WriteJSON(w, http.StatusOK, raw)
}

// CreateCall POST /create-call
func (h *AssistantHandler) CreateCall(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssistantID string `json:"assistantId" validate:"notblank"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	id, raw, err := h.assistants.StartCall(r.Context(), req.AssistantID)
	if err != nil {
		writeServiceError(w, h.log, err, "Vapi API error")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"callId": id, "call": raw})
}

// CreateKnowledgeBase POST /knowledge-base
func (h *AssistantHandler) CreateKnowledgeBase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	kb, err := h.knowledge.Create(r.Context(), req.Name, "")
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create knowledge base")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "knowledgeBase": kb.Raw})
}

// CreateDefaultKnowledgeBase POST /vapi-knowledge-base
func (h *AssistantHandler) CreateDefaultKnowledgeBase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	// The body is optional here.
	_ = json.NewDecoder(r.Body).Decode(&req)
	kb, err := h.knowledge.Create(r.Context(), req.Name, "My KB")
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create Vapi knowledge base")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"knowledgeBaseId":    kb.ID,
		"knowledgeBaseOrgId": kb.OrgID,
		"data":               kb.Raw,
	})
}

// PatchPrompt PATCH /knowledge-base
func (h *AssistantHandler) PatchPrompt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssistantID string `json:"assistantId" validate:"notblank"`
		NewPrompt   string `json:"newPrompt" validate:"notblank"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	raw, err := h.assistants.PatchPrompt(r.Context(), req.AssistantID, req.NewPrompt)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update assistant prompt")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "assistant": raw})
}

// UpsertChunk POST /knowledgebase/chunk
func (h *AssistantHandler) UpsertChunk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		KnowledgeBaseID string          `json:"knowledgeBaseId"`
		ExternalID      string          `json:"externalId"`
		Type            string          `json:"type"`
		Content         string          `json:"content"`
		Metadata        json.RawMessage `json:"metadata,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	metadata := req.Metadata
	if len(metadata) == 0 || string(metadata) == "null" {
		metadata = json.RawMessage(`{}`)
	}
	raw, err := h.knowledge.UpsertChunk(r.Context(), req.KnowledgeBaseID, &vapi.Chunk{
		ExternalID: req.ExternalID,
		Content:    req.Content,
		Type:       req.Type,
		Metadata:   metadata,
	})
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to upsert chunk")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "chunk": raw})
}

// DeleteChunk DELETE /knowledgebase/chunk
func (h *AssistantHandler) DeleteChunk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		KnowledgeBaseID string `json:"knowledgeBaseId"`
		ExternalID      string `json:"externalId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	raw, err := h.knowledge.DeleteChunk(r.Context(), req.KnowledgeBaseID, req.ExternalID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to delete chunk")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": raw})
}

// --- per-recipient workflow ---

// GetRecipientAssistant GET /recipients/{id}/assistant
func (h *AssistantHandler) GetRecipientAssistant(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	a, err := h.assistants.Get(r.Context(), id.UserID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.log, err, "")
		return
	}
	respond.WriteJSON(w, http.StatusOK, a)
}

// SyncRecipientAssistant PUT /recipients/{id}/assistant
func (h *AssistantHandler) SyncRecipientAssistant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssistantName string `json:"assistantName"`
		Content       string `json:"content"`
		FirstMessage  string `json:"firstMessage"`
		VoiceID       string `json:"voiceId"`
		AssistantID   string `json:"assistantId,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id := auth.FromContext(r.Context())
	res, err := h.assistants.Sync(r.Context(), services.SyncRequest{
		UserID:        id.UserID,
		RecipientID:   mux.Vars(r)["id"],
		AssistantName: req.AssistantName,
		Instructions:  req.Content,
		FirstMessage:  req.FirstMessage,
		VoiceID:       req.VoiceID,
		AssistantID:   req.AssistantID,
	})
	if err != nil {
		msg := "Failed to update Vapi assistant"
		if req.AssistantID == "" {
			msg = "Failed to save Vapi assistant"
		}
		writeServiceError(w, h.log, err, msg)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	respond.WriteJSON(w, status, map[string]any{
		"success":   true,
		"created":   res.Created,
		"assistant": res.Assistant,
		"remote":    res.Remote,
	})
}

// PublishRecipientAssistant POST /recipients/{id}/assistant/publish
func (h *AssistantHandler) PublishRecipientAssistant(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	a, err := h.assistants.Publish(r.Context(), id.UserID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.log, err, "")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "assistant": a})
}

// RefreshRecipientAssistant POST /recipients/{id}/assistant/refresh
func (h *AssistantHandler) RefreshRecipientAssistant(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	raw, err := h.assistants.Refresh(r.Context(), id.UserID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update assistant prompt")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "assistant": raw})
}
