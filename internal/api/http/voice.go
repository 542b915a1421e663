package http

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/amelia751/cloudly/internal/api/respond"
	"github.com/amelia751/cloudly/internal/auth"
	"github.com/amelia751/cloudly/internal/services"
)

// maxSampleBytes caps uploaded voice samples.
const maxSampleBytes = 25 << 20

// VoiceHandler serves voice cloning routes.
type VoiceHandler struct {
	voices *services.VoiceService
	log    zerolog.Logger
}

func NewVoiceHandler(v *services.VoiceService, log zerolog.Logger) *VoiceHandler {
	return &VoiceHandler{voices: v, log: log}
}

// RegisterVoice POST /voice (multipart: name, audio, meta)
func (h *VoiceHandler) RegisterVoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSampleBytes)
	if err := r.ParseMultipartForm(maxSampleBytes); err != nil {
		respond.WriteBadRequest(w, "Missing name or audio")
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	name := r.FormValue("name")
	file, hdr, err := r.FormFile("audio")
	if err != nil || name == "" {
		respond.WriteBadRequest(w, "Missing name or audio")
		return
	}
	defer func() { _ = file.Close() }()

	id := auth.FromContext(r.Context())
	v, added, err := h.voices.Register(r.Context(), services.RegisterRequest{
		UserID:      id.UserID,
		Name:        name,
		Meta:        r.FormValue("meta"),
		FileName:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Audio:       file,
	})
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create ElevenLabs voice")
		return
	}
	respond.WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "voice": v, "provider": added.Raw})
}

// GetVoice GET /voice
func (h *VoiceHandler) GetVoice(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	v, err := h.voices.Get(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, h.log, err, "")
		return
	}
	respond.WriteJSON(w, http.StatusOK, v)
}

// DeleteVoice DELETE /voice
func (h *VoiceHandler) DeleteVoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VoiceID string `json:"voiceId"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id := auth.FromContext(r.Context())
	if err := h.voices.Delete(r.Context(), id.UserID, req.VoiceID); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete ElevenLabs voice")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "voiceId": req.VoiceID})
}
