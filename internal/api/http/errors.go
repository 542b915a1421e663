package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/amelia751/cloudly/internal/api/respond"
	"github.com/amelia751/cloudly/internal/model"
	"github.com/amelia751/cloudly/internal/providers"
	"github.com/amelia751/cloudly/internal/services"
)

// writeServiceError maps a service error to its HTTP reply. providerMsg is the
// error text used when an upstream provider rejected the call.
func writeServiceError(w http.ResponseWriter, log zerolog.Logger, err error, providerMsg string) {
	var oos *services.OutOfSyncError
	switch {
	case model.IsValidation(err):
		respond.WriteBadRequest(w, err.Error())
		return
	case model.IsNotFound(err):
		respond.WriteNotFound(w, err.Error())
		return
	case model.IsForbidden(err):
		respond.WriteError(w, http.StatusForbidden, err.Error())
		return
	case model.IsConflict(err):
		respond.WriteError(w, http.StatusConflict, err.Error())
		return
	case errors.As(err, &oos):
		respond.WriteErrorDetails(w, http.StatusInternalServerError,
			"assistant saved remotely but not locally",
			map[string]string{"assistantId": oos.AssistantID})
		return
	case errors.Is(err, providers.ErrNotConfigured):
		log.Error().Err(err).Msg("provider not configured")
		respond.WriteInternalError(w, err.Error())
		return
	case errors.Is(err, providers.ErrUnavailable):
		log.Error().Err(err).Msg("provider unreachable")
		respond.WriteErrorDetails(w, http.StatusBadGateway, providerMsg, err.Error())
		return
	}

	if pe, ok := providers.AsError(err); ok {
		log.Error().Str("provider", pe.Provider).Str("operation", pe.Operation).
			Int("status", pe.Status).RawJSON("body", pe.Body).Msg("provider rejected request")
		respond.WriteErrorDetails(w, pe.Status, providerMsg, json.RawMessage(pe.Body))
		return
	}

	log.Error().Stack().Err(err).Msg("request failed")
	respond.WriteInternalError(w, err.Error())
}

// decodeJSON reads the request body into v and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return false
	}
	return true
}
