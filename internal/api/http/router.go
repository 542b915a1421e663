package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/amelia751/cloudly/internal/api/recovery"
	"github.com/amelia751/cloudly/internal/auth"
	"github.com/amelia751/cloudly/internal/services"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Directory  *services.DirectoryService
	Assistants *services.AssistantService
	Knowledge  *services.KnowledgeService
	Voices     *services.VoiceService
	Authorizer auth.Authorizer
	Health     HealthSource
	Log        zerolog.Logger
}

// NewRouter builds the HTTP API. /health and /metrics are public; every
// other route requires a bearer token.
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()

	// Global middlewares
	router.Use(recovery.Middleware(d.Log))
	router.Use(RequestLogger(d.Log))

	healthHandler := NewHealthHandler(d.Health)
	router.HandleFunc("/health", healthHandler.CheckHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.NewRoute().Subrouter()
	api.Use(auth.Middleware(d.Authorizer, d.Log))

	assistantHandler := NewAssistantHandler(d.Assistants, d.Knowledge, d.Log)
	directoryHandler := NewDirectoryHandler(d.Directory, d.Log)
	voiceHandler := NewVoiceHandler(d.Voices, d.Log)

	// Provider proxy endpoints
	api.HandleFunc("/assistant", assistantHandler.CreateAssistant).Methods(http.MethodPost)
	api.HandleFunc("/assistant/{id}", assistantHandler.UpdateAssistant).Methods(http.MethodPatch)
	api.HandleFunc("/contact", assistantHandler.CreateCompanion).Methods(http.MethodPost)
	api.HandleFunc("/knowledge-base", assistantHandler.CreateKnowledgeBase).Methods(http.MethodPost)
	api.HandleFunc("/knowledge-base", assistantHandler.PatchPrompt).Methods(http.MethodPatch)
	api.HandleFunc("/vapi-knowledge-base", assistantHandler.CreateDefaultKnowledgeBase).Methods(http.MethodPost)
	api.HandleFunc("/knowledgebase/chunk", assistantHandler.UpsertChunk).Methods(http.MethodPost)
	api.HandleFunc("/knowledgebase/chunk", assistantHandler.DeleteChunk).Methods(http.MethodDelete)
	api.HandleFunc("/vapi-assistant-info", assistantHandler.AssistantInfo).Methods(http.MethodPost)
	api.HandleFunc("/create-call", assistantHandler.CreateCall).Methods(http.MethodPost)

	// Voice endpoints
	api.HandleFunc("/voice", voiceHandler.RegisterVoice).Methods(http.MethodPost)
	api.HandleFunc("/voice", voiceHandler.GetVoice).Methods(http.MethodGet)
	api.HandleFunc("/voice", voiceHandler.DeleteVoice).Methods(http.MethodDelete)

	// Recipient endpoints
	api.HandleFunc("/recipients", directoryHandler.CreateRecipient).Methods(http.MethodPost)
	api.HandleFunc("/recipients", directoryHandler.ListRecipients).Methods(http.MethodGet)
	api.HandleFunc("/recipients/{id}", directoryHandler.GetRecipient).Methods(http.MethodGet)
	api.HandleFunc("/recipients/{id}", directoryHandler.UpdateRecipient).Methods(http.MethodPatch)
	api.HandleFunc("/recipients/{id}", directoryHandler.DeleteRecipient).Methods(http.MethodDelete)

	api.HandleFunc("/recipients/{id}/messages", directoryHandler.CreateMessage).Methods(http.MethodPost)
	api.HandleFunc("/recipients/{id}/messages", directoryHandler.ListMessages).Methods(http.MethodGet)
	api.HandleFunc("/recipients/{id}/messages/{messageId}", directoryHandler.UpdateMessage).Methods(http.MethodPatch)
	api.HandleFunc("/recipients/{id}/messages/{messageId}", directoryHandler.DeleteMessage).Methods(http.MethodDelete)

	api.HandleFunc("/recipients/{id}/events", directoryHandler.CreateEvent).Methods(http.MethodPost)
	api.HandleFunc("/recipients/{id}/events", directoryHandler.ListEvents).Methods(http.MethodGet)
	api.HandleFunc("/recipients/{id}/events/{eventId}", directoryHandler.UpdateEvent).Methods(http.MethodPatch)
	api.HandleFunc("/recipients/{id}/events/{eventId}", directoryHandler.DeleteEvent).Methods(http.MethodDelete)
	api.HandleFunc("/event-labels", directoryHandler.EventLabels).Methods(http.MethodGet)

	// Assistant workflow
	api.HandleFunc("/recipients/{id}/assistant", assistantHandler.GetRecipientAssistant).Methods(http.MethodGet)
	api.HandleFunc("/recipients/{id}/assistant", assistantHandler.SyncRecipientAssistant).Methods(http.MethodPut)
	api.HandleFunc("/recipients/{id}/assistant/publish", assistantHandler.PublishRecipientAssistant).Methods(http.MethodPost)
	api.HandleFunc("/recipients/{id}/assistant/refresh", assistantHandler.RefreshRecipientAssistant).Methods(http.MethodPost)

	// Invitations
	api.HandleFunc("/invites", directoryHandler.ListInvites).Methods(http.MethodGet)
	api.HandleFunc("/invites/{id}/accept", directoryHandler.AcceptInvite).Methods(http.MethodPost)
	api.HandleFunc("/invites/{id}/decline", directoryHandler.DeclineInvite).Methods(http.MethodPost)

	return router
}
