package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amelia751/cloudly/internal/model"
	"github.com/amelia751/cloudly/internal/providers"
	"github.com/amelia751/cloudly/internal/services"
)

func createRecipient(t *testing.T, env *testEnv, token string) string {
	t.Helper()
	rr := env.do(t, http.MethodPost, "/recipients", token, map[string]any{
		"recipientName":  "Mom",
		"recipientEmail": "bob@example.com",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode(t, rr)["id"].(string)
}

func TestHealthIsPublicAndAPIIsNot(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rr := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "unhealthy", decode(t, rr)["status"])

	rr = env.do(t, http.MethodGet, "/recipients", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSyncCreatesThenUpdates(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.vapi.on(http.MethodPost, "/assistant", http.StatusCreated, `{"id":"asst_1","orgId":"org_1"}`)
	env.vapi.on(http.MethodPatch, "/assistant/asst_1", http.StatusOK, `{"id":"asst_1","orgId":"org_1"}`)

	id := createRecipient(t, env, aliceToken)
	rr := env.do(t, http.MethodPost, "/recipients/"+id+"/messages", aliceToken, map[string]any{"message": "I love you", "context": "bedtime"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rr = env.do(t, http.MethodPost, "/recipients/"+id+"/events", aliceToken, map[string]any{"event": "Birthday", "date": "2024-05-01", "message": "Happy birthday!"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	body := map[string]any{"assistantName": "Mom", "content": "Be warm.", "firstMessage": "Hi", "voiceId": "v1"}
	rr = env.do(t, http.MethodPut, "/recipients/"+id+"/assistant", aliceToken, body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	out := decode(t, rr)
	assert.Equal(t, true, out["created"])
	assert.Equal(t, "asst_1", out["assistant"].(map[string]any)["assistantId"])

	rr = env.do(t, http.MethodPut, "/recipients/"+id+"/assistant", aliceToken, body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	calls := env.vapi.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodPost, calls[0].Method)
	assert.Equal(t, http.MethodPatch, calls[1].Method)
	assert.Equal(t, "/assistant/asst_1", calls[1].Path)

	msgs := calls[0].Body["model"].(map[string]any)["messages"].([]any)
	assert.Equal(t,
		"You are Mom.\n\nBe warm.\n\nMessages:\n- \"I love you\" (Context: bedtime)\n\nEvents:\n- Birthday on 5/1/2024: Happy birthday!",
		msgs[0].(map[string]any)["content"])

	rr = env.do(t, http.MethodGet, "/recipients/"+id+"/assistant", aliceToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "org_1", decode(t, rr)["orgId"])
}

func TestSyncWithoutVoiceIDMakesNoProviderCall(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	id := createRecipient(t, env, aliceToken)

	rr := env.do(t, http.MethodPut, "/recipients/"+id+"/assistant", aliceToken, map[string]any{"assistantName": "Mom"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "voiceId is required", decode(t, rr)["error"])
	assert.Empty(t, env.vapi.recorded())
}

func TestSyncProviderErrorIsRelayed(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.vapi.on(http.MethodPost, "/assistant", http.StatusUnprocessableEntity, `{"message":["name must be shorter"]}`)
	id := createRecipient(t, env, aliceToken)

	rr := env.do(t, http.MethodPut, "/recipients/"+id+"/assistant", aliceToken, map[string]any{"assistantName": "Mom", "voiceId": "v1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	out := decode(t, rr)
	assert.Equal(t, "Failed to save Vapi assistant", out["error"])
	assert.Equal(t, map[string]any{"message": []any{"name must be shorter"}}, out["details"])

	rr = env.do(t, http.MethodGet, "/recipients/"+id+"/assistant", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestOtherSenderIsForbidden(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	id := createRecipient(t, env, aliceToken)

	rr := env.do(t, http.MethodGet, "/recipients/"+id, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodPut, "/recipients/"+id+"/assistant", bobToken, map[string]any{"assistantName": "x", "voiceId": "v1"})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Empty(t, env.vapi.recorded())
}

func TestInvitationRoutes(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.vapi.on(http.MethodPost, "/assistant", http.StatusCreated, `{"id":"asst_1"}`)
	id := createRecipient(t, env, aliceToken)

	rr := env.do(t, http.MethodPut, "/recipients/"+id+"/assistant", aliceToken, map[string]any{"assistantName": "Mom", "voiceId": "v1"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rr = env.do(t, http.MethodPost, "/recipients/"+id+"/assistant/publish", aliceToken, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = env.do(t, http.MethodGet, "/invites", bobToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode(t, rr)["invites"], 1)

	rr = env.do(t, http.MethodPost, "/invites/"+id+"/accept", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code, "only the addressee accepts")

	rr = env.do(t, http.MethodPost, "/invites/"+id+"/accept", bobToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = env.do(t, http.MethodGet, "/invites", bobToken, nil)
	out := decode(t, rr)
	assert.Len(t, out["invites"], 0)
	assert.Len(t, out["connections"], 1)
}

func TestVoiceRoutes(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.elevenlabs.on(http.MethodPost, "/v1/voices/add", http.StatusOK, `{"voice_id":"xi_1"}`)

	rr := env.upload(t, aliceToken, "Alice", "sample.txt")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Audio must be .wav, .mp3, or .m4a", decode(t, rr)["error"])

	rr = env.upload(t, aliceToken, "Alice", "sample.wav")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "xi_1", decode(t, rr)["voice"].(map[string]any)["voiceId"])

	rr = env.upload(t, aliceToken, "Alice again", "sample.mp3")
	assert.Equal(t, http.StatusConflict, rr.Code)

	env.elevenlabs.on(http.MethodDelete, "/v1/voices/xi_1", http.StatusInternalServerError, `{"detail":"try later"}`)
	rr = env.do(t, http.MethodDelete, "/voice", aliceToken, map[string]any{"voiceId": "xi_1"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Failed to delete ElevenLabs voice", decode(t, rr)["error"])

	rr = env.do(t, http.MethodGet, "/voice", aliceToken, nil)
	require.Equal(t, http.StatusOK, rr.Code, "local record survives remote failure")

	env.elevenlabs.on(http.MethodDelete, "/v1/voices/xi_1", http.StatusOK, `{"status":"ok"}`)
	rr = env.do(t, http.MethodDelete, "/voice", aliceToken, map[string]any{"voiceId": "xi_1"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "xi_1", decode(t, rr)["voiceId"])

	rr = env.do(t, http.MethodGet, "/voice", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestProxyRoutes(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.vapi.on(http.MethodPost, "/call", http.StatusCreated, `{"id":"call_1","status":"queued"}`)
	env.vapi.on(http.MethodGet, "/assistant/asst_1", http.StatusOK, `{"id":"asst_1","name":"Mom"}`)
	env.vapi.on(http.MethodPost, "/knowledge-base", http.StatusCreated, `{"id":"kb_1","orgId":"org_1"}`)

	rr := env.do(t, http.MethodPost, "/create-call", aliceToken, map[string]any{"assistantId": "asst_1"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	out := decode(t, rr)
	assert.Equal(t, "call_1", out["callId"])
	assert.Equal(t, "queued", out["call"].(map[string]any)["status"])

	rr = env.do(t, http.MethodPost, "/vapi-assistant-info", aliceToken, map[string]any{"assistantId": "asst_1"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Mom", decode(t, rr)["name"])

	rr = env.do(t, http.MethodPost, "/vapi-assistant-info", aliceToken, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "assistantId is required", decode(t, rr)["error"])

	rr = env.do(t, http.MethodPost, "/knowledge-base", aliceToken, map[string]any{"name": "memories"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "kb_1", decode(t, rr)["knowledgeBase"].(map[string]any)["id"])

	rr = env.do(t, http.MethodPost, "/vapi-knowledge-base", aliceToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	out = decode(t, rr)
	assert.Equal(t, "kb_1", out["knowledgeBaseId"])
	assert.Equal(t, "org_1", out["knowledgeBaseOrgId"])

	rr = env.do(t, http.MethodPost, "/knowledgebase/chunk", aliceToken, map[string]any{"knowledgeBaseId": "kb_1", "externalId": "m1"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "/knowledgebase/chunk", aliceToken, map[string]any{"knowledgeBaseId": "kb_1", "externalId": "m1", "content": "hello", "type": "message"})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPatch, "/knowledge-base", aliceToken, map[string]any{"assistantId": "asst_1", "newPrompt": "Be kind."})
	require.Equal(t, http.StatusOK, rr.Code)

	calls := env.vapi.recorded()
	last := calls[len(calls)-1]
	assert.Equal(t, http.MethodPatch, last.Method)
	assert.Equal(t, "/assistant/asst_1", last.Path)
	_, hasVoice := last.Body["voice"]
	assert.False(t, hasVoice)
}

func TestCreateAssistantWithKnowledge(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.vapi.on(http.MethodPost, "/assistant", http.StatusCreated, `{"id":"asst_9"}`)

	rr := env.do(t, http.MethodPost, "/assistant", aliceToken, map[string]any{
		"voiceId":       "v1",
		"assistantName": "Dad",
		"content":       "Be brief.",
		"firstMessage":  "Hey kiddo",
		"knowledge": map[string]any{
			"messages": []any{map[string]any{"message": "Proud of you"}},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, true, decode(t, rr)["success"])

	calls := env.vapi.recorded()
	require.Len(t, calls, 1)
	msgs := calls[0].Body["model"].(map[string]any)["messages"].([]any)
	assert.Equal(t, "Be brief.\n\nMessages:\n- Proud of you", msgs[0].(map[string]any)["content"])
	voice := calls[0].Body["voice"].(map[string]any)
	assert.Equal(t, env.elevenlabs.URL+"/v1/text-to-speech/v1", voice["server"].(map[string]any)["url"])
}

func TestMissingProviderKey(t *testing.T) {
	env := newTestEnv(t, envOptions{noVapiKey: true})

	rr := env.do(t, http.MethodPost, "/create-call", aliceToken, map[string]any{"assistantId": "asst_1"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "VAPI_API_KEY is not configured", decode(t, rr)["error"])
	assert.Empty(t, env.vapi.recorded())
}

func TestWriteServiceError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		check  func(t *testing.T, body map[string]any)
	}{
		{"validation", model.Invalid("voiceId is required"), http.StatusBadRequest, nil},
		{"not found", model.NotFoundf("gone"), http.StatusNotFound, nil},
		{"conflict", model.Conflictf("dup"), http.StatusConflict, nil},
		{"out of sync", &services.OutOfSyncError{AssistantID: "asst_1", Err: assert.AnError}, http.StatusInternalServerError,
			func(t *testing.T, body map[string]any) {
				assert.Equal(t, "assistant saved remotely but not locally", body["error"])
				assert.Equal(t, "asst_1", body["details"].(map[string]any)["assistantId"])
			}},
		{"provider", &providers.Error{Provider: "vapi", Status: http.StatusTooManyRequests, Body: json.RawMessage(`"slow down"`)}, http.StatusTooManyRequests,
			func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Failed", body["error"])
				assert.Equal(t, "slow down", body["details"])
			}},
		{"unavailable", providers.ErrUnavailable, http.StatusBadGateway, nil},
		{"other", assert.AnError, http.StatusInternalServerError, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeServiceError(rr, zerolog.Nop(), tc.err, "Failed")
			assert.Equal(t, tc.status, rr.Code)
			if tc.check != nil {
				tc.check(t, decode(t, rr))
			}
		})
	}
}
