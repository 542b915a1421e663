package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/amelia751/cloudly/internal/auth"
	"github.com/amelia751/cloudly/internal/providers/elevenlabs"
	"github.com/amelia751/cloudly/internal/providers/vapi"
	"github.com/amelia751/cloudly/internal/services"
	"github.com/amelia751/cloudly/internal/store/sqlite"
)

// tokenAuthorizer maps fixed tokens to identities.
type tokenAuthorizer map[string]*auth.Identity

func (t tokenAuthorizer) Authorize(_ context.Context, token string) (*auth.Identity, error) {
	if id, ok := t[token]; ok {
		return id, nil
	}
	return nil, errors.New("unknown token")
}

type upstreamCall struct {
	Method string
	Path   string
	Body   map[string]any
}

// fakeUpstream is a scripted provider: each path+method answers with the
// configured status and body, and every request is recorded.
type fakeUpstream struct {
	*httptest.Server
	mu      sync.Mutex
	calls   []upstreamCall
	replies map[string]reply
}

type reply struct {
	status int
	body   string
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{replies: map[string]reply{}}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := upstreamCall{Method: r.Method, Path: r.URL.Path}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, &call.Body)
		}
		f.mu.Lock()
		f.calls = append(f.calls, call)
		rep, ok := f.replies[r.Method+" "+r.URL.Path]
		f.mu.Unlock()
		if !ok {
			rep = reply{status: http.StatusOK, body: `{}`}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rep.status)
		_, _ = w.Write([]byte(rep.body))
	}))
	t.Cleanup(f.Server.Close)
	return f
}

func (f *fakeUpstream) on(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[method+" "+path] = reply{status: status, body: body}
}

func (f *fakeUpstream) recorded() []upstreamCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]upstreamCall(nil), f.calls...)
}

type testEnv struct {
	handler    http.Handler
	vapi       *fakeUpstream
	elevenlabs *fakeUpstream
}

const (
	aliceToken = "alice-token"
	bobToken   = "bob-token"
)

type envOptions struct {
	noVapiKey bool
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	st, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "cloudly.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	vapiUp := newFakeUpstream(t)
	xiUp := newFakeUpstream(t)

	vapiKey := "vapi-key"
	if opts.noVapiKey {
		vapiKey = ""
	}
	vc := vapi.New(vapi.Config{BaseURL: vapiUp.URL, APIKey: vapiKey})
	xc := elevenlabs.New(elevenlabs.Config{BaseURL: xiUp.URL, APIKey: "xi-key"})
	log := zerolog.Nop()

	deps := Deps{
		Directory: services.NewDirectoryService(st),
		Assistants: services.NewAssistantService(st, vc, xc, services.AssistantSettings{
			Persona:             "You are Mom.",
			VoiceTimeoutSeconds: 30,
		}, log),
		Knowledge: services.NewKnowledgeService(vc),
		Voices:    services.NewVoiceService(st, xc, log),
		Authorizer: tokenAuthorizer{
			aliceToken: {UserID: "alice", Email: "alice@example.com", Name: "Alice"},
			bobToken:   {UserID: "bob", Email: "bob@example.com", Name: "Bob"},
		},
		Log: log,
	}
	return &testEnv{handler: NewRouter(deps), vapi: vapiUp, elevenlabs: xiUp}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) upload(t *testing.T, token, name, filename string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", name))
	fw, err := mw.CreateFormFile("audio", filename)
	require.NoError(t, err)
	_, _ = fw.Write([]byte("RIFF...."))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/voice", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}
