package services

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amelia751/cloudly/internal/model"
	"github.com/amelia751/cloudly/internal/providers/elevenlabs"
	"github.com/amelia751/cloudly/internal/providers/vapi"
	"github.com/amelia751/cloudly/internal/store"
	"github.com/amelia751/cloudly/internal/store/sqlite"
)

// --- Fakes ---

type assistantCall struct {
	op  string
	id  string
	req *vapi.AssistantRequest
}

type fakeAssistantProvider struct {
	calls   []assistantCall
	nextID  string
	err     error
	chunks  []string
	deleted []string
	kbNames []string
}

func (f *fakeAssistantProvider) CreateAssistant(ctx context.Context, req *vapi.AssistantRequest) (*vapi.Assistant, error) {
	f.calls = append(f.calls, assistantCall{op: "create", req: req})
	if f.err != nil {
		return nil, f.err
	}
	id := f.nextID
	if id == "" {
		id = "asst_new"
	}
	return &vapi.Assistant{ID: id, OrgID: "org_1", Name: req.Name, Raw: json.RawMessage(`{"id":"` + id + `"}`)}, nil
}

func (f *fakeAssistantProvider) UpdateAssistant(ctx context.Context, id string, req *vapi.AssistantRequest) (*vapi.Assistant, error) {
	f.calls = append(f.calls, assistantCall{op: "update", id: id, req: req})
	if f.err != nil {
		return nil, f.err
	}
	return &vapi.Assistant{ID: id, OrgID: "org_1", Name: req.Name, Raw: json.RawMessage(`{"id":"` + id + `"}`)}, nil
}

func (f *fakeAssistantProvider) GetAssistant(ctx context.Context, id string) (*vapi.Assistant, error) {
	f.calls = append(f.calls, assistantCall{op: "get", id: id})
	if f.err != nil {
		return nil, f.err
	}
	return &vapi.Assistant{ID: id, Raw: json.RawMessage(`{"id":"` + id + `"}`)}, nil
}

func (f *fakeAssistantProvider) CreateWebCall(ctx context.Context, assistantID string) (*vapi.Call, error) {
	f.calls = append(f.calls, assistantCall{op: "call", id: assistantID})
	if f.err != nil {
		return nil, f.err
	}
	return &vapi.Call{ID: "call_1", Raw: json.RawMessage(`{"id":"call_1"}`)}, nil
}

func (f *fakeAssistantProvider) CreateKnowledgeBase(ctx context.Context, name string) (*vapi.KnowledgeBase, error) {
	f.kbNames = append(f.kbNames, name)
	if f.err != nil {
		return nil, f.err
	}
	return &vapi.KnowledgeBase{ID: "kb_1", Raw: json.RawMessage(`{"id":"kb_1"}`)}, nil
}

func (f *fakeAssistantProvider) UpsertChunk(ctx context.Context, kb string, chunk *vapi.Chunk) (json.RawMessage, error) {
	f.chunks = append(f.chunks, chunk.ExternalID)
	return json.RawMessage(`{}`), f.err
}

func (f *fakeAssistantProvider) DeleteChunk(ctx context.Context, kb, externalID string) (json.RawMessage, error) {
	f.deleted = append(f.deleted, externalID)
	return json.RawMessage(`{}`), f.err
}

func (f *fakeAssistantProvider) ops() []string {
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.op)
	}
	return out
}

type fakeVoiceProvider struct {
	noKey     bool
	addErr    error
	deleteErr error
	added     []string
	deleted   []string
}

func (f *fakeVoiceProvider) AddVoice(ctx context.Context, name string, sample elevenlabs.Sample) (*elevenlabs.AddedVoice, error) {
	f.added = append(f.added, sample.FileName)
	if f.addErr != nil {
		return nil, f.addErr
	}
	return &elevenlabs.AddedVoice{VoiceID: "v_" + name}, nil
}

func (f *fakeVoiceProvider) DeleteVoice(ctx context.Context, voiceID string) (json.RawMessage, error) {
	f.deleted = append(f.deleted, voiceID)
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return json.RawMessage(`{"status":"ok"}`), nil
}

func (f *fakeVoiceProvider) SynthesisURL(voiceID string) string {
	return "https://api.elevenlabs.io/v1/text-to-speech/" + voiceID
}

func (f *fakeVoiceProvider) SynthesisHeaders() map[string]string {
	return map[string]string{"xi-api-key": "xi", "Content-Type": "application/json"}
}

func (f *fakeVoiceProvider) Configured() bool { return !f.noKey }

// countingStore counts repository accesses so tests can assert that no store
// work happened.
type countingStore struct {
	store.Store
	n atomic.Int32
}

func (c *countingStore) Recipients() store.Recipients { c.n.Add(1); return c.Store.Recipients() }
func (c *countingStore) Messages() store.Messages     { c.n.Add(1); return c.Store.Messages() }
func (c *countingStore) Events() store.Events         { c.n.Add(1); return c.Store.Events() }
func (c *countingStore) Voices() store.Voices         { c.n.Add(1); return c.Store.Voices() }
func (c *countingStore) Assistants() store.Assistants { c.n.Add(1); return c.Store.Assistants() }

var errDiskFull = errors.New("disk full")

// brokenWrites fails assistant upserts and voice deletes.
type brokenWrites struct {
	store.Store
}

func (b brokenWrites) Assistants() store.Assistants { return failingAssistants{b.Store.Assistants()} }
func (b brokenWrites) Voices() store.Voices         { return failingVoices{b.Store.Voices()} }

type failingAssistants struct{ store.Assistants }

func (failingAssistants) Upsert(context.Context, *model.Assistant) (*model.Assistant, error) {
	return nil, errDiskFull
}

type failingVoices struct{ store.Voices }

func (failingVoices) Delete(context.Context, string) error { return errDiskFull }

func newSQLiteStore(t *testing.T) store.Store {
	t.Helper()
	st, err := sqlite.New(context.Background(), filepath.Join(t.TempDir(), "cloudly.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}
