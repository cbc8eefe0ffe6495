package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/si451/creatorconnect/backend/config"
	"github.com/si451/creatorconnect/backend/model"
)

// fakeIdentityRepo is an in-memory stand-in for the database-backed
// session id store.
type fakeIdentityRepo struct {
	ids map[string]string
}

func newFakeIdentityRepo() *fakeIdentityRepo {
	return &fakeIdentityRepo{ids: make(map[string]string)}
}

func (f *fakeIdentityRepo) GetSessionID(tenant, creatorUsername string) (string, error) {
	return f.ids[tenant+"/"+creatorUsername], nil
}

func (f *fakeIdentityRepo) SaveSessionID(tenant, creatorUsername, platform, sessionID string) error {
	f.ids[tenant+"/"+creatorUsername] = sessionID
	return nil
}

func newTestChatService(serverURL string) (*ChatService, *SessionStore) {
	store := NewSessionStore(&config.StoreConfig{MaxSessions: 10, MaxDeals: 10})
	svc := NewChatService(newTestUpstream(serverURL), store, newFakeIdentityRepo())
	return svc, store
}

func TestOpenSessionStableID(t *testing.T) {
	svc, _ := newTestChatService("http://unused.test")

	first, err := svc.OpenSession(context.Background(), "brand-a", "tech_guru", "youtube")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if first.ID == "" {
		t.Fatal("Expected a session id")
	}

	second, err := svc.OpenSession(context.Background(), "brand-a", "tech_guru", "youtube")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Expected stable session id, got %s then %s", first.ID, second.ID)
	}

	other, err := svc.OpenSession(context.Background(), "brand-a", "fitness_queen", "instagram")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if other.ID == first.ID {
		t.Error("Expected distinct session ids per creator")
	}
}

func TestSendMessageReplacesTranscript(t *testing.T) {
	serverHistory := []model.Message{
		{Role: model.RoleUser, Content: "hello", Timestamp: "2025-06-01T10:00:00Z"},
		{Role: model.RoleAssistant, Content: "Hi! How can I help?", Type: model.TypeGreeting, Timestamp: "2025-06-01T10:00:01Z"},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatResponse{History: serverHistory})
	}))
	defer server.Close()

	svc, store := newTestChatService(server.URL)
	sess, _ := svc.OpenSession(context.Background(), "brand-a", "tech_guru", "youtube")

	history, err := svc.SendMessage(context.Background(), sess, "hello", model.CreatorDetails{Username: "tech_guru"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// The transcript must equal exactly the server-returned history; the
	// optimistic append is discarded, never merged.
	if len(history) != len(serverHistory) {
		t.Fatalf("Expected %d messages, got %d", len(serverHistory), len(history))
	}
	for i := range history {
		if history[i] != serverHistory[i] {
			t.Errorf("Message %d: expected %+v, got %+v", i, serverHistory[i], history[i])
		}
	}

	cached := store.History(sess.ID)
	if len(cached) != len(serverHistory) {
		t.Errorf("Expected cached transcript replaced, got %d messages", len(cached))
	}
}

func TestSendMessageFailureAppendsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	svc, _ := newTestChatService(server.URL)
	sess, _ := svc.OpenSession(context.Background(), "brand-a", "tech_guru", "youtube")

	history, err := svc.SendMessage(context.Background(), sess, "hello?", model.CreatorDetails{Username: "tech_guru"})
	if err == nil {
		t.Error("Expected error to be reported for logging")
	}

	// Optimistic user message stays, plus one synthetic assistant error.
	if len(history) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(history))
	}
	if history[0].Role != model.RoleUser || history[0].Content != "hello?" {
		t.Errorf("Expected optimistic user message first, got %+v", history[0])
	}
	if history[1].Role != model.RoleAssistant || history[1].Type != model.TypeError {
		t.Errorf("Expected synthetic error message, got %+v", history[1])
	}
	if history[1].Content != "Sorry, I encountered an error." {
		t.Errorf("Unexpected error content: %q", history[1].Content)
	}
}

func TestLoadHistoryFailureLeavesCache(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	svc, store := newTestChatService(failing.URL)
	sess, _ := svc.OpenSession(context.Background(), "brand-a", "tech_guru", "youtube")
	store.ReplaceHistory(sess.ID, []model.Message{{Role: model.RoleUser, Content: "kept"}})

	if _, err := svc.LoadHistory(context.Background(), sess); err == nil {
		t.Error("Expected error")
	}

	cached := store.History(sess.ID)
	if len(cached) != 1 || cached[0].Content != "kept" {
		t.Errorf("Expected cached transcript untouched, got %+v", cached)
	}
}

func TestClearThenLoadYieldsEmpty(t *testing.T) {
	var cleared bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "DELETE":
			cleared = true
			w.WriteHeader(http.StatusOK)
		case "GET":
			json.NewEncoder(w).Encode([]model.Message{})
		}
	}))
	defer server.Close()

	svc, store := newTestChatService(server.URL)
	sess, _ := svc.OpenSession(context.Background(), "brand-a", "tech_guru", "youtube")
	store.ReplaceHistory(sess.ID, []model.Message{{Role: model.RoleUser, Content: "old"}})

	if err := svc.ClearHistory(context.Background(), sess); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !cleared {
		t.Error("Expected upstream delete to be issued")
	}
	if len(store.History(sess.ID)) != 0 {
		t.Error("Expected local transcript emptied")
	}

	history, err := svc.LoadHistory(context.Background(), sess)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("Expected empty history after clear, got %d messages", len(history))
	}
}

func TestClearHistoryFailureKeepsTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc, store := newTestChatService(server.URL)
	sess, _ := svc.OpenSession(context.Background(), "brand-a", "tech_guru", "youtube")
	store.ReplaceHistory(sess.ID, []model.Message{{Role: model.RoleUser, Content: "kept"}})

	if err := svc.ClearHistory(context.Background(), sess); err == nil {
		t.Error("Expected error")
	}
	if len(store.History(sess.ID)) != 1 {
		t.Error("Expected local transcript intact after failed clear")
	}
}
