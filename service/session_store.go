package service

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/si451/creatorconnect/backend/config"
	"github.com/si451/creatorconnect/backend/model"
)

// Session is one negotiation chat session with a creator. History is a
// local cache of the transcript; the upstream backend owns the
// authoritative copy and the cache is replaced wholesale after each turn.
type Session struct {
	ID              string          `json:"session_id"`
	Tenant          string          `json:"tenant"`
	CreatorUsername string          `json:"creator_username"`
	Platform        string          `json:"platform"`
	History         []model.Message `json:"history"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// SessionStore is an in-memory cache of active negotiation sessions,
// bounded by evicting the oldest entries. Durable session identity lives
// in the database; only transcripts are cached here.
type SessionStore struct {
	sessions    map[string]*Session
	mu          sync.RWMutex
	maxSessions int // 0 = unlimited
}

func NewSessionStore(cfg *config.StoreConfig) *SessionStore {
	maxSessions := cfg.MaxSessions
	if maxSessions < 0 {
		maxSessions = 0
	}
	return &SessionStore{
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
	}
}

func (s *SessionStore) Save(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.UpdatedAt = time.Now()
	s.sessions[session.ID] = session

	s.evictIfNeeded()
}

func (s *SessionStore) Get(id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// ReplaceHistory swaps the cached transcript for the authoritative one.
func (s *SessionStore) ReplaceHistory(id string, history []model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.History = history
		sess.UpdatedAt = time.Now()
	}
}

// AppendMessage adds one message to the cached transcript.
func (s *SessionStore) AppendMessage(id string, msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.History = append(sess.History, msg)
		sess.UpdatedAt = time.Now()
	}
}

// History returns a copy of the cached transcript.
func (s *SessionStore) History(id string) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	out := make([]model.Message, len(sess.History))
	copy(out, sess.History)
	return out
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// evictIfNeeded removes the oldest sessions when the cache exceeds its
// bound. Must be called with lock held.
func (s *SessionStore) evictIfNeeded() {
	if s.maxSessions <= 0 {
		return
	}
	if len(s.sessions) <= s.maxSessions {
		return
	}

	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	removeCount := len(sessions) - s.maxSessions
	for i := 0; i < removeCount; i++ {
		slog.Info("evicting old session from cache",
			"session_id", sessions[i].ID,
			"created_at", sessions[i].CreatedAt,
		)
		delete(s.sessions, sessions[i].ID)
	}
}

// Count returns the number of cached sessions.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
