package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/si451/creatorconnect/backend/model"
)

// SessionIdentityRepo is the durable store of session ids per
// (tenant, creator) pair. Satisfied by dao.SessionRepository.
type SessionIdentityRepo interface {
	GetSessionID(tenant, creatorUsername string) (string, error)
	SaveSessionID(tenant, creatorUsername, platform, sessionID string) error
}

// ChatService drives negotiation chat sessions: durable session identity,
// the cached transcript, and the single-attempt calls to the upstream
// chat endpoints.
type ChatService struct {
	upstream *Upstream
	store    *SessionStore
	sessions SessionIdentityRepo
}

func NewChatService(upstream *Upstream, store *SessionStore, sessions SessionIdentityRepo) *ChatService {
	return &ChatService{
		upstream: upstream,
		store:    store,
		sessions: sessions,
	}
}

// OpenSession returns the existing session for (tenant, creator) or
// creates one, persisting the new id. The session id is stable across
// restarts for the same pair.
func (c *ChatService) OpenSession(ctx context.Context, tenant, creatorUsername, platform string) (*Session, error) {
	sessionID, err := c.sessions.GetSessionID(tenant, creatorUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	if sessionID == "" {
		sessionID = uuid.New().String()
		if err := c.sessions.SaveSessionID(tenant, creatorUsername, platform, sessionID); err != nil {
			return nil, fmt.Errorf("failed to persist session: %w", err)
		}
	}

	sess := c.store.Get(sessionID)
	if sess == nil {
		sess = &Session{
			ID:              sessionID,
			Tenant:          tenant,
			CreatorUsername: creatorUsername,
			Platform:        platform,
			History:         []model.Message{},
			CreatedAt:       time.Now(),
		}
		c.store.Save(sess)
	}

	return sess, nil
}

// Session returns the cached session by id, nil when unknown.
func (c *ChatService) Session(sessionID string) *Session {
	return c.store.Get(sessionID)
}

// History returns a copy of the cached transcript for a session.
func (c *ChatService) History(sessionID string) []model.Message {
	return c.store.History(sessionID)
}

// LoadHistory fetches the authoritative transcript and replaces the cache.
// On failure the cached transcript is left untouched.
func (c *ChatService) LoadHistory(ctx context.Context, sess *Session) ([]model.Message, error) {
	history, err := c.upstream.GetChatHistory(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	if history == nil {
		history = []model.Message{}
	}
	c.store.ReplaceHistory(sess.ID, history)
	return history, nil
}

// SendMessage appends the user's message optimistically, posts it
// upstream, and on success replaces the whole cached transcript with the
// server-returned history. On failure the optimistic message stays and a
// single synthetic assistant error message is appended; the returned
// transcript reflects that. The error is reported for logging only.
func (c *ChatService) SendMessage(ctx context.Context, sess *Session, content string, creator model.CreatorDetails) ([]model.Message, error) {
	c.store.AppendMessage(sess.ID, model.Message{
		Role:    model.RoleUser,
		Content: content,
	})

	history, err := c.upstream.SendChat(ctx, sess.ID, content, creator)
	if err != nil {
		c.store.AppendMessage(sess.ID, model.Message{
			Role:      model.RoleAssistant,
			Content:   "Sorry, I encountered an error.",
			Type:      model.TypeError,
			Timestamp: time.Now().Format(time.RFC3339),
		})
		return c.store.History(sess.ID), err
	}

	if history == nil {
		history = []model.Message{}
	}
	c.store.ReplaceHistory(sess.ID, history)
	return history, nil
}

// ClearHistory deletes the remote transcript and, only on success, empties
// the local cache. The session id is retained.
func (c *ChatService) ClearHistory(ctx context.Context, sess *Session) error {
	if err := c.upstream.ClearChatHistory(ctx, sess.ID); err != nil {
		return err
	}
	c.store.ReplaceHistory(sess.ID, []model.Message{})
	return nil
}
