package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/si451/creatorconnect/backend/model"
)

// ChatRequest is the payload for one negotiation chat turn.
type ChatRequest struct {
	SessionID      string               `json:"sessionId"`
	Message        string               `json:"message"`
	CreatorDetails model.CreatorDetails `json:"creatorDetails"`
}

// ChatResponse carries the full authoritative history after a chat turn.
type ChatResponse struct {
	SessionID string          `json:"sessionId"`
	History   []model.Message `json:"history"`
}

// NegotiateResponse is the document-generation result.
type NegotiateResponse struct {
	Success           bool   `json:"success"`
	EmailTemplate     string `json:"email_template"`
	ContractAvailable bool   `json:"contract_available,omitempty"`
	ContractID        string `json:"contract_id,omitempty"`
	Message           string `json:"message,omitempty"`
	Error             string `json:"error,omitempty"`
}

// SendChat posts one user message and returns the server-side history,
// which supersedes any locally cached transcript.
func (u *Upstream) SendChat(ctx context.Context, sessionID, message string, creator model.CreatorDetails) ([]model.Message, error) {
	var result ChatResponse
	err := u.postJSON(ctx, "/chat", ChatRequest{
		SessionID:      sessionID,
		Message:        message,
		CreatorDetails: creator,
	}, &result)
	if err != nil {
		return nil, err
	}
	return result.History, nil
}

// GetChatHistory fetches the remote transcript for a session.
func (u *Upstream) GetChatHistory(ctx context.Context, sessionID string) ([]model.Message, error) {
	var history []model.Message
	if err := u.getJSON(ctx, "/chat/history/"+url.PathEscape(sessionID), &history); err != nil {
		return nil, err
	}
	return history, nil
}

// ClearChatHistory deletes the remote transcript for a session.
func (u *Upstream) ClearChatHistory(ctx context.Context, sessionID string) error {
	req, err := u.newDeleteRequest(ctx, "/chat/history/"+url.PathEscape(sessionID))
	if err != nil {
		return err
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("clear history failed with status %d", resp.StatusCode)
	}
	return nil
}

// GenerateDocuments submits a proposal and returns the generated email
// template and contract id. A success=false body is reported as an error
// carrying the server-provided message.
func (u *Upstream) GenerateDocuments(ctx context.Context, form model.ProposalForm) (*NegotiateResponse, error) {
	var result NegotiateResponse
	if err := u.postJSON(ctx, "/negotiate", form, &result); err != nil {
		return nil, err
	}

	if !result.Success {
		msg := result.Message
		if msg == "" {
			msg = result.Error
		}
		if msg == "" {
			msg = "Failed to generate documents"
		}
		return nil, fmt.Errorf("document generation rejected: %s", msg)
	}

	return &result, nil
}

// DownloadContract fetches the unsigned contract PDF.
func (u *Upstream) DownloadContract(ctx context.Context, contractID string) ([]byte, string, error) {
	return u.download(ctx, "/download-contract/"+url.PathEscape(contractID))
}
