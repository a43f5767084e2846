package api

import (
	"context"
	"net/http"

	"github.com/samber/oops"

	"github.com/zhouzirui/faq-assistant/internal/model/chat"
)

// StartSession asks the backend for a new session id.
func (c *Client) StartSession(ctx context.Context) (string, error) {
	const op = "start session"

	var resp chat.StartSessionResponse
	if err := c.do(ctx, op, http.MethodPost, "/session/start", struct{}{}, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.SessionID == "" {
		return "", &Error{
			Op:      op,
			Kind:    KindRejected,
			Message: "Failed to start session, please try again.",
			Err:     oops.In("api").With("success", resp.Success).Errorf("backend did not return a session id"),
		}
	}
	return resp.SessionID, nil
}

// EndSession closes sessionID with the collected rating.
func (c *Client) EndSession(ctx context.Context, req chat.EndSessionRequest) error {
	const op = "end session"

	if req.SessionID == "" {
		return &Error{Op: op, Kind: KindValidation, Message: "session id is required"}
	}
	draft := chat.FeedbackDraft{Satisfied: req.Satisfied, Rating: req.Rating, Comment: req.Comment}
	if err := draft.Validate(); err != nil {
		return validationError(op, err)
	}

	var resp chat.EndSessionResponse
	if err := c.do(ctx, op, http.MethodPost, "/session/end", req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &Error{
			Op:      op,
			Kind:    KindRejected,
			Message: "Failed to submit feedback, please try again.",
			Err:     oops.In("api").With("session_id", req.SessionID).Errorf("backend rejected session end"),
		}
	}
	return nil
}

// Chat sends one question and returns the answer.
func (c *Client) Chat(ctx context.Context, req chat.ChatRequest) (*chat.ChatResponse, error) {
	var resp chat.ChatResponse
	if err := c.do(ctx, "chat", http.MethodPost, "/chat", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// InstantFeedback posts a standalone thumbs-up or thumbs-down.
func (c *Client) InstantFeedback(ctx context.Context, satisfied bool) error {
	return c.do(ctx, "instant feedback", http.MethodPost, "/feedback", chat.InstantFeedbackRequest{Satisfied: satisfied}, nil)
}
