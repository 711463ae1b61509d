package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"RankTracker/internal/domain"
)

// StartSession opens a new update session. Starting while another session is
// open is allowed and simply stacks a newer session; close always resolves
// the most recently started open one.
func (t *Tracker) StartSession(ctx context.Context, messageDate time.Time) (string, error) {
	s := domain.UpdateSession{
		SessionID:   "session_" + uuid.NewString(),
		StartedAt:   t.now(),
		Status:      domain.SessionInProgress,
		MessageDate: messageDate,
	}
	if err := t.sessions.Create(ctx, s); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	t.debug("update session started", "session_id", s.SessionID)
	return s.SessionID, nil
}

// CurrentOpenSession returns the open session id, if any. Resolution is a
// store query rather than process state, so it survives restarts.
func (t *Tracker) CurrentOpenSession(ctx context.Context) (string, bool, error) {
	s, ok, err := t.sessions.CurrentOpen(ctx)
	if err != nil {
		return "", false, fmt.Errorf("resolve open session: %w", err)
	}
	return s.SessionID, ok, nil
}

// EnsureSession returns the open session or implicitly creates one.
func (t *Tracker) EnsureSession(ctx context.Context, messageDate time.Time) (string, error) {
	s, ok, err := t.sessions.CurrentOpen(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve open session: %w", err)
	}
	if ok {
		return s.SessionID, nil
	}
	return t.StartSession(ctx, messageDate)
}

// CloseSession reconciles and completes the most recently started open
// session. The session is only marked completed once every category
// reconciled without error; on failure it stays open so a retry re-attempts
// the remaining categories (out-rank rows already written are not duplicated).
func (t *Tracker) CloseSession(ctx context.Context, messageDate time.Time) (string, error) {
	s, ok, err := t.sessions.CurrentOpen(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve open session: %w", err)
	}
	if !ok {
		return "", ErrNoActiveSession
	}

	if err := t.reconcile(ctx, s.SessionID, messageDate); err != nil {
		return "", err
	}

	if err := t.sessions.Complete(ctx, s.SessionID, t.now()); err != nil {
		return "", fmt.Errorf("complete session: %w", err)
	}
	t.debug("update session completed", "session_id", s.SessionID)
	return s.SessionID, nil
}
