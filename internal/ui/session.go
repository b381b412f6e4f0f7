// Package ui serves the interactive, session-based front end: a login gate
// followed by an upload → review → result flow plus a history view.
package ui

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"meetscribe/internal/models"
)

// Step names the interactive flow states.
type Step string

const (
	StepUpload Step = "upload"
	StepReview Step = "review"
	StepResult Step = "result"
)

// Session holds one connection's flow state. Every handler receives its own
// session resolved from the request cookie; there is no process-wide shared
// state, so concurrent users never collide.
type Session struct {
	Username   string                   `json:"username"`
	Step       Step                     `json:"step"`
	Filename   string                   `json:"filename"`
	Transcript string                   `json:"transcript"`
	Result     *models.GenerationResult `json:"result,omitempty"`
	SavedID    int64                    `json:"saved_id,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
	ExpiresAt  time.Time                `json:"expires_at"`
}

// Reset returns the session to the upload step, discarding the in-memory
// transcript and result. Any record already persisted stays untouched.
func (s *Session) Reset() {
	s.Step = StepUpload
	s.Filename = ""
	s.Transcript = ""
	s.Result = nil
	s.SavedID = 0
}

// Expired reports whether the session's lifetime has elapsed.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// newSessionToken mints a random 256-bit token for the session cookie.
func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
