//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// SessionState is the lifecycle state of a login session.
type SessionState string

const (
	SessionPending   SessionState = "pending"
	SessionSucceeded SessionState = "succeeded"
	SessionTimedOut  SessionState = "timed_out"
)

// IsTerminal reports whether no further transition is possible.
func (s SessionState) IsTerminal() bool {
	return s == SessionSucceeded || s == SessionTimedOut
}

// LoginChallenge is what the provider issues to start a handshake.
type LoginChallenge struct {
	PollToken    string
	ChallengeURL string
}

// Credential is the provider-issued account credential obtained once the
// requester authorizes the challenge.
type Credential struct {
	AccountID    string
	AccountIDSig string
	SessionData  string
	CSRFToken    string
}

// TokenStatus is the poll outcome for a challenge.
type TokenStatus int

const (
	TokenNotYetAuthorized TokenStatus = iota
	TokenAuthorized
)

// PollResult carries the poll outcome and, when authorized, the credential.
type PollResult struct {
	Status     TokenStatus
	Credential *Credential
}

// Account is the provider account resolved from a credential.
type Account struct {
	ID          int64
	DisplayName string
	Level       int
	Tier        int
}

// AdmissionStatus is the outcome of a session admission request.
type AdmissionStatus string

const (
	AdmissionAccepted        AdmissionStatus = "accepted"
	AdmissionRejectedPending AdmissionStatus = "already_pending"
	AdmissionDraining        AdmissionStatus = "draining"
)

// Admission is returned by the session registry for every admission request.
// Rejections are values, not errors.
type Admission struct {
	Status       AdmissionStatus `json:"status"`
	SessionID    string          `json:"session_id,omitempty"`
	ChallengeURL string          `json:"challenge_url,omitempty"`
	ExpiresAt    time.Time       `json:"expires_at,omitzero"`
}

// Accepted reports whether a session was registered.
func (a Admission) Accepted() bool { return a.Status == AdmissionAccepted }

// SessionInfo is a read-only view of a live session.
type SessionInfo struct {
	ID        string       `json:"id"`
	Requester string       `json:"requester"`
	State     SessionState `json:"state"`
	CreatedAt time.Time    `json:"created_at"`
	Deadline  time.Time    `json:"deadline"`
	Polls     int          `json:"polls"`
}

// SessionOutcome is delivered once per session when it reaches a terminal state.
type SessionOutcome struct {
	SessionID  string
	Requester  string
	State      SessionState
	BindResult BindResult
	Account    *Account
	Tier       int
}
