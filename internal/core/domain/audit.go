package domain

import "time"

// AuthEventType names an authentication state change.
type AuthEventType string

const (
	EventRegistered      AuthEventType = "registered"
	EventLoginSucceeded  AuthEventType = "login_succeeded"
	EventLoginFailed     AuthEventType = "login_failed"
	EventTokenRefreshed  AuthEventType = "token_refreshed"
	EventRefreshRejected AuthEventType = "refresh_rejected"
	EventLoggedOut       AuthEventType = "logged_out"
	EventAccountDeleted  AuthEventType = "account_deleted"
)

// AuthEvent is an entry of the authentication audit trail.
type AuthEvent struct {
	Type        AuthEventType
	Kind        PrincipalKind
	PrincipalID int64 // zero when the principal could not be resolved
	Email       string
	Role        Role
	// From and To are set when the event moved the session state machine.
	From      SessionState
	To        SessionState
	Timestamp time.Time
}
