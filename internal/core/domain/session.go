package domain

import "time"

// SessionState is the lifecycle state of a principal's session.
type SessionState string

const (
	SessionAnonymous     SessionState = "anonymous"
	SessionAuthenticated SessionState = "authenticated"
	SessionRefreshed     SessionState = "refreshed"
	SessionLoggedOut     SessionState = "logged_out"
)

// validSessionTransitions defines the allowed state machine transitions.
// Logging in again from any live state replaces the stored refresh token.
var validSessionTransitions = map[SessionState][]SessionState{
	SessionAnonymous:     {SessionAuthenticated},
	SessionAuthenticated: {SessionAuthenticated, SessionRefreshed, SessionLoggedOut},
	SessionRefreshed:     {SessionAuthenticated, SessionRefreshed, SessionLoggedOut},
	SessionLoggedOut:     {SessionAuthenticated},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s SessionState) CanTransitionTo(next SessionState) bool {
	for _, allowed := range validSessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SessionStateOf derives the current state from the stored refresh token.
// Refreshing does not touch storage, so a live token always reads as authenticated.
func SessionStateOf(t *RefreshToken, now time.Time) SessionState {
	if t == nil || t.Expired(now) {
		return SessionAnonymous
	}
	return SessionAuthenticated
}
