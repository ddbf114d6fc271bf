package domain

import "time"

// Identity is the authenticated principal bound to a session.
type Identity struct {
	UserID string `json:"id"`
	Role   Role   `json:"role"`
}

// Authenticated reports whether both halves of the identity are present.
func (i Identity) Authenticated() bool {
	return i.UserID != "" && i.Role.Valid()
}

// Session is the server-side state behind an opaque session cookie.
type Session struct {
	ID           string
	Identity     Identity
	CSRFToken    string
	CSRFIssuedAt time.Time
}

// CSRFExpired reports whether the CSRF token is older than maxAge at now.
func (s *Session) CSRFExpired(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.CSRFIssuedAt) > maxAge
}
