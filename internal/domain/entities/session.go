package entities

import "time"

// AuthEventType names a session change emitted by the auth provider
type AuthEventType string

const (
	AuthEventSignedIn       AuthEventType = "SIGNED_IN"
	AuthEventSignedOut      AuthEventType = "SIGNED_OUT"
	AuthEventTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
)

// Session is an authenticated session. A nil *Session means signed out.
type Session struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email,omitempty"`
	AccessToken string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthEvent pairs an event type with the session current after it
type AuthEvent struct {
	Type    AuthEventType
	Session *Session
}

// Notification is a user-visible toast
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Variant     string `json:"variant,omitempty"`
}

// NotificationVariantDestructive marks error toasts
const NotificationVariantDestructive = "destructive"
