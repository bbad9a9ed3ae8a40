package entity

import (
	"time"

	"github.com/google/uuid"
)

type SessionProvider string

const (
	SessionProviderPassword SessionProvider = "password"
	SessionProviderGoogle   SessionProvider = "google"
)

// Session is the authenticated-user record held for one signed-in browser.
// The identity provider owns the credentials; we only keep its opaque UID and
// the refresh token needed to mint fresh ID tokens on demand.
type Session struct {
	Id           uuid.UUID
	Uid          string // identity provider's user id
	Email        string
	DisplayName  string
	Provider     SessionProvider
	RefreshToken string
	CreatedAt    time.Time
}

type SessionEventType string

const (
	SessionEventSignedIn  SessionEventType = "signed_in"
	SessionEventSignedOut SessionEventType = "signed_out"
	SessionEventInitial   SessionEventType = "initial"
)

// SessionEvent is pushed on the session change stream whenever a session is
// created or destroyed.
type SessionEvent struct {
	Type       SessionEventType
	SessionId  uuid.UUID
	Email      string
	OccurredAt time.Time
}
