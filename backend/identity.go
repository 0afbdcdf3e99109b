package main

import (
	"context"

	"github.com/google/uuid"
)

// aiIdentityID is the sentinel occupying a seat played by the machine.
const aiIdentityID = "AI"

const aiDisplayName = "🤖 AI"

// Identity is what the account collaborator resolves a connection to.
// Guests exist only for the lifetime of their session and are never recorded.
type Identity struct {
	ID    string
	Name  string
	Guest bool
}

func (i Identity) IsAI() bool {
	return i.ID == aiIdentityID
}

func AIIdentity() Identity {
	return Identity{ID: aiIdentityID, Name: aiDisplayName}
}

func NewGuestIdentity() Identity {
	id := uuid.New().String()
	return Identity{ID: "guest:" + id, Name: "Guest_" + id[:5], Guest: true}
}

type PlayerStats struct {
	Rating     int
	WinStreak  int
	BestStreak int
}

// Accounts resolves identities to display info. Registration and auth live
// with an external collaborator; this side only reads.
type Accounts interface {
	Lookup(ctx context.Context, id string) (Identity, error)
}
