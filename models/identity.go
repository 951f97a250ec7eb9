package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Identity is who a request acts for: a registered user or a guest session.
// The zero value is neither and is rejected wherever an owner is required.
type Identity struct {
	userID    primitive.ObjectID
	sessionID string
	role      Role
}

// Registered returns the identity of an authenticated user.
func Registered(userID primitive.ObjectID, role Role) Identity {
	if role == "" {
		role = RoleUser
	}
	return Identity{userID: userID, role: role}
}

// Guest returns the identity of an anonymous session.
func Guest(sessionID string) Identity {
	return Identity{sessionID: sessionID}
}

func (i Identity) IsRegistered() bool { return !i.userID.IsZero() }

func (i Identity) IsGuest() bool { return i.userID.IsZero() && i.sessionID != "" }

func (i Identity) IsZero() bool { return i.userID.IsZero() && i.sessionID == "" }

// UserID returns the user id and true for registered identities.
func (i Identity) UserID() (primitive.ObjectID, bool) {
	return i.userID, i.IsRegistered()
}

// SessionID returns the session token and true for guest identities.
func (i Identity) SessionID() (string, bool) {
	return i.sessionID, i.IsGuest()
}

func (i Identity) IsAdmin() bool { return i.IsRegistered() && i.role == RoleAdmin }

// Owns reports whether the identity is the registered user id.
func (i Identity) Owns(userID primitive.ObjectID) bool {
	return i.IsRegistered() && i.userID == userID
}

func (i Identity) String() string {
	switch {
	case i.IsRegistered():
		return "user:" + i.userID.Hex()
	case i.IsGuest():
		return "guest:" + i.sessionID
	default:
		return "anonymous"
	}
}
