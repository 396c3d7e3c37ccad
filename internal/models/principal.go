package models

import "strconv"

// Principal identifies a participant: either a registered user or a
// self-declared guest. Ids are only comparable within the same kind.
type Principal struct {
	Kind        string `json:"kind"`
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

const (
	PrincipalRegistered = "registered"
	PrincipalGuest      = "guest"
)

// Same reports whether two principals are the same identity.
func (p Principal) Same(other Principal) bool {
	return p.Kind == other.Kind && p.ID == other.ID
}

// RegisteredID renders a user id as a principal id string.
func RegisteredID(userID uint) string {
	return strconv.FormatUint(uint64(userID), 10)
}

// RegisteredPrincipal builds the principal for a registered user.
func RegisteredPrincipal(u *User) Principal {
	return Principal{
		Kind:        PrincipalRegistered,
		ID:          RegisteredID(u.ID),
		DisplayName: u.Username,
	}
}

// GuestPrincipal builds a self-asserted guest principal.
func GuestPrincipal(guestID, displayName string) Principal {
	return Principal{
		Kind:        PrincipalGuest,
		ID:          guestID,
		DisplayName: displayName,
	}
}
