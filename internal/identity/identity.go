// Package identity carries the resolved cart-owner identity through request
// handling. An identity is either an authenticated user or a device-scoped
// guest token, never both.
package identity

import "strings"

// Identity names the owner of a cart for the current request.
type Identity struct {
	UserID     string
	GuestToken string
}

// ForUser builds an authenticated identity.
func ForUser(userID string) Identity {
	return Identity{UserID: strings.TrimSpace(userID)}
}

// ForGuest builds a guest identity from the device token.
func ForGuest(token string) Identity {
	return Identity{GuestToken: strings.TrimSpace(token)}
}

// IsGuest reports whether the identity is unauthenticated.
func (i Identity) IsGuest() bool {
	return i.UserID == ""
}

// IsZero reports whether no owner could be resolved at all.
func (i Identity) IsZero() bool {
	return i.UserID == "" && i.GuestToken == ""
}

// OwnerKey returns the storage key the cart is filed under.
func (i Identity) OwnerKey() string {
	if i.IsGuest() {
		return i.GuestToken
	}
	return i.UserID
}

// OwnerKind labels the identity for logs and metrics.
func (i Identity) OwnerKind() string {
	if i.IsGuest() {
		return "guest"
	}
	return "user"
}
