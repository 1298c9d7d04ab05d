package client

import (
	"fmt"

	"github.com/google/uuid"
)

// Identity is the single effective identity of a list or item. An entity
// carries either a client-generated temporary id (before the server has
// confirmed its creation) or a server-assigned id, never both. Conversion
// from temporary to confirmed happens only through the Reconciler.
type Identity struct {
	Value     string `json:"value"`
	Confirmed bool   `json:"confirmed"`
}

// NewTempID generates a fresh temporary identity for an optimistically
// created entity.
func NewTempID() Identity {
	return Identity{Value: "tmp-" + uuid.NewString(), Confirmed: false}
}

// ServerID wraps a server-assigned id as a confirmed identity.
func ServerID(value string) Identity {
	return Identity{Value: value, Confirmed: true}
}

// IsTemp reports whether the identity is still a client-side placeholder.
func (id Identity) IsTemp() bool {
	return !id.Confirmed
}

// IsZero reports whether the identity is unset.
func (id Identity) IsZero() bool {
	return id.Value == ""
}

// Matches reports whether two identities refer to the same entity.
// Temporary values are uuid-based and server values come from the backend,
// so value equality is unambiguous.
func (id Identity) Matches(other Identity) bool {
	return id.Value != "" && id.Value == other.Value
}

func (id Identity) String() string {
	if id.IsTemp() {
		return fmt.Sprintf("temp:%s", id.Value)
	}
	return id.Value
}
