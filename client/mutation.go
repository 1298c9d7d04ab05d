package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Kind discriminates the mutation variants. The values double as the wire
// event names for client-initiated sends.
type Kind string

const (
	KindAddList        Kind = "list:add"
	KindDeleteList     Kind = "list:delete"
	KindTogglePrivacy  Kind = "list:privacy"
	KindUpdateSharing  Kind = "list:share"
	KindAddItem        Kind = "item:add"
	KindDeleteItem     Kind = "item:delete"
	KindToggleItem     Kind = "item:toggle"
	KindUpdateComment  Kind = "item:comment"
	KindUpdateQuantity Kind = "item:quantity"
)

var validate = validator.New()

// Mutation is one intended change. Each variant has a statically known
// payload; there are no optional grab-bag fields.
type Mutation interface {
	Kind() Kind
	// Validate rejects the mutation before any local apply.
	Validate() error
}

// AddList creates a new list under the temporary id ListID.
type AddList struct {
	ListID   Identity `json:"list_id"`
	Name     string   `json:"name" validate:"required,max=120"`
	IsPublic bool     `json:"is_public"`
	Owner    string   `json:"owner,omitempty" validate:"max=64"`
}

// DeleteList removes a list and all its items.
type DeleteList struct {
	ListID Identity `json:"list_id"`
}

// TogglePrivacy sets a list's visibility.
type TogglePrivacy struct {
	ListID   Identity `json:"list_id"`
	IsPublic bool     `json:"is_public"`
}

// UpdateSharing replaces the set of additionally authorized users.
type UpdateSharing struct {
	ListID     Identity `json:"list_id"`
	SharedWith []string `json:"shared_with" validate:"max=32,dive,required,max=64"`
}

// AddItem creates a new item under the temporary id ItemID.
type AddItem struct {
	ListID   Identity  `json:"list_id"`
	ItemID   Identity  `json:"item_id"`
	Name     string    `json:"name" validate:"required,max=120"`
	Quantity *Quantity `json:"quantity,omitempty"`
}

// DeleteItem removes a single item.
type DeleteItem struct {
	ListID Identity `json:"list_id"`
	ItemID Identity `json:"item_id"`
}

// ToggleItem sets an item's completion flag.
type ToggleItem struct {
	ListID Identity `json:"list_id"`
	ItemID Identity `json:"item_id"`
	Done   bool     `json:"done"`
}

// UpdateComment overwrites an item's free-text comment.
type UpdateComment struct {
	ListID  Identity `json:"list_id"`
	ItemID  Identity `json:"item_id"`
	Comment string   `json:"comment" validate:"max=500"`
}

// UpdateQuantity overwrites an item's quantity.
type UpdateQuantity struct {
	ListID   Identity `json:"list_id"`
	ItemID   Identity `json:"item_id"`
	Quantity Quantity `json:"quantity"`
}

func (m AddList) Kind() Kind        { return KindAddList }
func (m DeleteList) Kind() Kind     { return KindDeleteList }
func (m TogglePrivacy) Kind() Kind  { return KindTogglePrivacy }
func (m UpdateSharing) Kind() Kind  { return KindUpdateSharing }
func (m AddItem) Kind() Kind        { return KindAddItem }
func (m DeleteItem) Kind() Kind     { return KindDeleteItem }
func (m ToggleItem) Kind() Kind     { return KindToggleItem }
func (m UpdateComment) Kind() Kind  { return KindUpdateComment }
func (m UpdateQuantity) Kind() Kind { return KindUpdateQuantity }

func (m AddList) Validate() error {
	if err := validate.Struct(m); err != nil {
		return newValidationError("AddList", err)
	}
	if m.ListID.IsZero() {
		return newValidationError("AddList", fmt.Errorf("list id is required"))
	}
	return nil
}

func (m DeleteList) Validate() error {
	if m.ListID.IsZero() {
		return newValidationError("DeleteList", fmt.Errorf("list id is required"))
	}
	return nil
}

func (m TogglePrivacy) Validate() error {
	if m.ListID.IsZero() {
		return newValidationError("TogglePrivacy", fmt.Errorf("list id is required"))
	}
	return nil
}

func (m UpdateSharing) Validate() error {
	if err := validate.Struct(m); err != nil {
		return newValidationError("UpdateSharing", err)
	}
	if m.ListID.IsZero() {
		return newValidationError("UpdateSharing", fmt.Errorf("list id is required"))
	}
	return nil
}

func (m AddItem) Validate() error {
	if err := validate.Struct(m); err != nil {
		return newValidationError("AddItem", err)
	}
	if m.ListID.IsZero() || m.ItemID.IsZero() {
		return newValidationError("AddItem", fmt.Errorf("list id and item id are required"))
	}
	if m.Quantity != nil && m.Quantity.Value <= 0 {
		return newValidationError("AddItem", fmt.Errorf("quantity must be positive"))
	}
	return nil
}

func (m DeleteItem) Validate() error {
	if m.ListID.IsZero() || m.ItemID.IsZero() {
		return newValidationError("DeleteItem", fmt.Errorf("list id and item id are required"))
	}
	return nil
}

func (m ToggleItem) Validate() error {
	if m.ListID.IsZero() || m.ItemID.IsZero() {
		return newValidationError("ToggleItem", fmt.Errorf("list id and item id are required"))
	}
	return nil
}

func (m UpdateComment) Validate() error {
	if err := validate.Struct(m); err != nil {
		return newValidationError("UpdateComment", err)
	}
	if m.ListID.IsZero() || m.ItemID.IsZero() {
		return newValidationError("UpdateComment", fmt.Errorf("list id and item id are required"))
	}
	return nil
}

func (m UpdateQuantity) Validate() error {
	if m.ListID.IsZero() || m.ItemID.IsZero() {
		return newValidationError("UpdateQuantity", fmt.Errorf("list id and item id are required"))
	}
	if m.Quantity.Value <= 0 {
		return newValidationError("UpdateQuantity", fmt.Errorf("quantity must be positive"))
	}
	return nil
}

// Action is the queued form of a mutation: the payload plus a unique action
// id used for server-side deduplication and for removal from the queue once
// acknowledged.
type Action struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewAction wraps a mutation into a queue entry with a fresh action id.
func NewAction(m Mutation) (Action, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return Action{}, fmt.Errorf("failed to encode %s action: %w", m.Kind(), err)
	}
	return Action{
		ID:        uuid.NewString(),
		Kind:      m.Kind(),
		Payload:   payload,
		CreatedAt: time.Now(),
	}, nil
}

// Mutation decodes the payload back into its typed variant.
func (a Action) Mutation() (Mutation, error) {
	var m Mutation
	switch a.Kind {
	case KindAddList:
		m = &AddList{}
	case KindDeleteList:
		m = &DeleteList{}
	case KindTogglePrivacy:
		m = &TogglePrivacy{}
	case KindUpdateSharing:
		m = &UpdateSharing{}
	case KindAddItem:
		m = &AddItem{}
	case KindDeleteItem:
		m = &DeleteItem{}
	case KindToggleItem:
		m = &ToggleItem{}
	case KindUpdateComment:
		m = &UpdateComment{}
	case KindUpdateQuantity:
		m = &UpdateQuantity{}
	default:
		return nil, fmt.Errorf("unknown action kind: %s", a.Kind)
	}
	if err := json.Unmarshal(a.Payload, m); err != nil {
		return nil, fmt.Errorf("failed to decode %s action: %w", a.Kind, err)
	}
	return deref(m), nil
}

// deref returns the value form so the rest of the package can type-switch on
// concrete variants rather than pointers.
func deref(m Mutation) Mutation {
	switch v := m.(type) {
	case *AddList:
		return *v
	case *DeleteList:
		return *v
	case *TogglePrivacy:
		return *v
	case *UpdateSharing:
		return *v
	case *AddItem:
		return *v
	case *DeleteItem:
		return *v
	case *ToggleItem:
		return *v
	case *UpdateComment:
		return *v
	case *UpdateQuantity:
		return *v
	default:
		return m
	}
}

// rewriteIdentity replaces every reference to the temporary id tempValue with
// the confirmed identity. Used by the reconciler to keep queued actions in
// step with the snapshot.
func rewriteIdentity(m Mutation, tempValue string, confirmed Identity) (Mutation, bool) {
	swap := func(id Identity) (Identity, bool) {
		if id.IsTemp() && id.Value == tempValue {
			return confirmed, true
		}
		return id, false
	}

	changed := false
	switch v := m.(type) {
	case AddList:
		v.ListID, changed = swap(v.ListID)
		return v, changed
	case DeleteList:
		v.ListID, changed = swap(v.ListID)
		return v, changed
	case TogglePrivacy:
		v.ListID, changed = swap(v.ListID)
		return v, changed
	case UpdateSharing:
		v.ListID, changed = swap(v.ListID)
		return v, changed
	case AddItem:
		lc, ic := false, false
		v.ListID, lc = swap(v.ListID)
		v.ItemID, ic = swap(v.ItemID)
		return v, lc || ic
	case DeleteItem:
		lc, ic := false, false
		v.ListID, lc = swap(v.ListID)
		v.ItemID, ic = swap(v.ItemID)
		return v, lc || ic
	case ToggleItem:
		lc, ic := false, false
		v.ListID, lc = swap(v.ListID)
		v.ItemID, ic = swap(v.ItemID)
		return v, lc || ic
	case UpdateComment:
		lc, ic := false, false
		v.ListID, lc = swap(v.ListID)
		v.ItemID, ic = swap(v.ItemID)
		return v, lc || ic
	case UpdateQuantity:
		lc, ic := false, false
		v.ListID, lc = swap(v.ListID)
		v.ItemID, ic = swap(v.ItemID)
		return v, lc || ic
	default:
		return m, false
	}
}
