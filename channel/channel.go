// Package channel defines the live-channel boundary the sync core talks
// through: an event-based bidirectional connection with acknowledged sends,
// plus a request/response bulk fetch interface. The server side of these
// contracts is out of scope; this package ships a websocket implementation
// and an in-memory mock for tests.
package channel

import (
	"context"
	"encoding/json"
)

// Server push event names.
const (
	EventListsChanged = "lists:changed"
	EventItemsChanged = "items:changed"
	EventListDeleted  = "list:deleted"
	EventListShared   = "list:shared"
)

// Bulk fetch event names.
const (
	EventFetchLists = "lists:fetch"
	EventFetchItems = "items:fetch"
)

// AckResult is the server's acknowledgement of a client send. Either Error is
// set, or Success is true and the entity fields carry authoritative state
// (e.g. the server-assigned id for a creation).
type AckResult struct {
	Success bool         `json:"success,omitempty"`
	Error   string       `json:"error,omitempty"`
	List    *ListRecord  `json:"list,omitempty"`
	Item    *ItemRecord  `json:"item,omitempty"`
	Lists   []ListRecord `json:"lists,omitempty"`
	Items   []ItemRecord `json:"items,omitempty"`
}

// LiveChannel is the bidirectional event channel to the server. Send blocks
// until the acknowledgement arrives or ctx expires; handlers registered via
// On receive server-initiated pushes.
type LiveChannel interface {
	// Connected reports the current connectivity state.
	Connected() bool
	// Send delivers an event and waits for its acknowledgement.
	Send(ctx context.Context, event string, payload any) (*AckResult, error)
	// On registers a handler for a server push event.
	On(event string, handler func(json.RawMessage))
	// NotifyConnect registers a callback invoked on connectivity changes.
	NotifyConnect(fn func(connected bool))
}

// Fetcher is the request/response bulk interface used for initial load and
// post-drain reconciliation. Returned records carry server ids only.
type Fetcher interface {
	FetchLists(ctx context.Context) ([]ListRecord, error)
	FetchItems(ctx context.Context, listID string) ([]ItemRecord, error)
}

// QuantityRecord is the wire form of an item quantity.
type QuantityRecord struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// ItemRecord is the wire form of an item. TempID echoes the client-generated
// temporary id on creation acks and pushes so the client can map it to the
// server-assigned ID.
type ItemRecord struct {
	ID       string          `json:"id,omitempty"`
	TempID   string          `json:"tempId,omitempty"`
	ListID   string          `json:"listId,omitempty"`
	Name     string          `json:"name,omitempty"`
	Done     bool            `json:"done,omitempty"`
	Comment  string          `json:"comment,omitempty"`
	Quantity *QuantityRecord `json:"quantity,omitempty"`
}

// ListRecord is the wire form of a list.
type ListRecord struct {
	ID         string       `json:"id,omitempty"`
	TempID     string       `json:"tempId,omitempty"`
	Name       string       `json:"name,omitempty"`
	IsPublic   bool         `json:"isPublic,omitempty"`
	Owner      string       `json:"owner,omitempty"`
	SharedWith []string     `json:"sharedWith,omitempty"`
	Items      []ItemRecord `json:"items,omitempty"`
}

// ListsChangedEvent is the payload of EventListsChanged: the authoritative
// full set of lists visible to the user.
type ListsChangedEvent struct {
	Lists []ListRecord `json:"lists"`
}

// ItemsChangedEvent is the payload of EventItemsChanged: the authoritative
// full item set of one list.
type ItemsChangedEvent struct {
	ListID string       `json:"listId"`
	Items  []ItemRecord `json:"items"`
}

// ListDeletedEvent is the payload of EventListDeleted.
type ListDeletedEvent struct {
	ListID string `json:"listId"`
}

// ListSharedEvent is the payload of EventListShared.
type ListSharedEvent struct {
	ListID     string   `json:"listId"`
	IsPublic   bool     `json:"isPublic"`
	SharedWith []string `json:"sharedWith"`
}

// FetchItemsRequest is the payload of EventFetchItems.
type FetchItemsRequest struct {
	ListID string `json:"listId"`
}
