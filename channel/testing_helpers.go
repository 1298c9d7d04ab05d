package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// This file contains shared mocks used by channel consumers' tests. They are
// available to all packages, mirroring how a real server would behave:
// MockServer keeps authoritative state and assigns server ids; MockChannel
// carries events between the client core and the mock server.

// MockServer implements the server side of the live channel in memory.
type MockServer struct {
	mu       sync.Mutex
	Lists    []ListRecord
	Items    map[string][]ItemRecord // list id -> items
	nextList int
	nextItem int

	// failures maps an event name to an error message returned in the ack.
	failures map[string]string
	// Handled records every event the server processed, in order.
	Handled []string
}

// NewMockServer creates an empty mock server.
func NewMockServer() *MockServer {
	return &MockServer{
		Items:    make(map[string][]ItemRecord),
		failures: make(map[string]string),
	}
}

// FailWith makes the server reject the named event with an error ack.
func (s *MockServer) FailWith(event, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[event] = message
}

// ClearFailures removes all scripted failures.
func (s *MockServer) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]string)
}

// Handle processes a client event and returns the acknowledgement.
func (s *MockServer) Handle(event string, payload json.RawMessage) *AckResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Handled = append(s.Handled, event)
	if msg, ok := s.failures[event]; ok {
		return &AckResult{Error: msg}
	}

	switch event {
	case "list:add":
		var rec ListRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return &AckResult{Error: "malformed payload"}
		}
		s.nextList++
		created := ListRecord{
			ID:         fmt.Sprintf("L%d", s.nextList),
			TempID:     rec.TempID,
			Name:       rec.Name,
			IsPublic:   rec.IsPublic,
			Owner:      rec.Owner,
			SharedWith: rec.SharedWith,
		}
		s.Lists = append(s.Lists, created)
		s.Items[created.ID] = []ItemRecord{}
		return &AckResult{Success: true, List: &created}

	case "list:delete":
		var rec ListRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return &AckResult{Error: "malformed payload"}
		}
		for i, l := range s.Lists {
			if l.ID == rec.ID {
				s.Lists = append(s.Lists[:i], s.Lists[i+1:]...)
				delete(s.Items, rec.ID)
				return &AckResult{Success: true}
			}
		}
		return &AckResult{Error: "list not found"}

	case "list:privacy":
		var rec ListRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return &AckResult{Error: "malformed payload"}
		}
		for i, l := range s.Lists {
			if l.ID == rec.ID {
				s.Lists[i].IsPublic = rec.IsPublic
				return &AckResult{Success: true}
			}
		}
		return &AckResult{Error: "list not found"}

	case "list:share":
		var rec ListRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return &AckResult{Error: "malformed payload"}
		}
		for i, l := range s.Lists {
			if l.ID == rec.ID {
				s.Lists[i].SharedWith = rec.SharedWith
				return &AckResult{Success: true}
			}
		}
		return &AckResult{Error: "list not found"}

	case "item:add":
		var rec ItemRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return &AckResult{Error: "malformed payload"}
		}
		if _, ok := s.Items[rec.ListID]; !ok {
			return &AckResult{Error: "list not found"}
		}
		s.nextItem++
		created := ItemRecord{
			ID:       fmt.Sprintf("I%d", s.nextItem),
			TempID:   rec.TempID,
			ListID:   rec.ListID,
			Name:     rec.Name,
			Quantity: rec.Quantity,
		}
		s.Items[rec.ListID] = append(s.Items[rec.ListID], created)
		return &AckResult{Success: true, Item: &created}

	case "item:delete":
		var rec ItemRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return &AckResult{Error: "malformed payload"}
		}
		items := s.Items[rec.ListID]
		for i, it := range items {
			if it.ID == rec.ID {
				s.Items[rec.ListID] = append(items[:i], items[i+1:]...)
				return &AckResult{Success: true}
			}
		}
		return &AckResult{Error: "item not found"}

	case "item:toggle", "item:comment", "item:quantity":
		var rec ItemRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return &AckResult{Error: "malformed payload"}
		}
		items := s.Items[rec.ListID]
		for i := range items {
			if items[i].ID == rec.ID {
				switch event {
				case "item:toggle":
					items[i].Done = rec.Done
				case "item:comment":
					items[i].Comment = rec.Comment
				case "item:quantity":
					items[i].Quantity = rec.Quantity
				}
				return &AckResult{Success: true}
			}
		}
		return &AckResult{Error: "item not found"}

	case EventFetchLists:
		lists := append([]ListRecord(nil), s.Lists...)
		return &AckResult{Success: true, Lists: lists}

	case EventFetchItems:
		var req FetchItemsRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return &AckResult{Error: "malformed payload"}
		}
		items := append([]ItemRecord(nil), s.Items[req.ListID]...)
		return &AckResult{Success: true, Items: items}

	default:
		return &AckResult{Error: fmt.Sprintf("unknown event: %s", event)}
	}
}

// FetchLists implements Fetcher.
func (s *MockServer) FetchLists(ctx context.Context) ([]ListRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ListRecord(nil), s.Lists...), nil
}

// FetchItems implements Fetcher.
func (s *MockServer) FetchItems(ctx context.Context, listID string) ([]ItemRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ItemRecord(nil), s.Items[listID]...), nil
}

// MockChannel implements LiveChannel against a MockServer, with scriptable
// transport failures and push event injection.
type MockChannel struct {
	mu         sync.Mutex
	connected  bool
	handlers   map[string]func(json.RawMessage)
	connectFns []func(bool)

	Server *MockServer
	// SendFunc, when set, replaces the default route to Server entirely.
	SendFunc func(event string, payload any) (*AckResult, error)
	// SendErrs maps an event name to a transport-level error.
	SendErrs map[string]error
	// Sent records every event name passed to Send.
	Sent []string
}

// NewMockChannel creates a disconnected channel bound to srv.
func NewMockChannel(srv *MockServer) *MockChannel {
	return &MockChannel{
		Server:   srv,
		handlers: make(map[string]func(json.RawMessage)),
		SendErrs: make(map[string]error),
	}
}

// Connect flips the channel online and notifies listeners.
func (c *MockChannel) Connect() { c.setConnected(true) }

// Disconnect flips the channel offline and notifies listeners.
func (c *MockChannel) Disconnect() { c.setConnected(false) }

func (c *MockChannel) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	fns := append(([]func(bool))(nil), c.connectFns...)
	c.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

func (c *MockChannel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *MockChannel) Send(ctx context.Context, event string, payload any) (*AckResult, error) {
	c.mu.Lock()
	c.Sent = append(c.Sent, event)
	sendErr := c.SendErrs[event]
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sendErr != nil {
		return nil, sendErr
	}
	if c.SendFunc != nil {
		return c.SendFunc(event, payload)
	}
	if c.Server == nil {
		return nil, fmt.Errorf("mock channel has no server")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.Server.Handle(event, raw), nil
}

func (c *MockChannel) On(event string, handler func(json.RawMessage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = handler
}

func (c *MockChannel) NotifyConnect(fn func(bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connectFns = append(c.connectFns, fn)
}

// Push delivers a server-initiated event to the registered handler, as the
// websocket read loop would.
func (c *MockChannel) Push(event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.PushRaw(event, raw)
	return nil
}

// PushRaw delivers a raw payload, useful for malformed-event tests.
func (c *MockChannel) PushRaw(event string, raw json.RawMessage) {
	c.mu.Lock()
	handler, ok := c.handlers[event]
	c.mu.Unlock()
	if ok {
		handler(raw)
	}
}
