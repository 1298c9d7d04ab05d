package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"shoplist/internal/utils"
)

// envelope frames every websocket message. Client sends carry an id so the
// server's acknowledgement can be routed back to the waiting Send call;
// server pushes carry an event name and no id.
type envelope struct {
	ID      string          `json:"id,omitempty"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Ack     *AckResult      `json:"ack,omitempty"`
}

// WebsocketChannel implements LiveChannel and Fetcher over a single
// websocket connection. One reader goroutine dispatches acknowledgements to
// pending senders and push events to registered handlers.
type WebsocketChannel struct {
	conn *websocket.Conn
	log  *utils.Logger

	writeMu sync.Mutex // websocket allows one concurrent writer

	pendingMu sync.Mutex
	pending   map[string]chan *AckResult

	handlerMu sync.RWMutex
	handlers  map[string]func(json.RawMessage)

	connectMu  sync.Mutex
	connectFns []func(bool)

	connected atomic.Bool
	closed    atomic.Bool
}

// Dial connects to the server's websocket endpoint and starts the read loop.
// Reconnection backoff is the caller's concern; a failed connection leaves
// the channel permanently disconnected.
func Dial(ctx context.Context, url string, log *utils.Logger) (*WebsocketChannel, error) {
	if log == nil {
		log = utils.NewLogger(false)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}

	c := &WebsocketChannel{
		conn:     conn,
		log:      log,
		pending:  make(map[string]chan *AckResult),
		handlers: make(map[string]func(json.RawMessage)),
	}
	c.connected.Store(true)
	go c.readLoop()
	return c, nil
}

// Connected reports whether the websocket is still usable.
func (c *WebsocketChannel) Connected() bool {
	return c.connected.Load()
}

// Send writes an event and blocks until its acknowledgement arrives or ctx
// expires. A timeout counts as failure, never as a silent drop.
func (c *WebsocketChannel) Send(ctx context.Context, event string, payload any) (*AckResult, error) {
	if !c.connected.Load() {
		return nil, fmt.Errorf("channel is disconnected")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", event, err)
	}

	id := uuid.NewString()
	ackCh := make(chan *AckResult, 1)
	c.pendingMu.Lock()
	c.pending[id] = ackCh
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	env := envelope{ID: id, Event: event, Payload: raw}
	c.writeMu.Lock()
	err = c.conn.WriteJSON(env)
	c.writeMu.Unlock()
	if err != nil {
		c.markDisconnected()
		return nil, fmt.Errorf("failed to send %s: %w", event, err)
	}

	select {
	case ack := <-ackCh:
		if ack == nil {
			return nil, fmt.Errorf("connection lost while waiting for %s ack", event)
		}
		return ack, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("timed out waiting for %s ack: %w", event, ctx.Err())
	}
}

// On registers a handler for a server push event. Handlers run on the read
// loop goroutine and must not block.
func (c *WebsocketChannel) On(event string, handler func(json.RawMessage)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.handlers[event] = handler
}

// NotifyConnect registers a connectivity change callback.
func (c *WebsocketChannel) NotifyConnect(fn func(bool)) {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()
	c.connectFns = append(c.connectFns, fn)
}

// FetchLists implements Fetcher over the live channel.
func (c *WebsocketChannel) FetchLists(ctx context.Context) ([]ListRecord, error) {
	ack, err := c.Send(ctx, EventFetchLists, struct{}{})
	if err != nil {
		return nil, err
	}
	if ack.Error != "" {
		return nil, fmt.Errorf("fetch lists rejected: %s", ack.Error)
	}
	return ack.Lists, nil
}

// FetchItems implements Fetcher over the live channel.
func (c *WebsocketChannel) FetchItems(ctx context.Context, listID string) ([]ItemRecord, error) {
	ack, err := c.Send(ctx, EventFetchItems, FetchItemsRequest{ListID: listID})
	if err != nil {
		return nil, err
	}
	if ack.Error != "" {
		return nil, fmt.Errorf("fetch items rejected: %s", ack.Error)
	}
	return ack.Items, nil
}

// Close tears down the connection.
func (c *WebsocketChannel) Close() error {
	c.closed.Store(true)
	c.markDisconnected()
	return c.conn.Close()
}

func (c *WebsocketChannel) readLoop() {
	for {
		var env envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			if !c.closed.Load() {
				c.log.Warn("channel: read failed, marking disconnected: %v", err)
			}
			c.markDisconnected()
			return
		}

		switch {
		case env.Ack != nil && env.ID != "":
			c.pendingMu.Lock()
			ch, ok := c.pending[env.ID]
			c.pendingMu.Unlock()
			if ok {
				ch <- env.Ack
			} else {
				c.log.Debug("channel: ack for unknown request %s", env.ID)
			}
		case env.Event != "":
			c.handlerMu.RLock()
			handler, ok := c.handlers[env.Event]
			c.handlerMu.RUnlock()
			if ok {
				handler(env.Payload)
			} else {
				c.log.Debug("channel: no handler for event %s", env.Event)
			}
		default:
			c.log.Debug("channel: dropping malformed frame")
		}
	}
}

// markDisconnected flips the connectivity flag once, fails all pending sends
// and notifies connectivity listeners.
func (c *WebsocketChannel) markDisconnected() {
	if !c.connected.CompareAndSwap(true, false) {
		return
	}

	c.pendingMu.Lock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	c.connectMu.Lock()
	fns := append(([]func(bool))(nil), c.connectFns...)
	c.connectMu.Unlock()
	for _, fn := range fns {
		fn(false)
	}
}
