// Package client implements the offline-first sync core: a locally persisted
// snapshot of shopping lists, optimistic application of user mutations, a
// durable pending-action queue, and reconciliation of client-generated
// temporary ids against server-assigned ones when connectivity allows.
package client

import (
	"context"
	"time"

	"shoplist/channel"
	"shoplist/internal/utils"
)

// Session identifies the local user for ownership of created lists.
type Session struct {
	UserID string
}

// Options configures a Client.
type Options struct {
	Store     Store
	Channel   channel.LiveChannel
	Fetcher   channel.Fetcher
	Session   Session
	Navigator Navigator
	Logger    *utils.Logger
	// Timeout bounds each acknowledged send and each bulk fetch.
	Timeout time.Duration
}

// Client is the facade the UI talks to. It owns the submitter, the sync
// engine and the push listener, and triggers a queue drain whenever the
// channel reports connectivity.
type Client struct {
	store     Store
	ch        channel.LiveChannel
	session   Session
	log       *utils.Logger
	submitter *Submitter
	engine    *Engine
	push      *PushListener
}

// New wires up a client. The channel's connect notifications start draining
// the pending queue in the background; Attach registrations happen here, so
// the channel should be created before New and connected after.
func New(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = utils.NewLogger(false)
	}

	recon := NewReconciler(opts.Store, log)
	merger := NewMerger(opts.Store, log)

	c := &Client{
		store:     opts.Store,
		ch:        opts.Channel,
		session:   opts.Session,
		log:       log,
		submitter: NewSubmitter(opts.Store, opts.Channel, recon, log, opts.Timeout),
		engine:    NewEngine(opts.Store, opts.Channel, opts.Fetcher, recon, merger, log, opts.Timeout),
		push:      NewPushListener(merger, recon, opts.Navigator, log),
	}

	c.push.Attach(opts.Channel)
	opts.Channel.NotifyConnect(func(connected bool) {
		if !connected {
			c.log.Info("channel disconnected, mutations will queue locally")
			return
		}
		c.log.Info("channel connected, draining pending queue")
		go func() {
			if err := c.engine.Drain(context.Background()); err != nil {
				c.log.Warn("background drain halted: %v", err)
			}
		}()
	})

	return c
}

// Submit validates and applies a mutation optimistically, then delivers or
// queues it depending on connectivity and dependency state.
func (c *Client) Submit(ctx context.Context, m Mutation) error {
	return c.submitter.Submit(ctx, m)
}

// Drain replays the pending queue now. Safe to call while a background drain
// runs; the extra call is a no-op.
func (c *Client) Drain(ctx context.Context) error {
	return c.engine.Drain(ctx)
}

// Refresh pulls the authoritative list set and merges it into the snapshot.
func (c *Client) Refresh(ctx context.Context) error {
	return c.engine.refetch(ctx)
}

// Snapshot returns the current local snapshot.
func (c *Client) Snapshot() (Snapshot, error) {
	return c.store.GetSnapshot()
}

// Queue returns the pending actions in replay order.
func (c *Client) Queue() ([]Action, error) {
	return c.store.GetQueue()
}

// State returns the sync engine's drain state.
func (c *Client) State() EngineState {
	return c.engine.State()
}

// LastError returns the error that stalled the last drain, if any.
func (c *Client) LastError() error {
	return c.engine.LastError()
}

// SetFocus tells the push listener which list view is open.
func (c *Client) SetFocus(listID string) {
	c.push.SetFocus(listID)
}

// Connected reports channel connectivity.
func (c *Client) Connected() bool {
	return c.ch.Connected()
}

// UserID returns the session's user id, used as owner for created lists.
func (c *Client) UserID() string {
	return c.session.UserID
}
