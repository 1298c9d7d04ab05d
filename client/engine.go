package client

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"shoplist/channel"
	"shoplist/internal/utils"
)

// EngineState is the drain state machine: Idle -> Draining -> (Idle|Stalled).
type EngineState int32

const (
	StateIdle EngineState = iota
	StateDraining
	StateStalled
)

func (s EngineState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraining:
		return "draining"
	case StateStalled:
		return "stalled"
	default:
		return "unknown"
	}
}

// resolveStatus classifies a queued action against the latest snapshot.
type resolveStatus int

const (
	// resolveReady: all references are confirmed, the action can be sent.
	resolveReady resolveStatus = iota
	// resolveSatisfied: nothing left to do (entity deleted locally or
	// already confirmed); the action is removed without sending.
	resolveSatisfied
	// resolveBlocked: a referenced creation has not succeeded yet; the
	// action stays queued and the drain halts.
	resolveBlocked
)

// Engine replays the pending queue against the live channel when
// connectivity returns. Replay is strictly sequential, one action in flight
// at a time, because later actions may reference entities created by earlier
// ones. The first failure halts the drain; whatever remains stays queued for
// the next attempt.
type Engine struct {
	store   Store
	ch      channel.LiveChannel
	fetch   channel.Fetcher
	recon   *Reconciler
	merger  *Merger
	log     *utils.Logger
	timeout time.Duration

	state   atomic.Int32
	lastMu  sync.Mutex
	lastErr error
}

// NewEngine creates a sync engine. merger performs the post-drain
// authoritative re-fetch merge; fetch may be nil in tests to skip it.
func NewEngine(store Store, ch channel.LiveChannel, fetch channel.Fetcher, recon *Reconciler, merger *Merger, log *utils.Logger, timeout time.Duration) *Engine {
	if log == nil {
		log = utils.NewLogger(false)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Engine{
		store:   store,
		ch:      ch,
		fetch:   fetch,
		recon:   recon,
		merger:  merger,
		log:     log,
		timeout: timeout,
	}
}

// State returns the current drain state.
func (e *Engine) State() EngineState {
	return EngineState(e.state.Load())
}

// LastError returns the error that stalled the previous drain, if any.
func (e *Engine) LastError() error {
	e.lastMu.Lock()
	defer e.lastMu.Unlock()
	return e.lastErr
}

// Drain replays the pending queue in original order. A second call while a
// drain is running is a no-op. After the loop, completed or halted, the
// engine triggers a full re-fetch of authoritative state to reconcile
// anything missed while offline.
func (e *Engine) Drain(ctx context.Context) error {
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateDraining)) &&
		!e.state.CompareAndSwap(int32(StateStalled), int32(StateDraining)) {
		e.log.Debug("drain: already draining, ignoring trigger")
		return nil
	}

	stallErr := e.drainLoop(ctx)

	if err := e.refetch(ctx); err != nil {
		e.log.Warn("drain: post-drain refetch failed: %v", err)
	}

	e.lastMu.Lock()
	e.lastErr = stallErr
	e.lastMu.Unlock()

	if stallErr != nil {
		e.state.Store(int32(StateStalled))
		return stallErr
	}
	e.state.Store(int32(StateIdle))
	return nil
}

// drainLoop processes the head of the queue until the queue is empty or a
// failure halts it. The queue is re-read every iteration so identifier
// rewrites from earlier reconciliations are observed.
func (e *Engine) drainLoop(ctx context.Context) error {
	for {
		queue, err := e.store.GetQueue()
		if err != nil {
			return fmt.Errorf("failed to load queue: %w", err)
		}
		if len(queue) == 0 {
			return nil
		}

		act := queue[0]
		m, err := act.Mutation()
		if err != nil {
			// An undecodable entry can never succeed; drop it rather than
			// wedging the queue forever.
			e.log.Error("drain: dropping undecodable action %s: %v", act.ID, err)
			if err := e.removeAction(act.ID); err != nil {
				return err
			}
			continue
		}

		snap, err := e.store.GetSnapshot()
		if err != nil {
			return fmt.Errorf("failed to load snapshot: %w", err)
		}

		switch resolveAction(m, snap) {
		case resolveSatisfied:
			e.log.Debug("drain: action %s (%s) already satisfied, removing", act.ID, m.Kind())
			if err := e.removeAction(act.ID); err != nil {
				return err
			}
			continue
		case resolveBlocked:
			e.log.Warn("drain: action %s (%s) references an unconfirmed entity, halting", act.ID, m.Kind())
			return NewSyncError("Drain", ErrDependency,
				fmt.Sprintf("%s action waits on an unconfirmed entity", m.Kind()))
		}

		if err := e.sendAction(ctx, m); err != nil {
			e.log.Warn("drain: action %s (%s) failed, halting: %v", act.ID, m.Kind(), err)
			return err
		}
		if err := e.removeAction(act.ID); err != nil {
			return err
		}
	}
}

// sendAction delivers one resolved action and reconciles creation acks
// immediately so subsequent iterations see the server id.
func (e *Engine) sendAction(ctx context.Context, m Mutation) error {
	event, payload := wireRequest(m)

	sendCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	ack, err := e.ch.Send(sendCtx, event, payload)
	if err != nil {
		kind := ErrTransport
		if sendCtx.Err() != nil {
			kind = ErrTimeout
		}
		return NewSyncError("Drain", kind, "").WithError(err)
	}
	if ack == nil || ack.Error != "" {
		msg := "no acknowledgement"
		if ack != nil {
			msg = ack.Error
		}
		return NewSyncError("Drain", ErrTransport, msg)
	}

	if ack.List != nil && ack.List.TempID != "" {
		if err := e.recon.ReconcileList(ack.List.TempID, *ack.List); err != nil {
			return err
		}
	}
	if ack.Item != nil && ack.Item.TempID != "" {
		if err := e.recon.ReconcileItem(ack.Item.TempID, *ack.Item); err != nil {
			return err
		}
	}
	return nil
}

// removeAction removes the action by id from the persisted queue.
func (e *Engine) removeAction(actionID string) error {
	queue, err := e.store.GetQueue()
	if err != nil {
		return fmt.Errorf("failed to load queue: %w", err)
	}
	for i, a := range queue {
		if a.ID == actionID {
			queue = append(queue[:i], queue[i+1:]...)
			break
		}
	}
	if err := e.store.SetQueue(queue); err != nil {
		return fmt.Errorf("failed to persist queue: %w", err)
	}
	return nil
}

// refetch pulls the authoritative list set and merges it, preserving pending
// local-only entities. The push stream may have delivered nothing while the
// client was offline, so this is the only reliable catch-up.
func (e *Engine) refetch(ctx context.Context) error {
	if e.fetch == nil || e.merger == nil || !e.ch.Connected() {
		return nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	lists, err := e.fetch.FetchLists(fetchCtx)
	if err != nil {
		return err
	}
	for i := range lists {
		items, err := e.fetch.FetchItems(fetchCtx, lists[i].ID)
		if err != nil {
			return err
		}
		lists[i].Items = items
	}
	return e.merger.MergeLists(lists)
}

// resolveAction re-resolves the mutation's entity references against the
// latest snapshot, distinguishing "ready to send", "nothing left to do" and
// "dependency missing".
func resolveAction(m Mutation, snap Snapshot) resolveStatus {
	listPresent := func(id Identity) bool { return snap.FindList(id) >= 0 }
	itemPresent := func(listID, itemID Identity) bool {
		li := snap.FindList(listID)
		return li >= 0 && snap.Lists[li].FindItem(itemID) >= 0
	}

	switch v := m.(type) {
	case AddList:
		// Deleted before sync, or confirmed by a push: either way done.
		idx := snap.FindList(v.ListID)
		if idx < 0 || snap.Lists[idx].ID.Confirmed {
			return resolveSatisfied
		}
		return resolveReady

	case DeleteList:
		if v.ListID.IsTemp() {
			// The server never saw this list; nothing to delete there.
			return resolveSatisfied
		}
		return resolveReady

	case TogglePrivacy:
		if v.ListID.IsTemp() {
			if !listPresent(v.ListID) {
				return resolveSatisfied
			}
			return resolveBlocked
		}
		return resolveReady

	case UpdateSharing:
		if v.ListID.IsTemp() {
			if !listPresent(v.ListID) {
				return resolveSatisfied
			}
			return resolveBlocked
		}
		return resolveReady

	case AddItem:
		// The item itself may have been deleted or confirmed meanwhile.
		li := snap.FindList(v.ListID)
		if li < 0 {
			return resolveSatisfied
		}
		ii := snap.Lists[li].FindItem(v.ItemID)
		if ii < 0 || snap.Lists[li].Items[ii].ID.Confirmed {
			return resolveSatisfied
		}
		if v.ListID.IsTemp() {
			return resolveBlocked
		}
		return resolveReady

	case DeleteItem:
		if v.ItemID.IsTemp() {
			return resolveSatisfied
		}
		if v.ListID.IsTemp() {
			return resolveBlocked
		}
		return resolveReady

	case ToggleItem:
		return resolveItemUpdate(v.ListID, v.ItemID, listPresent, itemPresent)
	case UpdateComment:
		return resolveItemUpdate(v.ListID, v.ItemID, listPresent, itemPresent)
	case UpdateQuantity:
		return resolveItemUpdate(v.ListID, v.ItemID, listPresent, itemPresent)

	default:
		return resolveSatisfied
	}
}

func resolveItemUpdate(listID, itemID Identity, listPresent func(Identity) bool, itemPresent func(Identity, Identity) bool) resolveStatus {
	if itemID.IsTemp() {
		if !itemPresent(listID, itemID) {
			return resolveSatisfied
		}
		return resolveBlocked
	}
	if listID.IsTemp() {
		if !listPresent(listID) {
			return resolveSatisfied
		}
		return resolveBlocked
	}
	return resolveReady
}
