package client

import (
	"context"
	"fmt"
	"time"

	"shoplist/channel"
	"shoplist/internal/utils"
)

// Submitter is the entry point for user intent. Every mutation is validated,
// applied to the local snapshot and persisted synchronously before any
// network I/O, so the UI reflects intent instantly whether or not the
// channel is up. Connected sends go out immediately with an acknowledgement;
// everything else lands in the pending queue.
type Submitter struct {
	store   Store
	ch      channel.LiveChannel
	proj    *Projector
	recon   *Reconciler
	log     *utils.Logger
	timeout time.Duration
}

// NewSubmitter creates a submitter. timeout bounds each acknowledged send.
func NewSubmitter(store Store, ch channel.LiveChannel, recon *Reconciler, log *utils.Logger, timeout time.Duration) *Submitter {
	if log == nil {
		log = utils.NewLogger(false)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Submitter{
		store:   store,
		ch:      ch,
		proj:    NewProjector(log),
		recon:   recon,
		log:     log,
		timeout: timeout,
	}
}

// Submit validates and applies the mutation, then delivers or queues it.
// The local store is updated exactly once before any network call.
func (s *Submitter) Submit(ctx context.Context, m Mutation) error {
	if err := m.Validate(); err != nil {
		return err
	}

	snap, err := s.store.GetSnapshot()
	if err != nil {
		// Degrade to an empty snapshot rather than dropping user intent.
		s.log.Error("submit: failed to load snapshot, starting empty: %v", err)
		snap = Snapshot{}
	}

	next := s.proj.Apply(snap, m)
	if err := s.store.SetSnapshot(next); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}

	// Deleting an entity the server never saw needs no server call and no
	// queue entry; the optimistic removal above is the whole operation.
	if isUnsyncedDelete(m) {
		s.log.Debug("submit: %s targets an unsynced entity, done locally", m.Kind())
		return nil
	}

	if !s.ch.Connected() || dependsOnUnconfirmed(m) {
		return s.enqueue(m)
	}
	return s.sendNow(ctx, m, snap)
}

// enqueue wraps the mutation into an action and persists it for the next
// drain.
func (s *Submitter) enqueue(m Mutation) error {
	act, err := NewAction(m)
	if err != nil {
		return err
	}
	if err := s.store.AppendToQueue(act); err != nil {
		return fmt.Errorf("failed to append to queue: %w", err)
	}
	s.log.Debug("submit: queued %s as action %s", m.Kind(), act.ID)
	return nil
}

// sendNow delivers the mutation over the live channel. prev is the snapshot
// before the optimistic apply, used to revert failed list-level operations.
func (s *Submitter) sendNow(ctx context.Context, m Mutation, prev Snapshot) error {
	event, payload := wireRequest(m)

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ack, err := s.ch.Send(sendCtx, event, payload)
	if err == nil && ack == nil {
		err = fmt.Errorf("channel returned no acknowledgement for %s", event)
	}

	if err != nil || ack.Error != "" {
		msg := ""
		if ack != nil {
			msg = ack.Error
		}
		syncErr := NewSyncError("Submit", classifySendFailure(sendCtx, msg), msg).WithError(err)

		// Item-level optimistic changes stand until authoritative state
		// arrives; phantom lists do not.
		s.revertListOp(m, prev)
		return syncErr
	}

	if ack.List != nil && ack.List.TempID != "" {
		if err := s.recon.ReconcileList(ack.List.TempID, *ack.List); err != nil {
			return err
		}
	}
	if ack.Item != nil && ack.Item.TempID != "" {
		if err := s.recon.ReconcileItem(ack.Item.TempID, *ack.Item); err != nil {
			return err
		}
	}
	return nil
}

// revertListOp undoes the optimistic effect of a failed list creation or
// deletion so the snapshot doesn't keep a phantom list.
func (s *Submitter) revertListOp(m Mutation, prev Snapshot) {
	switch v := m.(type) {
	case AddList:
		snap, err := s.store.GetSnapshot()
		if err != nil {
			s.log.Error("submit: cannot revert list add: %v", err)
			return
		}
		idx := snap.FindList(v.ListID)
		if idx < 0 {
			return
		}
		next := Snapshot{Lists: append(snap.Lists[:idx:idx], snap.Lists[idx+1:]...)}
		if err := s.store.SetSnapshot(next); err != nil {
			s.log.Error("submit: cannot persist list add revert: %v", err)
		}
	case DeleteList:
		prevIdx := prev.FindList(v.ListID)
		if prevIdx < 0 {
			return
		}
		snap, err := s.store.GetSnapshot()
		if err != nil {
			s.log.Error("submit: cannot revert list delete: %v", err)
			return
		}
		if snap.FindList(v.ListID) >= 0 {
			return
		}
		next := Snapshot{Lists: append(append([]List(nil), snap.Lists...), prev.Lists[prevIdx].Clone())}
		if err := s.store.SetSnapshot(next); err != nil {
			s.log.Error("submit: cannot persist list delete revert: %v", err)
		}
	}
}

// dependsOnUnconfirmed reports whether the mutation references an entity the
// server hasn't confirmed yet. Such mutations must wait in the queue behind
// the pending creation even while connected.
func dependsOnUnconfirmed(m Mutation) bool {
	switch v := m.(type) {
	case AddList:
		return false
	case DeleteList:
		return v.ListID.IsTemp()
	case TogglePrivacy:
		return v.ListID.IsTemp()
	case UpdateSharing:
		return v.ListID.IsTemp()
	case AddItem:
		return v.ListID.IsTemp()
	case DeleteItem:
		return v.ListID.IsTemp() || v.ItemID.IsTemp()
	case ToggleItem:
		return v.ListID.IsTemp() || v.ItemID.IsTemp()
	case UpdateComment:
		return v.ListID.IsTemp() || v.ItemID.IsTemp()
	case UpdateQuantity:
		return v.ListID.IsTemp() || v.ItemID.IsTemp()
	default:
		return false
	}
}

// isUnsyncedDelete reports whether m deletes an entity that only ever
// existed locally (temporary id, never confirmed by the server).
func isUnsyncedDelete(m Mutation) bool {
	switch v := m.(type) {
	case DeleteList:
		return v.ListID.IsTemp()
	case DeleteItem:
		return v.ItemID.IsTemp()
	default:
		return false
	}
}

// classifySendFailure distinguishes timeout, rejection and transport faults.
func classifySendFailure(ctx context.Context, ackError string) ErrorKind {
	if ctx.Err() != nil {
		return ErrTimeout
	}
	switch ackError {
	case "":
		return ErrTransport
	case "list not found", "item not found":
		return ErrNotFound
	case "access denied":
		return ErrDenied
	default:
		return ErrTransport
	}
}
