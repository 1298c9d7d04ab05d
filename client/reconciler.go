package client

import (
	"encoding/json"
	"fmt"

	"shoplist/channel"
	"shoplist/internal/utils"
)

// Reconciler maps a client-generated temporary id to the server-assigned id
// once the server acknowledges a creation. It rewrites the snapshot entity
// and any queued actions still referencing the temporary id, then drops the
// temporary id for good. Both rewrites are idempotent: reconciling an
// already-confirmed mapping is a no-op.
type Reconciler struct {
	store Store
	log   *utils.Logger
}

// NewReconciler creates a reconciler over the given store.
func NewReconciler(store Store, log *utils.Logger) *Reconciler {
	if log == nil {
		log = utils.NewLogger(false)
	}
	return &Reconciler{store: store, log: log}
}

// ReconcileList replaces the list keyed by tempID with the server record,
// clearing the locally-modified flag. Pending local-only items inside the
// list are preserved.
func (r *Reconciler) ReconcileList(tempID string, rec channel.ListRecord) error {
	if rec.ID == "" {
		return NewSyncError("Reconcile", ErrMalformed, "server list record has no id")
	}

	snap, err := r.store.GetSnapshot()
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	idx := snap.FindList(Identity{Value: tempID})
	if idx < 0 {
		// Already reconciled (e.g. ack and push both delivered the mapping).
		r.log.Debug("reconcile: no list with temp id %s, nothing to do", tempID)
		return r.rewriteQueue(tempID, ServerID(rec.ID))
	}

	confirmed := listFromRecord(rec)
	local := snap.Lists[idx]
	// The ack for a creation carries no items; keep whatever the optimistic
	// list accumulated while the create was in flight.
	if len(confirmed.Items) == 0 && len(local.Items) > 0 {
		confirmed.Items = local.Items
	}
	if confirmed.Name == "" {
		confirmed.Name = local.Name
	}

	next := Snapshot{Lists: make([]List, len(snap.Lists))}
	copy(next.Lists, snap.Lists)
	next.Lists[idx] = confirmed
	if err := r.store.SetSnapshot(next); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}

	r.log.Debug("reconcile: list %s -> %s", tempID, rec.ID)
	return r.rewriteQueue(tempID, ServerID(rec.ID))
}

// ReconcileItem replaces the item keyed by tempID with the server record.
func (r *Reconciler) ReconcileItem(tempID string, rec channel.ItemRecord) error {
	if rec.ID == "" {
		return NewSyncError("Reconcile", ErrMalformed, "server item record has no id")
	}

	snap, err := r.store.GetSnapshot()
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	found := false
	next := Snapshot{Lists: make([]List, len(snap.Lists))}
	copy(next.Lists, snap.Lists)
	for li := range next.Lists {
		ii := next.Lists[li].FindItem(Identity{Value: tempID})
		if ii < 0 {
			continue
		}
		updated := next.Lists[li].Clone()
		updated.Items[ii] = itemFromRecord(rec)
		next.Lists[li] = updated
		found = true
		break
	}

	if !found {
		r.log.Debug("reconcile: no item with temp id %s, nothing to do", tempID)
		return r.rewriteQueue(tempID, ServerID(rec.ID))
	}

	if err := r.store.SetSnapshot(next); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}

	r.log.Debug("reconcile: item %s -> %s", tempID, rec.ID)
	return r.rewriteQueue(tempID, ServerID(rec.ID))
}

// rewriteQueue updates queued actions that still reference the temporary id,
// so later drain iterations resolve against the confirmed identity.
func (r *Reconciler) rewriteQueue(tempID string, confirmed Identity) error {
	queue, err := r.store.GetQueue()
	if err != nil {
		return fmt.Errorf("failed to load queue: %w", err)
	}

	changed := false
	for i, act := range queue {
		m, err := act.Mutation()
		if err != nil {
			// Leave undecodable entries for the drain to report.
			r.log.Warn("reconcile: skipping undecodable action %s: %v", act.ID, err)
			continue
		}
		rewritten, did := rewriteIdentity(m, tempID, confirmed)
		if !did {
			continue
		}
		payload, err := json.Marshal(rewritten)
		if err != nil {
			return fmt.Errorf("failed to re-encode action %s: %w", act.ID, err)
		}
		queue[i].Payload = payload
		changed = true
	}

	if !changed {
		return nil
	}
	if err := r.store.SetQueue(queue); err != nil {
		return fmt.Errorf("failed to persist queue: %w", err)
	}
	return nil
}
