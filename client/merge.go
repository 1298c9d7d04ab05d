package client

import (
	"fmt"

	"shoplist/channel"
	"shoplist/internal/utils"
)

// Merger folds authoritative server state into the local snapshot. Server
// records win for everything they cover; local-only entities (temporary ids
// the server hasn't confirmed yet) are carried over so pending optimistic
// work is never lost to a push or re-fetch.
type Merger struct {
	store Store
	log   *utils.Logger
}

// NewMerger creates a merger over the given store.
func NewMerger(store Store, log *utils.Logger) *Merger {
	if log == nil {
		log = utils.NewLogger(false)
	}
	return &Merger{store: store, log: log}
}

// MergeLists replaces the snapshot's list set with the server's, preserving
// unconfirmed local lists and unconfirmed items inside surviving lists.
func (g *Merger) MergeLists(records []channel.ListRecord) error {
	snap, err := g.store.GetSnapshot()
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	next := Snapshot{Lists: make([]List, 0, len(records))}
	for _, rec := range records {
		merged := listFromRecord(rec)
		if idx := snap.FindList(merged.ID); idx >= 0 {
			merged.Items = mergeItems(merged.Items, snap.Lists[idx].Items)
		}
		next.Lists = append(next.Lists, merged)
	}
	for _, l := range snap.Lists {
		if !l.ID.Confirmed {
			next.Lists = append(next.Lists, l.Clone())
		}
	}

	if err := g.store.SetSnapshot(next); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	g.log.Debug("merge: %d server lists, %d total after merge", len(records), len(next.Lists))
	return nil
}

// MergeItems replaces the item set of one list with the server's, keeping
// unconfirmed local items. Unknown list ids are ignored.
func (g *Merger) MergeItems(listID string, records []channel.ItemRecord) error {
	snap, err := g.store.GetSnapshot()
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	idx := snap.FindList(ServerID(listID))
	if idx < 0 {
		g.log.Warn("merge: items for unknown list %s, ignoring", listID)
		return nil
	}

	items := make([]Item, 0, len(records))
	for _, rec := range records {
		items = append(items, itemFromRecord(rec))
	}

	next := Snapshot{Lists: make([]List, len(snap.Lists))}
	copy(next.Lists, snap.Lists)
	updated := next.Lists[idx].Clone()
	updated.Items = mergeItems(items, updated.Items)
	updated.Dirty = false
	next.Lists[idx] = updated

	if err := g.store.SetSnapshot(next); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return nil
}

// RemoveList drops a list from the snapshot, typically on a server-side
// deletion push. Removing an absent list is a no-op.
func (g *Merger) RemoveList(listID string) (bool, error) {
	snap, err := g.store.GetSnapshot()
	if err != nil {
		return false, fmt.Errorf("failed to load snapshot: %w", err)
	}

	idx := snap.FindList(ServerID(listID))
	if idx < 0 {
		return false, nil
	}

	next := Snapshot{Lists: append(snap.Lists[:idx:idx], snap.Lists[idx+1:]...)}
	if err := g.store.SetSnapshot(next); err != nil {
		return false, fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return true, nil
}

// UpdateSharing applies a sharing/privacy change pushed by the server to a
// known list. Unknown list ids are ignored; the follow-up lists:changed push
// covers lists that became visible through sharing.
func (g *Merger) UpdateSharing(listID string, isPublic bool, sharedWith []string) error {
	snap, err := g.store.GetSnapshot()
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	idx := snap.FindList(ServerID(listID))
	if idx < 0 {
		g.log.Debug("merge: sharing change for unknown list %s, ignoring", listID)
		return nil
	}

	next := Snapshot{Lists: make([]List, len(snap.Lists))}
	copy(next.Lists, snap.Lists)
	updated := next.Lists[idx].Clone()
	updated.IsPublic = isPublic
	updated.SharedWith = append([]string(nil), sharedWith...)
	next.Lists[idx] = updated

	if err := g.store.SetSnapshot(next); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return nil
}

// mergeItems keeps the server's items and appends local unconfirmed ones that
// the server set doesn't already cover.
func mergeItems(server, local []Item) []Item {
	merged := server
	for _, it := range local {
		if it.ID.Confirmed {
			continue
		}
		merged = append(merged, it.Clone())
	}
	return merged
}
