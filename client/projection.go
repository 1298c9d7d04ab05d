package client

import (
	"shoplist/internal/utils"
)

// Projector applies mutations to snapshots optimistically. Apply is pure and
// total: unknown entity references are logged and leave the snapshot
// untouched, so a corrupt queue can never corrupt local state.
type Projector struct {
	log *utils.Logger
}

// NewProjector creates a projector. A nil logger falls back to a quiet one.
func NewProjector(log *utils.Logger) *Projector {
	if log == nil {
		log = utils.NewLogger(false)
	}
	return &Projector{log: log}
}

// Apply returns a new snapshot with the mutation applied. The modified entity
// and its containing list always get fresh object identities; untouched lists
// are shared with the input snapshot.
func (p *Projector) Apply(snap Snapshot, m Mutation) Snapshot {
	switch v := m.(type) {
	case AddList:
		return p.applyAddList(snap, v)
	case DeleteList:
		return p.applyDeleteList(snap, v)
	case TogglePrivacy:
		return p.updateList(snap, v.ListID, "TogglePrivacy", func(l List) (List, bool) {
			l.IsPublic = v.IsPublic
			return l, true
		})
	case UpdateSharing:
		return p.updateList(snap, v.ListID, "UpdateSharing", func(l List) (List, bool) {
			l.SharedWith = append([]string(nil), v.SharedWith...)
			return l, true
		})
	case AddItem:
		return p.applyAddItem(snap, v)
	case DeleteItem:
		return p.applyDeleteItem(snap, v)
	case ToggleItem:
		return p.updateItem(snap, v.ListID, v.ItemID, "ToggleItem", func(it Item) Item {
			it.Done = v.Done
			return it
		})
	case UpdateComment:
		return p.updateItem(snap, v.ListID, v.ItemID, "UpdateComment", func(it Item) Item {
			it.Comment = v.Comment
			return it
		})
	case UpdateQuantity:
		return p.updateItem(snap, v.ListID, v.ItemID, "UpdateQuantity", func(it Item) Item {
			q := v.Quantity
			it.Quantity = &q
			return it
		})
	default:
		p.log.Warn("apply: unknown mutation kind %s, ignoring", m.Kind())
		return snap
	}
}

func (p *Projector) applyAddList(snap Snapshot, m AddList) Snapshot {
	// Idempotent under replay: an existing list with the same id wins.
	if snap.FindList(m.ListID) >= 0 {
		p.log.Debug("apply: list %s already exists, skipping add", m.ListID)
		return snap
	}
	next := Snapshot{Lists: make([]List, 0, len(snap.Lists)+1)}
	next.Lists = append(next.Lists, snap.Lists...)
	next.Lists = append(next.Lists, List{
		ID:       m.ListID,
		Name:     m.Name,
		IsPublic: m.IsPublic,
		Owner:    m.Owner,
		Items:    []Item{},
		Dirty:    true,
	})
	return next
}

func (p *Projector) applyDeleteList(snap Snapshot, m DeleteList) Snapshot {
	idx := snap.FindList(m.ListID)
	if idx < 0 {
		p.log.Debug("apply: list %s not found, delete is a no-op", m.ListID)
		return snap
	}
	next := Snapshot{Lists: make([]List, 0, len(snap.Lists)-1)}
	next.Lists = append(next.Lists, snap.Lists[:idx]...)
	next.Lists = append(next.Lists, snap.Lists[idx+1:]...)
	return next
}

func (p *Projector) applyAddItem(snap Snapshot, m AddItem) Snapshot {
	return p.updateList(snap, m.ListID, "AddItem", func(l List) (List, bool) {
		if l.FindItem(m.ItemID) >= 0 {
			p.log.Debug("apply: item %s already exists, skipping add", m.ItemID)
			return l, false
		}
		item := Item{ID: m.ItemID, Name: m.Name, Dirty: true}
		if m.Quantity != nil {
			q := *m.Quantity
			item.Quantity = &q
		}
		l.Items = append(l.Items, item)
		return l, true
	})
}

func (p *Projector) applyDeleteItem(snap Snapshot, m DeleteItem) Snapshot {
	return p.updateList(snap, m.ListID, "DeleteItem", func(l List) (List, bool) {
		idx := l.FindItem(m.ItemID)
		if idx < 0 {
			p.log.Debug("apply: item %s not found, delete is a no-op", m.ItemID)
			return l, false
		}
		l.Items = append(l.Items[:idx], l.Items[idx+1:]...)
		return l, true
	})
}

// updateList replaces the matched list with fn's result, marking it dirty.
// fn reports whether it changed anything; a false return leaves the input
// snapshot untouched. The returned snapshot shares untouched lists.
func (p *Projector) updateList(snap Snapshot, id Identity, op string, fn func(List) (List, bool)) Snapshot {
	idx := snap.FindList(id)
	if idx < 0 {
		p.log.Warn("apply: %s references unknown list %s, ignoring", op, id)
		return snap
	}
	updated, changed := fn(snap.Lists[idx].Clone())
	if !changed {
		return snap
	}
	next := Snapshot{Lists: make([]List, len(snap.Lists))}
	copy(next.Lists, snap.Lists)
	updated.Dirty = true
	next.Lists[idx] = updated
	return next
}

// updateItem replaces the matched item with fn's result, marking both the
// item and its containing list dirty.
func (p *Projector) updateItem(snap Snapshot, listID, itemID Identity, op string, fn func(Item) Item) Snapshot {
	return p.updateList(snap, listID, op, func(l List) (List, bool) {
		idx := l.FindItem(itemID)
		if idx < 0 {
			p.log.Warn("apply: %s references unknown item %s in list %s, ignoring", op, itemID, listID)
			return l, false
		}
		updated := fn(l.Items[idx].Clone())
		updated.Dirty = true
		l.Items[idx] = updated
		return l, true
	})
}
