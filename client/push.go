package client

import (
	"encoding/json"
	"sync"

	"shoplist/channel"
	"shoplist/internal/utils"
)

// Navigator is notified when server-side changes invalidate the view the
// user is looking at, e.g. the focused list being deleted under them.
type Navigator interface {
	LeaveList(listID string)
}

// PushListener subscribes to server push events and folds them into the
// local snapshot. Pushes are authoritative for what they cover; entities
// still pending confirmation are preserved by the merge. Records carrying a
// tempId echo are reconciled first so a push arriving before the creation
// ack still maps the temporary id.
type PushListener struct {
	merger *Merger
	recon  *Reconciler
	nav    Navigator
	log    *utils.Logger

	mu      sync.Mutex
	focused string
}

// NewPushListener creates a push listener. nav may be nil when no view needs
// deletion notifications.
func NewPushListener(merger *Merger, recon *Reconciler, nav Navigator, log *utils.Logger) *PushListener {
	if log == nil {
		log = utils.NewLogger(false)
	}
	return &PushListener{merger: merger, recon: recon, nav: nav, log: log}
}

// Attach registers the listener's handlers on the channel.
func (p *PushListener) Attach(ch channel.LiveChannel) {
	ch.On(channel.EventListsChanged, p.onListsChanged)
	ch.On(channel.EventItemsChanged, p.onItemsChanged)
	ch.On(channel.EventListDeleted, p.onListDeleted)
	ch.On(channel.EventListShared, p.onListShared)
}

// SetFocus records which list the user currently has open, so a deletion
// push for it can bounce them out.
func (p *PushListener) SetFocus(listID string) {
	p.mu.Lock()
	p.focused = listID
	p.mu.Unlock()
}

func (p *PushListener) onListsChanged(payload json.RawMessage) {
	var ev channel.ListsChangedEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		p.log.Warn("push: malformed lists:changed payload, ignoring: %v", err)
		return
	}

	for _, rec := range ev.Lists {
		if rec.TempID == "" {
			continue
		}
		if err := p.recon.ReconcileList(rec.TempID, rec); err != nil {
			p.log.Warn("push: list reconcile failed: %v", err)
		}
	}
	if err := p.merger.MergeLists(ev.Lists); err != nil {
		p.log.Error("push: lists:changed merge failed: %v", err)
	}
}

func (p *PushListener) onItemsChanged(payload json.RawMessage) {
	var ev channel.ItemsChangedEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		p.log.Warn("push: malformed items:changed payload, ignoring: %v", err)
		return
	}
	if ev.ListID == "" {
		p.log.Warn("push: items:changed without list id, ignoring")
		return
	}

	for _, rec := range ev.Items {
		if rec.TempID == "" {
			continue
		}
		if err := p.recon.ReconcileItem(rec.TempID, rec); err != nil {
			p.log.Warn("push: item reconcile failed: %v", err)
		}
	}
	if err := p.merger.MergeItems(ev.ListID, ev.Items); err != nil {
		p.log.Error("push: items:changed merge failed: %v", err)
	}
}

func (p *PushListener) onListDeleted(payload json.RawMessage) {
	var ev channel.ListDeletedEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		p.log.Warn("push: malformed list:deleted payload, ignoring: %v", err)
		return
	}
	if ev.ListID == "" {
		p.log.Warn("push: list:deleted without list id, ignoring")
		return
	}

	removed, err := p.merger.RemoveList(ev.ListID)
	if err != nil {
		p.log.Error("push: list:deleted failed: %v", err)
		return
	}
	if !removed {
		return
	}

	p.mu.Lock()
	focused := p.focused
	p.mu.Unlock()
	if p.nav != nil && focused == ev.ListID {
		p.log.Info("push: focused list %s deleted remotely, leaving it", ev.ListID)
		p.nav.LeaveList(ev.ListID)
	}
}

func (p *PushListener) onListShared(payload json.RawMessage) {
	var ev channel.ListSharedEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		p.log.Warn("push: malformed list:shared payload, ignoring: %v", err)
		return
	}
	if ev.ListID == "" {
		p.log.Warn("push: list:shared without list id, ignoring")
		return
	}
	if err := p.merger.UpdateSharing(ev.ListID, ev.IsPublic, ev.SharedWith); err != nil {
		p.log.Error("push: list:shared failed: %v", err)
	}
}
