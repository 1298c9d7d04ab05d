package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"shoplist/channel"
)

func createTestEngine(t *testing.T) (*Engine, *Submitter, *MemoryStore, *channel.MockChannel, *channel.MockServer) {
	t.Helper()
	store := NewMemoryStore()
	srv := channel.NewMockServer()
	ch := channel.NewMockChannel(srv)
	recon := NewReconciler(store, nil)
	merger := NewMerger(store, nil)
	engine := NewEngine(store, ch, srv, recon, merger, nil, time.Second)
	sub := NewSubmitter(store, ch, recon, nil, time.Second)
	return engine, sub, store, ch, srv
}

func TestDrainReplaysOfflineActionsInOrder(t *testing.T) {
	engine, sub, store, ch, srv := createTestEngine(t)

	// Work offline: create a list, add an item to it, toggle the item.
	listID := NewTempID()
	itemID := NewTempID()
	ctx := context.Background()
	if err := sub.Submit(ctx, AddList{ListID: listID, Name: "Groceries"}); err != nil {
		t.Fatal(err)
	}
	if err := sub.Submit(ctx, AddItem{ListID: listID, ItemID: itemID, Name: "Milk"}); err != nil {
		t.Fatal(err)
	}
	if err := sub.Submit(ctx, ToggleItem{ListID: listID, ItemID: itemID, Done: true}); err != nil {
		t.Fatal(err)
	}

	ch.Connect()
	if err := engine.Drain(ctx); err != nil {
		t.Fatalf("Drain failed: %v", err)
	}

	queue, _ := store.GetQueue()
	if len(queue) != 0 {
		t.Fatalf("queue should be empty, got %d entries", len(queue))
	}
	if engine.State() != StateIdle {
		t.Errorf("state = %v, want idle", engine.State())
	}

	// Each later action went out with the server id assigned to its
	// predecessor, in original order.
	want := []string{"list:add", "item:add", "item:toggle"}
	if len(srv.Handled) < len(want) {
		t.Fatalf("server handled %v", srv.Handled)
	}
	for i, ev := range want {
		if srv.Handled[i] != ev {
			t.Errorf("event %d = %s, want %s", i, srv.Handled[i], ev)
		}
	}

	snap, _ := store.GetSnapshot()
	l := snap.Lists[0]
	if !l.ID.Confirmed || l.ID.Value != "L1" {
		t.Errorf("list id = %+v, want confirmed L1", l.ID)
	}
	if len(l.Items) != 1 || !l.Items[0].ID.Confirmed {
		t.Errorf("item not reconciled: %+v", l.Items)
	}
}

func TestDrainHaltsOnFirstFailureAndResumes(t *testing.T) {
	engine, sub, store, ch, _ := createTestEngine(t)

	ctx := context.Background()
	listID := NewTempID()
	sub.Submit(ctx, AddList{ListID: listID, Name: "Groceries"})
	sub.Submit(ctx, AddItem{ListID: listID, ItemID: NewTempID(), Name: "Milk"})

	ch.Connect()
	ch.SendErrs["item:add"] = fmt.Errorf("connection reset")

	err := engine.Drain(ctx)
	if err == nil {
		t.Fatal("expected drain to halt on transport failure")
	}
	if engine.State() != StateStalled {
		t.Errorf("state = %v, want stalled", engine.State())
	}
	if engine.LastError() == nil {
		t.Error("LastError should report the halt cause")
	}

	// The failed action and nothing before it stays queued.
	queue, _ := store.GetQueue()
	if len(queue) != 1 || queue[0].Kind != KindAddItem {
		t.Fatalf("expected the failed item:add to remain queued, got %+v", queue)
	}

	// The next drain picks up where the last one stalled.
	delete(ch.SendErrs, "item:add")
	if err := engine.Drain(ctx); err != nil {
		t.Fatalf("resumed drain failed: %v", err)
	}
	queue, _ = store.GetQueue()
	if len(queue) != 0 {
		t.Errorf("queue should be empty after resume, got %d", len(queue))
	}
	if engine.State() != StateIdle || engine.LastError() != nil {
		t.Errorf("state = %v lastErr = %v, want idle/nil", engine.State(), engine.LastError())
	}
}

func TestDrainDropsSatisfiedCreation(t *testing.T) {
	engine, sub, store, ch, srv := createTestEngine(t)

	// Create and immediately delete a list offline. The delete is purely
	// local, but the stale list:add still sits in the queue.
	ctx := context.Background()
	listID := NewTempID()
	sub.Submit(ctx, AddList{ListID: listID, Name: "Mistake"})
	sub.Submit(ctx, DeleteList{ListID: listID})

	ch.Connect()
	if err := engine.Drain(ctx); err != nil {
		t.Fatalf("Drain failed: %v", err)
	}

	queue, _ := store.GetQueue()
	if len(queue) != 0 {
		t.Errorf("satisfied creation should be dropped, queue: %+v", queue)
	}
	for _, ev := range srv.Handled {
		if ev == "list:add" {
			t.Error("creation of a deleted list must never reach the server")
		}
	}
}

func TestDrainHaltsOnUnresolvableDependency(t *testing.T) {
	engine, _, store, ch, _ := createTestEngine(t)

	// A queued action references an unconfirmed list whose creation is not in
	// the queue: it can never resolve, so the drain stalls rather than
	// guessing.
	tempList := NewTempID()
	store.SetSnapshot(Snapshot{Lists: []List{{ID: tempList, Name: "Orphan", Dirty: true}}})
	act, err := NewAction(UpdateSharing{ListID: tempList, SharedWith: []string{"bob"}})
	if err != nil {
		t.Fatal(err)
	}
	store.AppendToQueue(act)

	ch.Connect()
	err = engine.Drain(context.Background())
	if err == nil {
		t.Fatal("expected dependency halt")
	}
	var syncErr *SyncError
	if !errors.As(err, &syncErr) || syncErr.Kind != ErrDependency {
		t.Errorf("expected ErrDependency, got %v", err)
	}
	queue, _ := store.GetQueue()
	if len(queue) != 1 {
		t.Errorf("blocked action must stay queued, got %d", len(queue))
	}
}

func TestDrainRefetchesAuthoritativeState(t *testing.T) {
	engine, sub, store, ch, srv := createTestEngine(t)

	// Server state that arrived while this client was offline.
	srv.Lists = append(srv.Lists, channel.ListRecord{ID: "L9", Name: "Household", Owner: "bob"})
	srv.Items["L9"] = []channel.ItemRecord{{ID: "I9", ListID: "L9", Name: "Soap"}}

	// A local unconfirmed list must survive the refetch merge.
	ctx := context.Background()
	sub.Submit(ctx, AddList{ListID: NewTempID(), Name: "Private"})
	ch.SendErrs["list:add"] = fmt.Errorf("connection reset")

	ch.Connect()
	_ = engine.Drain(ctx) // halts on list:add, refetch still runs

	snap, _ := store.GetSnapshot()
	if snap.FindList(ServerID("L9")) < 0 {
		t.Fatalf("server list missing after refetch: %+v", snap.Lists)
	}
	household := snap.Lists[snap.FindList(ServerID("L9"))]
	if len(household.Items) != 1 || household.Items[0].Name != "Soap" {
		t.Errorf("server items missing: %+v", household.Items)
	}

	foundPrivate := false
	for _, l := range snap.Lists {
		if l.Name == "Private" && !l.ID.Confirmed {
			foundPrivate = true
		}
	}
	if !foundPrivate {
		t.Error("pending local list was lost by the refetch merge")
	}
}

func TestDrainReentryIsNoop(t *testing.T) {
	engine, _, _, ch, _ := createTestEngine(t)
	ch.Connect()

	// Force the draining state, as a concurrent drain would.
	if !engine.state.CompareAndSwap(int32(StateIdle), int32(StateDraining)) {
		t.Fatal("setup failed")
	}
	if err := engine.Drain(context.Background()); err != nil {
		t.Errorf("re-entrant drain should be a silent no-op, got %v", err)
	}
	if engine.State() != StateDraining {
		t.Errorf("state = %v, want draining", engine.State())
	}
}
