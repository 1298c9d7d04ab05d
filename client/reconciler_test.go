package client

import (
	"testing"

	"shoplist/channel"
)

func createTestReconciler(t *testing.T) (*Reconciler, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewReconciler(store, nil), store
}

func TestReconcileListRewritesSnapshotAndQueue(t *testing.T) {
	recon, store := createTestReconciler(t)

	tempList := NewTempID()
	tempItem := NewTempID()
	store.SetSnapshot(Snapshot{Lists: []List{{
		ID:    tempList,
		Name:  "Party",
		Dirty: true,
		Items: []Item{{ID: tempItem, Name: "Cake", Dirty: true}},
	}}})

	act, err := NewAction(AddItem{ListID: tempList, ItemID: tempItem, Name: "Cake"})
	if err != nil {
		t.Fatal(err)
	}
	store.AppendToQueue(act)

	err = recon.ReconcileList(tempList.Value, channel.ListRecord{ID: "L1", TempID: tempList.Value, Name: "Party"})
	if err != nil {
		t.Fatalf("ReconcileList failed: %v", err)
	}

	snap, _ := store.GetSnapshot()
	l := snap.Lists[0]
	if l.ID.Value != "L1" || !l.ID.Confirmed {
		t.Errorf("list id not confirmed: %+v", l.ID)
	}
	if l.Dirty {
		t.Error("reconciled list should be clean")
	}
	// Optimistic items added while the create was in flight survive.
	if len(l.Items) != 1 || l.Items[0].Name != "Cake" {
		t.Fatalf("optimistic item lost: %+v", l.Items)
	}

	queue, _ := store.GetQueue()
	m, err := queue[0].Mutation()
	if err != nil {
		t.Fatal(err)
	}
	add := m.(AddItem)
	if add.ListID.Value != "L1" || !add.ListID.Confirmed {
		t.Errorf("queued action still references temp list: %+v", add.ListID)
	}
	if add.ItemID.Value != tempItem.Value {
		t.Errorf("item id must stay temporary until its own creation is acked: %+v", add.ItemID)
	}
}

func TestReconcileItem(t *testing.T) {
	recon, store := createTestReconciler(t)

	tempItem := NewTempID()
	store.SetSnapshot(Snapshot{Lists: []List{{
		ID:    ServerID("L1"),
		Name:  "Groceries",
		Items: []Item{{ID: tempItem, Name: "Milk", Dirty: true}},
	}}})

	err := recon.ReconcileItem(tempItem.Value, channel.ItemRecord{ID: "I1", TempID: tempItem.Value, ListID: "L1", Name: "Milk"})
	if err != nil {
		t.Fatalf("ReconcileItem failed: %v", err)
	}

	snap, _ := store.GetSnapshot()
	it := snap.Lists[0].Items[0]
	if it.ID.Value != "I1" || !it.ID.Confirmed {
		t.Errorf("item id not confirmed: %+v", it.ID)
	}
	if it.Dirty {
		t.Error("reconciled item should be clean")
	}
}

func TestReconcileMissingTempIsIdempotent(t *testing.T) {
	recon, store := createTestReconciler(t)

	store.SetSnapshot(Snapshot{Lists: []List{{ID: ServerID("L1"), Name: "Groceries"}}})

	// Ack and push can both deliver the same mapping; the second application
	// finds nothing to rewrite and must not fail.
	err := recon.ReconcileList("tmp-gone", channel.ListRecord{ID: "L1", TempID: "tmp-gone"})
	if err != nil {
		t.Fatalf("duplicate reconcile failed: %v", err)
	}
	snap, _ := store.GetSnapshot()
	if len(snap.Lists) != 1 {
		t.Errorf("snapshot changed: %d lists", len(snap.Lists))
	}
}

func TestReconcileRejectsRecordWithoutID(t *testing.T) {
	recon, _ := createTestReconciler(t)

	if err := recon.ReconcileList("tmp-x", channel.ListRecord{TempID: "tmp-x"}); err == nil {
		t.Error("expected error for list record without server id")
	}
	if err := recon.ReconcileItem("tmp-x", channel.ItemRecord{TempID: "tmp-x"}); err == nil {
		t.Error("expected error for item record without server id")
	}
}
