package sqlite

import (
	"path/filepath"
	"testing"

	"shoplist/client"
)

func createTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shoplist.db")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestStoreEmptyDefaults(t *testing.T) {
	s, _ := createTestStore(t)

	snap, err := s.GetSnapshot()
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if len(snap.Lists) != 0 {
		t.Errorf("fresh store should have an empty snapshot, got %+v", snap)
	}

	queue, err := s.GetQueue()
	if err != nil {
		t.Fatalf("GetQueue failed: %v", err)
	}
	if len(queue) != 0 {
		t.Errorf("fresh store should have an empty queue, got %d", len(queue))
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	s, path := createTestStore(t)

	tempID := client.NewTempID()
	snap := client.Snapshot{Lists: []client.List{{
		ID:    client.ServerID("L1"),
		Name:  "Groceries",
		Items: []client.Item{{ID: tempID, Name: "Milk", Dirty: true}},
	}}}
	if err := s.SetSnapshot(snap); err != nil {
		t.Fatal(err)
	}

	act, err := client.NewAction(client.ToggleItem{
		ListID: client.ServerID("L1"),
		ItemID: tempID,
		Done:   true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AppendToQueue(act); err != nil {
		t.Fatal(err)
	}
	s.Close()

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Lists) != 1 || got.Lists[0].Name != "Groceries" {
		t.Fatalf("snapshot lost on reopen: %+v", got)
	}
	it := got.Lists[0].Items[0]
	if it.ID.Value != tempID.Value || it.ID.Confirmed || !it.Dirty {
		t.Errorf("item identity state lost: %+v", it)
	}

	queue, err := reopened.GetQueue()
	if err != nil {
		t.Fatal(err)
	}
	if len(queue) != 1 || queue[0].ID != act.ID {
		t.Fatalf("queue lost on reopen: %+v", queue)
	}
	m, err := queue[0].Mutation()
	if err != nil {
		t.Fatal(err)
	}
	if !m.(client.ToggleItem).Done {
		t.Error("queued payload lost on reopen")
	}
}

func TestStoreQueueOrderAndReplace(t *testing.T) {
	s, _ := createTestStore(t)

	var acts []client.Action
	for _, name := range []string{"a", "b", "c"} {
		act, err := client.NewAction(client.AddList{ListID: client.NewTempID(), Name: name})
		if err != nil {
			t.Fatal(err)
		}
		acts = append(acts, act)
		if err := s.AppendToQueue(act); err != nil {
			t.Fatal(err)
		}
	}

	queue, err := s.GetQueue()
	if err != nil {
		t.Fatal(err)
	}
	for i := range acts {
		if queue[i].ID != acts[i].ID {
			t.Fatalf("queue order broken at %d: %s != %s", i, queue[i].ID, acts[i].ID)
		}
	}

	// Drop the head, as the sync engine does after an ack.
	if err := s.SetQueue(queue[1:]); err != nil {
		t.Fatal(err)
	}
	queue, _ = s.GetQueue()
	if len(queue) != 2 || queue[0].ID != acts[1].ID {
		t.Fatalf("SetQueue did not preserve order: %+v", queue)
	}
}

func TestStoreSnapshotOverwrite(t *testing.T) {
	s, _ := createTestStore(t)

	first := client.Snapshot{Lists: []client.List{{ID: client.ServerID("L1"), Name: "One"}}}
	second := client.Snapshot{Lists: []client.List{{ID: client.ServerID("L2"), Name: "Two"}}}

	if err := s.SetSnapshot(first); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSnapshot(second); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Lists) != 1 || got.Lists[0].Name != "Two" {
		t.Errorf("snapshot not replaced: %+v", got)
	}
}
