package client

import (
	"encoding/json"
	"testing"

	"shoplist/channel"
)

type fakeNavigator struct {
	left []string
}

func (n *fakeNavigator) LeaveList(listID string) {
	n.left = append(n.left, listID)
}

func createTestPush(t *testing.T) (*PushListener, *MemoryStore, *channel.MockChannel, *fakeNavigator) {
	t.Helper()
	store := NewMemoryStore()
	ch := channel.NewMockChannel(channel.NewMockServer())
	nav := &fakeNavigator{}
	p := NewPushListener(NewMerger(store, nil), NewReconciler(store, nil), nav, nil)
	p.Attach(ch)
	return p, store, ch, nav
}

func TestPushListsChangedReplacesConfirmedState(t *testing.T) {
	_, store, ch, _ := createTestPush(t)

	store.SetSnapshot(Snapshot{Lists: []List{
		{ID: ServerID("L1"), Name: "Groceries"},
	}})

	err := ch.Push(channel.EventListsChanged, channel.ListsChangedEvent{Lists: []channel.ListRecord{
		{ID: "L1", Name: "Groceries (renamed)"},
		{ID: "L2", Name: "Household", Owner: "bob"},
	}})
	if err != nil {
		t.Fatal(err)
	}

	snap, _ := store.GetSnapshot()
	if len(snap.Lists) != 2 {
		t.Fatalf("expected 2 lists, got %d", len(snap.Lists))
	}
	if snap.Lists[0].Name != "Groceries (renamed)" {
		t.Errorf("server rename not applied: %s", snap.Lists[0].Name)
	}
}

func TestPushPreservesPendingLocalEntities(t *testing.T) {
	_, store, ch, _ := createTestPush(t)

	tempList := NewTempID()
	tempItem := NewTempID()
	store.SetSnapshot(Snapshot{Lists: []List{
		{ID: tempList, Name: "Pending", Dirty: true},
		{ID: ServerID("L1"), Name: "Groceries", Items: []Item{
			{ID: ServerID("I1"), Name: "Milk"},
			{ID: tempItem, Name: "Eggs", Dirty: true},
		}},
	}})

	ch.Push(channel.EventListsChanged, channel.ListsChangedEvent{Lists: []channel.ListRecord{
		{ID: "L1", Name: "Groceries", Items: []channel.ItemRecord{{ID: "I1", ListID: "L1", Name: "Milk"}}},
	}})

	snap, _ := store.GetSnapshot()
	if snap.FindList(tempList) < 0 {
		t.Error("pending local list was dropped by the push")
	}
	groceries := snap.Lists[snap.FindList(ServerID("L1"))]
	if groceries.FindItem(tempItem) < 0 {
		t.Errorf("pending local item was dropped: %+v", groceries.Items)
	}
}

func TestPushItemsChangedTargetsOneList(t *testing.T) {
	_, store, ch, _ := createTestPush(t)

	store.SetSnapshot(Snapshot{Lists: []List{
		{ID: ServerID("L1"), Name: "Groceries", Items: []Item{{ID: ServerID("I1"), Name: "Milk"}}},
		{ID: ServerID("L2"), Name: "Household", Items: []Item{{ID: ServerID("I2"), Name: "Soap"}}},
	}})

	ch.Push(channel.EventItemsChanged, channel.ItemsChangedEvent{
		ListID: "L1",
		Items:  []channel.ItemRecord{{ID: "I1", ListID: "L1", Name: "Milk", Done: true}},
	})

	snap, _ := store.GetSnapshot()
	if !snap.Lists[0].Items[0].Done {
		t.Error("server item change not applied")
	}
	if len(snap.Lists[1].Items) != 1 {
		t.Error("untouched list was modified")
	}
}

func TestPushReconcilesTempIDEcho(t *testing.T) {
	// A push can deliver the temp id mapping before (or instead of) the
	// creation ack. The mapping must apply exactly once.
	_, store, ch, _ := createTestPush(t)

	tempList := NewTempID()
	store.SetSnapshot(Snapshot{Lists: []List{{ID: tempList, Name: "Party", Dirty: true}}})

	ch.Push(channel.EventListsChanged, channel.ListsChangedEvent{Lists: []channel.ListRecord{
		{ID: "L5", TempID: tempList.Value, Name: "Party"},
	}})

	snap, _ := store.GetSnapshot()
	if len(snap.Lists) != 1 {
		t.Fatalf("expected exactly one list, got %+v", snap.Lists)
	}
	if snap.Lists[0].ID.Value != "L5" || !snap.Lists[0].ID.Confirmed {
		t.Errorf("temp id not reconciled: %+v", snap.Lists[0].ID)
	}
}

func TestPushListDeletedLeavesFocusedView(t *testing.T) {
	p, store, ch, nav := createTestPush(t)

	store.SetSnapshot(Snapshot{Lists: []List{{ID: ServerID("L1"), Name: "Groceries"}}})
	p.SetFocus("L1")

	ch.Push(channel.EventListDeleted, channel.ListDeletedEvent{ListID: "L1"})

	snap, _ := store.GetSnapshot()
	if len(snap.Lists) != 0 {
		t.Error("deleted list still present")
	}
	if len(nav.left) != 1 || nav.left[0] != "L1" {
		t.Errorf("navigator not told to leave, got %v", nav.left)
	}
}

func TestPushListDeletedUnfocusedDoesNotNavigate(t *testing.T) {
	p, store, ch, nav := createTestPush(t)

	store.SetSnapshot(Snapshot{Lists: []List{
		{ID: ServerID("L1"), Name: "Groceries"},
		{ID: ServerID("L2"), Name: "Household"},
	}})
	p.SetFocus("L2")

	ch.Push(channel.EventListDeleted, channel.ListDeletedEvent{ListID: "L1"})

	if len(nav.left) != 0 {
		t.Errorf("navigation triggered for unfocused list: %v", nav.left)
	}
	snap, _ := store.GetSnapshot()
	if len(snap.Lists) != 1 {
		t.Errorf("expected 1 list left, got %d", len(snap.Lists))
	}
}

func TestPushListSharedUpdatesMembership(t *testing.T) {
	_, store, ch, _ := createTestPush(t)

	store.SetSnapshot(Snapshot{Lists: []List{{ID: ServerID("L1"), Name: "Groceries"}}})

	ch.Push(channel.EventListShared, channel.ListSharedEvent{
		ListID:     "L1",
		IsPublic:   true,
		SharedWith: []string{"bob", "carol"},
	})

	snap, _ := store.GetSnapshot()
	l := snap.Lists[0]
	if !l.IsPublic || len(l.SharedWith) != 2 {
		t.Errorf("sharing change not applied: %+v", l)
	}
}

func TestPushMalformedPayloadIsIgnored(t *testing.T) {
	_, store, ch, _ := createTestPush(t)

	store.SetSnapshot(Snapshot{Lists: []List{{ID: ServerID("L1"), Name: "Groceries"}}})

	ch.PushRaw(channel.EventListsChanged, json.RawMessage(`{"lists": "not-an-array"`))
	ch.PushRaw(channel.EventListDeleted, json.RawMessage(`42`))
	ch.PushRaw(channel.EventItemsChanged, json.RawMessage(`{}`))

	snap, _ := store.GetSnapshot()
	if len(snap.Lists) != 1 || snap.Lists[0].Name != "Groceries" {
		t.Errorf("malformed push corrupted local state: %+v", snap.Lists)
	}
}
