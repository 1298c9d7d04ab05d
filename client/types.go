package client

// Quantity is an optional amount attached to an item, e.g. 2 x "kg".
type Quantity struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// Item is a single entry of a shopping list.
type Item struct {
	ID       Identity  `json:"id"`
	Name     string    `json:"name"`
	Done     bool      `json:"done"`
	Comment  string    `json:"comment,omitempty"`
	Quantity *Quantity `json:"quantity,omitempty"`

	// Dirty marks a local change the server has not confirmed yet.
	Dirty bool `json:"dirty,omitempty"`
}

// List is a shopping list with its items.
type List struct {
	ID         Identity `json:"id"`
	Name       string   `json:"name"`
	IsPublic   bool     `json:"is_public"`
	Owner      string   `json:"owner,omitempty"`
	SharedWith []string `json:"shared_with,omitempty"`
	Items      []Item   `json:"items"`

	Dirty bool `json:"dirty,omitempty"`
}

// Snapshot is the full locally known state, the unit of persistence and the
// unit the projection engine transforms.
type Snapshot struct {
	Lists []List `json:"lists"`
}

// FindList returns the index of the list matching id, or -1.
func (s Snapshot) FindList(id Identity) int {
	for i := range s.Lists {
		if s.Lists[i].ID.Matches(id) {
			return i
		}
	}
	return -1
}

// FindItem returns the index of the item matching id, or -1.
func (l List) FindItem(id Identity) int {
	for i := range l.Items {
		if l.Items[i].ID.Matches(id) {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the snapshot. Consumers detect change by
// reference, so shared backing arrays must never be mutated in place.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Lists: make([]List, len(s.Lists))}
	for i, l := range s.Lists {
		out.Lists[i] = l.Clone()
	}
	return out
}

// Clone returns a deep copy of the list.
func (l List) Clone() List {
	out := l
	out.Items = make([]Item, len(l.Items))
	for i, it := range l.Items {
		out.Items[i] = it.Clone()
	}
	if l.SharedWith != nil {
		out.SharedWith = append([]string(nil), l.SharedWith...)
	}
	return out
}

// Clone returns a copy of the item.
func (it Item) Clone() Item {
	out := it
	if it.Quantity != nil {
		q := *it.Quantity
		out.Quantity = &q
	}
	return out
}

// PendingCount returns how many entities still carry unconfirmed local
// changes, used by sync status reporting.
func (s Snapshot) PendingCount() int {
	n := 0
	for _, l := range s.Lists {
		if l.Dirty {
			n++
		}
		for _, it := range l.Items {
			if it.Dirty {
				n++
			}
		}
	}
	return n
}
