package client

import (
	"shoplist/channel"
)

// wireRequest builds the server-facing event and payload for a mutation.
// Entity references must already be resolved to server ids, except the
// creation target itself, which travels as a tempId echo.
func wireRequest(m Mutation) (string, any) {
	event := string(m.Kind())
	switch v := m.(type) {
	case AddList:
		return event, channel.ListRecord{
			TempID:   v.ListID.Value,
			Name:     v.Name,
			IsPublic: v.IsPublic,
			Owner:    v.Owner,
		}
	case DeleteList:
		return event, channel.ListRecord{ID: v.ListID.Value}
	case TogglePrivacy:
		return event, channel.ListRecord{ID: v.ListID.Value, IsPublic: v.IsPublic}
	case UpdateSharing:
		return event, channel.ListRecord{ID: v.ListID.Value, SharedWith: v.SharedWith}
	case AddItem:
		rec := channel.ItemRecord{
			TempID: v.ItemID.Value,
			ListID: v.ListID.Value,
			Name:   v.Name,
		}
		rec.Quantity = quantityToRecord(v.Quantity)
		return event, rec
	case DeleteItem:
		return event, channel.ItemRecord{ID: v.ItemID.Value, ListID: v.ListID.Value}
	case ToggleItem:
		return event, channel.ItemRecord{ID: v.ItemID.Value, ListID: v.ListID.Value, Done: v.Done}
	case UpdateComment:
		return event, channel.ItemRecord{ID: v.ItemID.Value, ListID: v.ListID.Value, Comment: v.Comment}
	case UpdateQuantity:
		q := v.Quantity
		return event, channel.ItemRecord{
			ID:       v.ItemID.Value,
			ListID:   v.ListID.Value,
			Quantity: quantityToRecord(&q),
		}
	default:
		return event, nil
	}
}

func quantityToRecord(q *Quantity) *channel.QuantityRecord {
	if q == nil {
		return nil
	}
	return &channel.QuantityRecord{Value: q.Value, Unit: q.Unit}
}

func quantityFromRecord(q *channel.QuantityRecord) *Quantity {
	if q == nil {
		return nil
	}
	return &Quantity{Value: q.Value, Unit: q.Unit}
}

// listFromRecord converts an authoritative wire list into a confirmed,
// clean domain list.
func listFromRecord(rec channel.ListRecord) List {
	l := List{
		ID:         ServerID(rec.ID),
		Name:       rec.Name,
		IsPublic:   rec.IsPublic,
		Owner:      rec.Owner,
		SharedWith: append([]string(nil), rec.SharedWith...),
		Items:      make([]Item, 0, len(rec.Items)),
	}
	for _, ir := range rec.Items {
		l.Items = append(l.Items, itemFromRecord(ir))
	}
	return l
}

// itemFromRecord converts an authoritative wire item into a confirmed,
// clean domain item.
func itemFromRecord(rec channel.ItemRecord) Item {
	return Item{
		ID:       ServerID(rec.ID),
		Name:     rec.Name,
		Done:     rec.Done,
		Comment:  rec.Comment,
		Quantity: quantityFromRecord(rec.Quantity),
	}
}
