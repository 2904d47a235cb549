package domain

import "time"

// Snapshot is the complete ledger state. The serializer owns the
// authoritative copy; a committed snapshot is never mutated again.
type Snapshot struct {
	Version       int                    `json:"version"`
	Users         map[UserID]*User       `json:"users"`
	Items         map[ItemID]*Item       `json:"items"`
	Payments      map[PaymentID]*Payment `json:"payments"`
	History       []*HistoryEntry        `json:"history"`
	Notifications []*Notification        `json:"notifications"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func NewSnapshot() *Snapshot {
	now := time.Now()
	return &Snapshot{
		Version:   1,
		Users:     map[UserID]*User{},
		Items:     map[ItemID]*Item{},
		Payments:  map[PaymentID]*Payment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone deep-copies the snapshot so a unit of work can mutate freely
// and be discarded on failure.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Version:       s.Version,
		Users:         make(map[UserID]*User, len(s.Users)),
		Items:         make(map[ItemID]*Item, len(s.Items)),
		Payments:      make(map[PaymentID]*Payment, len(s.Payments)),
		History:       make([]*HistoryEntry, len(s.History)),
		Notifications: make([]*Notification, len(s.Notifications)),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
	for id, u := range s.Users {
		cu := *u
		cu.Items = append([]ItemID(nil), u.Items...)
		out.Users[id] = &cu
	}
	for id, it := range s.Items {
		ci := *it
		if it.Owner != nil {
			owner := *it.Owner
			ci.Owner = &owner
		}
		out.Items[id] = &ci
	}
	for id, p := range s.Payments {
		cp := *p
		if p.ResolvedBy != nil {
			by := *p.ResolvedBy
			cp.ResolvedBy = &by
		}
		if p.ResolvedAt != nil {
			at := *p.ResolvedAt
			cp.ResolvedAt = &at
		}
		out.Payments[id] = &cp
	}
	for i, h := range s.History {
		ch := *h
		out.History[i] = &ch
	}
	for i, n := range s.Notifications {
		cn := *n
		if n.Payload != nil {
			cn.Payload = make(map[string]any, len(n.Payload))
			for k, v := range n.Payload {
				cn.Payload[k] = v
			}
		}
		out.Notifications[i] = &cn
	}
	return out
}

// UserByUsername scans the user set; usernames are unique by construction.
func (s *Snapshot) UserByUsername(username string) *User {
	for _, u := range s.Users {
		if u.Username == username {
			return u
		}
	}
	return nil
}
