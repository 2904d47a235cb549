package ledger

import (
	"context"
	"sort"

	"cxls/internal/domain"
)

// Read-only queries run against the last committed snapshot without
// entering the writer queue. Callers always get copies, never the
// authoritative records.

func (l *Ledger) GetUser(id domain.UserID) (*domain.User, error) {
	var out *domain.User
	l.ser.View(func(s *domain.Snapshot) {
		if u, ok := s.Users[id]; ok {
			out = snapshotUser(u)
		}
	})
	if out == nil {
		return nil, NotFoundf("user %s not found", id)
	}
	return out, nil
}

func (l *Ledger) UserByUsername(username string) (*domain.User, error) {
	var out *domain.User
	l.ser.View(func(s *domain.Snapshot) {
		if u := s.UserByUsername(username); u != nil {
			out = snapshotUser(u)
		}
	})
	if out == nil {
		return nil, NotFoundf("user %q not found", username)
	}
	return out, nil
}

func (l *Ledger) GetItem(id domain.ItemID) (*domain.Item, error) {
	var out *domain.Item
	l.ser.View(func(s *domain.Snapshot) {
		if it, ok := s.Items[id]; ok {
			out = snapshotItem(it)
		}
	})
	if out == nil {
		return nil, NotFoundf("item %s not found", id)
	}
	return out, nil
}

func (l *Ledger) ListItems() []*domain.Item {
	var out []*domain.Item
	l.ser.View(func(s *domain.Snapshot) {
		for _, it := range s.Items {
			out = append(out, snapshotItem(it))
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// HistoryFor returns the newest entries first, up to limit (0 = all).
func (l *Ledger) HistoryFor(userID domain.UserID, limit int) []*domain.HistoryEntry {
	var out []*domain.HistoryEntry
	l.ser.View(func(s *domain.Snapshot) {
		for _, h := range s.History {
			if h.UserID == userID {
				ch := *h
				out = append(out, &ch)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ListPayments is an admin view over all payment records, newest first.
func (l *Ledger) ListPayments(callerID domain.UserID) ([]*domain.Payment, error) {
	var out []*domain.Payment
	var authErr error
	l.ser.View(func(s *domain.Snapshot) {
		if _, err := requireAdmin(s, callerID); err != nil {
			authErr = err
			return
		}
		for _, p := range s.Payments {
			out = append(out, snapshotPayment(p))
		}
	})
	if authErr != nil {
		return nil, authErr
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// PaymentsFor returns the user's own payment records, newest first.
func (l *Ledger) PaymentsFor(userID domain.UserID) []*domain.Payment {
	var out []*domain.Payment
	l.ser.View(func(s *domain.Snapshot) {
		for _, p := range s.Payments {
			if p.UserID == userID {
				out = append(out, snapshotPayment(p))
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Notifications returns the user's notifications ordered by recency,
// up to limit (0 = all).
func (l *Ledger) Notifications(userID domain.UserID, limit int) []*domain.Notification {
	var out []*domain.Notification
	l.ser.View(func(s *domain.Snapshot) {
		for _, n := range s.Notifications {
			if n.UserID == userID {
				cn := *n
				if n.Payload != nil {
					cn.Payload = make(map[string]any, len(n.Payload))
					for k, v := range n.Payload {
						cn.Payload[k] = v
					}
				}
				out = append(out, &cn)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// MarkRead flips the read flag on the user's notifications. It goes
// through the serializer like any other mutation so concurrent marks
// and new arrivals cannot lose updates.
func (l *Ledger) MarkRead(ctx context.Context, userID domain.UserID, ids []domain.NotificationID) error {
	if len(ids) == 0 {
		return Validationf("no notification ids given")
	}
	want := make(map[domain.NotificationID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return l.ser.Submit(ctx, func(tx *Tx) error {
		if _, err := getUser(tx.Snap, userID); err != nil {
			return err
		}
		for _, n := range tx.Snap.Notifications {
			if n.UserID != userID {
				continue
			}
			if _, ok := want[n.ID]; ok {
				n.Read = true
			}
		}
		return nil
	})
}
