// Package ledger is the transactional core of the exchange: every
// state-changing operation is a unit of work applied through the
// serializer, so money and ownership can never be half-applied or
// raced. Validation happens inside the unit of work against the
// working snapshot; on any error nothing is persisted.
package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cxls/internal/domain"
)

type Ledger struct {
	ser  *Serializer
	rate decimal.Decimal
}

// New wires the domain operations onto a serializer. fiatRate is the
// static exchange rate frozen into payment records at request time.
func New(ser *Serializer, fiatRate decimal.Decimal) *Ledger {
	return &Ledger{ser: ser, rate: fiatRate}
}

func (l *Ledger) Serializer() *Serializer { return l.ser }

// ---- snapshot lookups used inside units of work ----

func getUser(s *domain.Snapshot, id domain.UserID) (*domain.User, error) {
	u, ok := s.Users[id]
	if !ok {
		return nil, NotFoundf("user %s not found", id)
	}
	return u, nil
}

func getItem(s *domain.Snapshot, id domain.ItemID) (*domain.Item, error) {
	it, ok := s.Items[id]
	if !ok {
		return nil, NotFoundf("item %s not found", id)
	}
	return it, nil
}

// requireAdmin re-checks the caller role even though the HTTP layer
// already gates admin routes.
func requireAdmin(s *domain.Snapshot, id domain.UserID) (*domain.User, error) {
	u, err := getUser(s, id)
	if err != nil {
		return nil, err
	}
	if u.Role != domain.RoleAdmin {
		return nil, Forbiddenf("admin role required")
	}
	return u, nil
}

// ---- user lifecycle ----

// RegisterUser creates a user record. The password hash is produced by
// the auth layer and stored opaquely.
func (l *Ledger) RegisterUser(ctx context.Context, username, display, contact, passHash string, role domain.Role) (*domain.User, error) {
	if username == "" {
		return nil, Validationf("username is required")
	}
	var out *domain.User
	err := l.ser.Submit(ctx, func(tx *Tx) error {
		if tx.Snap.UserByUsername(username) != nil {
			return Conflictf("username %q already taken", username)
		}
		u := &domain.User{
			ID:        domain.UserID(uuid.NewString()),
			Username:  username,
			Display:   display,
			Contact:   contact,
			PassHash:  passHash,
			Role:      role,
			Balance:   decimal.Zero,
			CreatedAt: tx.Now,
		}
		tx.Snap.Users[u.ID] = u
		out = snapshotUser(u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ---- market operations ----

// Buy debits the buyer by the item's stored price and transfers
// ownership, all in one unit of work. The price is never taken from
// the caller.
func (l *Ledger) Buy(ctx context.Context, buyerID domain.UserID, itemID domain.ItemID) (*domain.Item, error) {
	var out *domain.Item
	err := l.ser.Submit(ctx, func(tx *Tx) error {
		buyer, err := getUser(tx.Snap, buyerID)
		if err != nil {
			return err
		}
		item, err := getItem(tx.Snap, itemID)
		if err != nil {
			return err
		}
		if item.Owner != nil {
			return Conflictf("item already sold")
		}
		if buyer.Balance.LessThan(item.Price) {
			return Validationf("insufficient balance")
		}

		buyer.Balance = buyer.Balance.Sub(item.Price)
		item.Owner = &buyer.ID
		buyer.Items = append(buyer.Items, item.ID)
		tx.History(buyer.ID, "bought %s for %s", item.Name, item.Price)

		tx.Notify(buyer.ID, "purchase", map[string]any{
			"item_id": item.ID,
			"name":    item.Name,
			"price":   item.Price.String(),
		})
		tx.Broadcast("item_sold", map[string]any{"item_id": item.ID})
		out = snapshotItem(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Gift is a self-funded purchase for someone else: the initiator pays
// the stored price, the target receives the item.
func (l *Ledger) Gift(ctx context.Context, fromID, toID domain.UserID, itemID domain.ItemID) (*domain.Item, error) {
	if fromID == toID {
		return nil, Validationf("cannot gift to yourself")
	}
	var out *domain.Item
	err := l.ser.Submit(ctx, func(tx *Tx) error {
		from, err := getUser(tx.Snap, fromID)
		if err != nil {
			return err
		}
		to, err := getUser(tx.Snap, toID)
		if err != nil {
			return err
		}
		item, err := getItem(tx.Snap, itemID)
		if err != nil {
			return err
		}
		if item.Owner != nil {
			return Conflictf("item already owned")
		}
		if from.Balance.LessThan(item.Price) {
			return Validationf("insufficient balance")
		}

		from.Balance = from.Balance.Sub(item.Price)
		item.Owner = &to.ID
		to.Items = append(to.Items, item.ID)
		to.GiftCount++
		tx.History(from.ID, "gifted %s to %s", item.Name, to.Username)
		tx.History(to.ID, "received %s as a gift from %s", item.Name, from.Username)

		tx.Notify(to.ID, "gift", map[string]any{
			"item_id": item.ID,
			"name":    item.Name,
			"from":    from.Username,
		})
		tx.Broadcast("item_sold", map[string]any{"item_id": item.ID})
		out = snapshotItem(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AdminGift assigns an unsold item to a user at the admin's initiative.
// The recipient is the one debited, not the admin; the asymmetry is
// deliberate and matches the documented product behavior.
func (l *Ledger) AdminGift(ctx context.Context, adminID, toID domain.UserID, itemID domain.ItemID) (*domain.Item, error) {
	var out *domain.Item
	err := l.ser.Submit(ctx, func(tx *Tx) error {
		admin, err := requireAdmin(tx.Snap, adminID)
		if err != nil {
			return err
		}
		to, err := getUser(tx.Snap, toID)
		if err != nil {
			return err
		}
		item, err := getItem(tx.Snap, itemID)
		if err != nil {
			return err
		}
		if item.Owner != nil {
			return Conflictf("item already owned")
		}
		if to.Balance.LessThan(item.Price) {
			return Validationf("recipient has insufficient balance")
		}

		to.Balance = to.Balance.Sub(item.Price)
		item.Owner = &to.ID
		to.Items = append(to.Items, item.ID)
		to.GiftCount++
		tx.History(admin.ID, "admin-gifted %s to %s", item.Name, to.Username)
		tx.History(to.ID, "received %s as a gift", item.Name)

		tx.Notify(to.ID, "gift", map[string]any{
			"item_id": item.ID,
			"name":    item.Name,
		})
		tx.Broadcast("item_sold", map[string]any{"item_id": item.ID})
		out = snapshotItem(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Upgrade advances an owned item: stars only ever go down (floored at
// zero), level only ever goes up.
func (l *Ledger) Upgrade(ctx context.Context, callerID domain.UserID, itemID domain.ItemID) (*domain.Item, error) {
	var out *domain.Item
	err := l.ser.Submit(ctx, func(tx *Tx) error {
		caller, err := getUser(tx.Snap, callerID)
		if err != nil {
			return err
		}
		item, err := getItem(tx.Snap, itemID)
		if err != nil {
			return err
		}
		if item.Owner == nil || *item.Owner != caller.ID {
			return Forbiddenf("only the owner can upgrade an item")
		}

		if item.Stars > 0 {
			item.Stars--
		}
		item.Level++
		tx.History(caller.ID, "upgraded %s to level %d", item.Name, item.Level)
		tx.Broadcast("item_upgraded", map[string]any{"item_id": item.ID, "level": item.Level})
		out = snapshotItem(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ---- copies handed back to callers (never the working reference) ----

func snapshotUser(u *domain.User) *domain.User {
	cu := *u
	cu.Items = append([]domain.ItemID(nil), u.Items...)
	return &cu
}

func snapshotItem(it *domain.Item) *domain.Item {
	ci := *it
	if it.Owner != nil {
		owner := *it.Owner
		ci.Owner = &owner
	}
	return &ci
}

func snapshotPayment(p *domain.Payment) *domain.Payment {
	cp := *p
	if p.ResolvedBy != nil {
		by := *p.ResolvedBy
		cp.ResolvedBy = &by
	}
	if p.ResolvedAt != nil {
		at := *p.ResolvedAt
		cp.ResolvedAt = &at
	}
	return &cp
}
