package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cxls/internal/domain"
)

// ItemParams carries the admin-supplied item fields. Price is fixed at
// creation; editing it later is the one sanctioned exception, via
// UpdateItem.
type ItemParams struct {
	Name       string
	Image      string
	Collection string
	Rating     int
	Price      decimal.Decimal
	Stars      int
}

// CreateItem adds a new, unowned catalog item.
func (l *Ledger) CreateItem(ctx context.Context, adminID domain.UserID, p ItemParams) (*domain.Item, error) {
	if p.Name == "" {
		return nil, Validationf("item name is required")
	}
	if p.Price.IsNegative() {
		return nil, Validationf("price must not be negative")
	}
	if p.Stars < 0 {
		return nil, Validationf("stars must not be negative")
	}
	var out *domain.Item
	err := l.ser.Submit(ctx, func(tx *Tx) error {
		admin, err := requireAdmin(tx.Snap, adminID)
		if err != nil {
			return err
		}
		item := &domain.Item{
			ID:         domain.ItemID(uuid.NewString()),
			Name:       p.Name,
			Image:      p.Image,
			Collection: p.Collection,
			Rating:     p.Rating,
			Price:      p.Price,
			Stars:      p.Stars,
			Level:      1,
			CreatedAt:  tx.Now,
		}
		tx.Snap.Items[item.ID] = item
		tx.History(admin.ID, "created item %s", item.Name)
		tx.Broadcast("item_created", map[string]any{"item_id": item.ID})
		out = snapshotItem(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateItem edits display metadata and, as the sanctioned admin
// exception, the price. Progression state (stars, level) and ownership
// are not touched here.
func (l *Ledger) UpdateItem(ctx context.Context, adminID domain.UserID, itemID domain.ItemID, p ItemParams) (*domain.Item, error) {
	if p.Name == "" {
		return nil, Validationf("item name is required")
	}
	if p.Price.IsNegative() {
		return nil, Validationf("price must not be negative")
	}
	var out *domain.Item
	err := l.ser.Submit(ctx, func(tx *Tx) error {
		admin, err := requireAdmin(tx.Snap, adminID)
		if err != nil {
			return err
		}
		item, err := getItem(tx.Snap, itemID)
		if err != nil {
			return err
		}
		item.Name = p.Name
		item.Image = p.Image
		item.Collection = p.Collection
		item.Rating = p.Rating
		item.Price = p.Price
		tx.History(admin.ID, "edited item %s", item.Name)
		tx.Broadcast("item_updated", map[string]any{"item_id": item.ID})
		out = snapshotItem(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Transfer moves ownership unconditionally: the item leaves the current
// owner's set (if any) and joins the target's set in the same step.
func (l *Ledger) Transfer(ctx context.Context, adminID domain.UserID, itemID domain.ItemID, toID domain.UserID) (*domain.Item, error) {
	var out *domain.Item
	err := l.ser.Submit(ctx, func(tx *Tx) error {
		admin, err := requireAdmin(tx.Snap, adminID)
		if err != nil {
			return err
		}
		item, err := getItem(tx.Snap, itemID)
		if err != nil {
			return err
		}
		to, err := getUser(tx.Snap, toID)
		if err != nil {
			return err
		}
		if item.Owner != nil {
			if prev, ok := tx.Snap.Users[*item.Owner]; ok {
				prev.DropItem(item.ID)
			}
		}
		item.Owner = &to.ID
		to.Items = append(to.Items, item.ID)
		tx.History(admin.ID, "transferred %s to %s", item.Name, to.Username)

		tx.Notify(to.ID, "transfer", map[string]any{"item_id": item.ID, "name": item.Name})
		tx.Broadcast("item_transferred", map[string]any{"item_id": item.ID})
		out = snapshotItem(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Burn removes an item from its owner's set and deletes it entirely.
func (l *Ledger) Burn(ctx context.Context, adminID domain.UserID, itemID domain.ItemID) error {
	return l.ser.Submit(ctx, func(tx *Tx) error {
		admin, err := requireAdmin(tx.Snap, adminID)
		if err != nil {
			return err
		}
		item, err := getItem(tx.Snap, itemID)
		if err != nil {
			return err
		}
		if item.Owner != nil {
			if owner, ok := tx.Snap.Users[*item.Owner]; ok {
				owner.DropItem(item.ID)
			}
		}
		delete(tx.Snap.Items, item.ID)
		tx.History(admin.ID, "burned item %s", item.Name)
		tx.Broadcast("item_burned", map[string]any{"item_id": item.ID})
		return nil
	})
}

// AdjustBalance applies a signed delta to a user's balance, floored at
// zero. This is the one place a non-positive movement is clamped
// instead of rejected.
func (l *Ledger) AdjustBalance(ctx context.Context, adminID, userID domain.UserID, delta decimal.Decimal) (*domain.User, error) {
	if delta.IsZero() {
		return nil, Validationf("delta must not be zero")
	}
	var out *domain.User
	err := l.ser.Submit(ctx, func(tx *Tx) error {
		admin, err := requireAdmin(tx.Snap, adminID)
		if err != nil {
			return err
		}
		user, err := getUser(tx.Snap, userID)
		if err != nil {
			return err
		}
		user.Balance = user.Balance.Add(delta)
		if user.Balance.IsNegative() {
			user.Balance = decimal.Zero
		}
		direction := "credited"
		if delta.IsNegative() {
			direction = "debited"
		}
		tx.History(admin.ID, "%s %s by %s", direction, user.Username, delta.Abs())

		tx.Notify(user.ID, "balance_adjusted", map[string]any{
			"delta":   delta.String(),
			"balance": user.Balance.String(),
		})
		out = snapshotUser(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetBan flips the ban flag only; enforcement happens in the auth
// middleware.
func (l *Ledger) SetBan(ctx context.Context, adminID, userID domain.UserID, banned bool) error {
	return l.ser.Submit(ctx, func(tx *Tx) error {
		admin, err := requireAdmin(tx.Snap, adminID)
		if err != nil {
			return err
		}
		user, err := getUser(tx.Snap, userID)
		if err != nil {
			return err
		}
		user.Banned = banned
		verb := "unbanned"
		if banned {
			verb = "banned"
		}
		tx.History(admin.ID, "%s %s", verb, user.Username)
		return nil
	})
}
