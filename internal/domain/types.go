package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type UserID string
type ItemID string
type PaymentID string
type NotificationID string

// SystemUser marks history entries written by the platform itself
// rather than on behalf of a user.
const SystemUser UserID = "system"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID        UserID          `json:"id"`
	Username  string          `json:"username"`
	Display   string          `json:"display"`
	Contact   string          `json:"contact"`
	PassHash  string          `json:"pass_hash"` // owned by the auth layer, opaque here
	Role      Role            `json:"role"`
	Balance   decimal.Decimal `json:"balance"`
	Items     []ItemID        `json:"items"`
	GiftCount int             `json:"gift_count"`
	Banned    bool            `json:"banned"`
	CreatedAt time.Time       `json:"created_at"`
}

// OwnsItem reports whether id is in the user's owned set.
func (u *User) OwnsItem(id ItemID) bool {
	for _, it := range u.Items {
		if it == id {
			return true
		}
	}
	return false
}

// DropItem removes id from the owned set, if present.
func (u *User) DropItem(id ItemID) {
	for i, it := range u.Items {
		if it == id {
			u.Items = append(u.Items[:i], u.Items[i+1:]...)
			return
		}
	}
}

type Item struct {
	ID         ItemID          `json:"id"`
	Name       string          `json:"name"`
	Image      string          `json:"image"`
	Collection string          `json:"collection"`
	Rating     int             `json:"rating"`
	Price      decimal.Decimal `json:"price"`
	Stars      int             `json:"stars"` // only ever decreases, floor 0
	Level      int             `json:"level"` // only ever increases
	Owner      *UserID         `json:"owner,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type PaymentKind string

const (
	PaymentDeposit  PaymentKind = "deposit"
	PaymentWithdraw PaymentKind = "withdraw"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

type Payment struct {
	ID        PaymentID       `json:"id"`
	UserID    UserID          `json:"user_id"`
	Kind      PaymentKind     `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	FiatValue decimal.Decimal `json:"fiat_value"` // frozen at request time
	Address   string          `json:"address,omitempty"`
	Status    PaymentStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`

	// Set exactly once, when the payment leaves pending.
	ResolvedBy *UserID    `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	Note       string     `json:"note,omitempty"`
}

// Resolved reports whether the payment reached a terminal state.
func (p *Payment) Resolved() bool { return p.Status != PaymentPending }

type HistoryEntry struct {
	UserID    UserID    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type Notification struct {
	ID        NotificationID `json:"id"`
	UserID    UserID         `json:"user_id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"created_at"`
}
