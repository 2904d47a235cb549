package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cxls/internal/domain"
)

// Payment lifecycle: pending -> approved | rejected, resolved exactly
// once by an admin. Deposits touch the balance only on approval;
// withdrawals hold the funds at request time and refund on rejection,
// so two concurrent withdrawals can never spend the same balance.

// RequestDeposit creates a pending deposit. No balance effect yet.
func (l *Ledger) RequestDeposit(ctx context.Context, userID domain.UserID, amount decimal.Decimal) (*domain.Payment, error) {
	if !amount.IsPositive() {
		return nil, Validationf("amount must be greater than zero")
	}
	var out *domain.Payment
	err := l.ser.Submit(ctx, func(tx *Tx) error {
		user, err := getUser(tx.Snap, userID)
		if err != nil {
			return err
		}
		p := l.newPayment(tx, user.ID, domain.PaymentDeposit, amount)
		tx.Snap.Payments[p.ID] = p

		tx.Notify(user.ID, "deposit_requested", map[string]any{
			"payment_id": p.ID,
			"amount":     amount.String(),
		})
		tx.Broadcast("payment_requested", map[string]any{"payment_id": p.ID, "kind": p.Kind})
		out = snapshotPayment(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RequestWithdraw debits the requested amount immediately (the hold)
// and creates the pending record in the same unit of work. If the
// balance is short, no record is created at all.
func (l *Ledger) RequestWithdraw(ctx context.Context, userID domain.UserID, amount decimal.Decimal, address string) (*domain.Payment, error) {
	if !amount.IsPositive() {
		return nil, Validationf("amount must be greater than zero")
	}
	if address == "" {
		return nil, Validationf("destination address is required")
	}
	var out *domain.Payment
	err := l.ser.Submit(ctx, func(tx *Tx) error {
		user, err := getUser(tx.Snap, userID)
		if err != nil {
			return err
		}
		if user.Balance.LessThan(amount) {
			return Validationf("insufficient balance")
		}

		user.Balance = user.Balance.Sub(amount)
		p := l.newPayment(tx, user.ID, domain.PaymentWithdraw, amount)
		p.Address = address
		tx.Snap.Payments[p.ID] = p
		tx.History(user.ID, "withdrawal of %s requested, funds held", amount)

		tx.Notify(user.ID, "withdraw_requested", map[string]any{
			"payment_id": p.ID,
			"amount":     amount.String(),
		})
		tx.Broadcast("payment_requested", map[string]any{"payment_id": p.ID, "kind": p.Kind})
		out = snapshotPayment(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ResolvePayment moves a pending payment to its terminal state.
// Terminal states are immutable: a second resolution attempt is a
// conflict and changes nothing.
func (l *Ledger) ResolvePayment(ctx context.Context, adminID domain.UserID, paymentID domain.PaymentID, approve bool, note string) (*domain.Payment, error) {
	var out *domain.Payment
	err := l.ser.Submit(ctx, func(tx *Tx) error {
		admin, err := requireAdmin(tx.Snap, adminID)
		if err != nil {
			return err
		}
		p, ok := tx.Snap.Payments[paymentID]
		if !ok {
			return NotFoundf("payment %s not found", paymentID)
		}
		if p.Resolved() {
			return Conflictf("payment already processed")
		}
		user, err := getUser(tx.Snap, p.UserID)
		if err != nil {
			return err
		}

		switch {
		case p.Kind == domain.PaymentDeposit && approve:
			user.Balance = user.Balance.Add(p.Amount)
			tx.History(user.ID, "deposit of %s approved", p.Amount)
		case p.Kind == domain.PaymentDeposit && !approve:
			// nothing was held
			tx.History(user.ID, "deposit of %s rejected", p.Amount)
		case p.Kind == domain.PaymentWithdraw && approve:
			// funds were held at request time
			tx.History(user.ID, "withdrawal of %s approved to %s", p.Amount, p.Address)
		case p.Kind == domain.PaymentWithdraw && !approve:
			user.Balance = user.Balance.Add(p.Amount)
			tx.History(user.ID, "withdrawal of %s rejected, funds refunded", p.Amount)
		}

		if approve {
			p.Status = domain.PaymentApproved
		} else {
			p.Status = domain.PaymentRejected
		}
		p.ResolvedBy = &admin.ID
		resolvedAt := tx.Now
		p.ResolvedAt = &resolvedAt
		p.Note = note

		tx.Notify(user.ID, "payment_"+string(p.Status), map[string]any{
			"payment_id": p.ID,
			"kind":       p.Kind,
			"amount":     p.Amount.String(),
			"note":       note,
		})
		tx.Broadcast("payment_resolved", map[string]any{"payment_id": p.ID, "status": p.Status})
		out = snapshotPayment(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// newPayment freezes the fiat value from the static rate at request
// time; later rate changes never touch existing records.
func (l *Ledger) newPayment(tx *Tx, userID domain.UserID, kind domain.PaymentKind, amount decimal.Decimal) *domain.Payment {
	return &domain.Payment{
		ID:        domain.PaymentID(uuid.NewString()),
		UserID:    userID,
		Kind:      kind,
		Amount:    amount,
		FiatValue: amount.Mul(l.rate),
		Status:    domain.PaymentPending,
		CreatedAt: tx.Now,
	}
}
