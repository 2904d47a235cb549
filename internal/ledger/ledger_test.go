package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"cxls/internal/domain"
	"cxls/internal/store"
)

func newTestLedger(t *testing.T) (*Ledger, *recordingSink) {
	t.Helper()
	mem := store.NewMemory()
	sink := &recordingSink{}
	ser, err := NewSerializer(mem, sink)
	if err != nil {
		t.Fatalf("failed to start serializer: %v", err)
	}
	t.Cleanup(ser.Close)
	return New(ser, decimal.RequireFromString("1.85")), sink
}

func seedUser(t *testing.T, led *Ledger, username string, role domain.Role, balance string) *domain.User {
	t.Helper()
	u, err := led.RegisterUser(context.Background(), username, username, "", "x", role)
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	if balance != "" && balance != "0" {
		if err := led.ser.Submit(context.Background(), func(tx *Tx) error {
			tx.Snap.Users[u.ID].Balance = decimal.RequireFromString(balance)
			return nil
		}); err != nil {
			t.Fatalf("seed balance: %v", err)
		}
	}
	return u
}

func seedItem(t *testing.T, led *Ledger, admin *domain.User, name, price string, stars int) *domain.Item {
	t.Helper()
	item, err := led.CreateItem(context.Background(), admin.ID, ItemParams{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stars: stars,
	})
	if err != nil {
		t.Fatalf("create item %s: %v", name, err)
	}
	return item
}

func balanceOf(t *testing.T, led *Ledger, id domain.UserID) decimal.Decimal {
	t.Helper()
	u, err := led.GetUser(id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	return u.Balance
}

func TestBuyDebitsAndTransfersOwnership(t *testing.T) {
	led, _ := newTestLedger(t)
	admin := seedUser(t, led, "admin", domain.RoleAdmin, "0")
	alice := seedUser(t, led, "alice", domain.RoleUser, "5")
	item := seedItem(t, led, admin, "comet", "5", 3)

	got, err := led.Buy(context.Background(), alice.ID, item.ID)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if got.Owner == nil || *got.Owner != alice.ID {
		t.Fatal("item owner not set to buyer")
	}
	if !balanceOf(t, led, alice.ID).IsZero() {
		t.Fatalf("expected zero balance, got %s", balanceOf(t, led, alice.ID))
	}

	u, _ := led.GetUser(alice.ID)
	if !u.OwnsItem(item.ID) {
		t.Fatal("item missing from buyer's owned set")
	}
	if entries := led.HistoryFor(alice.ID, 0); len(entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(entries))
	}
}

func TestBuyInsufficientBalance(t *testing.T) {
	led, _ := newTestLedger(t)
	admin := seedUser(t, led, "admin", domain.RoleAdmin, "0")
	alice := seedUser(t, led, "alice", domain.RoleUser, "4")
	item := seedItem(t, led, admin, "comet", "5", 0)

	_, err := led.Buy(context.Background(), alice.ID, item.ID)
	if ClassOf(err) != ClassValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !balanceOf(t, led, alice.ID).Equal(decimal.RequireFromString("4")) {
		t.Fatal("balance changed on rejected buy")
	}
	got, _ := led.GetItem(item.ID)
	if got.Owner != nil {
		t.Fatal("ownership changed on rejected buy")
	}
}

func TestBuyAlreadySoldConflicts(t *testing.T) {
	led, _ := newTestLedger(t)
	admin := seedUser(t, led, "admin", domain.RoleAdmin, "0")
	alice := seedUser(t, led, "alice", domain.RoleUser, "5")
	bob := seedUser(t, led, "bob", domain.RoleUser, "5")
	item := seedItem(t, led, admin, "comet", "5", 0)

	if _, err := led.Buy(context.Background(), alice.ID, item.ID); err != nil {
		t.Fatalf("first buy: %v", err)
	}
	_, err := led.Buy(context.Background(), bob.ID, item.ID)
	if ClassOf(err) != ClassConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	got, _ := led.GetItem(item.ID)
	if got.Owner == nil || *got.Owner != alice.ID {
		t.Fatal("owner changed by losing buyer")
	}
	if !balanceOf(t, led, bob.ID).Equal(decimal.RequireFromString("5")) {
		t.Fatal("losing buyer was debited")
	}
}

func TestConcurrentBuyExactlyOneWins(t *testing.T) {
	led, _ := newTestLedger(t)
	admin := seedUser(t, led, "admin", domain.RoleAdmin, "0")
	alice := seedUser(t, led, "alice", domain.RoleUser, "10")
	bob := seedUser(t, led, "bob", domain.RoleUser, "10")
	item := seedItem(t, led, admin, "comet", "10", 0)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, uid := range []domain.UserID{alice.ID, bob.ID} {
		wg.Add(1)
		go func(i int, uid domain.UserID) {
			defer wg.Done()
			_, errs[i] = led.Buy(context.Background(), uid, item.ID)
		}(i, uid)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case ClassOf(err) == ClassConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("expected 1 win and 1 conflict, got %d/%d", wins, conflicts)
	}
	got, _ := led.GetItem(item.ID)
	if got.Owner == nil || (*got.Owner != alice.ID && *got.Owner != bob.ID) {
		t.Fatal("final owner is not one of the two buyers")
	}
}

func TestGiftDebitsInitiatorAndCreditsTarget(t *testing.T) {
	led, _ := newTestLedger(t)
	admin := seedUser(t, led, "admin", domain.RoleAdmin, "0")
	alice := seedUser(t, led, "alice", domain.RoleUser, "7")
	bob := seedUser(t, led, "bob", domain.RoleUser, "0")
	item := seedItem(t, led, admin, "nova", "7", 0)

	if _, err := led.Gift(context.Background(), alice.ID, bob.ID, item.ID); err != nil {
		t.Fatalf("gift: %v", err)
	}
	if !balanceOf(t, led, alice.ID).IsZero() {
		t.Fatal("initiator not debited")
	}
	b, _ := led.GetUser(bob.ID)
	if !b.OwnsItem(item.ID) {
		t.Fatal("target did not receive the item")
	}
	if b.GiftCount != 1 {
		t.Fatalf("expected gift count 1, got %d", b.GiftCount)
	}
	if len(led.HistoryFor(alice.ID, 0)) != 1 || len(led.HistoryFor(bob.ID, 0)) != 1 {
		t.Fatal("expected one history entry per side")
	}
}

func TestGiftToSelfRejected(t *testing.T) {
	led, _ := newTestLedger(t)
	admin := seedUser(t, led, "admin", domain.RoleAdmin, "0")
	alice := seedUser(t, led, "alice", domain.RoleUser, "7")
	item := seedItem(t, led, admin, "nova", "7", 0)

	_, err := led.Gift(context.Background(), alice.ID, alice.ID, item.ID)
	if ClassOf(err) != ClassValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// The admin gift charges the recipient, not the admin. The asymmetry
// is deliberate product behavior.
func TestAdminGiftDebitsRecipient(t *testing.T) {
	led, _ := newTestLedger(t)
	admin := seedUser(t, led, "admin", domain.RoleAdmin, "100")
	bob := seedUser(t, led, "bob", domain.RoleUser, "7")
	item := seedItem(t, led, admin, "nova", "7", 0)

	if _, err := led.AdminGift(context.Background(), admin.ID, bob.ID, item.ID); err != nil {
		t.Fatalf("admin gift: %v", err)
	}
	if !balanceOf(t, led, bob.ID).IsZero() {
		t.Fatal("recipient was not debited")
	}
	if !balanceOf(t, led, admin.ID).Equal(decimal.RequireFromString("100")) {
		t.Fatal("admin balance changed")
	}
}

func TestAdminGiftRequiresAdmin(t *testing.T) {
	led, _ := newTestLedger(t)
	admin := seedUser(t, led, "admin", domain.RoleAdmin, "0")
	alice := seedUser(t, led, "alice", domain.RoleUser, "10")
	bob := seedUser(t, led, "bob", domain.RoleUser, "10")
	item := seedItem(t, led, admin, "nova", "7", 0)

	_, err := led.AdminGift(context.Background(), alice.ID, bob.ID, item.ID)
	if ClassOf(err) != ClassForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpgradeMonotonicProgression(t *testing.T) {
	led, _ := newTestLedger(t)
	admin := seedUser(t, led, "admin", domain.RoleAdmin, "0")
	alice := seedUser(t, led, "alice", domain.RoleUser, "5")
	item := seedItem(t, led, admin, "comet", "5", 2)

	if _, err := led.Buy(context.Background(), alice.ID, item.ID); err != nil {
		t.Fatalf("buy: %v", err)
	}

	prevStars, prevLevel := 2, 1
	for i := 0; i < 5; i++ {
		got, err := led.Upgrade(context.Background(), alice.ID, item.ID)
		if err != nil {
			t.Fatalf("upgrade %d: %v", i, err)
		}
		if got.Stars > prevStars {
			t.Fatalf("stars increased: %d -> %d", prevStars, got.Stars)
		}
		if got.Stars < 0 {
			t.Fatalf("stars went negative: %d", got.Stars)
		}
		if got.Level <= prevLevel {
			t.Fatalf("level did not increase: %d -> %d", prevLevel, got.Level)
		}
		prevStars, prevLevel = got.Stars, got.Level
	}
	if prevStars != 0 {
		t.Fatalf("expected stars floored at 0, got %d", prevStars)
	}
}

func TestUpgradeRequiresOwnership(t *testing.T) {
	led, _ := newTestLedger(t)
	admin := seedUser(t, led, "admin", domain.RoleAdmin, "0")
	alice := seedUser(t, led, "alice", domain.RoleUser, "5")
	item := seedItem(t, led, admin, "comet", "5", 1)

	_, err := led.Upgrade(context.Background(), alice.ID, item.ID)
	if ClassOf(err) != ClassForbidden {
		t.Fatalf("expected forbidden on unowned item, got %v", err)
	}
}

func TestTransferMovesBothSides(t *testing.T) {
	led, _ := newTestLedger(t)
	admin := seedUser(t, led, "admin", domain.RoleAdmin, "0")
	alice := seedUser(t, led, "alice", domain.RoleUser, "5")
	bob := seedUser(t, led, "bob", domain.RoleUser, "0")
	item := seedItem(t, led, admin, "comet", "5", 0)

	if _, err := led.Buy(context.Background(), alice.ID, item.ID); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if _, err := led.Transfer(context.Background(), admin.ID, item.ID, bob.ID); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	a, _ := led.GetUser(alice.ID)
	b, _ := led.GetUser(bob.ID)
	if a.OwnsItem(item.ID) {
		t.Fatal("item still in previous owner's set")
	}
	if !b.OwnsItem(item.ID) {
		t.Fatal("item missing from new owner's set")
	}
	got, _ := led.GetItem(item.ID)
	if got.Owner == nil || *got.Owner != bob.ID {
		t.Fatal("owner reference not updated")
	}
}

func TestBurnRemovesItemEntirely(t *testing.T) {
	led, _ := newTestLedger(t)
	admin := seedUser(t, led, "admin", domain.RoleAdmin, "0")
	alice := seedUser(t, led, "alice", domain.RoleUser, "5")
	item := seedItem(t, led, admin, "comet", "5", 0)

	if _, err := led.Buy(context.Background(), alice.ID, item.ID); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if err := led.Burn(context.Background(), admin.ID, item.ID); err != nil {
		t.Fatalf("burn: %v", err)
	}

	if _, err := led.GetItem(item.ID); ClassOf(err) != ClassNotFound {
		t.Fatalf("expected not-found after burn, got %v", err)
	}
	a, _ := led.GetUser(alice.ID)
	if a.OwnsItem(item.ID) {
		t.Fatal("burned item still in owner's set")
	}
}

func TestAdjustBalanceFloorsAtZero(t *testing.T) {
	led, _ := newTestLedger(t)
	admin := seedUser(t, led, "admin", domain.RoleAdmin, "0")
	alice := seedUser(t, led, "alice", domain.RoleUser, "3")

	u, err := led.AdjustBalance(context.Background(), admin.ID, alice.ID, decimal.RequireFromString("-10"))
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if !u.Balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", u.Balance)
	}

	u, err = led.AdjustBalance(context.Background(), admin.ID, alice.ID, decimal.RequireFromString("2.5"))
	if err != nil {
		t.Fatalf("adjust credit: %v", err)
	}
	if !u.Balance.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("expected 2.5, got %s", u.Balance)
	}
}

func TestSetBanFlagOnly(t *testing.T) {
	led, _ := newTestLedger(t)
	admin := seedUser(t, led, "admin", domain.RoleAdmin, "0")
	alice := seedUser(t, led, "alice", domain.RoleUser, "3")

	if err := led.SetBan(context.Background(), admin.ID, alice.ID, true); err != nil {
		t.Fatalf("ban: %v", err)
	}
	u, _ := led.GetUser(alice.ID)
	if !u.Banned {
		t.Fatal("ban flag not set")
	}
	if !u.Balance.Equal(decimal.RequireFromString("3")) {
		t.Fatal("ban changed the balance")
	}
}

func TestUpdateItemPriceIsSanctionedException(t *testing.T) {
	led, _ := newTestLedger(t)
	admin := seedUser(t, led, "admin", domain.RoleAdmin, "0")
	item := seedItem(t, led, admin, "comet", "5", 1)

	got, err := led.UpdateItem(context.Background(), admin.ID, item.ID, ItemParams{
		Name:  "comet",
		Price: decimal.RequireFromString("9"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.Price.Equal(decimal.RequireFromString("9")) {
		t.Fatalf("price not updated, got %s", got.Price)
	}
	if got.Stars != 1 || got.Level != 1 {
		t.Fatal("progression state touched by metadata edit")
	}
}

// Entries written in one unit of work share the same timestamp; their
// relative order must still be deterministic across reads.
func TestHistoryOrderStableForEqualTimestamps(t *testing.T) {
	led, _ := newTestLedger(t)
	alice := seedUser(t, led, "alice", domain.RoleUser, "0")

	if err := led.ser.Submit(context.Background(), func(tx *Tx) error {
		tx.History(alice.ID, "first")
		tx.History(alice.ID, "second")
		tx.History(alice.ID, "third")
		return nil
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	first := led.HistoryFor(alice.ID, 0)
	if len(first) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(first))
	}
	for i := 0; i < 10; i++ {
		again := led.HistoryFor(alice.ID, 0)
		for j := range first {
			if again[j].Text != first[j].Text {
				t.Fatalf("read %d: order changed at %d: %q vs %q", i, j, again[j].Text, first[j].Text)
			}
		}
	}
}

func TestDuplicateUsernameConflicts(t *testing.T) {
	led, _ := newTestLedger(t)
	seedUser(t, led, "alice", domain.RoleUser, "0")

	_, err := led.RegisterUser(context.Background(), "alice", "", "", "x", domain.RoleUser)
	if ClassOf(err) != ClassConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}
