package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"cxls/internal/domain"
)

func openTestBolt(t *testing.T) *Bolt {
	t.Helper()
	s, err := OpenBolt(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBoltLoadEmpty(t *testing.T) {
	s := openTestBolt(t)

	snap, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap != nil {
		t.Fatal("expected nil snapshot from a fresh file")
	}
}

func TestBoltRoundtrip(t *testing.T) {
	s := openTestBolt(t)

	in := domain.NewSnapshot()
	in.Users["u1"] = &domain.User{
		ID:       "u1",
		Username: "alice",
		Balance:  decimal.RequireFromString("12.5"),
		Items:    []domain.ItemID{"i1"},
	}
	owner := domain.UserID("u1")
	in.Items["i1"] = &domain.Item{
		ID:    "i1",
		Name:  "comet",
		Price: decimal.RequireFromString("5"),
		Stars: 3,
		Level: 2,
		Owner: &owner,
	}

	if err := s.Replace(context.Background(), in); err != nil {
		t.Fatalf("replace: %v", err)
	}
	out, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out == nil {
		t.Fatal("expected a snapshot back")
	}
	u := out.Users["u1"]
	if u == nil || u.Username != "alice" || !u.Balance.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("user did not survive the roundtrip: %+v", u)
	}
	it := out.Items["i1"]
	if it == nil || it.Owner == nil || *it.Owner != "u1" || it.Stars != 3 || it.Level != 2 {
		t.Fatalf("item did not survive the roundtrip: %+v", it)
	}
}

func TestBoltReplaceOverwrites(t *testing.T) {
	s := openTestBolt(t)

	first := domain.NewSnapshot()
	first.Users["u1"] = &domain.User{ID: "u1", Username: "alice"}
	if err := s.Replace(context.Background(), first); err != nil {
		t.Fatalf("replace: %v", err)
	}

	second := domain.NewSnapshot()
	second.Users["u2"] = &domain.User{ID: "u2", Username: "bob"}
	if err := s.Replace(context.Background(), second); err != nil {
		t.Fatalf("replace: %v", err)
	}

	out, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := out.Users["u1"]; ok {
		t.Fatal("stale record survived a whole-document replace")
	}
	if _, ok := out.Users["u2"]; !ok {
		t.Fatal("latest document missing")
	}
}

func TestBoltSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.db")

	s, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	snap := domain.NewSnapshot()
	snap.Users["u1"] = &domain.User{ID: "u1", Username: "alice"}
	if err := s.Replace(context.Background(), snap); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	out, err := s2.Load()
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	if out == nil || out.Users["u1"] == nil {
		t.Fatal("snapshot lost across reopen")
	}
}
