package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"cxls/internal/domain"
	"cxls/internal/store"
)

// recordingSink captures flushed effects in order.
type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingSink) Notify(n domain.Notification) {
	r.mu.Lock()
	r.events = append(r.events, "notify:"+n.Type)
	r.mu.Unlock()
}

func (r *recordingSink) Broadcast(event string, payload map[string]any) {
	r.mu.Lock()
	r.events = append(r.events, "broadcast:"+event)
	r.mu.Unlock()
}

func (r *recordingSink) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// failingStore lets a test flip persistence failure on.
type failingStore struct {
	*store.Memory
	mu   sync.Mutex
	fail bool
}

func (f *failingStore) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func (f *failingStore) Replace(ctx context.Context, snap *domain.Snapshot) error {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return f.Memory.Replace(ctx, snap)
}

func newTestSerializer(t *testing.T) (*Serializer, *store.Memory, *recordingSink) {
	t.Helper()
	mem := store.NewMemory()
	sink := &recordingSink{}
	ser, err := NewSerializer(mem, sink)
	if err != nil {
		t.Fatalf("failed to start serializer: %v", err)
	}
	t.Cleanup(ser.Close)
	return ser, mem, sink
}

func TestSubmitPersistsBeforeEffects(t *testing.T) {
	ser, mem, sink := newTestSerializer(t)

	err := ser.Submit(context.Background(), func(tx *Tx) error {
		tx.Snap.Users["u1"] = &domain.User{ID: "u1", Username: "alice"}
		tx.Notify("u1", "hello", nil)
		tx.Broadcast("user_created", nil)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := sink.all()
	want := []string{"notify:hello", "broadcast:user_created"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected effects %v in order, got %v", want, got)
	}

	snap, err := mem.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Users["u1"] == nil {
		t.Fatal("mutation was not persisted")
	}
	if len(snap.Notifications) != 1 {
		t.Fatalf("expected 1 durable notification, got %d", len(snap.Notifications))
	}
}

func TestRejectedUnitLeavesStoreUntouched(t *testing.T) {
	ser, mem, sink := newTestSerializer(t)

	if err := ser.Submit(context.Background(), func(tx *Tx) error {
		tx.Snap.Users["u1"] = &domain.User{ID: "u1", Username: "alice"}
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	before := mem.Bytes()
	effectsBefore := len(sink.all())

	err := ser.Submit(context.Background(), func(tx *Tx) error {
		tx.Snap.Users["u2"] = &domain.User{ID: "u2"}
		tx.Notify("u2", "never", nil)
		return Validationf("nope")
	})
	if ClassOf(err) != ClassValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	if !bytes.Equal(before, mem.Bytes()) {
		t.Fatal("durable document changed after a rejected unit of work")
	}
	if len(sink.all()) != effectsBefore {
		t.Fatal("effects leaked from a rejected unit of work")
	}
	ser.View(func(s *domain.Snapshot) {
		if _, ok := s.Users["u2"]; ok {
			t.Fatal("rejected mutation visible in committed snapshot")
		}
	})
}

func TestPersistenceFailureReverts(t *testing.T) {
	fs := &failingStore{Memory: store.NewMemory()}
	sink := &recordingSink{}
	ser, err := NewSerializer(fs, sink)
	if err != nil {
		t.Fatalf("failed to start serializer: %v", err)
	}
	t.Cleanup(ser.Close)

	if err := ser.Submit(context.Background(), func(tx *Tx) error {
		tx.Snap.Users["u1"] = &domain.User{ID: "u1"}
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	before := fs.Bytes()

	fs.setFail(true)
	err = ser.Submit(context.Background(), func(tx *Tx) error {
		tx.Snap.Users["u2"] = &domain.User{ID: "u2"}
		tx.Notify("u2", "never", nil)
		return nil
	})
	if err == nil {
		t.Fatal("expected persistence failure to surface")
	}
	if ClassOf(err) != ClassInternal {
		t.Fatalf("expected internal error, got %v", err)
	}

	if !bytes.Equal(before, fs.Bytes()) {
		t.Fatal("durable document changed despite failed persistence")
	}
	for _, ev := range sink.all() {
		if ev == "notify:never" {
			t.Fatal("effect flushed despite failed persistence")
		}
	}

	// the serializer keeps working once the store recovers
	fs.setFail(false)
	if err := ser.Submit(context.Background(), func(tx *Tx) error {
		tx.Snap.Users["u3"] = &domain.User{ID: "u3"}
		return nil
	}); err != nil {
		t.Fatalf("submit after recovery: %v", err)
	}
	ser.View(func(s *domain.Snapshot) {
		if _, ok := s.Users["u2"]; ok {
			t.Fatal("failed mutation became visible")
		}
		if _, ok := s.Users["u3"]; !ok {
			t.Fatal("mutation after recovery missing")
		}
	})
}

func TestPanicSurfacesAsInternalError(t *testing.T) {
	ser, _, _ := newTestSerializer(t)

	err := ser.Submit(context.Background(), func(tx *Tx) error {
		panic("boom")
	})
	if ClassOf(err) != ClassInternal {
		t.Fatalf("expected internal error from panic, got %v", err)
	}

	// loop must survive the panic
	if err := ser.Submit(context.Background(), func(tx *Tx) error { return nil }); err != nil {
		t.Fatalf("serializer dead after panic: %v", err)
	}
}

func TestSubmissionOrderIsApplied(t *testing.T) {
	ser, _, _ := newTestSerializer(t)

	const n = 50
	for i := 0; i < n; i++ {
		i := i
		if err := ser.Submit(context.Background(), func(tx *Tx) error {
			tx.History(domain.SystemUser, "entry %d", i)
			return nil
		}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	ser.View(func(s *domain.Snapshot) {
		if len(s.History) != n {
			t.Fatalf("expected %d history entries, got %d", n, len(s.History))
		}
		for i, h := range s.History {
			if want := fmt.Sprintf("entry %d", i); h.Text != want {
				t.Fatalf("entry %d out of order: %q", i, h.Text)
			}
		}
	})
}

func TestSubmitAfterCloseFailsCleanly(t *testing.T) {
	mem := store.NewMemory()
	ser, err := NewSerializer(mem, &recordingSink{})
	if err != nil {
		t.Fatalf("failed to start serializer: %v", err)
	}
	ser.Close()
	ser.Close() // second call is a no-op

	err = ser.Submit(context.Background(), func(tx *Tx) error { return nil })
	if ClassOf(err) != ClassInternal {
		t.Fatalf("expected internal error after close, got %v", err)
	}
}

func TestSubmitRacingCloseDoesNotPanic(t *testing.T) {
	mem := store.NewMemory()
	ser, err := NewSerializer(mem, &recordingSink{})
	if err != nil {
		t.Fatalf("failed to start serializer: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ser.Submit(context.Background(), func(tx *Tx) error {
				tx.History(domain.SystemUser, "tick")
				return nil
			})
		}()
	}
	ser.Close()
	wg.Wait()
}

func TestConcurrentSubmitsAllApply(t *testing.T) {
	ser, _, _ := newTestSerializer(t)

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ser.Submit(context.Background(), func(tx *Tx) error {
				tx.History(domain.SystemUser, "tick")
				return nil
			})
		}()
	}
	wg.Wait()

	ser.View(func(s *domain.Snapshot) {
		if len(s.History) != n {
			t.Fatalf("expected %d entries, got %d", n, len(s.History))
		}
	})
}
