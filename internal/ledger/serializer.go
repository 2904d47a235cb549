package ledger

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"cxls/internal/domain"
	"cxls/internal/store"
	"cxls/pkg/logger"
)

// EffectSink receives side effects of a committed unit of work.
// Delivery is best effort and must never fail the mutation.
type EffectSink interface {
	Notify(n domain.Notification)
	Broadcast(event string, payload map[string]any)
}

type effect struct {
	notification *domain.Notification
	event        string
	payload      map[string]any
}

// Tx is the working view handed to a unit of work. It mutates a private
// clone of the snapshot and buffers side effects; nothing becomes
// visible unless the unit of work returns nil and persistence succeeds.
type Tx struct {
	Snap *domain.Snapshot
	Now  time.Time

	effects []effect
}

// Notify appends a durable notification for the user and queues a live
// push for after commit.
func (t *Tx) Notify(userID domain.UserID, typ string, payload map[string]any) {
	n := &domain.Notification{
		ID:        domain.NotificationID(uuid.NewString()),
		UserID:    userID,
		Type:      typ,
		Payload:   payload,
		CreatedAt: t.Now,
	}
	t.Snap.Notifications = append(t.Snap.Notifications, n)
	t.effects = append(t.effects, effect{notification: n})
}

// Broadcast queues a market-wide observer event for after commit.
func (t *Tx) Broadcast(event string, payload map[string]any) {
	t.effects = append(t.effects, effect{event: event, payload: payload})
}

// History appends an audit entry. Entries are append-only.
func (t *Tx) History(userID domain.UserID, format string, args ...any) {
	t.Snap.History = append(t.Snap.History, &domain.HistoryEntry{
		UserID:    userID,
		Text:      fmt.Sprintf(format, args...),
		CreatedAt: t.Now,
	})
}

type submission struct {
	fn    func(*Tx) error
	reply chan error
}

// Serializer is the single path every mutation takes: one goroutine
// applies units of work against the snapshot in arrival order, persists
// through the store, and only then publishes the result and flushes
// buffered effects.
type Serializer struct {
	store store.Store
	sink  EffectSink

	cur  atomic.Pointer[domain.Snapshot]
	subs chan submission
	done chan struct{}

	// guards closed so Close cannot race a Submit send
	mu     sync.RWMutex
	closed bool
}

// NewSerializer loads the last persisted snapshot (seeding an empty one
// on first run) and starts the writer loop.
func NewSerializer(st store.Store, sink EffectSink) (*Serializer, error) {
	snap, err := st.Load()
	if err != nil {
		return nil, err
	}
	if snap == nil {
		snap = domain.NewSnapshot()
		if err := st.Replace(context.Background(), snap); err != nil {
			return nil, err
		}
	}
	s := &Serializer{
		store: st,
		sink:  sink,
		subs:  make(chan submission, 64),
		done:  make(chan struct{}),
	}
	s.cur.Store(snap)
	go s.run()
	return s, nil
}

// Close stops the writer loop. Pending submissions are applied first;
// calling Close more than once is a no-op.
func (s *Serializer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.subs)
	s.mu.Unlock()
	<-s.done
}

// Submit queues a unit of work and waits for its outcome. A caller-side
// ctx timeout abandons the wait only: an admitted unit still runs to
// completion and is not rolled back.
func (s *Serializer) Submit(ctx context.Context, fn func(*Tx) error) error {
	sub := submission{fn: fn, reply: make(chan error, 1)}
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return internalf("serializer is closed")
	}
	select {
	case s.subs <- sub:
		s.mu.RUnlock()
	case <-ctx.Done():
		s.mu.RUnlock()
		return ctx.Err()
	}
	select {
	case err := <-sub.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View runs fn against the last committed snapshot. Committed snapshots
// are immutable, so reads take no lock; fn must not mutate or retain it.
func (s *Serializer) View(fn func(*domain.Snapshot)) {
	fn(s.cur.Load())
}

func (s *Serializer) run() {
	defer close(s.done)
	for sub := range s.subs {
		sub.reply <- s.apply(sub.fn)
	}
}

func (s *Serializer) apply(fn func(*Tx) error) error {
	tx := &Tx{Snap: s.cur.Load().Clone(), Now: time.Now()}

	if err := runUnit(fn, tx); err != nil {
		return err
	}

	tx.Snap.UpdatedAt = tx.Now
	if err := s.store.Replace(context.Background(), tx.Snap); err != nil {
		logger.Errorf("snapshot persist failed, reverting: %v", err)
		return internalf("persist snapshot: %v", err)
	}
	s.cur.Store(tx.Snap)

	if s.sink != nil {
		for _, ef := range tx.effects {
			if ef.notification != nil {
				s.sink.Notify(*ef.notification)
			} else {
				s.sink.Broadcast(ef.event, ef.payload)
			}
		}
	}
	return nil
}

// runUnit isolates the panic recovery so a broken unit of work surfaces
// as an internal error instead of taking the writer loop down.
func runUnit(fn func(*Tx) error, tx *Tx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("unit of work panicked: %v", r)
			err = internalf("unit of work panicked: %v", r)
		}
	}()
	return fn(tx)
}
