package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ruteri/balancer-helper-registry/interfaces"
)

// SnapshotSource provides the state to persist. *registry.Registry satisfies it.
type SnapshotSource interface {
	Snapshot() *interfaces.RegistrySnapshot
}

// Restorer accepts a persisted state. *registry.Registry satisfies it.
type Restorer interface {
	Restore(snapshot *interfaces.RegistrySnapshot) error
}

// Snapshotter saves the registry state after every committed mutation.
type Snapshotter struct {
	store   interfaces.SnapshotStore
	source  SnapshotSource
	log     *slog.Logger
	timeout time.Duration
}

func NewSnapshotter(store interfaces.SnapshotStore, source SnapshotSource, log *slog.Logger, timeout time.Duration) *Snapshotter {
	return &Snapshotter{
		store:   store,
		source:  source,
		log:     log,
		timeout: timeout,
	}
}

// Run consumes events until ctx is done or events is closed. Events that
// queued up while a save was running are coalesced into a single save of
// the complete current state. Mutations still
// queued when ctx is done are saved before Run returns.
//
// Saves are not cut short by ctx; the configured timeout bounds them.
func (s *Snapshotter) Run(ctx context.Context, events <-chan interfaces.Event) {
	saveCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			if dirty, _ := drainEvents(events); dirty {
				s.save(saveCtx)
			}
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			dirty, closed := drainEvents(events)
			if dirty || ev.IsMutation() {
				s.save(saveCtx)
			}
			if closed {
				return
			}
		}
	}
}

// drainEvents consumes the events already queued without blocking.
func drainEvents(events <-chan interfaces.Event) (dirty, closed bool) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return dirty, true
			}
			dirty = dirty || ev.IsMutation()
		default:
			return dirty, false
		}
	}
}

// SaveNow persists the current state.
func (s *Snapshotter) SaveNow(ctx context.Context) error {
	snapshot := s.source.Snapshot()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.store.Save(ctx, snapshot)
}

func (s *Snapshotter) save(ctx context.Context) {
	if err := s.SaveNow(ctx); err != nil {
		s.log.Error("Failed to save registry snapshot", "location", s.store.LocationURI(), "err", err)
		return
	}
	s.log.Debug("Saved registry snapshot", "location", s.store.LocationURI())
}

// LoadSnapshot returns the stored snapshot, or nil with no error if the
// store holds none.
func LoadSnapshot(ctx context.Context, store interfaces.SnapshotStore) (*interfaces.RegistrySnapshot, error) {
	snapshot, err := store.Load(ctx)
	if errors.Is(err, interfaces.ErrSnapshotNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// RestoreFrom loads the stored snapshot into target. It reports false with
// no error if the store holds no snapshot.
func RestoreFrom(ctx context.Context, store interfaces.SnapshotStore, target Restorer) (bool, error) {
	snapshot, err := LoadSnapshot(ctx, store)
	if err != nil || snapshot == nil {
		return false, err
	}

	if err := target.Restore(snapshot); err != nil {
		return false, err
	}
	return true, nil
}
