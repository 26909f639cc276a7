package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/balancer-helper-registry/interfaces"
)

// MultiSnapshotStore implements interfaces.SnapshotStore over several stores.
type MultiSnapshotStore struct {
	stores []interfaces.SnapshotStore
	log    *slog.Logger
}

func NewMultiSnapshotStore(stores []interfaces.SnapshotStore, logger *slog.Logger) *MultiSnapshotStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiSnapshotStore{
		stores: stores,
		log:    logger,
	}
}

// Load returns the snapshot from the first store that has one. It returns
// ErrSnapshotNotFound only if every store reported it missing.
func (m *MultiSnapshotStore) Load(ctx context.Context) (*interfaces.RegistrySnapshot, error) {
	start := time.Now()
	var errs []error

	for _, store := range m.stores {
		snapshot, err := store.Load(ctx)
		if err == nil {
			m.log.Info("Loaded snapshot",
				slog.String("location", store.LocationURI()),
				slog.Duration("duration", time.Since(start)))
			return snapshot, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", store.LocationURI(), err))
		m.log.Debug("Failed to load from store",
			slog.String("location", store.LocationURI()),
			"err", err)
	}

	notFound := true
	for _, err := range errs {
		if !errors.Is(err, interfaces.ErrSnapshotNotFound) {
			notFound = false
		}
	}
	if notFound {
		return nil, interfaces.ErrSnapshotNotFound
	}

	return nil, fmt.Errorf("all stores failed to load snapshot: %w", errors.Join(errs...))
}

// Save writes to every store. It succeeds if at least one store succeeded.
func (m *MultiSnapshotStore) Save(ctx context.Context, snapshot *interfaces.RegistrySnapshot) error {
	var errs []error
	saved := 0

	for _, store := range m.stores {
		if err := store.Save(ctx, snapshot); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", store.LocationURI(), err))
			m.log.Warn("Failed to save to store",
				slog.String("location", store.LocationURI()),
				"err", err)
			continue
		}
		saved++
	}

	if saved == 0 {
		return fmt.Errorf("all stores failed to save snapshot: %w", errors.Join(errs...))
	}
	return nil
}

// LocationURI returns the combined URIs of all stores.
func (m *MultiSnapshotStore) LocationURI() string {
	locations := make([]string, 0, len(m.stores))
	for _, store := range m.stores {
		locations = append(locations, store.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}
