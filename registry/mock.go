package registry

import (
	"context"
	"sync"

	"github.com/ruteri/balancer-helper-registry/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockCodeInspector mocks the CodeInspector interface
type MockCodeInspector struct {
	mock.Mock
}

// HasCode mocks the HasCode method
func (m *MockCodeInspector) HasCode(ctx context.Context, addr interfaces.ContractAddress) (bool, error) {
	args := m.Called(ctx, addr)
	return args.Bool(0), args.Error(1)
}

// MockVaultNotifier mocks the VaultNotifier interface
type MockVaultNotifier struct {
	mock.Mock
}

// NotifyPaused mocks the NotifyPaused method
func (m *MockVaultNotifier) NotifyPaused(ctx context.Context, vault interfaces.ContractAddress, pools []interfaces.ContractAddress) error {
	args := m.Called(ctx, vault, pools)
	return args.Error(0)
}

// MockSnapshotStore mocks the SnapshotStore interface
type MockSnapshotStore struct {
	mock.Mock
}

// Load mocks the Load method
func (m *MockSnapshotStore) Load(ctx context.Context) (*interfaces.RegistrySnapshot, error) {
	args := m.Called(ctx)
	snapshot, _ := args.Get(0).(*interfaces.RegistrySnapshot)
	return snapshot, args.Error(1)
}

// Save mocks the Save method
func (m *MockSnapshotStore) Save(ctx context.Context, snapshot *interfaces.RegistrySnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

// LocationURI mocks the LocationURI method
func (m *MockSnapshotStore) LocationURI() string {
	args := m.Called()
	return args.String(0)
}

// RecordingSink is an EventSink that keeps every published event in memory.
type RecordingSink struct {
	mu     sync.Mutex
	events []interfaces.Event
}

// Publish records ev.
func (s *RecordingSink) Publish(ev interfaces.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, ev)
}

// Events returns a copy of the recorded events.
func (s *RecordingSink) Events() []interfaces.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]interfaces.Event(nil), s.events...)
}

// Reset drops recorded events.
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = nil
}
