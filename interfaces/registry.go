package interfaces

import "context"

// PoolRegistry is the public surface of the pool registry. Every mutating
// operation takes the calling identity and is authorized against the
// configured keeper and safe.
type PoolRegistry interface {
	AddPool(caller ContractAddress, pool ContractAddress) error
	AddPools(caller ContractAddress, pools []ContractAddress) error
	DeletePool(caller ContractAddress, index uint64) error
	DeletePools(caller ContractAddress, from, to uint64) error
	DeleteAllPools(caller ContractAddress) error

	UpdateKeeper(caller ContractAddress, keeper ContractAddress) error
	UpdateSafe(caller ContractAddress, safe ContractAddress) error
	UpdateVault(ctx context.Context, caller ContractAddress, vault ContractAddress) error

	Pause(caller ContractAddress, from, to uint64) error
	PauseAll(caller ContractAddress) error

	GetPool(index uint64) (PoolEntry, error)
	GetPools(from, to uint64) ([]PoolEntry, error)
	PoolsLength() uint64
	Config() RegistryConfig
}

// CodeInspector reports whether an address holds deployed contract code.
type CodeInspector interface {
	HasCode(ctx context.Context, addr ContractAddress) (bool, error)
}

// VaultNotifier signals the vault that pools were paused.
type VaultNotifier interface {
	NotifyPaused(ctx context.Context, vault ContractAddress, pools []ContractAddress) error
}

// EventSink receives registry events. Implementations must not block.
type EventSink interface {
	Publish(Event)
}

// SnapshotStore persists registry snapshots.
type SnapshotStore interface {
	// Load returns the latest snapshot or ErrSnapshotNotFound.
	Load(ctx context.Context) (*RegistrySnapshot, error)

	// Save replaces the stored snapshot.
	Save(ctx context.Context, snapshot *RegistrySnapshot) error

	// LocationURI identifies the backend.
	LocationURI() string
}
