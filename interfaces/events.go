package interfaces

// EventType names a registry notification.
type EventType string

const (
	EventPoolsAdded       EventType = "PoolsAdded"
	EventPoolsDeleted     EventType = "PoolsDeleted"
	EventAllPoolsDeleted  EventType = "AllPoolsDeleted"
	EventKeeperUpdated    EventType = "KeeperUpdated"
	EventSafeUpdated      EventType = "SafeUpdated"
	EventVaultUpdated     EventType = "VaultUpdated"
	EventPoolsPaused      EventType = "PoolsPaused"
	EventRegistryRestored EventType = "RegistryRestored"
)

// Event is emitted by the registry after a mutation commits.
type Event struct {
	Type EventType `json:"type"`

	// Caller is the identity that performed the operation.
	Caller ContractAddress `json:"caller"`

	// Address carries the new identity for KeeperUpdated, SafeUpdated and VaultUpdated.
	Address ContractAddress `json:"address"`

	// Pools lists the affected pools for PoolsAdded, PoolsDeleted and PoolsPaused.
	Pools []ContractAddress `json:"pools,omitempty"`

	// Vault is the vault to signal for PoolsPaused.
	Vault ContractAddress `json:"vault"`

	// PoolCount is the registry length after the mutation.
	PoolCount int `json:"pool_count"`
}

// IsMutation reports whether the event changes persisted registry state.
func (e Event) IsMutation() bool {
	return e.Type != EventRegistryRestored
}
