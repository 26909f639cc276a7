// Package interfaces defines the shared types, collaborator interfaces and
// error kinds of the pool registry, separating contracts between components
// from their implementations.
//
// # Types
//
//   - ContractAddress: 20-byte Ethereum address used for pools and principals
//   - PoolEntry: a pool address plus its paused flag
//   - RegistryConfig: keeper, safe (governance module) and vault identities
//   - RegistrySnapshot: configuration plus the ordered pool list
//   - Event: notification emitted after each committed mutation
//
// # Interfaces
//
//   - PoolRegistry: the authorization-gated registry surface
//   - CodeInspector: contract-code existence check used when replacing the vault
//   - VaultNotifier: signals the vault about paused pools
//   - EventSink: non-blocking event consumer
//   - SnapshotStore: persistence backend for registry snapshots
//
// # Errors
//
// ErrUnauthorized, ErrOutOfRange, ErrFromGreaterThanTo, ErrEmptyRegistry,
// ErrZeroAddress and ErrNotAContract are the registry error kinds. ErrorKind
// and ErrorForKind convert them to and from their wire names.
package interfaces
