// Package registry implements the authorization-gated pool registry.
//
// The registry keeps an ordered list of pool addresses, each with a paused
// flag, together with three identities:
//
//   - keeper: day-to-day operator, may add and delete pools and replace itself
//   - safe: governance, may do everything the keeper may plus replace the
//     safe and the vault and pause pools
//   - vault: the contract that is told when pools are paused
//
// Deletion is swap-remove: the last pool moves into the freed slot, so pool
// order is not stable across deletions. Range deletion repeats the single
// deletion at the start of the range.
//
// Every operation either fully succeeds or returns one of the error kinds
// of package interfaces and leaves the registry unchanged. Successful
// mutations are published to an optional interfaces.EventSink; delivery to
// the vault and to snapshot storage happens outside the registry.
//
// # Usage
//
//	reg, err := registry.NewRegistry(keeper, safe, vault,
//	    registry.WithCodeInspector(onchain.NewCodeInspector(ethClient)),
//	    registry.WithEventSink(broker),
//	)
//
//	err = reg.AddPools(keeper, pools)
//	err = reg.Pause(safe, 0, 2)
package registry
