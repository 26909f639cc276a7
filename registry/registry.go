package registry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ruteri/balancer-helper-registry/interfaces"
	"github.com/ruteri/balancer-helper-registry/metrics"
)

// Registry implements interfaces.PoolRegistry. It owns the configuration and
// the pool store and serializes every operation behind a single RWMutex:
// writers validate fully before mutating, so a failing call leaves the state
// untouched, and readers only ever see committed state.
type Registry struct {
	mu     sync.RWMutex
	config interfaces.RegistryConfig
	store  poolStore

	codeInspector interfaces.CodeInspector
	events        interfaces.EventSink
	metrics       *metrics.RegistryMetrics
	log           *slog.Logger
	requireVault  bool
}

// Option configures a Registry.
type Option interface {
	apply(*Registry)
}

type funcOption func(*Registry)

func (f funcOption) apply(r *Registry) {
	f(r)
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(log *slog.Logger) Option {
	return funcOption(func(r *Registry) { r.log = log })
}

// WithCodeInspector sets the contract-code check used by UpdateVault.
func WithCodeInspector(ci interfaces.CodeInspector) Option {
	return funcOption(func(r *Registry) { r.codeInspector = ci })
}

// WithEventSink sets where committed mutations are published.
func WithEventSink(sink interfaces.EventSink) Option {
	return funcOption(func(r *Registry) { r.events = sink })
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.RegistryMetrics) Option {
	return funcOption(func(r *Registry) { r.metrics = m })
}

// WithRequiredVault makes a zero vault a construction error.
func WithRequiredVault() Option {
	return funcOption(func(r *Registry) { r.requireVault = true })
}

// NewRegistry creates an empty registry. It fails with
// interfaces.ErrConstructorZeroAddress if keeper is zero, or if vault is zero
// and WithRequiredVault was given.
func NewRegistry(keeper, safe, vault interfaces.ContractAddress, opts ...Option) (*Registry, error) {
	r := &Registry{
		config: interfaces.RegistryConfig{
			Keeper: keeper,
			Safe:   safe,
			Vault:  vault,
		},
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt.apply(r)
	}

	if keeper.IsZero() {
		return nil, fmt.Errorf("%w: keeper", interfaces.ErrConstructorZeroAddress)
	}
	if r.requireVault && vault.IsZero() {
		return nil, fmt.Errorf("%w: vault", interfaces.ErrConstructorZeroAddress)
	}

	r.metrics.SetPools(0, 0)
	r.log.Info("Registry created", "keeper", keeper, "safe", safe, "vault", vault)
	return r, nil
}

// AddPool appends one pool.
func (r *Registry) AddPool(caller, pool interfaces.ContractAddress) error {
	return r.addPools(OpAddPool, caller, []interfaces.ContractAddress{pool})
}

// AddPools appends pools in input order.
func (r *Registry) AddPools(caller interfaces.ContractAddress, pools []interfaces.ContractAddress) error {
	return r.addPools(OpAddPools, caller, pools)
}

func (r *Registry) addPools(op Operation, caller interfaces.ContractAddress, pools []interfaces.ContractAddress) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.observe(op, caller, err) }()

	if _, err := authorize(r.config, caller, op); err != nil {
		return err
	}

	for _, p := range pools {
		r.store.append(interfaces.PoolEntry{Address: p})
	}

	r.publish(interfaces.Event{
		Type:   interfaces.EventPoolsAdded,
		Caller: caller,
		Pools:  append([]interfaces.ContractAddress(nil), pools...),
	})
	return nil
}

// DeletePool swap-removes the pool at index: the last pool moves into index.
func (r *Registry) DeletePool(caller interfaces.ContractAddress, index uint64) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.observe(OpDeletePool, caller, err) }()

	if _, err := authorize(r.config, caller, OpDeletePool); err != nil {
		return err
	}

	removed, err := r.store.removeAt(index)
	if err != nil {
		return err
	}

	r.publish(interfaces.Event{
		Type:   interfaces.EventPoolsDeleted,
		Caller: caller,
		Pools:  []interfaces.ContractAddress{removed.Address},
	})
	return nil
}

// DeletePools removes to-from pools by repeatedly swap-removing index from.
func (r *Registry) DeletePools(caller interfaces.ContractAddress, from, to uint64) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.observe(OpDeletePools, caller, err) }()

	if _, err := authorize(r.config, caller, OpDeletePools); err != nil {
		return err
	}

	removed, err := r.store.removeRange(from, to)
	if err != nil {
		return err
	}

	r.publish(interfaces.Event{
		Type:   interfaces.EventPoolsDeleted,
		Caller: caller,
		Pools:  interfaces.PoolAddresses(removed),
	})
	return nil
}

// DeleteAllPools clears the registry.
func (r *Registry) DeleteAllPools(caller interfaces.ContractAddress) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.observe(OpDeleteAllPools, caller, err) }()

	if _, err := authorize(r.config, caller, OpDeleteAllPools); err != nil {
		return err
	}

	r.store.clear()

	r.publish(interfaces.Event{
		Type:   interfaces.EventAllPoolsDeleted,
		Caller: caller,
	})
	return nil
}

// UpdateKeeper replaces the keeper and emits KeeperUpdated.
func (r *Registry) UpdateKeeper(caller, keeper interfaces.ContractAddress) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.observe(OpUpdateKeeper, caller, err) }()

	if _, err := authorize(r.config, caller, OpUpdateKeeper); err != nil {
		return err
	}
	if keeper.IsZero() {
		return fmt.Errorf("%w: keeper", interfaces.ErrZeroAddress)
	}

	r.config.Keeper = keeper

	r.publish(interfaces.Event{
		Type:    interfaces.EventKeeperUpdated,
		Caller:  caller,
		Address: keeper,
	})
	return nil
}

// UpdateSafe replaces the governance module. The zero address is rejected.
func (r *Registry) UpdateSafe(caller, safe interfaces.ContractAddress) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.observe(OpUpdateSafe, caller, err) }()

	if _, err := authorize(r.config, caller, OpUpdateSafe); err != nil {
		return err
	}
	if safe.IsZero() {
		return fmt.Errorf("%w: safe", interfaces.ErrZeroAddress)
	}

	r.config.Safe = safe

	r.publish(interfaces.Event{
		Type:    interfaces.EventSafeUpdated,
		Caller:  caller,
		Address: safe,
	})
	return nil
}

// UpdateVault replaces the vault reference. vault must hold contract code.
// The code lookup runs under the write lock with ctx.
func (r *Registry) UpdateVault(ctx context.Context, caller, vault interfaces.ContractAddress) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.observe(OpUpdateVault, caller, err) }()

	if _, err := authorize(r.config, caller, OpUpdateVault); err != nil {
		return err
	}
	if r.codeInspector == nil {
		return interfaces.ErrNoCodeInspector
	}

	hasCode, err := r.codeInspector.HasCode(ctx, vault)
	if err != nil {
		return fmt.Errorf("could not check code at %s: %w", vault, err)
	}
	if !hasCode {
		return fmt.Errorf("%w: %s", interfaces.ErrNotAContract, vault)
	}

	r.config.Vault = vault

	r.publish(interfaces.Event{
		Type:    interfaces.EventVaultUpdated,
		Caller:  caller,
		Address: vault,
	})
	return nil
}

// Pause marks pools [from, to) paused. Already paused pools are left as
// they are; the PoolsPaused event lists only newly paused pools and is
// omitted when nothing changed.
func (r *Registry) Pause(caller interfaces.ContractAddress, from, to uint64) error {
	return r.pause(OpPause, caller, func() (uint64, uint64) { return from, to })
}

// PauseAll pauses every pool. It is a no-op on an empty registry.
func (r *Registry) PauseAll(caller interfaces.ContractAddress) error {
	return r.pause(OpPauseAll, caller, func() (uint64, uint64) { return 0, r.store.length() })
}

// bounds is evaluated under the write lock.
func (r *Registry) pause(op Operation, caller interfaces.ContractAddress, bounds func() (uint64, uint64)) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.observe(op, caller, err) }()

	if _, err := authorize(r.config, caller, op); err != nil {
		return err
	}

	from, to := bounds()
	changed, err := r.store.setPaused(from, to)
	if err != nil {
		return err
	}

	if len(changed) > 0 {
		r.publish(interfaces.Event{
			Type:   interfaces.EventPoolsPaused,
			Caller: caller,
			Pools:  changed,
			Vault:  r.config.Vault,
		})
	}
	return nil
}

// GetPool returns the pool at index.
func (r *Registry) GetPool(index uint64) (interfaces.PoolEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.store.at(index)
}

// GetPools returns pools [from, min(to, count)).
func (r *Registry) GetPools(from, to uint64) ([]interfaces.PoolEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.store.slice(from, to)
}

// PoolsLength returns the number of pools.
func (r *Registry) PoolsLength() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.store.length()
}

// PoolCount is the former name of PoolsLength.
func (r *Registry) PoolCount() uint64 {
	return r.PoolsLength()
}

// Config returns the current keeper, safe and vault.
func (r *Registry) Config() interfaces.RegistryConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.config
}

// Snapshot returns a copy of the complete state.
func (r *Registry) Snapshot() *interfaces.RegistrySnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return &interfaces.RegistrySnapshot{
		RegistryConfig: r.config,
		Pools:          r.store.copyEntries(),
	}
}

// Restore replaces the complete state with snapshot. It is meant for
// startup, before the registry is exposed to callers.
func (r *Registry) Restore(snapshot *interfaces.RegistrySnapshot) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.observe(OpRestore, interfaces.ZeroAddress, err) }()

	if snapshot.Keeper.IsZero() {
		return fmt.Errorf("%w: snapshot keeper", interfaces.ErrZeroAddress)
	}
	if r.requireVault && snapshot.Vault.IsZero() {
		return fmt.Errorf("%w: snapshot vault", interfaces.ErrZeroAddress)
	}

	r.config = snapshot.RegistryConfig
	r.store.entries = append([]interfaces.PoolEntry(nil), snapshot.Pools...)

	r.publish(interfaces.Event{Type: interfaces.EventRegistryRestored})
	return nil
}

// publish must be called with the write lock held, after the mutation.
func (r *Registry) publish(ev interfaces.Event) {
	ev.PoolCount = len(r.store.entries)
	if r.events != nil {
		r.events.Publish(ev)
	}
}

// observe must be called with the write lock held.
func (r *Registry) observe(op Operation, caller interfaces.ContractAddress, err error) {
	if err != nil {
		kind := interfaces.ErrorKind(err)
		if kind == "" {
			kind = "error"
		}
		r.metrics.ObserveOperation(string(op), kind)
		if kind == "Unauthorized" {
			r.log.Warn("Registry operation denied", "op", op, "caller", caller)
		} else {
			r.log.Debug("Registry operation failed", "op", op, "caller", caller, "err", err)
		}
		return
	}

	r.metrics.ObserveOperation(string(op), "ok")
	r.metrics.SetPools(len(r.store.entries), r.store.pausedCount())
	r.log.Info("Registry operation", "op", op, "caller", caller, "pools", len(r.store.entries))
}
