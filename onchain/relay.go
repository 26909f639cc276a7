package onchain

import (
	"context"
	"log/slog"
	"time"

	"github.com/ruteri/balancer-helper-registry/interfaces"
)

// VaultRelay forwards PoolsPaused events to the vault.
type VaultRelay struct {
	notifier interfaces.VaultNotifier
	log      *slog.Logger
	timeout  time.Duration
}

// NewVaultRelay creates a relay. timeout bounds each notification; zero means no bound.
func NewVaultRelay(notifier interfaces.VaultNotifier, log *slog.Logger, timeout time.Duration) *VaultRelay {
	return &VaultRelay{
		notifier: notifier,
		log:      log,
		timeout:  timeout,
	}
}

// Run consumes events until ctx is done or events is closed. Failed
// notifications are logged and not retried.
func (r *VaultRelay) Run(ctx context.Context, events <-chan interfaces.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type != interfaces.EventPoolsPaused {
				continue
			}
			r.relay(ctx, ev)
		}
	}
}

func (r *VaultRelay) relay(ctx context.Context, ev interfaces.Event) {
	if ev.Vault.IsZero() {
		r.log.Warn("No vault configured, pause not relayed", "pools", len(ev.Pools))
		return
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if err := r.notifier.NotifyPaused(ctx, ev.Vault, ev.Pools); err != nil {
		r.log.Error("Failed to relay pause to vault", "vault", ev.Vault, "pools", len(ev.Pools), "err", err)
		return
	}
	r.log.Info("Relayed pause to vault", "vault", ev.Vault, "pools", len(ev.Pools))
}
