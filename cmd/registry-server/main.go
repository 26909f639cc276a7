package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ruteri/balancer-helper-registry/cmd/flags"
	"github.com/ruteri/balancer-helper-registry/common"
	"github.com/ruteri/balancer-helper-registry/events"
	"github.com/ruteri/balancer-helper-registry/httpserver"
	"github.com/ruteri/balancer-helper-registry/interfaces"
	"github.com/ruteri/balancer-helper-registry/metrics"
	"github.com/ruteri/balancer-helper-registry/onchain"
	"github.com/ruteri/balancer-helper-registry/registry"
	"github.com/ruteri/balancer-helper-registry/storage"
	"github.com/urfave/cli/v2"
)

var serverFlags = append([]cli.Flag{
	flags.RpcAddrFlag,
	flags.NetworkFlag,
	flags.ListenAddrFlag,
	flags.KeeperFlag,
	flags.SafeFlag,
	flags.VaultFlag,
	flags.RequireVaultFlag,
	flags.RelayKeyFlag,
	flags.SnapshotURIFlag,
	flags.LogServiceFlagFn("registry-server"),
	&cli.DurationFlag{
		Name:  "relay-timeout",
		Value: 2 * time.Minute,
		Usage: "timeout for a single vault relay",
	},
	&cli.DurationFlag{
		Name:  "snapshot-timeout",
		Value: 30 * time.Second,
		Usage: "timeout for a single snapshot load or save",
	},
}, flags.CommonFlags...)

func main() {
	app := &cli.App{
		Name:   "registry-server",
		Usage:  "Serve the balancer helper pool registry API",
		Flags:  serverFlags,
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	keeper, err := flags.AddressFlag(cCtx, flags.KeeperFlag.Name)
	if err != nil {
		return err
	}
	safe, err := flags.AddressFlag(cCtx, flags.SafeFlag.Name)
	if err != nil {
		return err
	}
	vault, err := flags.AddressFlag(cCtx, flags.VaultFlag.Name)
	if err != nil {
		return err
	}

	rpcAddress, chainID, err := flags.ResolveRPC(cCtx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Connecting to Ethereum RPC", "address", rpcAddress)
	ethClient, err := ethclient.Dial(rpcAddress)
	if err != nil {
		logger.Error("Failed to dial RPC", "err", err)
		return err
	}
	defer ethClient.Close()

	cfg := flags.ConfigureServer(cCtx, logger, cCtx.String(flags.ListenAddrFlag.Name))

	metricsSrv, err := metrics.New(common.PackageName, cfg.MetricsAddr)
	if err != nil {
		return err
	}
	registryMetrics, err := metrics.NewRegistryMetrics(common.PackageName, metricsSrv.Registerer())
	if err != nil {
		return err
	}

	broker := events.NewBroker()
	defer broker.Close()

	opts := []registry.Option{
		registry.WithLogger(logger),
		registry.WithCodeInspector(onchain.NewCodeInspector(ethClient)),
		registry.WithEventSink(broker),
		registry.WithMetrics(registryMetrics),
	}
	if cCtx.Bool(flags.RequireVaultFlag.Name) {
		opts = append(opts, registry.WithRequiredVault())
	}

	var (
		store    interfaces.SnapshotStore
		snapshot *interfaces.RegistrySnapshot
	)
	if uris := cCtx.StringSlice(flags.SnapshotURIFlag.Name); len(uris) > 0 {
		store, err = storage.NewSnapshotStoreFactory(logger).CreateMultiStore(uris)
		if err != nil {
			logger.Error("Failed to create snapshot store", "err", err)
			return err
		}

		loadCtx, loadCancel := context.WithTimeout(ctx, cCtx.Duration("snapshot-timeout"))
		snapshot, err = storage.LoadSnapshot(loadCtx, store)
		loadCancel()
		if err != nil {
			logger.Error("Failed to load snapshot", "err", err, "location", store.LocationURI())
			return err
		}
	}

	// a stored snapshot takes precedence over the address flags
	if snapshot != nil {
		keeper, safe, vault = snapshot.Keeper, snapshot.Safe, snapshot.Vault
	}

	reg, err := registry.NewRegistry(keeper, safe, vault, opts...)
	if err != nil {
		logger.Error("Failed to create registry", "err", err)
		return err
	}

	if snapshot != nil {
		if err := reg.Restore(snapshot); err != nil {
			logger.Error("Failed to restore snapshot", "err", err, "location", store.LocationURI())
			return err
		}
		logger.Info("Registry restored from snapshot", "location", store.LocationURI(), "pools", reg.PoolsLength())
	}

	var workers sync.WaitGroup
	if store != nil {
		snapshotter := storage.NewSnapshotter(store, reg, logger, cCtx.Duration("snapshot-timeout"))
		snapshotEvents := broker.Subscribe(ctx)
		workers.Add(1)
		go func() {
			defer workers.Done()
			snapshotter.Run(ctx, snapshotEvents)
		}()
	}

	if relayKey := cCtx.String(flags.RelayKeyFlag.Name); relayKey != "" {
		notifier, err := newVaultNotifier(ctx, ethClient, relayKey, chainID)
		if err != nil {
			logger.Error("Failed to set up vault relay", "err", err)
			return err
		}

		relay := onchain.NewVaultRelay(notifier, logger, cCtx.Duration("relay-timeout"))
		relayEvents := broker.Subscribe(ctx)
		workers.Add(1)
		go func() {
			defer workers.Done()
			relay.Run(ctx, relayEvents)
		}()
	} else {
		logger.Warn("No relay key configured, paused pools will not be signalled to the vault")
	}

	handler := httpserver.NewHandler(reg, logger, cfg.MaxBodySize)
	server, err := httpserver.New(cfg, handler, metricsSrv)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	logger.Info("Starting server", "keeper", reg.Config().Keeper, "safe", reg.Config().Safe, "vault", reg.Config().Vault)
	server.RunInBackground()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	logger.Info("Server is running, press Ctrl+C to stop")
	<-exit
	logger.Info("Shutdown signal received")

	server.Shutdown()
	cancel()
	workers.Wait()
	logger.Info("Server shutdown complete", "droppedEvents", broker.Dropped())

	return nil
}

func newVaultNotifier(ctx context.Context, ethClient *ethclient.Client, hexKey string, chainID uint64) (interfaces.VaultNotifier, error) {
	key, err := onchain.ParsePrivateKey(hexKey)
	if err != nil {
		return nil, err
	}

	auth, err := onchain.NewTransactor(ctx, ethClient, key, chainID)
	if err != nil {
		return nil, err
	}

	client, err := onchain.NewVaultClient(ethClient)
	if err != nil {
		return nil, err
	}
	client.SetTransactOpts(auth)
	return client, nil
}
