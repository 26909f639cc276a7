package flags

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ruteri/balancer-helper-registry/api"
	"github.com/ruteri/balancer-helper-registry/common"
	"github.com/ruteri/balancer-helper-registry/interfaces"
	"github.com/ruteri/balancer-helper-registry/onchain"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String("log-service")

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string) *api.HTTPServerConfig {
	metricsAddr := cCtx.String(MetricsAddrFlag.Name)
	enablePprof := cCtx.Bool(PprofFlag.Name)
	drainDuration := time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second

	return &api.HTTPServerConfig{
		ListenAddr:               listenAddr,
		MetricsAddr:              metricsAddr,
		Log:                      logger,
		EnablePprof:              enablePprof,
		DrainDuration:            drainDuration,
		GracefulShutdownDuration: 30 * time.Second,
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             30 * time.Second,
	}
}

// ResolveRPC returns the RPC URL and expected chain ID. An explicit
// rpc-addr wins over the network preset; the chain ID is 0 (unchecked)
// when no network is named.
func ResolveRPC(cCtx *cli.Context) (string, uint64, error) {
	rpcAddr := cCtx.String(RpcAddrFlag.Name)

	name := cCtx.String(NetworkFlag.Name)
	if name == "" {
		return rpcAddr, 0, nil
	}

	network, err := onchain.LookupNetwork(name)
	if err != nil {
		return "", 0, err
	}
	if !cCtx.IsSet(RpcAddrFlag.Name) {
		rpcAddr = network.RPCURL
	}
	return rpcAddr, network.ChainID, nil
}

// AddressFlag parses the named flag as an address. Empty values yield the
// zero address.
func AddressFlag(cCtx *cli.Context, name string) (interfaces.ContractAddress, error) {
	raw := cCtx.String(name)
	if raw == "" {
		return interfaces.ZeroAddress, nil
	}
	addr, err := interfaces.NewContractAddressFromHex(raw)
	if err != nil {
		return interfaces.ZeroAddress, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return addr, nil
}

var RpcAddrFlag = &cli.StringFlag{
	Name:    "rpc-addr",
	Value:   "http://127.0.0.1:8545",
	Usage:   "address to connect to RPC",
	EnvVars: []string{"BH_RPC_ADDR"},
}

var NetworkFlag = &cli.StringFlag{
	Name:    "network",
	Usage:   fmt.Sprintf("network preset %v, sets the default rpc-addr and checks the chain id", onchain.NetworkNames()),
	EnvVars: []string{"BH_NETWORK"},
}

var KeeperFlag = &cli.StringFlag{
	Name:    "keeper",
	Usage:   "initial keeper address, required unless a snapshot is restored from --snapshot-uri",
	EnvVars: []string{"BH_KEEPER"},
}

var SafeFlag = &cli.StringFlag{
	Name:    "safe",
	Usage:   "initial governance safe address",
	EnvVars: []string{"BH_SAFE"},
}

var VaultFlag = &cli.StringFlag{
	Name:    "vault",
	Usage:   "initial vault address",
	EnvVars: []string{"BH_VAULT"},
}

var RequireVaultFlag = &cli.BoolFlag{
	Name:  "require-vault",
	Value: false,
	Usage: "refuse to start without a vault address",
}

var RelayKeyFlag = &cli.StringFlag{
	Name:    "relay-key",
	Usage:   "hex private key used to send setPoolPaused transactions to the vault; relaying is disabled when empty",
	EnvVars: []string{"BH_RELAY_KEY"},
}

var SnapshotURIFlag = &cli.StringSliceFlag{
	Name:    "snapshot-uri",
	Usage:   "snapshot location (file://, s3://, vault://), may be repeated",
	EnvVars: []string{"BH_SNAPSHOT_URI"},
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var ServerAddrFlag = &cli.StringFlag{
	Name:    "server-addr",
	Value:   "http://127.0.0.1:8080",
	Usage:   "registry API base URL",
	EnvVars: []string{"BH_SERVER_ADDR"},
}

var KeyFlag = &cli.StringFlag{
	Name:    "key",
	Usage:   "hex private key used to sign requests",
	EnvVars: []string{"BH_KEY"},
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlagFn = func(service string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "log-service",
		Value: service,
		Usage: "add 'service' tag to logs",
	}
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	PprofFlag,
	DrainSecondsFlag,
	MetricsAddrFlag,
}
