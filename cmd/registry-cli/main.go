package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/ruteri/balancer-helper-registry/api/clients"
	"github.com/ruteri/balancer-helper-registry/cmd/flags"
	"github.com/ruteri/balancer-helper-registry/interfaces"
	"github.com/ruteri/balancer-helper-registry/onchain"
	"github.com/urfave/cli/v2"
)

var flagFrom = &cli.Uint64Flag{
	Name:     "from",
	Required: true,
	Usage:    "first index of the range",
}

var flagTo = &cli.Uint64Flag{
	Name:     "to",
	Required: true,
	Usage:    "end of the range, exclusive",
}

func main() {
	app := &cli.App{
		Name:  "registry-cli",
		Usage: "Query and manage the balancer helper pool registry",
		Flags: []cli.Flag{
			flags.ServerAddrFlag,
			flags.KeyFlag,
		},
		Commands: []*cli.Command{
			{
				Name:  "count",
				Usage: "print the number of pools",
				Action: func(cCtx *cli.Context) error {
					count, err := newClient(cCtx).PoolsLength(cCtx.Context)
					if err != nil {
						return err
					}
					return printJSON(map[string]uint64{"count": count})
				},
			},
			{
				Name:  "list",
				Usage: "print pools in [from, to)",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "from", Usage: "first index"},
					&cli.Uint64Flag{Name: "to", Value: 1 << 63, Usage: "end index, exclusive"},
				},
				Action: func(cCtx *cli.Context) error {
					pools, err := newClient(cCtx).GetPools(cCtx.Context, cCtx.Uint64("from"), cCtx.Uint64("to"))
					if err != nil {
						return err
					}
					return printJSON(pools)
				},
			},
			{
				Name:      "get",
				Usage:     "print the pool at an index",
				ArgsUsage: "INDEX",
				Action: func(cCtx *cli.Context) error {
					index, err := indexArg(cCtx)
					if err != nil {
						return err
					}
					pool, err := newClient(cCtx).GetPool(cCtx.Context, index)
					if err != nil {
						return err
					}
					return printJSON(pool)
				},
			},
			{
				Name:  "config",
				Usage: "print keeper, safe and vault",
				Action: func(cCtx *cli.Context) error {
					cfg, err := newClient(cCtx).Config(cCtx.Context)
					if err != nil {
						return err
					}
					return printJSON(cfg)
				},
			},
			{
				Name:      "add",
				Usage:     "append pools",
				ArgsUsage: "ADDRESS...",
				Action: func(cCtx *cli.Context) error {
					pools, err := addressArgs(cCtx)
					if err != nil {
						return err
					}
					if len(pools) == 0 {
						return cli.Exit("at least one pool address is required", 1)
					}
					return newClient(cCtx).AddPools(cCtx.Context, pools)
				},
			},
			{
				Name:      "delete",
				Usage:     "swap-remove the pool at an index",
				ArgsUsage: "INDEX",
				Action: func(cCtx *cli.Context) error {
					index, err := indexArg(cCtx)
					if err != nil {
						return err
					}
					return newClient(cCtx).DeletePool(cCtx.Context, index)
				},
			},
			{
				Name:  "delete-range",
				Usage: "swap-remove pools in [from, to)",
				Flags: []cli.Flag{flagFrom, flagTo},
				Action: func(cCtx *cli.Context) error {
					return newClient(cCtx).DeletePools(cCtx.Context, cCtx.Uint64("from"), cCtx.Uint64("to"))
				},
			},
			{
				Name:  "delete-all",
				Usage: "remove every pool",
				Action: func(cCtx *cli.Context) error {
					return newClient(cCtx).DeleteAllPools(cCtx.Context)
				},
			},
			{
				Name:      "set-keeper",
				Usage:     "replace the keeper",
				ArgsUsage: "ADDRESS",
				Action: func(cCtx *cli.Context) error {
					addr, err := addressArg(cCtx)
					if err != nil {
						return err
					}
					return newClient(cCtx).UpdateKeeper(cCtx.Context, addr)
				},
			},
			{
				Name:      "set-safe",
				Usage:     "replace the governance safe",
				ArgsUsage: "ADDRESS",
				Action: func(cCtx *cli.Context) error {
					addr, err := addressArg(cCtx)
					if err != nil {
						return err
					}
					return newClient(cCtx).UpdateSafe(cCtx.Context, addr)
				},
			},
			{
				Name:      "set-vault",
				Usage:     "replace the vault, which must be a deployed contract",
				ArgsUsage: "ADDRESS",
				Action: func(cCtx *cli.Context) error {
					addr, err := addressArg(cCtx)
					if err != nil {
						return err
					}
					return newClient(cCtx).UpdateVault(cCtx.Context, addr)
				},
			},
			{
				Name:  "pause",
				Usage: "pause pools in [from, to)",
				Flags: []cli.Flag{flagFrom, flagTo},
				Action: func(cCtx *cli.Context) error {
					return newClient(cCtx).Pause(cCtx.Context, cCtx.Uint64("from"), cCtx.Uint64("to"))
				},
			},
			{
				Name:  "pause-all",
				Usage: "pause every pool",
				Action: func(cCtx *cli.Context) error {
					return newClient(cCtx).PauseAll(cCtx.Context)
				},
			},
			{
				Name:  "networks",
				Usage: "print the known network presets",
				Action: func(cCtx *cli.Context) error {
					var presets []onchain.Network
					for _, name := range onchain.NetworkNames() {
						n, _ := onchain.LookupNetwork(name)
						presets = append(presets, n)
					}
					return printJSON(presets)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newClient builds a client from the global flags. Without --key only
// reads succeed.
func newClient(cCtx *cli.Context) *clients.RegistryClient {
	serverAddr := cCtx.String(flags.ServerAddrFlag.Name)

	hexKey := cCtx.String(flags.KeyFlag.Name)
	if hexKey == "" {
		return clients.NewRegistryClient(serverAddr, nil)
	}

	key, err := onchain.ParsePrivateKey(hexKey)
	if err != nil {
		log.Fatalf("invalid --%s: %v", flags.KeyFlag.Name, err)
	}
	return clients.NewRegistryClient(serverAddr, key)
}

func indexArg(cCtx *cli.Context) (uint64, error) {
	if cCtx.NArg() != 1 {
		return 0, cli.Exit("expected exactly one INDEX argument", 1)
	}
	index, err := strconv.ParseUint(cCtx.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid index: %w", err)
	}
	return index, nil
}

func addressArg(cCtx *cli.Context) (interfaces.ContractAddress, error) {
	if cCtx.NArg() != 1 {
		return interfaces.ZeroAddress, cli.Exit("expected exactly one ADDRESS argument", 1)
	}
	return interfaces.NewContractAddressFromHex(cCtx.Args().First())
}

func addressArgs(cCtx *cli.Context) ([]interfaces.ContractAddress, error) {
	var addrs []interfaces.ContractAddress
	for _, arg := range cCtx.Args().Slice() {
		addr, err := interfaces.NewContractAddressFromHex(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", arg, err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
