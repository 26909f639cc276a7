package onchain

import (
	"fmt"
	"sort"
)

// Network is a known chain the registry can be pointed at.
type Network struct {
	Name    string
	ChainID uint64
	RPCURL  string
}

var networks = map[string]Network{
	"arbitrum":  {Name: "arbitrum", ChainID: 42161, RPCURL: "https://arbitrum.llamarpc.com"},
	"avalanche": {Name: "avalanche", ChainID: 43114, RPCURL: "https://avalanche-c-chain-rpc.publicnode.com"},
	"base":      {Name: "base", ChainID: 8453, RPCURL: "https://1rpc.io/base"},
	"bsc":       {Name: "bsc", ChainID: 56, RPCURL: "https://bsc.blockrazor.xyz"},
	"ethereum":  {Name: "ethereum", ChainID: 1, RPCURL: "https://ethereum-rpc.publicnode.com"},
	"optimism":  {Name: "optimism", ChainID: 10, RPCURL: "https://optimism-rpc.publicnode.com"},
	"polygon":   {Name: "polygon", ChainID: 137, RPCURL: "https://1rpc.io/matic"},
	"scroll":    {Name: "scroll", ChainID: 534352, RPCURL: "https://scroll.drpc.org"},
	"sepolia":   {Name: "sepolia", ChainID: 11155111, RPCURL: "https://ethereum-sepolia.blockpi.network/v1/rpc/public"},
}

// LookupNetwork returns the preset for name.
func LookupNetwork(name string) (Network, error) {
	n, ok := networks[name]
	if !ok {
		return Network{}, fmt.Errorf("unknown network %q, known networks: %v", name, NetworkNames())
	}
	return n, nil
}

// NetworkNames returns the preset names, sorted.
func NetworkNames() []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
