package interfaces

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ContractAddress represents an Ethereum address. It identifies pools,
// principals (keeper, safe) and the vault.
type ContractAddress [20]byte

// ZeroAddress is the null identity.
var ZeroAddress = ContractAddress{}

// NewContractAddressFromBytes creates a contract address from a 20-byte slice.
func NewContractAddressFromBytes(addr []byte) (ContractAddress, error) {
	if len(addr) != 20 {
		return ContractAddress{}, errors.New("invalid address length: must be 20 bytes")
	}

	var res ContractAddress
	copy(res[:], addr)
	return res, nil
}

// NewContractAddressFromHex parses a 40-char hex string, with or without 0x prefix.
func NewContractAddressFromHex(addr string) (ContractAddress, error) {
	clean := strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	if len(clean) != 40 {
		return ContractAddress{}, errors.New("invalid address length: hex string must be 40 characters")
	}

	if !common.IsHexAddress(clean) {
		return ContractAddress{}, fmt.Errorf("invalid hex format: %s", addr)
	}

	return ContractAddress(common.HexToAddress(clean)), nil
}

// String returns the EIP-55 checksummed hex representation.
func (addr ContractAddress) String() string {
	return common.Address(addr).Hex()
}

// Bytes returns the raw 20-byte address.
func (addr ContractAddress) Bytes() []byte {
	return addr[:]
}

// Equal compares two contract addresses for equality.
func (addr ContractAddress) Equal(other ContractAddress) bool {
	return addr == other
}

// IsZero reports whether addr is the null identity.
func (addr ContractAddress) IsZero() bool {
	return addr == ZeroAddress
}

// MarshalText encodes the address as 0x-prefixed hex.
func (addr ContractAddress) MarshalText() ([]byte, error) {
	return []byte(addr.String()), nil
}

// UnmarshalText decodes a hex address.
func (addr *ContractAddress) UnmarshalText(text []byte) error {
	parsed, err := NewContractAddressFromHex(string(text))
	if err != nil {
		return err
	}
	*addr = parsed
	return nil
}

// PoolEntry is one pool tracked by the registry.
type PoolEntry struct {
	Address ContractAddress `json:"address"`
	Paused  bool            `json:"paused"`
}

// RegistryConfig holds the configurable identities of a registry.
type RegistryConfig struct {
	Keeper ContractAddress `json:"keeper"`
	Safe   ContractAddress `json:"safe"`
	Vault  ContractAddress `json:"vault"`
}

// RegistrySnapshot is a point-in-time copy of the complete registry state.
type RegistrySnapshot struct {
	RegistryConfig
	Pools []PoolEntry `json:"pools"`
}

// PoolAddresses returns the addresses of entries in order.
func PoolAddresses(entries []PoolEntry) []ContractAddress {
	res := make([]ContractAddress, len(entries))
	for i, e := range entries {
		res[i] = e.Address
	}
	return res
}
