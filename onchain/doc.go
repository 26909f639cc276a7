// Package onchain connects the pool registry to an EVM chain: it checks
// addresses for contract code and relays pause signals to the vault.
package onchain
