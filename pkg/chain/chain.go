// Package chain is the registry of chains a route can traverse.
package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrUnknownChain   = errors.New("unknown chain")
	ErrInvalidAddress = errors.New("invalid address")
)

// Family groups chains that share an address format.
type Family string

const (
	FamilyEVM    Family = "evm"
	FamilySolana Family = "solana"
)

// Chain describes one supported network
type Chain struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Family  Family   `json:"family"`
	Aliases []string `json:"aliases,omitempty"`
}

var registry = []Chain{
	{ID: "ethereum", Name: "Ethereum", Family: FamilyEVM, Aliases: []string{"eth", "mainnet"}},
	{ID: "arbitrum", Name: "Arbitrum", Family: FamilyEVM, Aliases: []string{"arb", "arbitrum-one"}},
	{ID: "optimism", Name: "Optimism", Family: FamilyEVM, Aliases: []string{"op"}},
	{ID: "polygon", Name: "Polygon", Family: FamilyEVM, Aliases: []string{"matic", "poly", "pol"}},
	{ID: "solana", Name: "Solana", Family: FamilySolana, Aliases: []string{"sol"}},
}

// All returns the registered chains in display order.
func All() []Chain {
	out := make([]Chain, len(registry))
	copy(out, registry)
	return out
}

// Lookup finds a chain by canonical id.
func Lookup(id string) (Chain, bool) {
	for _, c := range registry {
		if c.ID == id {
			return c, true
		}
	}
	return Chain{}, false
}

// Normalize maps a user-supplied chain name or alias to its canonical id.
func Normalize(name string) (string, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	for _, c := range registry {
		if c.ID == name {
			return c.ID, nil
		}
		for _, alias := range c.Aliases {
			if alias == name {
				return c.ID, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChain, name)
}

// ValidateAddress checks that addr is well formed for the chain and returns
// it in canonical form (EIP-55 checksummed for EVM chains).
func ValidateAddress(chainID, addr string) (string, error) {
	c, ok := Lookup(chainID)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownChain, chainID)
	}

	addr = strings.TrimSpace(addr)
	switch c.Family {
	case FamilyEVM:
		if !common.IsHexAddress(addr) {
			return "", fmt.Errorf("%w: %q is not a %s address", ErrInvalidAddress, addr, c.Name)
		}
		return common.HexToAddress(addr).Hex(), nil
	case FamilySolana:
		pk, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return "", fmt.Errorf("%w: %q is not a %s address: %v", ErrInvalidAddress, addr, c.Name, err)
		}
		return pk.String(), nil
	default:
		return "", fmt.Errorf("%w: no address format for %s", ErrInvalidAddress, c.Name)
	}
}
