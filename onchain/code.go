package onchain

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/balancer-helper-registry/interfaces"
)

// CodeInspector implements interfaces.CodeInspector against a chain backend.
type CodeInspector struct {
	backend bind.ContractCaller
}

func NewCodeInspector(backend bind.ContractCaller) *CodeInspector {
	return &CodeInspector{backend: backend}
}

// HasCode reports whether addr holds code at the latest block.
func (c *CodeInspector) HasCode(ctx context.Context, addr interfaces.ContractAddress) (bool, error) {
	code, err := c.backend.CodeAt(ctx, common.Address(addr), nil)
	if err != nil {
		return false, err
	}
	return len(code) > 0, nil
}
