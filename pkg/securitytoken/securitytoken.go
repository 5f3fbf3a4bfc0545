// Package securitytoken reads the security token a module is attached to.
package securitytoken

import (
	"context"
	"math/big"
	"sync"

	"emperror.dev/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/abis"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/units"
)

// ModuleData is the token's record of an attached module.
type ModuleData struct {
	Name     string
	Address  common.Address
	Factory  common.Address
	Archived bool
	Types    []uint8
	Label    string
}

// Token is a bound security token.
type Token struct {
	c *contract.Contract

	mu       sync.Mutex
	decimals *uint8
}

// New binds the security token at addr.
func New(addr common.Address, t contract.Transport, opts ...contract.Option) *Token {
	return &Token{c: contract.New(addr, abis.MustGet(abis.SecurityToken).ABI, t, opts...)}
}

func (t *Token) Address() common.Address { return t.c.Address }

func (t *Token) Owner(ctx context.Context) (common.Address, error) {
	out, err := t.c.Call(ctx, "owner")
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// Decimals is read once; it cannot change after deployment.
func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.decimals != nil {
		return *t.decimals, nil
	}
	out, err := t.c.Call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	d := out[0].(uint8)
	t.decimals = &d
	return d, nil
}

func (t *Token) Symbol(ctx context.Context) (string, error) {
	out, err := t.c.Call(ctx, "symbol")
	if err != nil {
		return "", err
	}
	return out[0].(string), nil
}

func (t *Token) Name(ctx context.Context) (string, error) {
	out, err := t.c.Call(ctx, "name")
	if err != nil {
		return "", err
	}
	return out[0].(string), nil
}

func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	out, err := t.c.Call(ctx, "totalSupply")
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (t *Token) BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error) {
	out, err := t.c.Call(ctx, "balanceOf", holder)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// GetModule returns the token's record for module. An unknown module comes
// back with a zero Address.
func (t *Token) GetModule(ctx context.Context, module common.Address) (ModuleData, error) {
	out, err := t.c.Call(ctx, "getModule", module)
	if err != nil {
		return ModuleData{}, err
	}
	if len(out) != 6 {
		return ModuleData{}, errors.Errorf("getModule returned %d values", len(out))
	}
	return ModuleData{
		Name:     units.Bytes32ToString(out[0].([32]byte)),
		Address:  out[1].(common.Address),
		Factory:  out[2].(common.Address),
		Archived: out[3].(bool),
		Types:    out[4].([]uint8),
		Label:    units.Bytes32ToString(out[5].([32]byte)),
	}, nil
}

// GetModulesByName lists the addresses of modules attached under name.
func (t *Token) GetModulesByName(ctx context.Context, name string) ([]common.Address, error) {
	b, err := units.StringToBytes32(name)
	if err != nil {
		return nil, err
	}
	out, err := t.c.Call(ctx, "getModulesByName", b)
	if err != nil {
		return nil, err
	}
	return out[0].([]common.Address), nil
}

// GetModulesByType lists the addresses of modules of the given type number.
func (t *Token) GetModulesByType(ctx context.Context, kind uint8) ([]common.Address, error) {
	out, err := t.c.Call(ctx, "getModulesByType", kind)
	if err != nil {
		return nil, err
	}
	return out[0].([]common.Address), nil
}

func (t *Token) CheckPermission(ctx context.Context, delegate, module common.Address, perm string) (bool, error) {
	p, err := units.StringToBytes32(perm)
	if err != nil {
		return false, err
	}
	out, err := t.c.Call(ctx, "checkPermission", delegate, module, p)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}
