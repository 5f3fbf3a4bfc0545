// Package capability holds the behavior every module wrapper shares,
// whatever its ABI version: finding its security token, deciding whether a
// caller is the owner or a permitted delegate, and the pause switch.
//
// Wrappers embed *Module and add their version-specific calls on top.
package capability

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polyerr"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/securitytoken"
)

// permissionManagerType is the module type number of permission managers.
const permissionManagerType = 1

// Capabilities is the cross-version surface of a module wrapper.
type Capabilities interface {
	Address() common.Address
	SecurityToken(ctx context.Context) (*securitytoken.Token, error)
	Factory(ctx context.Context) (common.Address, error)
	IsCallerTheSecurityTokenOwner(ctx context.Context, caller common.Address) (bool, error)
	IsCallerAllowed(ctx context.Context, caller common.Address, perm Permission) (bool, error)
	GetPermissions(ctx context.Context) ([]Permission, error)
	Paused(ctx context.Context) (bool, error)
	Pause(ctx context.Context, opts *contract.TxOpts) (*contract.TxHandle, error)
	Unpause(ctx context.Context, opts *contract.TxOpts) (*contract.TxHandle, error)
}

// Module implements Capabilities over a bound module contract.
type Module struct {
	c *contract.Contract

	mu    sync.Mutex
	token *securitytoken.Token
}

var _ Capabilities = (*Module)(nil)

// New wraps c. The contract ABI must include the common module methods.
func New(c *contract.Contract) *Module {
	return &Module{c: c}
}

// Contract returns the bound contract.
func (m *Module) Contract() *contract.Contract { return m.c }

func (m *Module) Address() common.Address { return m.c.Address }

// SecurityToken returns the token this module is attached to. The address is
// read once and cached.
func (m *Module) SecurityToken(ctx context.Context) (*securitytoken.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token != nil {
		return m.token, nil
	}
	out, err := m.c.Call(ctx, "securityToken")
	if err != nil {
		return nil, err
	}
	m.token = securitytoken.New(out[0].(common.Address), m.c.Transport(), m.c.Options()...)
	return m.token, nil
}

// Factory returns the address of the factory that deployed this module.
func (m *Module) Factory(ctx context.Context) (common.Address, error) {
	out, err := m.c.Call(ctx, "factory")
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func (m *Module) IsCallerTheSecurityTokenOwner(ctx context.Context, caller common.Address) (bool, error) {
	tok, err := m.SecurityToken(ctx)
	if err != nil {
		return false, err
	}
	owner, err := tok.Owner(ctx)
	if err != nil {
		return false, err
	}
	return owner == caller, nil
}

// IsCallerAllowed reports whether caller is the token owner or holds perm on
// this module. Delegated grants are answered by the token, which ignores
// archived permission managers.
func (m *Module) IsCallerAllowed(ctx context.Context, caller common.Address, perm Permission) (bool, error) {
	if _, err := perm.Bytes32(); err != nil {
		return false, err
	}
	owner, err := m.IsCallerTheSecurityTokenOwner(ctx, caller)
	if err != nil || owner {
		return owner, err
	}

	tok, err := m.SecurityToken(ctx)
	if err != nil {
		return false, err
	}
	managers, err := tok.GetModulesByType(ctx, permissionManagerType)
	if err != nil || len(managers) == 0 {
		return false, err
	}
	return tok.CheckPermission(ctx, caller, m.c.Address, string(perm))
}

// RequireAllowed fails with Unauthorized unless IsCallerAllowed holds.
func (m *Module) RequireAllowed(ctx context.Context, caller common.Address, perm Permission) error {
	ok, err := m.IsCallerAllowed(ctx, caller, perm)
	if err != nil {
		return err
	}
	if !ok {
		return polyerr.Unauthorized("caller", caller.Hex(), "needs %s permission on %s", perm, m.c.Address.Hex())
	}
	return nil
}

// RequireOwner fails with Unauthorized unless caller owns the token.
func (m *Module) RequireOwner(ctx context.Context, caller common.Address) error {
	ok, err := m.IsCallerTheSecurityTokenOwner(ctx, caller)
	if err != nil {
		return err
	}
	if !ok {
		return polyerr.Unauthorized("caller", caller.Hex(), "not the security token owner")
	}
	return nil
}

// GetPermissions returns the flags this module checks.
func (m *Module) GetPermissions(ctx context.Context) ([]Permission, error) {
	out, err := m.c.Call(ctx, "getPermissions")
	if err != nil {
		return nil, err
	}
	raw := out[0].([][32]byte)
	perms := make([]Permission, 0, len(raw))
	for _, b := range raw {
		p, err := ParsePermission(b)
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, nil
}

func (m *Module) Paused(ctx context.Context) (bool, error) {
	out, err := m.c.Call(ctx, "paused")
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

// Pause stops the module from enforcing its rules. Owner only.
func (m *Module) Pause(ctx context.Context, opts *contract.TxOpts) (*contract.TxHandle, error) {
	return m.setPaused(ctx, opts, true)
}

// Unpause resumes a paused module. Owner only.
func (m *Module) Unpause(ctx context.Context, opts *contract.TxOpts) (*contract.TxHandle, error) {
	return m.setPaused(ctx, opts, false)
}

func (m *Module) setPaused(ctx context.Context, opts *contract.TxOpts, pause bool) (*contract.TxHandle, error) {
	if err := CheckOpts(opts); err != nil {
		return nil, err
	}
	if err := m.RequireOwner(ctx, opts.From); err != nil {
		return nil, err
	}
	paused, err := m.Paused(ctx)
	if err != nil {
		return nil, err
	}
	if paused == pause {
		return nil, polyerr.PreconditionRequired("paused", paused, "module is already in that state")
	}
	method := "unpause"
	if pause {
		method = "pause"
	}
	return m.c.Transact(ctx, opts, method)
}

// TokenDecimals returns the decimals of the attached token.
func (m *Module) TokenDecimals(ctx context.Context) (uint8, error) {
	tok, err := m.SecurityToken(ctx)
	if err != nil {
		return 0, err
	}
	return tok.Decimals(ctx)
}

// Transact is a shorthand for the bound contract's Transact.
func (m *Module) Transact(ctx context.Context, opts *contract.TxOpts, method string, args ...any) (*contract.TxHandle, error) {
	return m.c.Transact(ctx, opts, method, args...)
}

// Call is a shorthand for the bound contract's Call.
func (m *Module) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	return m.c.Call(ctx, method, args...)
}

// CheckAddress rejects the zero address.
func CheckAddress(field string, a common.Address) error {
	if a == (common.Address{}) {
		return polyerr.InvalidData(field, a.Hex(), "must not be the zero address")
	}
	return nil
}

// CheckOpts rejects missing transaction options.
func CheckOpts(opts *contract.TxOpts) error {
	if opts == nil {
		return polyerr.InvalidData("opts", nil, "transaction options required")
	}
	return nil
}
