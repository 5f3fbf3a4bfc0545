package contracttest

import (
	"bytes"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/abis"
)

// Token sets up a security token at addr owned by owner. Permission grants
// added with Grant are answered by a single permission manager module.
type Token struct {
	Address common.Address
	Owner   common.Address
	Manager common.Address

	mu     sync.Mutex
	grants map[grantKey]bool
	be     *Backend
}

type grantKey struct {
	delegate common.Address
	module   common.Address
	perm     [32]byte
}

// MockToken routes the security token reads the wrappers use.
func (b *Backend) MockToken(addr, owner common.Address, decimals uint8) *Token {
	t := &Token{Address: addr, Owner: owner, grants: make(map[grantKey]bool), be: b}
	def := abis.MustGet(abis.SecurityToken).ABI
	b.Return(addr, def, "owner", owner)
	b.Return(addr, def, "decimals", decimals)
	b.Return(addr, def, "getModulesByType", []common.Address{})
	b.Handle(addr, def, "checkPermission", t.check)
	return t
}

// Grant gives delegate perm on module through a permission manager module
// attached to the token.
func (t *Token) Grant(delegate, module common.Address, perm string) {
	var flag [32]byte
	copy(flag[:], perm)

	t.mu.Lock()
	t.grants[grantKey{delegate, module, flag}] = true
	first := t.Manager == (common.Address{})
	if first {
		t.Manager = common.BytesToAddress(append(bytes.Repeat([]byte{0xee}, 19), t.Address[19]))
	}
	manager := t.Manager
	t.mu.Unlock()

	if first {
		tokDef := abis.MustGet(abis.SecurityToken).ABI
		t.be.Return(t.Address, tokDef, "getModulesByType", []common.Address{manager})
		pmDef := abis.MustGet(abis.GeneralPermissionManager300).ABI
		t.be.Handle(manager, pmDef, "checkPermission", t.check)
	}
}

func (t *Token) check(args []any) ([]any, error) {
	k := grantKey{args[0].(common.Address), args[1].(common.Address), args[2].([32]byte)}
	t.mu.Lock()
	defer t.mu.Unlock()
	return []any{t.grants[k]}, nil
}

// MockModule routes the common module reads for a module at addr that is
// attached to token and was deployed by factory.
func (b *Backend) MockModule(key string, addr, token, factory common.Address) {
	def := abis.MustGet(key).ABI
	b.Return(addr, def, "securityToken", token)
	b.Return(addr, def, "factory", factory)
	b.Return(addr, def, "paused", false)
	b.Return(addr, def, "getPermissions", [][32]byte{flag("ADMIN")})
}

// MockFactory routes name() and version() for a module factory.
func (b *Backend) MockFactory(addr common.Address, name, version string) {
	def := abis.MustGet(abis.ModuleFactory).ABI
	b.Return(addr, def, "name", flag(name))
	b.Return(addr, def, "version", version)
}

func flag(s string) [32]byte {
	var b [32]byte
	copy(b[:], s)
	return b
}
