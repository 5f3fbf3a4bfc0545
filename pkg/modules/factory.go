package modules

import (
	"context"
	"io"

	"emperror.dev/errors"
	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/abis"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polyerr"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/units"
)

// Resolution failures. All of them also match polyerr.ErrNotFound.
const (
	ErrModuleNotFound     = errors.Sentinel("no contract code at module address")
	ErrUnsupportedModule  = errors.Sentinel("module is not supported")
	ErrUnsupportedVersion = errors.Sentinel("module version is not supported")
	ErrModuleMismatch     = errors.Sentinel("module name does not match")
)

// Factory resolves module addresses to wrappers and remembers the result
// per address.
type Factory struct {
	transport contract.Transport
	opts      []contract.Option
	logger    *log.Logger

	cache *cache.Cache
	group singleflight.Group
}

// NewFactory returns a Factory that binds wrappers over t with opts. A nil
// logger discards.
func NewFactory(t contract.Transport, logger *log.Logger, opts ...contract.Option) *Factory {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Factory{
		transport: t,
		opts:      opts,
		logger:    logger,
		cache:     cache.New(cache.NoExpiration, 0),
	}
}

func notFound(sentinel error, field string, value any, format string, args ...any) error {
	return polyerr.Wrap(sentinel, polyerr.KindNotFound, field, value, format, args...)
}

// Resolve returns the wrapper for the module called name at addr. The first
// successful resolution of an address is cached; concurrent first calls for
// the same address share one round of reads.
func (f *Factory) Resolve(ctx context.Context, name Name, addr common.Address) (Module, error) {
	key := addr.Hex()
	if m, ok := f.cache.Get(key); ok {
		mod := m.(Module)
		if mod.Descriptor().Name != name {
			return nil, notFound(ErrModuleMismatch, "module", addr.Hex(), "resolved as %s, not %s", mod.Descriptor().Name, name)
		}
		f.logger.Debug("module cache hit", "module", name, "address", key)
		return mod, nil
	}

	ch := f.group.DoChan(key, func() (any, error) {
		if m, ok := f.cache.Get(key); ok {
			return m, nil
		}
		m, err := f.resolve(context.WithoutCancel(ctx), name, addr)
		if err != nil {
			return nil, err
		}
		f.cache.Set(key, m, cache.NoExpiration)
		return m, nil
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	mod := res.Val.(Module)
	if mod.Descriptor().Name != name {
		return nil, notFound(ErrModuleMismatch, "module", addr.Hex(), "resolved as %s, not %s", mod.Descriptor().Name, name)
	}
	return mod, nil
}

func (f *Factory) resolve(ctx context.Context, name Name, addr common.Address) (Module, error) {
	kind, ok := name.Kind()
	if !ok || !hasName(name) {
		return nil, notFound(ErrUnsupportedModule, "module", string(name), "no wrapper registered")
	}

	code, err := f.transport.CodeAt(ctx, addr, nil)
	if err != nil {
		return nil, err
	}
	if len(code) == 0 {
		return nil, notFound(ErrModuleNotFound, "address", addr.Hex(), "expected %s", name)
	}

	mod := contract.New(addr, abis.MustGet(abis.Module).ABI, f.transport)
	out, err := mod.Call(ctx, "factory")
	if err != nil {
		return nil, err
	}
	factoryAddr := out[0].(common.Address)

	fac := contract.New(factoryAddr, abis.MustGet(abis.ModuleFactory).ABI, f.transport)
	out, err = fac.Call(ctx, "name")
	if err != nil {
		return nil, err
	}
	onChain := Name(units.Bytes32ToString(out[0].([32]byte)))
	if onChain != name {
		return nil, notFound(ErrModuleMismatch, "address", addr.Hex(), "factory reports %s, expected %s", onChain, name)
	}

	out, err = fac.Call(ctx, "version")
	if err != nil {
		return nil, err
	}
	raw := out[0].(string)
	version, err := ParseVersion(raw)
	if err != nil {
		return nil, err
	}

	reg, ok := lookup(name, version)
	if !ok {
		return nil, notFound(ErrUnsupportedVersion, "version", version.String(), "%s supports %v", name, Supported(name))
	}

	d := Descriptor{Kind: kind, Name: name, Address: addr, Version: version, Factory: factoryAddr}
	f.logger.Debug("module resolved", "module", name, "address", addr.Hex(), "version", version.String())
	return reg.New(d, f.transport, f.opts...), nil
}

// ResolveMany resolves addrs concurrently. The result has the order of
// addrs; the first failure cancels the rest and is returned.
func (f *Factory) ResolveMany(ctx context.Context, name Name, addrs []common.Address) ([]Module, error) {
	out := make([]Module, len(addrs))
	g, gctx := errgroup.WithContext(ctx)
	for i, addr := range addrs {
		g.Go(func() error {
			m, err := f.Resolve(gctx, name, addr)
			if err != nil {
				return err
			}
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Forget drops the cached wrapper for addr.
func (f *Factory) Forget(addr common.Address) {
	f.cache.Delete(addr.Hex())
}
