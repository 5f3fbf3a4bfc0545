// Package polymath is the entry point of the library. A Client binds a
// transport to the module factory and hands out typed wrappers for the
// modules attached to a security token.
//
//	client, err := polymath.New(ethClient, polymath.WithLogger(logger))
//	vrtm, err := client.VolumeRestrictionTM(ctx, moduleAddr)
//	h, err := vrtm.AddIndividualRestriction(ctx, opts, holder, r)
package polymath

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules/generaltm"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules/lockup"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules/permission"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules/volumerestriction"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polyerr"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/securitytoken"
)

// DefaultNetwork is used when WithNetwork is not given.
const DefaultNetwork = "mainnet"

// Registries maps known networks to their Polymath registry address.
var Registries = map[string]common.Address{
	"mainnet": common.HexToAddress("0xdfabf3e4793cd30affb47ab6fa4cf4eef26bbc27"),
	"kovan":   common.HexToAddress("0x5b215a7d39ee305ad28da29bf2f0425c6c2a00b3"),
}

type Client struct {
	transport contract.Transport
	network   string
	registry  common.Address
	logger    *log.Logger
	gasFactor float64

	factory *modules.Factory
}

type Option func(*Client)

func WithNetwork(name string) Option {
	return func(c *Client) { c.network = strings.ToLower(name) }
}

// WithRegistryAddress overrides the network's default registry.
func WithRegistryAddress(addr common.Address) Option {
	return func(c *Client) { c.registry = addr }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithGasSafetyFactor sets the multiplier applied to gas estimates of every
// transaction sent through the client's wrappers.
func WithGasSafetyFactor(f float64) Option {
	return func(c *Client) { c.gasFactor = f }
}

// New returns a Client over t. It fails with InvalidData when the network has
// no known registry and none was given.
func New(t contract.Transport, opts ...Option) (*Client, error) {
	c := &Client{
		transport: t,
		network:   DefaultNetwork,
		gasFactor: contract.DefaultGasSafetyFactor,
	}
	for _, opt := range opts {
		opt(c)
	}
	if t == nil {
		return nil, polyerr.InvalidData("transport", nil, "must not be nil")
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	if c.gasFactor < 1 {
		return nil, polyerr.InvalidData("gasSafetyFactor", c.gasFactor, "must be at least 1")
	}
	if c.registry == (common.Address{}) {
		reg, ok := Registries[c.network]
		if !ok {
			return nil, polyerr.InvalidData("network", c.network, "no default registry, set one with WithRegistryAddress")
		}
		c.registry = reg
	}

	c.factory = modules.NewFactory(t, c.logger, c.contractOptions()...)
	c.logger.Debug("client ready", "network", c.network, "registry", c.registry.Hex())
	return c, nil
}

func (c *Client) contractOptions() []contract.Option {
	return []contract.Option{contract.WithLogger(c.logger), contract.WithGasSafetyFactor(c.gasFactor)}
}

func (c *Client) Network() string { return c.network }

func (c *Client) RegistryAddress() common.Address { return c.registry }

func (c *Client) Transport() contract.Transport { return c.transport }

func (c *Client) Logger() *log.Logger { return c.logger }

// Factory returns the module factory shared by every getter.
func (c *Client) Factory() *modules.Factory { return c.factory }

func (c *Client) SecurityToken(addr common.Address) *securitytoken.Token {
	return securitytoken.New(addr, c.transport, c.contractOptions()...)
}

// AttachedModules resolves every module called name attached to token, in the
// order the token lists them.
func (c *Client) AttachedModules(ctx context.Context, token common.Address, name modules.Name) ([]modules.Module, error) {
	addrs, err := c.SecurityToken(token).GetModulesByName(ctx, string(name))
	if err != nil {
		return nil, err
	}
	return c.factory.ResolveMany(ctx, name, addrs)
}

func (c *Client) VolumeRestrictionTM(ctx context.Context, addr common.Address) (volumerestriction.VolumeRestrictionTM, error) {
	return resolveAs[volumerestriction.VolumeRestrictionTM](ctx, c, modules.VolumeRestrictionTM, addr)
}

func (c *Client) LockUpTransferManager(ctx context.Context, addr common.Address) (lockup.LockUpTransferManager, error) {
	return resolveAs[lockup.LockUpTransferManager](ctx, c, modules.LockUpTransferManager, addr)
}

func (c *Client) GeneralTransferManager(ctx context.Context, addr common.Address) (generaltm.GeneralTransferManager, error) {
	return resolveAs[generaltm.GeneralTransferManager](ctx, c, modules.GeneralTransferManager, addr)
}

func (c *Client) GeneralPermissionManager(ctx context.Context, addr common.Address) (permission.GeneralPermissionManager, error) {
	return resolveAs[permission.GeneralPermissionManager](ctx, c, modules.GeneralPermissionManager, addr)
}

func resolveAs[T modules.Module](ctx context.Context, c *Client, name modules.Name, addr common.Address) (T, error) {
	var zero T
	m, err := c.factory.Resolve(ctx, name, addr)
	if err != nil {
		return zero, err
	}
	typed, ok := m.(T)
	if !ok {
		return zero, polyerr.Wrap(modules.ErrModuleMismatch, polyerr.KindNotFound, "module", addr.Hex(), "%s wrapper has an unexpected type", name)
	}
	return typed, nil
}
