// Package permission wraps the GeneralPermissionManager, which lets the token
// owner delegate per-module permissions to other addresses.
package permission

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/abis"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/capability"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/events"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polyerr"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/units"
)

type GeneralPermissionManager interface {
	modules.Module

	AddDelegate(ctx context.Context, opts *contract.TxOpts, delegate common.Address, details string) (*contract.TxHandle, error)
	DeleteDelegate(ctx context.Context, opts *contract.TxOpts, delegate common.Address) (*contract.TxHandle, error)
	CheckDelegate(ctx context.Context, delegate common.Address) (bool, error)
	DelegateDetails(ctx context.Context, delegate common.Address) (string, error)
	ChangePermission(ctx context.Context, opts *contract.TxOpts, delegate, module common.Address, perm capability.Permission, valid bool) (*contract.TxHandle, error)
	ChangePermissionMulti(ctx context.Context, opts *contract.TxOpts, delegate common.Address, mods []common.Address, perms []capability.Permission, valids []bool) (*contract.TxHandle, error)
	CheckPermission(ctx context.Context, delegate, module common.Address, perm capability.Permission) (bool, error)
	GetAllDelegates(ctx context.Context) ([]common.Address, error)
	GetAllDelegatesWithPerm(ctx context.Context, module common.Address, perm capability.Permission) ([]common.Address, error)

	Events() *events.Subscriber
}

func init() {
	modules.Register(modules.Registration{
		Name:    modules.GeneralPermissionManager,
		Version: "3.0.0",
		New: func(d modules.Descriptor, t contract.Transport, opts ...contract.Option) modules.Module {
			return NewV300(d, t, opts...)
		},
	})
}

// V300 is the GeneralPermissionManager 3.0.0 wrapper.
type V300 struct {
	*capability.Module

	events *events.Subscriber
	d      modules.Descriptor
}

var _ GeneralPermissionManager = (*V300)(nil)

func NewV300(d modules.Descriptor, t contract.Transport, opts ...contract.Option) *V300 {
	def := abis.MustGet(abis.GeneralPermissionManager300)
	c := contract.New(d.Address, def.ABI, t, opts...)
	return &V300{
		Module: capability.New(c),
		events: events.NewSubscriber(t, d.Address, events.NewSet(string(modules.GeneralPermissionManager), def), c.Logger()),
		d:      d,
	}
}

func (v *V300) Descriptor() modules.Descriptor { return v.d }

func (v *V300) Events() *events.Subscriber { return v.events }

// AddDelegate registers delegate with a short description.
func (v *V300) AddDelegate(ctx context.Context, opts *contract.TxOpts, delegate common.Address, details string) (*contract.TxHandle, error) {
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	if err := capability.CheckAddress("delegate", delegate); err != nil {
		return nil, err
	}
	if details == "" {
		return nil, polyerr.InvalidData("details", details, "must not be empty")
	}
	raw, err := units.StringToBytes32(details)
	if err != nil {
		return nil, polyerr.InvalidData("details", details, "longer than 32 bytes")
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	exists, err := v.CheckDelegate(ctx, delegate)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, polyerr.AlreadyExists("delegate", delegate.Hex(), "delegate already registered")
	}
	return v.Transact(ctx, opts, "addDelegate", delegate, raw)
}

func (v *V300) DeleteDelegate(ctx context.Context, opts *contract.TxOpts, delegate common.Address) (*contract.TxHandle, error) {
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	if err := capability.CheckAddress("delegate", delegate); err != nil {
		return nil, err
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	if err := v.requireDelegate(ctx, delegate); err != nil {
		return nil, err
	}
	return v.Transact(ctx, opts, "deleteDelegate", delegate)
}

func (v *V300) CheckDelegate(ctx context.Context, delegate common.Address) (bool, error) {
	out, err := v.Call(ctx, "checkDelegate", delegate)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

func (v *V300) DelegateDetails(ctx context.Context, delegate common.Address) (string, error) {
	out, err := v.Call(ctx, "delegateDetails", delegate)
	if err != nil {
		return "", err
	}
	return units.Bytes32ToString(out[0].([32]byte)), nil
}

// ChangePermission grants or revokes perm on module for an existing delegate.
func (v *V300) ChangePermission(ctx context.Context, opts *contract.TxOpts, delegate, module common.Address, perm capability.Permission, valid bool) (*contract.TxHandle, error) {
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	if err := capability.CheckAddress("delegate", delegate); err != nil {
		return nil, err
	}
	if err := capability.CheckAddress("module", module); err != nil {
		return nil, err
	}
	flag, err := perm.Bytes32()
	if err != nil {
		return nil, err
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	if err := v.requireDelegate(ctx, delegate); err != nil {
		return nil, err
	}
	return v.Transact(ctx, opts, "changePermission", delegate, module, flag, valid)
}

func (v *V300) ChangePermissionMulti(ctx context.Context, opts *contract.TxOpts, delegate common.Address, mods []common.Address, perms []capability.Permission, valids []bool) (*contract.TxHandle, error) {
	if err := polyerr.CheckLengths([]string{"modules", "perms", "valids"}, len(mods), len(perms), len(valids)); err != nil {
		return nil, err
	}
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	if err := capability.CheckAddress("delegate", delegate); err != nil {
		return nil, err
	}
	if len(mods) == 0 {
		return nil, polyerr.InvalidData("modules", 0, "must not be empty")
	}
	flags := make([][32]byte, len(perms))
	for i := range mods {
		if err := capability.CheckAddress("modules", mods[i]); err != nil {
			return nil, polyerr.AtIndex(err, i)
		}
		f, err := perms[i].Bytes32()
		if err != nil {
			return nil, polyerr.AtIndex(err, i)
		}
		flags[i] = f
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	if err := v.requireDelegate(ctx, delegate); err != nil {
		return nil, err
	}
	return v.Transact(ctx, opts, "changePermissionMulti", delegate, mods, flags, valids)
}

func (v *V300) CheckPermission(ctx context.Context, delegate, module common.Address, perm capability.Permission) (bool, error) {
	flag, err := perm.Bytes32()
	if err != nil {
		return false, err
	}
	out, err := v.Call(ctx, "checkPermission", delegate, module, flag)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

func (v *V300) GetAllDelegates(ctx context.Context) ([]common.Address, error) {
	out, err := v.Call(ctx, "getAllDelegates")
	if err != nil {
		return nil, err
	}
	return out[0].([]common.Address), nil
}

func (v *V300) GetAllDelegatesWithPerm(ctx context.Context, module common.Address, perm capability.Permission) ([]common.Address, error) {
	flag, err := perm.Bytes32()
	if err != nil {
		return nil, err
	}
	out, err := v.Call(ctx, "getAllDelegatesWithPerm", module, flag)
	if err != nil {
		return nil, err
	}
	return out[0].([]common.Address), nil
}

func (v *V300) requireDelegate(ctx context.Context, delegate common.Address) error {
	ok, err := v.CheckDelegate(ctx, delegate)
	if err != nil {
		return err
	}
	if !ok {
		return polyerr.NotFound("delegate", delegate.Hex(), "not a registered delegate")
	}
	return nil
}
