package volumerestriction

import (
	"context"
	"math/big"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/abis"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/capability"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/events"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polyerr"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/restriction"
)

func init() {
	modules.Register(modules.Registration{
		Name:    modules.VolumeRestrictionTM,
		Version: "3.0.0",
		New: func(d modules.Descriptor, t contract.Transport, opts ...contract.Option) modules.Module {
			return NewV300(d, t, opts...)
		},
	})
}

// V300 is the VolumeRestrictionTM 3.0.0 wrapper.
type V300 struct {
	*capability.Module

	events *events.Subscriber
	d      modules.Descriptor
	now    func() time.Time
}

var _ VolumeRestrictionTM = (*V300)(nil)

// NewV300 binds the 3.0.0 ABI to d.Address.
func NewV300(d modules.Descriptor, t contract.Transport, opts ...contract.Option) *V300 {
	def := abis.MustGet(abis.VolumeRestrictionTM300)
	c := contract.New(d.Address, def.ABI, t, opts...)
	return &V300{
		Module: capability.New(c),
		events: events.NewSubscriber(t, d.Address, events.NewSet(string(modules.VolumeRestrictionTM), def), c.Logger()),
		d:      d,
		now:    time.Now,
	}
}

func (v *V300) Descriptor() modules.Descriptor { return v.d }

func (v *V300) Events() *events.Subscriber { return v.events }

// family names the contract methods of one restriction family.
type family struct {
	get, add, modify, remove string
	addMulti, modifyMulti    string
	removeMulti              string
	daily                    bool
}

var (
	individual = family{
		get: "getIndividualRestriction", add: "addIndividualRestriction", modify: "modifyIndividualRestriction",
		remove: "removeIndividualRestriction", addMulti: "addIndividualRestrictionMulti",
		modifyMulti: "modifyIndividualRestrictionMulti", removeMulti: "removeIndividualRestrictionMulti",
	}
	individualDaily = family{
		get: "getIndividualDailyRestriction", add: "addIndividualDailyRestriction", modify: "modifyIndividualDailyRestriction",
		remove: "removeIndividualDailyRestriction", addMulti: "addIndividualDailyRestrictionMulti",
		modifyMulti: "modifyIndividualDailyRestrictionMulti", removeMulti: "removeIndividualDailyRestrictionMulti",
		daily: true,
	}
	defaults = family{
		get: "getDefaultRestriction", add: "addDefaultRestriction", modify: "modifyDefaultRestriction",
		remove: "removeDefaultRestriction",
	}
	defaultsDaily = family{
		get: "getDefaultDailyRestriction", add: "addDefaultDailyRestriction", modify: "modifyDefaultDailyRestriction",
		remove: "removeDefaultDailyRestriction", daily: true,
	}
)

func (f family) check(now time.Time, r restriction.Restriction) error {
	if f.daily {
		return restriction.CheckDailyRestriction(now, r)
	}
	return restriction.CheckRestriction(now, r)
}

// args encodes r in the argument order of f's add and modify methods.
func (f family) args(r restriction.Restriction, decimals uint8) ([]any, error) {
	allowed, start, rolling, end, typ, err := r.Encode(decimals)
	if err != nil {
		return nil, err
	}
	if f.daily {
		return []any{allowed, start, end, typ}, nil
	}
	return []any{allowed, start, rolling, end, typ}, nil
}

func (v *V300) ChangeExemptWalletList(ctx context.Context, opts *contract.TxOpts, wallet common.Address, exempt bool) (*contract.TxHandle, error) {
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	if err := capability.CheckAddress("wallet", wallet); err != nil {
		return nil, err
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	exempts, err := v.GetExemptAddresses(ctx)
	if err != nil {
		return nil, err
	}
	if slices.Contains(exempts, wallet) == exempt {
		msg := "already exempt"
		if !exempt {
			msg = "not exempt"
		}
		return nil, polyerr.PreconditionRequired("wallet", wallet.Hex(), "%s", msg)
	}
	return v.Transact(ctx, opts, "changeExemptWalletList", wallet, exempt)
}

func (v *V300) AddIndividualRestriction(ctx context.Context, opts *contract.TxOpts, holder common.Address, r restriction.Restriction) (*contract.TxHandle, error) {
	return v.setIndividual(ctx, opts, individual, true, holder, r)
}

func (v *V300) AddIndividualDailyRestriction(ctx context.Context, opts *contract.TxOpts, holder common.Address, r restriction.Restriction) (*contract.TxHandle, error) {
	return v.setIndividual(ctx, opts, individualDaily, true, holder, r)
}

// ModifyIndividualRestriction replaces the holder's restriction. The holder
// need not have one yet.
func (v *V300) ModifyIndividualRestriction(ctx context.Context, opts *contract.TxOpts, holder common.Address, r restriction.Restriction) (*contract.TxHandle, error) {
	return v.setIndividual(ctx, opts, individual, false, holder, r)
}

func (v *V300) ModifyIndividualDailyRestriction(ctx context.Context, opts *contract.TxOpts, holder common.Address, r restriction.Restriction) (*contract.TxHandle, error) {
	return v.setIndividual(ctx, opts, individualDaily, false, holder, r)
}

func (v *V300) setIndividual(ctx context.Context, opts *contract.TxOpts, f family, add bool, holder common.Address, r restriction.Restriction) (*contract.TxHandle, error) {
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	if err := capability.CheckAddress("holder", holder); err != nil {
		return nil, err
	}
	if err := f.check(v.now(), r); err != nil {
		return nil, err
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	if err := v.checkNotExempt(ctx, []common.Address{holder}, false); err != nil {
		return nil, err
	}
	if add {
		existing, err := v.readRestriction(ctx, f.get, holder)
		if err != nil {
			return nil, err
		}
		if existing.IsActive() {
			return nil, polyerr.AlreadyExists("holder", holder.Hex(), "already has an active restriction")
		}
	}
	decimals, err := v.TokenDecimals(ctx)
	if err != nil {
		return nil, err
	}
	args, err := f.args(r, decimals)
	if err != nil {
		return nil, err
	}
	method := f.modify
	if add {
		method = f.add
	}
	return v.Transact(ctx, opts, method, append([]any{holder}, args...)...)
}

func (v *V300) AddIndividualRestrictionMulti(ctx context.Context, opts *contract.TxOpts, m IndividualRestrictionMulti) (*contract.TxHandle, error) {
	rs, err := m.restrictions()
	if err != nil {
		return nil, err
	}
	return v.setIndividualMulti(ctx, opts, individual, true, m.Holders, rs)
}

func (v *V300) AddIndividualDailyRestrictionMulti(ctx context.Context, opts *contract.TxOpts, m IndividualDailyRestrictionMulti) (*contract.TxHandle, error) {
	rs, err := m.restrictions()
	if err != nil {
		return nil, err
	}
	return v.setIndividualMulti(ctx, opts, individualDaily, true, m.Holders, rs)
}

func (v *V300) ModifyIndividualRestrictionMulti(ctx context.Context, opts *contract.TxOpts, m IndividualRestrictionMulti) (*contract.TxHandle, error) {
	rs, err := m.restrictions()
	if err != nil {
		return nil, err
	}
	return v.setIndividualMulti(ctx, opts, individual, false, m.Holders, rs)
}

func (v *V300) ModifyIndividualDailyRestrictionMulti(ctx context.Context, opts *contract.TxOpts, m IndividualDailyRestrictionMulti) (*contract.TxHandle, error) {
	rs, err := m.restrictions()
	if err != nil {
		return nil, err
	}
	return v.setIndividualMulti(ctx, opts, individualDaily, false, m.Holders, rs)
}

func (v *V300) setIndividualMulti(ctx context.Context, opts *contract.TxOpts, f family, add bool, holders []common.Address, rs []restriction.Restriction) (*contract.TxHandle, error) {
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	now := v.now()
	for i, h := range holders {
		if err := capability.CheckAddress("holders", h); err != nil {
			return nil, polyerr.AtIndex(err, i)
		}
		if err := f.check(now, rs[i]); err != nil {
			return nil, polyerr.AtIndex(err, i)
		}
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	if err := v.checkNotExempt(ctx, holders, true); err != nil {
		return nil, err
	}
	if add {
		existing, err := v.readRestrictions(ctx, f.get, holders)
		if err != nil {
			return nil, err
		}
		for i, e := range existing {
			if e.IsActive() {
				return nil, polyerr.AtIndex(polyerr.AlreadyExists("holders", holders[i].Hex(), "already has an active restriction"), i)
			}
		}
	}
	decimals, err := v.TokenDecimals(ctx)
	if err != nil {
		return nil, err
	}

	n := len(holders)
	allowed := make([]*big.Int, n)
	starts := make([]*big.Int, n)
	rolling := make([]*big.Int, n)
	ends := make([]*big.Int, n)
	types := make([]uint8, n)
	for i, r := range rs {
		a, s, ro, e, ty, err := r.Encode(decimals)
		if err != nil {
			return nil, polyerr.AtIndex(err, i)
		}
		allowed[i], starts[i], rolling[i], ends[i], types[i] = a, s, ro, e, ty
	}

	method := f.modifyMulti
	if add {
		method = f.addMulti
	}
	if f.daily {
		return v.Transact(ctx, opts, method, holders, allowed, starts, ends, types)
	}
	return v.Transact(ctx, opts, method, holders, allowed, starts, rolling, ends, types)
}

func (v *V300) RemoveIndividualRestriction(ctx context.Context, opts *contract.TxOpts, holder common.Address) (*contract.TxHandle, error) {
	return v.removeIndividual(ctx, opts, individual, holder)
}

func (v *V300) RemoveIndividualDailyRestriction(ctx context.Context, opts *contract.TxOpts, holder common.Address) (*contract.TxHandle, error) {
	return v.removeIndividual(ctx, opts, individualDaily, holder)
}

func (v *V300) removeIndividual(ctx context.Context, opts *contract.TxOpts, f family, holder common.Address) (*contract.TxHandle, error) {
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	if err := capability.CheckAddress("holder", holder); err != nil {
		return nil, err
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	existing, err := v.readRestriction(ctx, f.get, holder)
	if err != nil {
		return nil, err
	}
	if !existing.IsActive() {
		return nil, polyerr.PreconditionRequired("holder", holder.Hex(), "has no active restriction")
	}
	return v.Transact(ctx, opts, f.remove, holder)
}

func (v *V300) RemoveIndividualRestrictionMulti(ctx context.Context, opts *contract.TxOpts, holders []common.Address) (*contract.TxHandle, error) {
	return v.removeIndividualMulti(ctx, opts, individual, holders)
}

func (v *V300) RemoveIndividualDailyRestrictionMulti(ctx context.Context, opts *contract.TxOpts, holders []common.Address) (*contract.TxHandle, error) {
	return v.removeIndividualMulti(ctx, opts, individualDaily, holders)
}

func (v *V300) removeIndividualMulti(ctx context.Context, opts *contract.TxOpts, f family, holders []common.Address) (*contract.TxHandle, error) {
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	if len(holders) == 0 {
		return nil, polyerr.InvalidData("holders", 0, "must not be empty")
	}
	for i, h := range holders {
		if err := capability.CheckAddress("holders", h); err != nil {
			return nil, polyerr.AtIndex(err, i)
		}
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	existing, err := v.readRestrictions(ctx, f.get, holders)
	if err != nil {
		return nil, err
	}
	for i, e := range existing {
		if !e.IsActive() {
			return nil, polyerr.AtIndex(polyerr.PreconditionRequired("holders", holders[i].Hex(), "has no active restriction"), i)
		}
	}
	return v.Transact(ctx, opts, f.removeMulti, holders)
}

func (v *V300) AddDefaultRestriction(ctx context.Context, opts *contract.TxOpts, r restriction.Restriction) (*contract.TxHandle, error) {
	return v.setDefault(ctx, opts, defaults, true, r)
}

func (v *V300) AddDefaultDailyRestriction(ctx context.Context, opts *contract.TxOpts, r restriction.Restriction) (*contract.TxHandle, error) {
	return v.setDefault(ctx, opts, defaultsDaily, true, r)
}

func (v *V300) ModifyDefaultRestriction(ctx context.Context, opts *contract.TxOpts, r restriction.Restriction) (*contract.TxHandle, error) {
	return v.setDefault(ctx, opts, defaults, false, r)
}

func (v *V300) ModifyDefaultDailyRestriction(ctx context.Context, opts *contract.TxOpts, r restriction.Restriction) (*contract.TxHandle, error) {
	return v.setDefault(ctx, opts, defaultsDaily, false, r)
}

func (v *V300) setDefault(ctx context.Context, opts *contract.TxOpts, f family, add bool, r restriction.Restriction) (*contract.TxHandle, error) {
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	if err := f.check(v.now(), r); err != nil {
		return nil, err
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	if add {
		existing, err := v.readRestriction(ctx, f.get)
		if err != nil {
			return nil, err
		}
		if existing.IsActive() {
			return nil, polyerr.AlreadyExists("restriction", f.get, "default restriction already active")
		}
	}
	decimals, err := v.TokenDecimals(ctx)
	if err != nil {
		return nil, err
	}
	args, err := f.args(r, decimals)
	if err != nil {
		return nil, err
	}
	method := f.modify
	if add {
		method = f.add
	}
	return v.Transact(ctx, opts, method, args...)
}

func (v *V300) RemoveDefaultRestriction(ctx context.Context, opts *contract.TxOpts) (*contract.TxHandle, error) {
	return v.removeDefault(ctx, opts, defaults)
}

func (v *V300) RemoveDefaultDailyRestriction(ctx context.Context, opts *contract.TxOpts) (*contract.TxHandle, error) {
	return v.removeDefault(ctx, opts, defaultsDaily)
}

func (v *V300) removeDefault(ctx context.Context, opts *contract.TxOpts, f family) (*contract.TxHandle, error) {
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	existing, err := v.readRestriction(ctx, f.get)
	if err != nil {
		return nil, err
	}
	if !existing.IsActive() {
		return nil, polyerr.PreconditionRequired("restriction", f.get, "no active default restriction")
	}
	return v.Transact(ctx, opts, f.remove)
}

func (v *V300) GetExemptAddresses(ctx context.Context) ([]common.Address, error) {
	out, err := v.Call(ctx, "getExemptAddress")
	if err != nil {
		return nil, err
	}
	return out[0].([]common.Address), nil
}

func (v *V300) GetIndividualRestriction(ctx context.Context, holder common.Address) (restriction.Restriction, error) {
	return v.readRestriction(ctx, individual.get, holder)
}

func (v *V300) GetIndividualDailyRestriction(ctx context.Context, holder common.Address) (restriction.Restriction, error) {
	return v.readRestriction(ctx, individualDaily.get, holder)
}

func (v *V300) GetDefaultRestriction(ctx context.Context) (restriction.Restriction, error) {
	return v.readRestriction(ctx, defaults.get)
}

func (v *V300) GetDefaultDailyRestriction(ctx context.Context) (restriction.Restriction, error) {
	return v.readRestriction(ctx, defaultsDaily.get)
}

// GetRestrictionData lists every individual restriction the module holds.
func (v *V300) GetRestrictionData(ctx context.Context) ([]HolderRestriction, error) {
	decimals, err := v.TokenDecimals(ctx)
	if err != nil {
		return nil, err
	}
	out, err := v.Call(ctx, "getRestrictionData")
	if err != nil {
		return nil, err
	}
	holders := out[0].([]common.Address)
	allowed := out[1].([]*big.Int)
	starts := out[2].([]*big.Int)
	rolling := out[3].([]*big.Int)
	ends := out[4].([]*big.Int)
	types := out[5].([]uint8)
	if err := polyerr.CheckLengths([]string{"allAddresses", "allowedTokens", "startTime", "rollingPeriodInDays", "endTime", "typeOfRestriction"},
		len(holders), len(allowed), len(starts), len(rolling), len(ends), len(types)); err != nil {
		return nil, err
	}

	rows := make([]HolderRestriction, len(holders))
	for i, h := range holders {
		rows[i] = HolderRestriction{
			Holder:      h,
			Restriction: restriction.Decode(allowed[i], starts[i], rolling[i], ends[i], types[i], decimals),
		}
	}
	return rows, nil
}

func (v *V300) VerifyTransfer(ctx context.Context, from, to common.Address, amount *big.Rat, data []byte) (modules.Verification, error) {
	return modules.VerifyTransfer(ctx, v.Module, from, to, amount, data)
}

func (v *V300) readRestriction(ctx context.Context, method string, args ...any) (restriction.Restriction, error) {
	decimals, err := v.TokenDecimals(ctx)
	if err != nil {
		return restriction.Restriction{}, err
	}
	out, err := v.Call(ctx, method, args...)
	if err != nil {
		return restriction.Restriction{}, err
	}
	return restriction.Decode(out[0].(*big.Int), out[1].(*big.Int), out[2].(*big.Int), out[3].(*big.Int), out[4].(uint8), decimals), nil
}

// readRestrictions reads the restriction of every holder concurrently; the
// result follows the order of holders.
func (v *V300) readRestrictions(ctx context.Context, method string, holders []common.Address) ([]restriction.Restriction, error) {
	out := make([]restriction.Restriction, len(holders))
	g, gctx := errgroup.WithContext(ctx)
	for i, h := range holders {
		g.Go(func() error {
			r, err := v.readRestriction(gctx, method, h)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// checkNotExempt rejects exempt holders. Batch errors name holders[i].
func (v *V300) checkNotExempt(ctx context.Context, holders []common.Address, batch bool) error {
	exempts, err := v.GetExemptAddresses(ctx)
	if err != nil {
		return err
	}
	for i, h := range holders {
		if !slices.Contains(exempts, h) {
			continue
		}
		if !batch {
			return polyerr.PreconditionRequired("holder", h.Hex(), "is on the exemption list")
		}
		return polyerr.AtIndex(polyerr.PreconditionRequired("holders", h.Hex(), "is on the exemption list"), i)
	}
	return nil
}

func (m IndividualRestrictionMulti) restrictions() ([]restriction.Restriction, error) {
	if err := polyerr.CheckLengths(
		[]string{"holders", "allowedTokens", "startTimes", "rollingPeriodInDays", "endTimes", "restrictionTypes"},
		len(m.Holders), len(m.AllowedTokens), len(m.StartTimes), len(m.RollingPeriodInDays), len(m.EndTimes), len(m.RestrictionTypes),
	); err != nil {
		return nil, err
	}
	if len(m.Holders) == 0 {
		return nil, polyerr.InvalidData("holders", 0, "must not be empty")
	}
	rs := make([]restriction.Restriction, len(m.Holders))
	for i := range rs {
		rs[i] = restriction.Restriction{
			AllowedTokens:       m.AllowedTokens[i],
			StartTime:           m.StartTimes[i],
			EndTime:             m.EndTimes[i],
			RollingPeriodInDays: m.RollingPeriodInDays[i],
			Type:                m.RestrictionTypes[i],
		}
	}
	return rs, nil
}

func (m IndividualDailyRestrictionMulti) restrictions() ([]restriction.Restriction, error) {
	if err := polyerr.CheckLengths(
		[]string{"holders", "allowedTokens", "startTimes", "endTimes", "restrictionTypes"},
		len(m.Holders), len(m.AllowedTokens), len(m.StartTimes), len(m.EndTimes), len(m.RestrictionTypes),
	); err != nil {
		return nil, err
	}
	if len(m.Holders) == 0 {
		return nil, polyerr.InvalidData("holders", 0, "must not be empty")
	}
	rs := make([]restriction.Restriction, len(m.Holders))
	for i := range rs {
		rs[i] = restriction.Restriction{
			AllowedTokens:       m.AllowedTokens[i],
			StartTime:           m.StartTimes[i],
			EndTime:             m.EndTimes[i],
			RollingPeriodInDays: 1,
			Type:                m.RestrictionTypes[i],
		}
	}
	return rs, nil
}
