package lockup

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
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/units"
)

func init() {
	modules.Register(modules.Registration{
		Name:    modules.LockUpTransferManager,
		Version: "3.0.0",
		New: func(d modules.Descriptor, t contract.Transport, opts ...contract.Option) modules.Module {
			return NewV300(d, t, opts...)
		},
	})
}

// V300 is the LockUpTransferManager 3.0.0 wrapper.
type V300 struct {
	*capability.Module

	events *events.Subscriber
	d      modules.Descriptor
	now    func() time.Time
}

var _ LockUpTransferManager = (*V300)(nil)

func NewV300(d modules.Descriptor, t contract.Transport, opts ...contract.Option) *V300 {
	def := abis.MustGet(abis.LockUpTransferManager300)
	c := contract.New(d.Address, def.ABI, t, opts...)
	return &V300{
		Module: capability.New(c),
		events: events.NewSubscriber(t, d.Address, events.NewSet(string(modules.LockUpTransferManager), def), c.Logger()),
		d:      d,
		now:    time.Now,
	}
}

func (v *V300) Descriptor() modules.Descriptor { return v.d }

func (v *V300) Events() *events.Subscriber { return v.events }

// AddNewLockUpType defines a lockup type. The name must be unused.
func (v *V300) AddNewLockUpType(ctx context.Context, opts *contract.TxOpts, l restriction.LockUp) (*contract.TxHandle, error) {
	return v.AddNewLockUpTypeMulti(ctx, opts, []restriction.LockUp{l})
}

func (v *V300) AddNewLockUpTypeMulti(ctx context.Context, opts *contract.TxOpts, ls []restriction.LockUp) (*contract.TxHandle, error) {
	return v.setTypes(ctx, opts, ls, true)
}

// ModifyLockUpType replaces the schedule of an existing lockup type.
func (v *V300) ModifyLockUpType(ctx context.Context, opts *contract.TxOpts, l restriction.LockUp) (*contract.TxHandle, error) {
	return v.ModifyLockUpTypeMulti(ctx, opts, []restriction.LockUp{l})
}

func (v *V300) ModifyLockUpTypeMulti(ctx context.Context, opts *contract.TxOpts, ls []restriction.LockUp) (*contract.TxHandle, error) {
	return v.setTypes(ctx, opts, ls, false)
}

func (v *V300) setTypes(ctx context.Context, opts *contract.TxOpts, ls []restriction.LockUp, add bool) (*contract.TxHandle, error) {
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	if len(ls) == 0 {
		return nil, polyerr.InvalidData("lockups", 0, "must not be empty")
	}
	now := v.now()
	names := make([]string, len(ls))
	for i, l := range ls {
		if err := restriction.CheckLockUp(now, l); err != nil {
			return nil, index(err, i, len(ls))
		}
		if slices.Contains(names[:i], l.Name) {
			return nil, index(polyerr.InvalidData("lockupName", l.Name, "appears more than once"), i, len(ls))
		}
		names[i] = l.Name
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	exists, err := v.typesExist(ctx, names)
	if err != nil {
		return nil, err
	}
	for i, ok := range exists {
		if add && ok {
			return nil, index(polyerr.AlreadyExists("lockupName", names[i], "lockup type already exists"), i, len(ls))
		}
		if !add && !ok {
			return nil, index(polyerr.NotFound("lockupName", names[i], "no such lockup type"), i, len(ls))
		}
	}
	decimals, err := v.TokenDecimals(ctx)
	if err != nil {
		return nil, err
	}
	cols, err := encodeLockUps(ls, decimals)
	if err != nil {
		return nil, err
	}

	method := "modifyLockUpType"
	if add {
		method = "addNewLockUpType"
	}
	if len(ls) == 1 {
		return v.Transact(ctx, opts, method, cols.amounts[0], cols.starts[0], cols.periods[0], cols.frequencies[0], cols.names[0])
	}
	return v.Transact(ctx, opts, method+"Multi", cols.amounts, cols.starts, cols.periods, cols.frequencies, cols.names)
}

// RemoveLockupType deletes a lockup type nobody is assigned to.
func (v *V300) RemoveLockupType(ctx context.Context, opts *contract.TxOpts, name string) (*contract.TxHandle, error) {
	return v.RemoveLockupTypeMulti(ctx, opts, []string{name})
}

func (v *V300) RemoveLockupTypeMulti(ctx context.Context, opts *contract.TxOpts, names []string) (*contract.TxHandle, error) {
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	raw, err := encodeNames(names)
	if err != nil {
		return nil, err
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	exists, err := v.typesExist(ctx, names)
	if err != nil {
		return nil, err
	}
	holders := make([][]common.Address, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() (err error) {
			holders[i], err = v.GetListOfAddresses(gctx, name)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, name := range names {
		if !exists[i] {
			return nil, index(polyerr.NotFound("lockupName", name, "no such lockup type"), i, len(names))
		}
		if len(holders[i]) > 0 {
			return nil, index(polyerr.PreconditionRequired("lockupName", name, "still assigned to %d users", len(holders[i])), i, len(names))
		}
	}
	if len(names) == 1 {
		return v.Transact(ctx, opts, "removeLockupType", raw[0])
	}
	return v.Transact(ctx, opts, "removeLockupTypeMulti", raw)
}

// AddLockUpByName assigns an existing lockup type to user.
func (v *V300) AddLockUpByName(ctx context.Context, opts *contract.TxOpts, user common.Address, name string) (*contract.TxHandle, error) {
	return v.AddLockUpByNameMulti(ctx, opts, []common.Address{user}, []string{name})
}

func (v *V300) AddLockUpByNameMulti(ctx context.Context, opts *contract.TxOpts, users []common.Address, names []string) (*contract.TxHandle, error) {
	raw, err := v.checkAssignments(ctx, opts, users, names)
	if err != nil {
		return nil, err
	}
	exists, err := v.typesExist(ctx, names)
	if err != nil {
		return nil, err
	}
	for i, ok := range exists {
		if !ok {
			return nil, index(polyerr.NotFound("lockupName", names[i], "no such lockup type"), i, len(names))
		}
	}
	assigned, err := v.userLockups(ctx, users)
	if err != nil {
		return nil, err
	}
	for i, has := range assigned {
		if slices.Contains(has, names[i]) {
			return nil, index(polyerr.AlreadyExists("userAddress", users[i].Hex(), "already has lockup %q", names[i]), i, len(users))
		}
	}
	if len(users) == 1 {
		return v.Transact(ctx, opts, "addLockUpByName", users[0], raw[0])
	}
	return v.Transact(ctx, opts, "addLockUpByNameMulti", users, raw)
}

// AddNewLockUpToUser defines a lockup type and assigns it to user in one
// transaction.
func (v *V300) AddNewLockUpToUser(ctx context.Context, opts *contract.TxOpts, user common.Address, l restriction.LockUp) (*contract.TxHandle, error) {
	return v.AddNewLockUpToUserMulti(ctx, opts, []common.Address{user}, []restriction.LockUp{l})
}

func (v *V300) AddNewLockUpToUserMulti(ctx context.Context, opts *contract.TxOpts, users []common.Address, ls []restriction.LockUp) (*contract.TxHandle, error) {
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	if err := polyerr.CheckLengths([]string{"userAddresses", "lockups"}, len(users), len(ls)); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, polyerr.InvalidData("userAddresses", 0, "must not be empty")
	}
	now := v.now()
	names := make([]string, len(ls))
	for i := range ls {
		if err := capability.CheckAddress("userAddress", users[i]); err != nil {
			return nil, index(err, i, len(users))
		}
		if err := restriction.CheckLockUp(now, ls[i]); err != nil {
			return nil, index(err, i, len(users))
		}
		if slices.Contains(names[:i], ls[i].Name) {
			return nil, index(polyerr.InvalidData("lockupName", ls[i].Name, "appears more than once"), i, len(ls))
		}
		names[i] = ls[i].Name
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	exists, err := v.typesExist(ctx, names)
	if err != nil {
		return nil, err
	}
	for i, ok := range exists {
		if ok {
			return nil, index(polyerr.AlreadyExists("lockupName", names[i], "lockup type already exists"), i, len(names))
		}
	}
	decimals, err := v.TokenDecimals(ctx)
	if err != nil {
		return nil, err
	}
	cols, err := encodeLockUps(ls, decimals)
	if err != nil {
		return nil, err
	}
	if len(users) == 1 {
		return v.Transact(ctx, opts, "addNewLockUpToUser", users[0], cols.amounts[0], cols.starts[0], cols.periods[0], cols.frequencies[0], cols.names[0])
	}
	return v.Transact(ctx, opts, "addNewLockUpToUserMulti", users, cols.amounts, cols.starts, cols.periods, cols.frequencies, cols.names)
}

// RemoveLockUpFromUser unassigns a lockup type from user.
func (v *V300) RemoveLockUpFromUser(ctx context.Context, opts *contract.TxOpts, user common.Address, name string) (*contract.TxHandle, error) {
	return v.RemoveLockUpFromUserMulti(ctx, opts, []common.Address{user}, []string{name})
}

func (v *V300) RemoveLockUpFromUserMulti(ctx context.Context, opts *contract.TxOpts, users []common.Address, names []string) (*contract.TxHandle, error) {
	raw, err := v.checkAssignments(ctx, opts, users, names)
	if err != nil {
		return nil, err
	}
	assigned, err := v.userLockups(ctx, users)
	if err != nil {
		return nil, err
	}
	for i, has := range assigned {
		if !slices.Contains(has, names[i]) {
			return nil, index(polyerr.PreconditionRequired("userAddress", users[i].Hex(), "does not have lockup %q", names[i]), i, len(users))
		}
	}
	if len(users) == 1 {
		return v.Transact(ctx, opts, "removeLockUpFromUser", users[0], raw[0])
	}
	return v.Transact(ctx, opts, "removeLockUpFromUserMulti", users, raw)
}

// checkAssignments validates (user, name) pairs and the caller's permission.
func (v *V300) checkAssignments(ctx context.Context, opts *contract.TxOpts, users []common.Address, names []string) ([][32]byte, error) {
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	if err := polyerr.CheckLengths([]string{"userAddresses", "lockupNames"}, len(users), len(names)); err != nil {
		return nil, err
	}
	type pair struct {
		user common.Address
		name string
	}
	seen := make(map[pair]bool, len(users))
	for i, u := range users {
		if err := capability.CheckAddress("userAddress", u); err != nil {
			return nil, index(err, i, len(users))
		}
		p := pair{u, names[i]}
		if seen[p] {
			return nil, index(polyerr.InvalidData("userAddress", u.Hex(), "lockup %q appears more than once", names[i]), i, len(users))
		}
		seen[p] = true
	}
	raw, err := encodeNames(names)
	if err != nil {
		return nil, err
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	return raw, nil
}

// GetLockUp returns the lockup type called name, or NotFound.
func (v *V300) GetLockUp(ctx context.Context, name string) (LockUpInfo, error) {
	if err := restriction.CheckLockUpName(name); err != nil {
		return LockUpInfo{}, err
	}
	info, ok, err := v.lockUp(ctx, name)
	if err != nil {
		return LockUpInfo{}, err
	}
	if !ok {
		return LockUpInfo{}, polyerr.NotFound("lockupName", name, "no such lockup type")
	}
	return info, nil
}

func (v *V300) GetAllLockupData(ctx context.Context) ([]LockUpInfo, error) {
	decimals, err := v.TokenDecimals(ctx)
	if err != nil {
		return nil, err
	}
	out, err := v.Call(ctx, "getAllLockupData")
	if err != nil {
		return nil, err
	}
	names := out[0].([][32]byte)
	amounts := out[1].([]*big.Int)
	starts := out[2].([]*big.Int)
	periods := out[3].([]*big.Int)
	frequencies := out[4].([]*big.Int)
	unlocked := out[5].([]*big.Int)
	if err := polyerr.CheckLengths([]string{"lockupNames", "lockupAmounts", "startTimes", "lockUpPeriodSeconds", "releaseFrequencySeconds", "unlockedAmounts"},
		len(names), len(amounts), len(starts), len(periods), len(frequencies), len(unlocked)); err != nil {
		return nil, err
	}
	infos := make([]LockUpInfo, len(names))
	for i := range names {
		infos[i] = decodeLockUp(units.Bytes32ToString(names[i]), amounts[i], starts[i], periods[i], frequencies[i], unlocked[i], decimals)
	}
	return infos, nil
}

func (v *V300) GetAllLockups(ctx context.Context) ([]string, error) {
	out, err := v.Call(ctx, "getAllLockups")
	if err != nil {
		return nil, err
	}
	return decodeNames(out[0].([][32]byte)), nil
}

func (v *V300) GetLockupsNamesToUser(ctx context.Context, user common.Address) ([]string, error) {
	out, err := v.Call(ctx, "getLockupsNamesToUser", user)
	if err != nil {
		return nil, err
	}
	return decodeNames(out[0].([][32]byte)), nil
}

func (v *V300) GetListOfAddresses(ctx context.Context, name string) ([]common.Address, error) {
	raw, err := units.StringToBytes32(name)
	if err != nil {
		return nil, err
	}
	out, err := v.Call(ctx, "getListOfAddresses", raw)
	if err != nil {
		return nil, err
	}
	return out[0].([]common.Address), nil
}

// GetLockedTokenToUser returns the amount still locked for user, in display
// units.
func (v *V300) GetLockedTokenToUser(ctx context.Context, user common.Address) (*big.Rat, error) {
	decimals, err := v.TokenDecimals(ctx)
	if err != nil {
		return nil, err
	}
	out, err := v.Call(ctx, "getLockedTokenToUser", user)
	if err != nil {
		return nil, err
	}
	return units.FromOnChain(out[0].(*big.Int), decimals), nil
}

func (v *V300) VerifyTransfer(ctx context.Context, from, to common.Address, amount *big.Rat, data []byte) (modules.Verification, error) {
	return modules.VerifyTransfer(ctx, v.Module, from, to, amount, data)
}

func (v *V300) lockUp(ctx context.Context, name string) (LockUpInfo, bool, error) {
	raw, err := units.StringToBytes32(name)
	if err != nil {
		return LockUpInfo{}, false, err
	}
	decimals, err := v.TokenDecimals(ctx)
	if err != nil {
		return LockUpInfo{}, false, err
	}
	out, err := v.Call(ctx, "getLockUp", raw)
	if err != nil {
		return LockUpInfo{}, false, err
	}
	amount := out[0].(*big.Int)
	info := decodeLockUp(name, amount, out[1].(*big.Int), out[2].(*big.Int), out[3].(*big.Int), out[4].(*big.Int), decimals)
	return info, amount.Sign() != 0, nil
}

// typesExist looks up every name concurrently.
func (v *V300) typesExist(ctx context.Context, names []string) ([]bool, error) {
	exists := make([]bool, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			_, ok, err := v.lockUp(gctx, name)
			exists[i] = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return exists, nil
}

func (v *V300) userLockups(ctx context.Context, users []common.Address) ([][]string, error) {
	out := make([][]string, len(users))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range users {
		g.Go(func() (err error) {
			out[i], err = v.GetLockupsNamesToUser(gctx, u)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type lockUpColumns struct {
	amounts, starts, periods, frequencies []*big.Int
	names                                 [][32]byte
}

func encodeLockUps(ls []restriction.LockUp, decimals uint8) (lockUpColumns, error) {
	n := len(ls)
	cols := lockUpColumns{
		amounts:     make([]*big.Int, n),
		starts:      make([]*big.Int, n),
		periods:     make([]*big.Int, n),
		frequencies: make([]*big.Int, n),
		names:       make([][32]byte, n),
	}
	for i, l := range ls {
		a, s, p, f, name, err := l.Encode(decimals)
		if err != nil {
			return lockUpColumns{}, index(err, i, n)
		}
		cols.amounts[i], cols.starts[i], cols.periods[i], cols.frequencies[i], cols.names[i] = a, s, p, f, name
	}
	return cols, nil
}

func encodeNames(names []string) ([][32]byte, error) {
	if len(names) == 0 {
		return nil, polyerr.InvalidData("lockupNames", 0, "must not be empty")
	}
	raw := make([][32]byte, len(names))
	for i, name := range names {
		if err := restriction.CheckLockUpName(name); err != nil {
			return nil, index(err, i, len(names))
		}
		raw[i], _ = units.StringToBytes32(name)
	}
	return raw, nil
}

func decodeNames(raw [][32]byte) []string {
	names := make([]string, len(raw))
	for i, b := range raw {
		names[i] = units.Bytes32ToString(b)
	}
	return names
}

func decodeLockUp(name string, amount, start, period, frequency, unlocked *big.Int, decimals uint8) LockUpInfo {
	return LockUpInfo{
		LockUp: restriction.LockUp{
			Name:             name,
			Amount:           units.FromOnChain(amount, decimals),
			StartTime:        units.UintToTime(start),
			Period:           units.UintToDuration(period),
			ReleaseFrequency: units.UintToDuration(frequency),
		},
		Unlocked: units.FromOnChain(unlocked, decimals),
	}
}

// index qualifies err with position i when the call carried more than one
// element.
func index(err error, i, n int) error {
	if n > 1 {
		return polyerr.AtIndex(err, i)
	}
	return err
}
