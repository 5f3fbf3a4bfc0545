package generaltm

import (
	"context"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/abis"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/capability"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/events"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polyerr"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/units"
)

func init() {
	modules.Register(modules.Registration{
		Name:    modules.GeneralTransferManager,
		Version: "3.0.0",
		New: func(d modules.Descriptor, t contract.Transport, opts ...contract.Option) modules.Module {
			return NewV300(d, t, opts...)
		},
	})
}

// V300 is the GeneralTransferManager 3.0.0 wrapper. V310 embeds it.
type V300 struct {
	*capability.Module

	events *events.Subscriber
	d      modules.Descriptor
}

var _ GeneralTransferManager = (*V300)(nil)

func NewV300(d modules.Descriptor, t contract.Transport, opts ...contract.Option) *V300 {
	return newBase(abis.GeneralTransferManager300, d, t, opts...)
}

func newBase(key string, d modules.Descriptor, t contract.Transport, opts ...contract.Option) *V300 {
	def := abis.MustGet(key)
	c := contract.New(d.Address, def.ABI, t, opts...)
	return &V300{
		Module: capability.New(c),
		events: events.NewSubscriber(t, d.Address, events.NewSet(string(modules.GeneralTransferManager), def), c.Logger()),
		d:      d,
	}
}

func (v *V300) Descriptor() modules.Descriptor { return v.d }

func (v *V300) Events() *events.Subscriber { return v.events }

func (v *V300) ModifyKYCData(ctx context.Context, opts *contract.TxOpts, investor common.Address, kyc KYC) (*contract.TxHandle, error) {
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	if err := capability.CheckAddress("investor", investor); err != nil {
		return nil, err
	}
	if err := checkKYC(kyc); err != nil {
		return nil, err
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	return v.Transact(ctx, opts, "modifyKYCData", investor,
		unix64(kyc.CanSendAfter), unix64(kyc.CanReceiveAfter), unix64(kyc.ExpiryTime))
}

func (v *V300) ModifyKYCDataMulti(ctx context.Context, opts *contract.TxOpts, m KYCMulti) (*contract.TxHandle, error) {
	if err := polyerr.CheckLengths([]string{"investors", "canSendAfter", "canReceiveAfter", "expiryTime"},
		len(m.Investors), len(m.CanSendAfter), len(m.CanReceiveAfter), len(m.ExpiryTime)); err != nil {
		return nil, err
	}
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	if len(m.Investors) == 0 {
		return nil, polyerr.InvalidData("investors", 0, "must not be empty")
	}
	n := len(m.Investors)
	send := make([]*big.Int, n)
	receive := make([]*big.Int, n)
	expiry := make([]*big.Int, n)
	for i, inv := range m.Investors {
		if err := capability.CheckAddress("investors", inv); err != nil {
			return nil, polyerr.AtIndex(err, i)
		}
		kyc := KYC{CanSendAfter: m.CanSendAfter[i], CanReceiveAfter: m.CanReceiveAfter[i], ExpiryTime: m.ExpiryTime[i]}
		if err := checkKYC(kyc); err != nil {
			return nil, polyerr.AtIndex(err, i)
		}
		send[i] = units.TimeToUint(kyc.CanSendAfter)
		receive[i] = units.TimeToUint(kyc.CanReceiveAfter)
		expiry[i] = units.TimeToUint(kyc.ExpiryTime)
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	return v.Transact(ctx, opts, "modifyKYCDataMulti", m.Investors, send, receive, expiry)
}

func (v *V300) GetKYCData(ctx context.Context, investors []common.Address) ([]KYCData, error) {
	out, err := v.Call(ctx, "getKYCData", investors)
	if err != nil {
		return nil, err
	}
	return kycRows(investors, out[0].([]*big.Int), out[1].([]*big.Int), out[2].([]*big.Int), nil)
}

func (v *V300) ChangeDefaults(ctx context.Context, opts *contract.TxOpts, d Defaults) (*contract.TxHandle, error) {
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	if err := checkUint64Time("defaultCanSendAfter", d.CanSendAfter); err != nil {
		return nil, err
	}
	if err := checkUint64Time("defaultCanReceiveAfter", d.CanReceiveAfter); err != nil {
		return nil, err
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	return v.Transact(ctx, opts, "changeDefaults", unix64(d.CanSendAfter), unix64(d.CanReceiveAfter))
}

func (v *V300) GetDefaults(ctx context.Context) (Defaults, error) {
	out, err := v.Call(ctx, "defaults")
	if err != nil {
		return Defaults{}, err
	}
	return Defaults{
		CanSendAfter:    fromUnix64(out[0].(uint64)),
		CanReceiveAfter: fromUnix64(out[1].(uint64)),
	}, nil
}

func (v *V300) ModifyInvestorFlag(ctx context.Context, opts *contract.TxOpts, investor common.Address, flag Flag, value bool) (*contract.TxHandle, error) {
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	if err := capability.CheckAddress("investor", investor); err != nil {
		return nil, err
	}
	if !flag.Valid() {
		return nil, polyerr.InvalidData("flag", uint8(flag), "unknown investor flag")
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	return v.Transact(ctx, opts, "modifyInvestorFlag", investor, uint8(flag), value)
}

func (v *V300) ModifyInvestorFlagMulti(ctx context.Context, opts *contract.TxOpts, investors []common.Address, flags []Flag, values []bool) (*contract.TxHandle, error) {
	if err := polyerr.CheckLengths([]string{"investors", "flags", "values"}, len(investors), len(flags), len(values)); err != nil {
		return nil, err
	}
	if err := capability.CheckOpts(opts); err != nil {
		return nil, err
	}
	if len(investors) == 0 {
		return nil, polyerr.InvalidData("investors", 0, "must not be empty")
	}
	raw := make([]uint8, len(flags))
	for i := range investors {
		if err := capability.CheckAddress("investors", investors[i]); err != nil {
			return nil, polyerr.AtIndex(err, i)
		}
		if !flags[i].Valid() {
			return nil, polyerr.AtIndex(polyerr.InvalidData("flags", uint8(flags[i]), "unknown investor flag"), i)
		}
		raw[i] = uint8(flags[i])
	}
	if err := v.RequireAllowed(ctx, opts.From, capability.Admin); err != nil {
		return nil, err
	}
	return v.Transact(ctx, opts, "modifyInvestorFlagMulti", investors, raw, values)
}

func (v *V300) GetInvestorFlag(ctx context.Context, investor common.Address, flag Flag) (bool, error) {
	if !flag.Valid() {
		return false, polyerr.InvalidData("flag", uint8(flag), "unknown investor flag")
	}
	out, err := v.Call(ctx, "getInvestorFlag", investor, uint8(flag))
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

func (v *V300) VerifyTransfer(ctx context.Context, from, to common.Address, amount *big.Rat, data []byte) (modules.Verification, error) {
	return modules.VerifyTransfer(ctx, v.Module, from, to, amount, data)
}

func checkKYC(k KYC) error {
	if k.ExpiryTime.IsZero() {
		return polyerr.InvalidData("expiryTime", 0, "must be set")
	}
	if err := checkUint64Time("canSendAfter", k.CanSendAfter); err != nil {
		return err
	}
	if err := checkUint64Time("canReceiveAfter", k.CanReceiveAfter); err != nil {
		return err
	}
	return checkUint64Time("expiryTime", k.ExpiryTime)
}

func checkUint64Time(field string, t time.Time) error {
	if !t.IsZero() && t.Unix() < 0 {
		return polyerr.InvalidData(field, t.UTC().Format(time.RFC3339), "must not precede the epoch")
	}
	return nil
}

func unix64(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	return uint64(t.Unix())
}

func fromUnix64(v uint64) time.Time {
	if v == 0 || v > math.MaxInt64 {
		return time.Time{}
	}
	return time.Unix(int64(v), 0).UTC()
}

func kycRows(investors []common.Address, send, receive, expiry []*big.Int, added []bool) ([]KYCData, error) {
	names := []string{"investors", "canSendAfter", "canReceiveAfter", "expiryTime"}
	lengths := []int{len(investors), len(send), len(receive), len(expiry)}
	if added != nil {
		names = append(names, "added")
		lengths = append(lengths, len(added))
	}
	if err := polyerr.CheckLengths(names, lengths...); err != nil {
		return nil, err
	}
	rows := make([]KYCData, len(investors))
	for i, inv := range investors {
		rows[i] = KYCData{
			Investor: inv,
			KYC: KYC{
				CanSendAfter:    units.UintToTime(send[i]),
				CanReceiveAfter: units.UintToTime(receive[i]),
				ExpiryTime:      units.UintToTime(expiry[i]),
			},
		}
		if added != nil {
			rows[i].Added = added[i]
		}
	}
	return rows, nil
}
