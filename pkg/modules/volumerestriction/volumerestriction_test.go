package volumerestriction_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/abis"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract/contracttest"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules/volumerestriction"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polyerr"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/restriction"
)

var (
	tokenAddr   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	moduleAddr  = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	factoryAddr = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	holderA     = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	holderB     = common.HexToAddress("0x0000000000000000000000000000000000000a02")
	holderC     = common.HexToAddress("0x0000000000000000000000000000000000000a03")
)

type fixture struct {
	be    *contracttest.Backend
	owner *contract.TxOpts
	def   abi.ABI
	vrtm  *volumerestriction.V300
}

func setup(t *testing.T) *fixture {
	t.Helper()
	be := contracttest.New()
	owner, _ := contracttest.NewAccount()
	be.MockToken(tokenAddr, owner.From, 18)
	be.MockModule(abis.VolumeRestrictionTM300, moduleAddr, tokenAddr, factoryAddr)

	def := abis.MustGet(abis.VolumeRestrictionTM300).ABI
	be.Return(moduleAddr, def, "getExemptAddress", []common.Address{})
	for _, m := range []string{"getIndividualRestriction", "getIndividualDailyRestriction"} {
		be.Handle(moduleAddr, def, m, func([]any) ([]any, error) { return unset(), nil })
	}
	for _, m := range []string{"getDefaultRestriction", "getDefaultDailyRestriction"} {
		be.Return(moduleAddr, def, m, unset()...)
	}

	d := modules.Descriptor{Kind: modules.TransferManager, Name: modules.VolumeRestrictionTM, Address: moduleAddr, Factory: factoryAddr}
	return &fixture{be: be, owner: owner, def: def, vrtm: volumerestriction.NewV300(d, be)}
}

func unset() []any {
	z := new(big.Int)
	return []any{z, z, z, z, uint8(0)}
}

func active(allowed int64) []any {
	start := time.Now().Add(time.Hour).Unix()
	return []any{big.NewInt(allowed), big.NewInt(start), big.NewInt(3), big.NewInt(start + 10*86400), uint8(0)}
}

func valid() restriction.Restriction {
	start := time.Now().Add(time.Hour)
	return restriction.Restriction{
		AllowedTokens:       big.NewRat(500, 1),
		StartTime:           start,
		EndTime:             start.Add(30 * 24 * time.Hour),
		RollingPeriodInDays: 7,
		Type:                restriction.Fixed,
	}
}

func (f *fixture) decodeSent(t *testing.T, tx *types.Transaction) (string, []any) {
	t.Helper()
	m, err := f.def.MethodById(tx.Data()[:4])
	require.NoError(t, err)
	args, err := m.Inputs.Unpack(tx.Data()[4:])
	require.NoError(t, err)
	return m.Name, args
}

func TestAddIndividualRestrictionSendsEncodedArgs(t *testing.T) {
	f := setup(t)
	r := valid()

	h, err := f.vrtm.AddIndividualRestriction(context.Background(), f.owner, holderA, r)
	require.NoError(t, err)
	require.Len(t, f.be.Sent(), 1)
	assert.Equal(t, f.be.Sent()[0].Hash(), h.Hash)

	name, args := f.decodeSent(t, f.be.Sent()[0])
	assert.Equal(t, "addIndividualRestriction", name)
	assert.Equal(t, holderA, args[0])
	want, _ := new(big.Int).SetString("500000000000000000000", 10)
	assert.Equal(t, 0, want.Cmp(args[1].(*big.Int)))
	assert.Equal(t, r.StartTime.Unix(), args[2].(*big.Int).Int64())
	assert.Equal(t, int64(7), args[3].(*big.Int).Int64())
	assert.Equal(t, r.EndTime.Unix(), args[4].(*big.Int).Int64())
	assert.Equal(t, uint8(0), args[5])
}

func TestPercentageRestrictionUsesPercentageScale(t *testing.T) {
	f := setup(t)
	r := valid()
	r.Type = restriction.Percentage
	r.AllowedTokens = big.NewRat(25, 1)

	_, err := f.vrtm.AddIndividualRestriction(context.Background(), f.owner, holderA, r)
	require.NoError(t, err)
	_, args := f.decodeSent(t, f.be.Sent()[0])
	want, _ := new(big.Int).SetString("250000000000000000", 10)
	assert.Equal(t, 0, want.Cmp(args[1].(*big.Int)))
	assert.Equal(t, uint8(1), args[5])
}

func TestAddIndividualRestrictionRejectsExemptHolder(t *testing.T) {
	f := setup(t)
	f.be.Return(moduleAddr, f.def, "getExemptAddress", []common.Address{holderA})

	_, err := f.vrtm.AddIndividualRestriction(context.Background(), f.owner, holderA, valid())
	assert.ErrorIs(t, err, polyerr.ErrPreconditionRequired)
	assert.Empty(t, f.be.Sent())
}

func TestAddIndividualRestrictionRejectsExisting(t *testing.T) {
	f := setup(t)
	f.be.Return(moduleAddr, f.def, "getIndividualRestriction", active(10)...)

	_, err := f.vrtm.AddIndividualRestriction(context.Background(), f.owner, holderA, valid())
	assert.ErrorIs(t, err, polyerr.ErrAlreadyExists)
	assert.Empty(t, f.be.Sent())
}

func TestModifyIndividualRestrictionDoesNotRequireExisting(t *testing.T) {
	f := setup(t)
	_, err := f.vrtm.ModifyIndividualRestriction(context.Background(), f.owner, holderA, valid())
	require.NoError(t, err)
	name, _ := f.decodeSent(t, f.be.Sent()[0])
	assert.Equal(t, "modifyIndividualRestriction", name)
	assert.Zero(t, f.be.Calls(moduleAddr, "getIndividualRestriction"))
}

func TestInvalidRestrictionMakesNoNetworkCalls(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*restriction.Restriction)
		field string
	}{
		{"start in past", func(r *restriction.Restriction) { r.StartTime = time.Now().Add(-time.Hour) }, "startTime"},
		{"zero allowed", func(r *restriction.Restriction) { r.AllowedTokens = new(big.Rat) }, "allowedTokens"},
		{"percentage over 100", func(r *restriction.Restriction) {
			r.Type = restriction.Percentage
			r.AllowedTokens = big.NewRat(101, 1)
		}, "allowedTokens"},
		{"rolling too long", func(r *restriction.Restriction) { r.RollingPeriodInDays = 366 }, "rollingPeriodInDays"},
		{"end too soon", func(r *restriction.Restriction) { r.EndTime = r.StartTime.Add(24 * time.Hour) }, "endTime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			r := valid()
			tt.edit(&r)

			_, err := f.vrtm.AddIndividualRestriction(context.Background(), f.owner, holderA, r)
			require.ErrorIs(t, err, polyerr.ErrInvalidData)
			var pe *polyerr.Error
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.field, pe.Field)
			assert.Zero(t, f.be.TotalCalls())
			assert.Empty(t, f.be.Sent())
		})
	}
}

func TestDailyRestrictionOmitsRollingPeriod(t *testing.T) {
	f := setup(t)
	r := valid()
	r.RollingPeriodInDays = 0
	r.EndTime = r.StartTime.Add(48 * time.Hour)

	_, err := f.vrtm.AddIndividualDailyRestriction(context.Background(), f.owner, holderA, r)
	require.NoError(t, err)
	name, args := f.decodeSent(t, f.be.Sent()[0])
	assert.Equal(t, "addIndividualDailyRestriction", name)
	assert.Len(t, args, 5)
}

func TestStrangerIsUnauthorized(t *testing.T) {
	f := setup(t)
	opts, _ := contracttest.NewAccount()

	_, err := f.vrtm.AddIndividualRestriction(context.Background(), opts, holderA, valid())
	assert.ErrorIs(t, err, polyerr.ErrUnauthorized)
	_, err = f.vrtm.ChangeExemptWalletList(context.Background(), opts, holderA, true)
	assert.ErrorIs(t, err, polyerr.ErrUnauthorized)
	assert.Empty(t, f.be.Sent())
}

func TestDelegateWithAdminMayWrite(t *testing.T) {
	be := contracttest.New()
	owner, _ := contracttest.NewAccount()
	tok := be.MockToken(tokenAddr, owner.From, 18)
	be.MockModule(abis.VolumeRestrictionTM300, moduleAddr, tokenAddr, factoryAddr)
	def := abis.MustGet(abis.VolumeRestrictionTM300).ABI
	be.Return(moduleAddr, def, "getExemptAddress", []common.Address{})

	delegate, _ := contracttest.NewAccount()
	tok.Grant(delegate.From, moduleAddr, "ADMIN")
	v := volumerestriction.NewV300(modules.Descriptor{Address: moduleAddr}, be)

	_, err := v.ChangeExemptWalletList(context.Background(), delegate, holderA, true)
	require.NoError(t, err)
	assert.Len(t, be.Sent(), 1)
}

func TestChangeExemptWalletListRejectsNoOp(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.vrtm.ChangeExemptWalletList(ctx, f.owner, holderA, false)
	assert.ErrorIs(t, err, polyerr.ErrPreconditionRequired)

	f.be.Return(moduleAddr, f.def, "getExemptAddress", []common.Address{holderA})
	_, err = f.vrtm.ChangeExemptWalletList(ctx, f.owner, holderA, true)
	assert.ErrorIs(t, err, polyerr.ErrPreconditionRequired)
	assert.Empty(t, f.be.Sent())

	_, err = f.vrtm.ChangeExemptWalletList(ctx, f.owner, holderA, false)
	require.NoError(t, err)
	_, args := f.decodeSent(t, f.be.Sent()[0])
	assert.Equal(t, []any{holderA, false}, args)
}

func TestChangeExemptWalletListRejectsZeroAddress(t *testing.T) {
	f := setup(t)
	_, err := f.vrtm.ChangeExemptWalletList(context.Background(), f.owner, common.Address{}, true)
	assert.ErrorIs(t, err, polyerr.ErrInvalidData)
	assert.Zero(t, f.be.TotalCalls())
}

func TestMultiRejectsMismatchedLengthsBeforeNetwork(t *testing.T) {
	f := setup(t)
	r := valid()
	m := volumerestriction.IndividualRestrictionMulti{
		Holders:             []common.Address{holderA, holderB, holderC},
		AllowedTokens:       []*big.Rat{r.AllowedTokens, r.AllowedTokens},
		StartTimes:          []time.Time{r.StartTime, r.StartTime, r.StartTime},
		RollingPeriodInDays: []uint64{7, 7, 7},
		EndTimes:            []time.Time{r.EndTime, r.EndTime, r.EndTime},
		RestrictionTypes:    []restriction.Type{restriction.Fixed, restriction.Fixed, restriction.Fixed},
	}

	_, err := f.vrtm.AddIndividualRestrictionMulti(context.Background(), f.owner, m)
	require.ErrorIs(t, err, polyerr.ErrMismatchedArrayLength)
	assert.Zero(t, f.be.TotalCalls())
	assert.Empty(t, f.be.Sent())
}

func TestMultiReportsFailingIndex(t *testing.T) {
	f := setup(t)
	r := valid()
	m := volumerestriction.IndividualRestrictionMulti{
		Holders:             []common.Address{holderA, holderB},
		AllowedTokens:       []*big.Rat{r.AllowedTokens, r.AllowedTokens},
		StartTimes:          []time.Time{r.StartTime, r.StartTime},
		RollingPeriodInDays: []uint64{7, 400},
		EndTimes:            []time.Time{r.EndTime, r.EndTime},
		RestrictionTypes:    []restriction.Type{restriction.Fixed, restriction.Fixed},
	}

	_, err := f.vrtm.AddIndividualRestrictionMulti(context.Background(), f.owner, m)
	var pe *polyerr.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "rollingPeriodInDays[1]", pe.Field)
	assert.Zero(t, f.be.TotalCalls())
}

func TestAddIndividualRestrictionMultiSendsOneTransaction(t *testing.T) {
	f := setup(t)
	r := valid()
	m := volumerestriction.IndividualRestrictionMulti{
		Holders:             []common.Address{holderA, holderB},
		AllowedTokens:       []*big.Rat{big.NewRat(1, 1), big.NewRat(2, 1)},
		StartTimes:          []time.Time{r.StartTime, r.StartTime},
		RollingPeriodInDays: []uint64{7, 14},
		EndTimes:            []time.Time{r.EndTime, r.EndTime},
		RestrictionTypes:    []restriction.Type{restriction.Fixed, restriction.Fixed},
	}

	_, err := f.vrtm.AddIndividualRestrictionMulti(context.Background(), f.owner, m)
	require.NoError(t, err)
	require.Len(t, f.be.Sent(), 1)

	name, args := f.decodeSent(t, f.be.Sent()[0])
	assert.Equal(t, "addIndividualRestrictionMulti", name)
	assert.Equal(t, []common.Address{holderA, holderB}, args[0])
	assert.Equal(t, int64(14), args[3].([]*big.Int)[1].Int64())
	assert.Equal(t, 2, f.be.Calls(moduleAddr, "getIndividualRestriction"))
}

func TestAddIndividualRestrictionMultiRejectsExistingAtIndex(t *testing.T) {
	f := setup(t)
	f.be.Handle(moduleAddr, f.def, "getIndividualRestriction", func(args []any) ([]any, error) {
		if args[0].(common.Address) == holderB {
			return active(5), nil
		}
		return unset(), nil
	})
	r := valid()
	m := volumerestriction.IndividualRestrictionMulti{
		Holders:             []common.Address{holderA, holderB},
		AllowedTokens:       []*big.Rat{r.AllowedTokens, r.AllowedTokens},
		StartTimes:          []time.Time{r.StartTime, r.StartTime},
		RollingPeriodInDays: []uint64{7, 7},
		EndTimes:            []time.Time{r.EndTime, r.EndTime},
		RestrictionTypes:    []restriction.Type{restriction.Fixed, restriction.Fixed},
	}

	_, err := f.vrtm.AddIndividualRestrictionMulti(context.Background(), f.owner, m)
	require.ErrorIs(t, err, polyerr.ErrAlreadyExists)
	var pe *polyerr.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "holders[1]", pe.Field)
	assert.Empty(t, f.be.Sent())
}

func TestAddIndividualRestrictionMultiRejectsExemptHolderAtIndex(t *testing.T) {
	f := setup(t)
	f.be.Return(moduleAddr, f.def, "getExemptAddress", []common.Address{holderB})
	r := valid()
	m := volumerestriction.IndividualRestrictionMulti{
		Holders:             []common.Address{holderA, holderB},
		AllowedTokens:       []*big.Rat{r.AllowedTokens, r.AllowedTokens},
		StartTimes:          []time.Time{r.StartTime, r.StartTime},
		RollingPeriodInDays: []uint64{7, 7},
		EndTimes:            []time.Time{r.EndTime, r.EndTime},
		RestrictionTypes:    []restriction.Type{restriction.Fixed, restriction.Fixed},
	}

	_, err := f.vrtm.AddIndividualRestrictionMulti(context.Background(), f.owner, m)
	require.ErrorIs(t, err, polyerr.ErrPreconditionRequired)
	var pe *polyerr.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "holders[1]", pe.Field)
	assert.Empty(t, f.be.Sent())
}

func TestRemoveIndividualRestrictionRequiresActive(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.vrtm.RemoveIndividualRestriction(ctx, f.owner, holderA)
	assert.ErrorIs(t, err, polyerr.ErrPreconditionRequired)
	assert.Empty(t, f.be.Sent())

	f.be.Return(moduleAddr, f.def, "getIndividualRestriction", active(10)...)
	_, err = f.vrtm.RemoveIndividualRestriction(ctx, f.owner, holderA)
	require.NoError(t, err)
	name, args := f.decodeSent(t, f.be.Sent()[0])
	assert.Equal(t, "removeIndividualRestriction", name)
	assert.Equal(t, []any{holderA}, args)
}

func TestRemoveIndividualRestrictionMulti(t *testing.T) {
	f := setup(t)
	f.be.Return(moduleAddr, f.def, "getIndividualDailyRestriction", active(10)...)

	_, err := f.vrtm.RemoveIndividualDailyRestrictionMulti(context.Background(), f.owner, []common.Address{holderA, holderB})
	require.NoError(t, err)
	name, _ := f.decodeSent(t, f.be.Sent()[0])
	assert.Equal(t, "removeIndividualDailyRestrictionMulti", name)

	_, err = f.vrtm.RemoveIndividualRestrictionMulti(context.Background(), f.owner, nil)
	assert.ErrorIs(t, err, polyerr.ErrInvalidData)
}

func TestDefaultRestrictionLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.vrtm.RemoveDefaultRestriction(ctx, f.owner)
	assert.ErrorIs(t, err, polyerr.ErrPreconditionRequired)

	_, err = f.vrtm.AddDefaultRestriction(ctx, f.owner, valid())
	require.NoError(t, err)
	name, args := f.decodeSent(t, f.be.Sent()[0])
	assert.Equal(t, "addDefaultRestriction", name)
	assert.Len(t, args, 5)

	f.be.Return(moduleAddr, f.def, "getDefaultRestriction", active(10)...)
	_, err = f.vrtm.AddDefaultRestriction(ctx, f.owner, valid())
	assert.ErrorIs(t, err, polyerr.ErrAlreadyExists)

	_, err = f.vrtm.ModifyDefaultRestriction(ctx, f.owner, valid())
	require.NoError(t, err)
	_, err = f.vrtm.RemoveDefaultRestriction(ctx, f.owner)
	require.NoError(t, err)
	assert.Len(t, f.be.Sent(), 3)
}

func TestGetIndividualRestrictionDecodes(t *testing.T) {
	f := setup(t)
	start := time.Now().Add(time.Hour).Unix()
	f.be.Return(moduleAddr, f.def, "getIndividualRestriction",
		big.NewInt(5e17), big.NewInt(start), big.NewInt(3), big.NewInt(start+86400*10), uint8(1))

	r, err := f.vrtm.GetIndividualRestriction(context.Background(), holderA)
	require.NoError(t, err)
	assert.True(t, r.IsActive())
	assert.Equal(t, restriction.Percentage, r.Type)
	assert.Equal(t, "50", r.AllowedTokens.RatString())
	assert.Equal(t, uint64(3), r.RollingPeriodInDays)
	assert.Equal(t, start, r.StartTime.Unix())
}

func TestGetRestrictionData(t *testing.T) {
	f := setup(t)
	one := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	f.be.Return(moduleAddr, f.def, "getRestrictionData",
		[]common.Address{holderA, holderB},
		[]*big.Int{one, big.NewInt(1e17)},
		[]*big.Int{big.NewInt(100), big.NewInt(200)},
		[]*big.Int{big.NewInt(1), big.NewInt(30)},
		[]*big.Int{big.NewInt(1000), big.NewInt(2000)},
		[]uint8{0, 1},
	)

	rows, err := f.vrtm.GetRestrictionData(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, holderA, rows[0].Holder)
	assert.Equal(t, "1", rows[0].AllowedTokens.RatString())
	assert.Equal(t, restriction.Percentage, rows[1].Type)
	assert.Equal(t, "10", rows[1].AllowedTokens.RatString())
	assert.Equal(t, uint64(30), rows[1].RollingPeriodInDays)
}

func TestVerifyTransfer(t *testing.T) {
	f := setup(t)
	var reason [32]byte
	copy(reason[:], "ok")
	f.be.Handle(moduleAddr, f.def, "verifyTransfer", func(args []any) ([]any, error) {
		assert.Equal(t, holderA, args[0])
		assert.Equal(t, "2000000000000000000", args[2].(*big.Int).String())
		return []any{uint8(2), reason}, nil
	})

	v, err := f.vrtm.VerifyTransfer(context.Background(), holderA, holderB, big.NewRat(2, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, modules.Valid, v.Result)
	assert.True(t, v.Passes())
	assert.Equal(t, "ok", v.Reason)
}

func TestWrapperIsRegistered(t *testing.T) {
	be := contracttest.New()
	be.MockModule(abis.Module, moduleAddr, tokenAddr, factoryAddr)
	be.MockFactory(factoryAddr, "VolumeRestrictionTM", "3.0.0")

	m, err := modules.NewFactory(be, nil).Resolve(context.Background(), modules.VolumeRestrictionTM, moduleAddr)
	require.NoError(t, err)
	_, ok := m.(volumerestriction.VolumeRestrictionTM)
	assert.True(t, ok)
}

func TestEventsUseModuleSet(t *testing.T) {
	f := setup(t)
	_, err := f.vrtm.Events().Set().Validate("Bogus")
	assert.ErrorIs(t, err, polyerr.ErrInvalidData)
	_, err = f.vrtm.Events().Set().Validate("AddIndividualRestriction")
	assert.NoError(t, err)
}
