package lockup_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/abis"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract/contracttest"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules/lockup"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polyerr"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/restriction"
)

var (
	tokenAddr   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	moduleAddr  = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	factoryAddr = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	alice       = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	bob         = common.HexToAddress("0x0000000000000000000000000000000000000a02")
)

// state is a tiny in-memory lockup contract behind the backend.
type state struct {
	types map[[32]byte][]any
	users map[common.Address][][32]byte
}

type fixture struct {
	be    *contracttest.Backend
	owner *contract.TxOpts
	def   abi.ABI
	st    *state
	lm    *lockup.V300
}

func setup(t *testing.T) *fixture {
	t.Helper()
	be := contracttest.New()
	owner, _ := contracttest.NewAccount()
	be.MockToken(tokenAddr, owner.From, 18)
	be.MockModule(abis.LockUpTransferManager300, moduleAddr, tokenAddr, factoryAddr)
	def := abis.MustGet(abis.LockUpTransferManager300).ABI

	st := &state{types: map[[32]byte][]any{}, users: map[common.Address][][32]byte{}}
	be.Handle(moduleAddr, def, "getLockUp", func(args []any) ([]any, error) {
		if v, ok := st.types[args[0].([32]byte)]; ok {
			return v, nil
		}
		z := new(big.Int)
		return []any{z, z, z, z, z}, nil
	})
	be.Handle(moduleAddr, def, "getLockupsNamesToUser", func(args []any) ([]any, error) {
		return []any{append([][32]byte{}, st.users[args[0].(common.Address)]...)}, nil
	})
	be.Handle(moduleAddr, def, "getListOfAddresses", func(args []any) ([]any, error) {
		name := args[0].([32]byte)
		var out []common.Address
		for u, names := range st.users {
			for _, n := range names {
				if n == name {
					out = append(out, u)
				}
			}
		}
		return []any{out}, nil
	})

	d := modules.Descriptor{Address: moduleAddr, Name: modules.LockUpTransferManager}
	return &fixture{be: be, owner: owner, def: def, st: st, lm: lockup.NewV300(d, be)}
}

func name32(s string) [32]byte {
	var b [32]byte
	copy(b[:], s)
	return b
}

func (s *state) define(name string) {
	e18 := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	s.types[name32(name)] = []any{
		new(big.Int).Mul(big.NewInt(1000), e18),
		big.NewInt(time.Now().Add(time.Hour).Unix()),
		big.NewInt(86400 * 30),
		big.NewInt(86400),
		new(big.Int).Mul(big.NewInt(100), e18),
	}
}

func (s *state) assign(user common.Address, name string) {
	s.users[user] = append(s.users[user], name32(name))
}

func valid(name string) restriction.LockUp {
	return restriction.LockUp{
		Name:             name,
		Amount:           big.NewRat(1000, 1),
		StartTime:        time.Now().Add(time.Hour),
		Period:           30 * 24 * time.Hour,
		ReleaseFrequency: 24 * time.Hour,
	}
}

func (f *fixture) sent(t *testing.T, i int) (string, []any) {
	t.Helper()
	tx := f.be.Sent()[i]
	m, err := f.def.MethodById(tx.Data()[:4])
	require.NoError(t, err)
	args, err := m.Inputs.Unpack(tx.Data()[4:])
	require.NoError(t, err)
	return m.Name, args
}

func TestAddNewLockUpType(t *testing.T) {
	f := setup(t)
	l := valid("seed")

	_, err := f.lm.AddNewLockUpType(context.Background(), f.owner, l)
	require.NoError(t, err)
	require.Len(t, f.be.Sent(), 1)

	name, args := f.sent(t, 0)
	assert.Equal(t, "addNewLockUpType", name)
	assert.Equal(t, "1000000000000000000000", args[0].(*big.Int).String())
	assert.Equal(t, l.StartTime.Unix(), args[1].(*big.Int).Int64())
	assert.Equal(t, int64(30*86400), args[2].(*big.Int).Int64())
	assert.Equal(t, int64(86400), args[3].(*big.Int).Int64())
	assert.Equal(t, name32("seed"), args[4])
}

func TestAddNewLockUpTypeRejectsExistingName(t *testing.T) {
	f := setup(t)
	f.st.define("seed")

	_, err := f.lm.AddNewLockUpType(context.Background(), f.owner, valid("seed"))
	assert.ErrorIs(t, err, polyerr.ErrAlreadyExists)
	assert.Empty(t, f.be.Sent())
}

func TestAddNewLockUpTypeValidatesLocally(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*restriction.LockUp)
		field string
	}{
		{"empty name", func(l *restriction.LockUp) { l.Name = "" }, "lockupName"},
		{"zero amount", func(l *restriction.LockUp) { l.Amount = new(big.Rat) }, "lockupAmount"},
		{"zero period", func(l *restriction.LockUp) { l.Period = 0 }, "lockUpPeriodSeconds"},
		{"zero frequency", func(l *restriction.LockUp) { l.ReleaseFrequency = 0 }, "releaseFrequencySeconds"},
		{"past start", func(l *restriction.LockUp) { l.StartTime = time.Now().Add(-time.Minute) }, "startTime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			l := valid("seed")
			tt.edit(&l)

			_, err := f.lm.AddNewLockUpType(context.Background(), f.owner, l)
			var pe *polyerr.Error
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, polyerr.KindInvalidData, pe.Kind)
			assert.Equal(t, tt.field, pe.Field)
			assert.Zero(t, f.be.TotalCalls())
		})
	}
}

func TestAddNewLockUpTypeMulti(t *testing.T) {
	f := setup(t)
	f.st.define("b")

	_, err := f.lm.AddNewLockUpTypeMulti(context.Background(), f.owner, []restriction.LockUp{valid("a"), valid("b")})
	require.ErrorIs(t, err, polyerr.ErrAlreadyExists)
	var pe *polyerr.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "lockupName[1]", pe.Field)

	_, err = f.lm.AddNewLockUpTypeMulti(context.Background(), f.owner, []restriction.LockUp{valid("a"), valid("c")})
	require.NoError(t, err)
	name, args := f.sent(t, 0)
	assert.Equal(t, "addNewLockUpTypeMulti", name)
	assert.Equal(t, [][32]byte{name32("a"), name32("c")}, args[4])
}

func TestAddNewLockUpTypeMultiRejectsDuplicateNames(t *testing.T) {
	f := setup(t)
	_, err := f.lm.AddNewLockUpTypeMulti(context.Background(), f.owner, []restriction.LockUp{valid("a"), valid("a")})
	assert.ErrorIs(t, err, polyerr.ErrInvalidData)
	assert.Zero(t, f.be.TotalCalls())
}

func TestModifyLockUpTypeRequiresExisting(t *testing.T) {
	f := setup(t)
	_, err := f.lm.ModifyLockUpType(context.Background(), f.owner, valid("seed"))
	assert.ErrorIs(t, err, polyerr.ErrNotFound)

	f.st.define("seed")
	_, err = f.lm.ModifyLockUpType(context.Background(), f.owner, valid("seed"))
	require.NoError(t, err)
	name, _ := f.sent(t, 0)
	assert.Equal(t, "modifyLockUpType", name)
}

func TestRemoveLockupType(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.lm.RemoveLockupType(ctx, f.owner, "seed")
	assert.ErrorIs(t, err, polyerr.ErrNotFound)

	f.st.define("seed")
	f.st.assign(alice, "seed")
	_, err = f.lm.RemoveLockupType(ctx, f.owner, "seed")
	assert.ErrorIs(t, err, polyerr.ErrPreconditionRequired)
	assert.Empty(t, f.be.Sent())

	delete(f.st.users, alice)
	_, err = f.lm.RemoveLockupType(ctx, f.owner, "seed")
	require.NoError(t, err)
	name, args := f.sent(t, 0)
	assert.Equal(t, "removeLockupType", name)
	assert.Equal(t, []any{name32("seed")}, args)
}

func TestAddLockUpByName(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.lm.AddLockUpByName(ctx, f.owner, alice, "seed")
	assert.ErrorIs(t, err, polyerr.ErrNotFound)

	f.st.define("seed")
	f.st.assign(alice, "seed")
	_, err = f.lm.AddLockUpByName(ctx, f.owner, alice, "seed")
	assert.ErrorIs(t, err, polyerr.ErrAlreadyExists)

	_, err = f.lm.AddLockUpByName(ctx, f.owner, bob, "seed")
	require.NoError(t, err)
	name, args := f.sent(t, 0)
	assert.Equal(t, "addLockUpByName", name)
	assert.Equal(t, []any{bob, name32("seed")}, args)
}

func TestAddLockUpByNameMultiChecksLengthsFirst(t *testing.T) {
	f := setup(t)
	_, err := f.lm.AddLockUpByNameMulti(context.Background(), f.owner, []common.Address{alice, bob}, []string{"seed"})
	assert.ErrorIs(t, err, polyerr.ErrMismatchedArrayLength)
	assert.Zero(t, f.be.TotalCalls())
	assert.Empty(t, f.be.Sent())
}

func TestAssignmentMultiRejectsRepeatedPair(t *testing.T) {
	f := setup(t)
	f.st.define("seed")
	f.st.assign(alice, "seed")
	ctx := context.Background()
	users := []common.Address{bob, alice, bob}
	names := []string{"seed", "other", "seed"}

	_, err := f.lm.AddLockUpByNameMulti(ctx, f.owner, users, names)
	require.ErrorIs(t, err, polyerr.ErrInvalidData)
	var pe *polyerr.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "userAddress[2]", pe.Field)

	_, err = f.lm.RemoveLockUpFromUserMulti(ctx, f.owner, []common.Address{alice, alice}, []string{"seed", "seed"})
	require.ErrorIs(t, err, polyerr.ErrInvalidData)
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "userAddress[1]", pe.Field)
	assert.Empty(t, f.be.Sent())
}

func TestAddNewLockUpToUser(t *testing.T) {
	f := setup(t)
	_, err := f.lm.AddNewLockUpToUser(context.Background(), f.owner, alice, valid("seed"))
	require.NoError(t, err)
	name, args := f.sent(t, 0)
	assert.Equal(t, "addNewLockUpToUser", name)
	assert.Equal(t, alice, args[0])
	assert.Equal(t, name32("seed"), args[5])

	f.st.define("seed")
	_, err = f.lm.AddNewLockUpToUser(context.Background(), f.owner, bob, valid("seed"))
	assert.ErrorIs(t, err, polyerr.ErrAlreadyExists)
}

func TestRemoveLockUpFromUserRequiresAssignment(t *testing.T) {
	f := setup(t)
	f.st.define("seed")

	_, err := f.lm.RemoveLockUpFromUser(context.Background(), f.owner, alice, "seed")
	assert.ErrorIs(t, err, polyerr.ErrPreconditionRequired)

	f.st.assign(alice, "seed")
	f.st.assign(bob, "seed")
	_, err = f.lm.RemoveLockUpFromUserMulti(context.Background(), f.owner, []common.Address{alice, bob}, []string{"seed", "seed"})
	require.NoError(t, err)
	name, _ := f.sent(t, 0)
	assert.Equal(t, "removeLockUpFromUserMulti", name)
}

func TestStrangerCannotWrite(t *testing.T) {
	f := setup(t)
	stranger, _ := contracttest.NewAccount()
	_, err := f.lm.AddNewLockUpType(context.Background(), stranger, valid("seed"))
	assert.ErrorIs(t, err, polyerr.ErrUnauthorized)
	assert.Empty(t, f.be.Sent())
}

func TestGetLockUp(t *testing.T) {
	f := setup(t)
	_, err := f.lm.GetLockUp(context.Background(), "seed")
	assert.ErrorIs(t, err, polyerr.ErrNotFound)

	f.st.define("seed")
	info, err := f.lm.GetLockUp(context.Background(), "seed")
	require.NoError(t, err)
	assert.Equal(t, "seed", info.Name)
	assert.Equal(t, "1000", info.Amount.RatString())
	assert.Equal(t, "100", info.Unlocked.RatString())
	assert.Equal(t, 30*24*time.Hour, info.Period)
	assert.Equal(t, 24*time.Hour, info.ReleaseFrequency)
}

func TestGetAllLockupData(t *testing.T) {
	f := setup(t)
	f.be.Return(moduleAddr, f.def, "getAllLockupData",
		[][32]byte{name32("a"), name32("b")},
		[]*big.Int{big.NewInt(1e18), big.NewInt(2e18)},
		[]*big.Int{big.NewInt(10), big.NewInt(20)},
		[]*big.Int{big.NewInt(100), big.NewInt(200)},
		[]*big.Int{big.NewInt(5), big.NewInt(10)},
		[]*big.Int{big.NewInt(0), big.NewInt(1e18)},
	)

	infos, err := f.lm.GetAllLockupData(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "b", infos[1].Name)
	assert.Equal(t, "2", infos[1].Amount.RatString())
	assert.Equal(t, "1", infos[1].Unlocked.RatString())
	assert.Equal(t, 200*time.Second, infos[1].Period)
}

func TestUserReads(t *testing.T) {
	f := setup(t)
	f.st.define("seed")
	f.st.assign(alice, "seed")
	f.be.Return(moduleAddr, f.def, "getLockedTokenToUser", big.NewInt(15e17))
	ctx := context.Background()

	names, err := f.lm.GetLockupsNamesToUser(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"seed"}, names)

	holders, err := f.lm.GetListOfAddresses(ctx, "seed")
	require.NoError(t, err)
	assert.Equal(t, []common.Address{alice}, holders)

	locked, err := f.lm.GetLockedTokenToUser(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "3/2", locked.RatString())
}
