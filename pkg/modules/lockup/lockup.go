// Package lockup wraps the LockUpTransferManager, which locks named token
// amounts per holder and releases them on a fixed schedule.
package lockup

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/events"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/restriction"
)

type LockUpTransferManager interface {
	modules.Module

	AddNewLockUpType(ctx context.Context, opts *contract.TxOpts, l restriction.LockUp) (*contract.TxHandle, error)
	AddNewLockUpTypeMulti(ctx context.Context, opts *contract.TxOpts, ls []restriction.LockUp) (*contract.TxHandle, error)
	ModifyLockUpType(ctx context.Context, opts *contract.TxOpts, l restriction.LockUp) (*contract.TxHandle, error)
	ModifyLockUpTypeMulti(ctx context.Context, opts *contract.TxOpts, ls []restriction.LockUp) (*contract.TxHandle, error)
	RemoveLockupType(ctx context.Context, opts *contract.TxOpts, name string) (*contract.TxHandle, error)
	RemoveLockupTypeMulti(ctx context.Context, opts *contract.TxOpts, names []string) (*contract.TxHandle, error)

	AddLockUpByName(ctx context.Context, opts *contract.TxOpts, user common.Address, name string) (*contract.TxHandle, error)
	AddLockUpByNameMulti(ctx context.Context, opts *contract.TxOpts, users []common.Address, names []string) (*contract.TxHandle, error)
	AddNewLockUpToUser(ctx context.Context, opts *contract.TxOpts, user common.Address, l restriction.LockUp) (*contract.TxHandle, error)
	AddNewLockUpToUserMulti(ctx context.Context, opts *contract.TxOpts, users []common.Address, ls []restriction.LockUp) (*contract.TxHandle, error)
	RemoveLockUpFromUser(ctx context.Context, opts *contract.TxOpts, user common.Address, name string) (*contract.TxHandle, error)
	RemoveLockUpFromUserMulti(ctx context.Context, opts *contract.TxOpts, users []common.Address, names []string) (*contract.TxHandle, error)

	GetLockUp(ctx context.Context, name string) (LockUpInfo, error)
	GetAllLockupData(ctx context.Context) ([]LockUpInfo, error)
	GetAllLockups(ctx context.Context) ([]string, error)
	GetLockupsNamesToUser(ctx context.Context, user common.Address) ([]string, error)
	GetListOfAddresses(ctx context.Context, name string) ([]common.Address, error)
	GetLockedTokenToUser(ctx context.Context, user common.Address) (*big.Rat, error)
	VerifyTransfer(ctx context.Context, from, to common.Address, amount *big.Rat, data []byte) (modules.Verification, error)

	Events() *events.Subscriber
}

// LockUpInfo is a lockup type as stored on chain, with the amount already
// released.
type LockUpInfo struct {
	restriction.LockUp
	Unlocked *big.Rat
}
