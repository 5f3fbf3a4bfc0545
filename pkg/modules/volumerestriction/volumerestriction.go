// Package volumerestriction wraps the VolumeRestrictionTM transfer manager,
// which caps how many tokens a holder, or every holder by default, may move
// over a rolling or daily window.
package volumerestriction

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/events"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/restriction"
)

// VolumeRestrictionTM is the version-independent surface of the module.
type VolumeRestrictionTM interface {
	modules.Module

	ChangeExemptWalletList(ctx context.Context, opts *contract.TxOpts, wallet common.Address, exempt bool) (*contract.TxHandle, error)

	AddIndividualRestriction(ctx context.Context, opts *contract.TxOpts, holder common.Address, r restriction.Restriction) (*contract.TxHandle, error)
	AddIndividualDailyRestriction(ctx context.Context, opts *contract.TxOpts, holder common.Address, r restriction.Restriction) (*contract.TxHandle, error)
	AddIndividualRestrictionMulti(ctx context.Context, opts *contract.TxOpts, m IndividualRestrictionMulti) (*contract.TxHandle, error)
	AddIndividualDailyRestrictionMulti(ctx context.Context, opts *contract.TxOpts, m IndividualDailyRestrictionMulti) (*contract.TxHandle, error)
	ModifyIndividualRestriction(ctx context.Context, opts *contract.TxOpts, holder common.Address, r restriction.Restriction) (*contract.TxHandle, error)
	ModifyIndividualDailyRestriction(ctx context.Context, opts *contract.TxOpts, holder common.Address, r restriction.Restriction) (*contract.TxHandle, error)
	ModifyIndividualRestrictionMulti(ctx context.Context, opts *contract.TxOpts, m IndividualRestrictionMulti) (*contract.TxHandle, error)
	ModifyIndividualDailyRestrictionMulti(ctx context.Context, opts *contract.TxOpts, m IndividualDailyRestrictionMulti) (*contract.TxHandle, error)
	RemoveIndividualRestriction(ctx context.Context, opts *contract.TxOpts, holder common.Address) (*contract.TxHandle, error)
	RemoveIndividualDailyRestriction(ctx context.Context, opts *contract.TxOpts, holder common.Address) (*contract.TxHandle, error)
	RemoveIndividualRestrictionMulti(ctx context.Context, opts *contract.TxOpts, holders []common.Address) (*contract.TxHandle, error)
	RemoveIndividualDailyRestrictionMulti(ctx context.Context, opts *contract.TxOpts, holders []common.Address) (*contract.TxHandle, error)

	AddDefaultRestriction(ctx context.Context, opts *contract.TxOpts, r restriction.Restriction) (*contract.TxHandle, error)
	AddDefaultDailyRestriction(ctx context.Context, opts *contract.TxOpts, r restriction.Restriction) (*contract.TxHandle, error)
	ModifyDefaultRestriction(ctx context.Context, opts *contract.TxOpts, r restriction.Restriction) (*contract.TxHandle, error)
	ModifyDefaultDailyRestriction(ctx context.Context, opts *contract.TxOpts, r restriction.Restriction) (*contract.TxHandle, error)
	RemoveDefaultRestriction(ctx context.Context, opts *contract.TxOpts) (*contract.TxHandle, error)
	RemoveDefaultDailyRestriction(ctx context.Context, opts *contract.TxOpts) (*contract.TxHandle, error)

	GetExemptAddresses(ctx context.Context) ([]common.Address, error)
	GetIndividualRestriction(ctx context.Context, holder common.Address) (restriction.Restriction, error)
	GetIndividualDailyRestriction(ctx context.Context, holder common.Address) (restriction.Restriction, error)
	GetDefaultRestriction(ctx context.Context) (restriction.Restriction, error)
	GetDefaultDailyRestriction(ctx context.Context) (restriction.Restriction, error)
	GetRestrictionData(ctx context.Context) ([]HolderRestriction, error)
	VerifyTransfer(ctx context.Context, from, to common.Address, amount *big.Rat, data []byte) (modules.Verification, error)

	Events() *events.Subscriber
}

// IndividualRestrictionMulti holds the parallel arrays of a batched
// rolling-period call. Every slice must have the length of Holders.
type IndividualRestrictionMulti struct {
	Holders             []common.Address
	AllowedTokens       []*big.Rat
	StartTimes          []time.Time
	RollingPeriodInDays []uint64
	EndTimes            []time.Time
	RestrictionTypes    []restriction.Type
}

// IndividualDailyRestrictionMulti is IndividualRestrictionMulti without the
// rolling period, which is always one day.
type IndividualDailyRestrictionMulti struct {
	Holders          []common.Address
	AllowedTokens    []*big.Rat
	StartTimes       []time.Time
	EndTimes         []time.Time
	RestrictionTypes []restriction.Type
}

// HolderRestriction is one row of GetRestrictionData.
type HolderRestriction struct {
	Holder common.Address
	restriction.Restriction
}
