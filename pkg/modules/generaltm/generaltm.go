// Package generaltm wraps the GeneralTransferManager, the whitelist that
// gates when each investor may send and receive tokens.
package generaltm

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/events"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules"
)

// GeneralTransferManager is the surface shared by every supported version.
type GeneralTransferManager interface {
	modules.Module

	ModifyKYCData(ctx context.Context, opts *contract.TxOpts, investor common.Address, kyc KYC) (*contract.TxHandle, error)
	ModifyKYCDataMulti(ctx context.Context, opts *contract.TxOpts, m KYCMulti) (*contract.TxHandle, error)
	GetKYCData(ctx context.Context, investors []common.Address) ([]KYCData, error)
	ChangeDefaults(ctx context.Context, opts *contract.TxOpts, d Defaults) (*contract.TxHandle, error)
	GetDefaults(ctx context.Context) (Defaults, error)
	ModifyInvestorFlag(ctx context.Context, opts *contract.TxOpts, investor common.Address, flag Flag, value bool) (*contract.TxHandle, error)
	ModifyInvestorFlagMulti(ctx context.Context, opts *contract.TxOpts, investors []common.Address, flags []Flag, values []bool) (*contract.TxHandle, error)
	GetInvestorFlag(ctx context.Context, investor common.Address, flag Flag) (bool, error)
	VerifyTransfer(ctx context.Context, from, to common.Address, amount *big.Rat, data []byte) (modules.Verification, error)

	Events() *events.Subscriber
}

// KYC is the whitelist entry of one investor.
type KYC struct {
	CanSendAfter    time.Time
	CanReceiveAfter time.Time
	ExpiryTime      time.Time
}

// KYCMulti holds the parallel arrays of a batched whitelist update.
type KYCMulti struct {
	Investors       []common.Address
	CanSendAfter    []time.Time
	CanReceiveAfter []time.Time
	ExpiryTime      []time.Time
}

// KYCData is one row read back from the whitelist. Added is only reported
// by 3.1.0 and is false otherwise.
type KYCData struct {
	Investor common.Address
	KYC
	Added bool
}

// Defaults replace a zero CanSendAfter or CanReceiveAfter at transfer time.
type Defaults struct {
	CanSendAfter    time.Time
	CanReceiveAfter time.Time
}

// Flag is an investor flag index.
type Flag uint8

const (
	Accredited Flag = iota
	CanNotBuyFromSTO
	IsVolRestricted
)

func (f Flag) Valid() bool { return f <= IsVolRestricted }

func (f Flag) String() string {
	switch f {
	case Accredited:
		return "accredited"
	case CanNotBuyFromSTO:
		return "canNotBuyFromSTO"
	case IsVolRestricted:
		return "isVolRestricted"
	}
	return "unknown"
}
