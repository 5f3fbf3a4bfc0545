package modules

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/capability"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/units"
)

// TransferResult is the verdict a transfer manager returns for a transfer.
type TransferResult uint8

const (
	Invalid TransferResult = iota
	NA
	Valid
	ForceValid
)

func (r TransferResult) String() string {
	switch r {
	case Invalid:
		return "INVALID"
	case NA:
		return "NA"
	case Valid:
		return "VALID"
	case ForceValid:
		return "FORCE_VALID"
	}
	return "UNKNOWN"
}

// Verification is the decoded result of verifyTransfer.
type Verification struct {
	Result TransferResult
	// Reason is the bytes32 reason code, decoded as text when printable.
	Reason string
	Raw    [32]byte
}

// Passes reports whether the module lets the transfer through.
func (v Verification) Passes() bool { return v.Result != Invalid }

// VerifyTransfer simulates a transfer of amount, given in display units, on
// any transfer manager that exposes verifyTransfer.
func VerifyTransfer(ctx context.Context, m *capability.Module, from, to common.Address, amount *big.Rat, data []byte) (Verification, error) {
	decimals, err := m.TokenDecimals(ctx)
	if err != nil {
		return Verification{}, err
	}
	raw, err := units.ToOnChain(amount, decimals)
	if err != nil {
		return Verification{}, err
	}
	if data == nil {
		data = []byte{}
	}
	out, err := m.Call(ctx, "verifyTransfer", from, to, raw, data)
	if err != nil {
		return Verification{}, err
	}
	reason := out[1].([32]byte)
	return Verification{
		Result: TransferResult(out[0].(uint8)),
		Reason: units.Bytes32ToString(reason),
		Raw:    reason,
	}, nil
}
