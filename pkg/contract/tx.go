package contract

import (
	"context"
	"math/big"
	"time"

	"emperror.dev/errors"
	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrTxReverted is returned by Wait when the receipt reports failure.
const ErrTxReverted = errors.Sentinel("transaction reverted")

// ReceiptPollInterval is the first delay between receipt polls.
var ReceiptPollInterval = 2 * time.Second

// SignerFn signs tx for chainID.
type SignerFn func(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)

// TxOpts carries the sender and gas settings of one transaction.
type TxOpts struct {
	From   common.Address
	Signer SignerFn

	// GasSafetyFactor overrides the contract default when > 0.
	GasSafetyFactor float64
	// GasLimit skips estimation when non-zero.
	GasLimit uint64
	Nonce    *uint64
	Value    *big.Int
}

// TxHandle identifies a sent transaction.
type TxHandle struct {
	Hash common.Hash
	Tx   *types.Transaction

	transport Transport
}

// Wait polls for the receipt until it is mined or ctx ends.
func (h *TxHandle) Wait(ctx context.Context) (*types.Receipt, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = ReceiptPollInterval
	eb.MaxInterval = 15 * ReceiptPollInterval
	eb.MaxElapsedTime = 0

	var receipt *types.Receipt
	op := func() error {
		r, err := h.transport.TransactionReceipt(ctx, h.Hash)
		if errors.Is(err, ethereum.NotFound) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		receipt = r
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(eb, ctx)); err != nil {
		return nil, err
	}

	if receipt.Status == types.ReceiptStatusFailed {
		return receipt, errors.Wrapf(ErrTxReverted, "%s", h.Hash.Hex())
	}
	return receipt, nil
}
