package wallet

import (
	"math/big"

	"emperror.dev/errors"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
)

// TxOpts returns transaction options that send from w. The key is read from
// ks each time a transaction is signed, so it is never held between calls.
func TxOpts(w *Wallet, ks KeystoreBackend) *contract.TxOpts {
	return &contract.TxOpts{
		From:   w.Address,
		Signer: Signer(w, ks),
	}
}

// Signer returns a SignerFn for w.
func Signer(w *Wallet, ks KeystoreBackend) contract.SignerFn {
	return func(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
		hexKey, err := ks.Retrieve(w.KeyRef)
		if err != nil {
			return nil, errors.Wrap(err, "retrieving key")
		}
		privKey, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
		if err != nil {
			return nil, errors.WrapIf(ErrInvalidKey, err.Error())
		}
		if crypto.PubkeyToAddress(privKey.PublicKey) != w.Address {
			return nil, errors.Errorf("stored key does not belong to wallet %q", w.Name)
		}

		signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), privKey)
		if err != nil {
			return nil, errors.Wrap(err, "signing transaction")
		}
		return signed, nil
	}
}
