package contract

import (
	"context"
	"encoding/hex"
	"io"
	"math"
	"math/big"

	"emperror.dev/errors"
	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/crypto/sha3"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polyerr"
)

// DefaultGasSafetyFactor multiplies the node's gas estimate.
const DefaultGasSafetyFactor = 1.2

// ErrUnknownMethod is returned when a method is not part of the bound ABI.
const ErrUnknownMethod = errors.Sentinel("unknown contract method")

// Contract is an ABI bound to an address.
type Contract struct {
	Address common.Address
	ABI     abi.ABI

	transport Transport
	logger    *log.Logger
	gasFactor float64
}

// Option configures a Contract.
type Option func(*Contract)

// WithLogger sets the logger used for transaction dispatch.
func WithLogger(l *log.Logger) Option {
	return func(c *Contract) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithGasSafetyFactor sets the default multiplier applied to gas estimates.
func WithGasSafetyFactor(f float64) Option {
	return func(c *Contract) {
		if f > 0 {
			c.gasFactor = f
		}
	}
}

// New binds def to address over t.
func New(address common.Address, def abi.ABI, t Transport, opts ...Option) *Contract {
	c := &Contract{
		Address:   address,
		ABI:       def,
		transport: t,
		logger:    log.New(io.Discard),
		gasFactor: DefaultGasSafetyFactor,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Transport returns the transport the contract was bound with.
func (c *Contract) Transport() Transport { return c.transport }

// Logger returns the contract's logger.
func (c *Contract) Logger() *log.Logger { return c.logger }

// Options returns options that reproduce this contract's logger and gas
// factor on another binding.
func (c *Contract) Options() []Option {
	return []Option{WithLogger(c.logger), WithGasSafetyFactor(c.gasFactor)}
}

func (c *Contract) method(name string) (abi.Method, error) {
	m, ok := c.ABI.Methods[name]
	if !ok {
		return abi.Method{}, errors.WithDetails(errors.Wrapf(ErrUnknownMethod, "%s", name), "address", c.Address.Hex())
	}
	return m, nil
}

func (c *Contract) pack(name string, args ...any) ([]byte, error) {
	data, err := c.ABI.Pack(name, args...)
	if err != nil {
		return nil, polyerr.Wrap(err, polyerr.KindInvalidData, "arguments", name, "cannot encode: %v", err)
	}
	return data, nil
}

// Call runs a read-only method and returns its decoded outputs. Transport
// errors are returned unchanged.
func (c *Contract) Call(ctx context.Context, name string, args ...any) ([]any, error) {
	if _, err := c.method(name); err != nil {
		return nil, err
	}
	input, err := c.pack(name, args...)
	if err != nil {
		return nil, err
	}

	to := c.Address
	out, err := c.transport.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return nil, err
	}

	res, err := c.ABI.Unpack(name, out)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s result 0x%s", name, hex.EncodeToString(out))
	}
	return res, nil
}

// Transact signs and sends one transaction calling method name. Nothing is
// sent when the options, method or arguments are invalid.
func (c *Contract) Transact(ctx context.Context, opts *TxOpts, name string, args ...any) (*TxHandle, error) {
	if opts == nil || opts.Signer == nil {
		return nil, polyerr.InvalidData("signer", nil, "transaction options need a signer")
	}
	m, err := c.method(name)
	if err != nil {
		return nil, err
	}
	if m.IsConstant() {
		return nil, errors.Errorf("%s is a read-only method", name)
	}
	data, err := c.pack(name, args...)
	if err != nil {
		return nil, err
	}

	chainID, err := c.transport.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	var nonce uint64
	if opts.Nonce != nil {
		nonce = *opts.Nonce
	} else if nonce, err = c.transport.PendingNonceAt(ctx, opts.From); err != nil {
		return nil, err
	}

	gasPrice, err := c.transport.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	value := opts.Value
	if value == nil {
		value = new(big.Int)
	}

	to := c.Address
	gas := opts.GasLimit
	if gas == 0 {
		est, err := c.transport.EstimateGas(ctx, ethereum.CallMsg{From: opts.From, To: &to, Value: value, Data: data})
		if err != nil {
			return nil, err
		}
		factor := opts.GasSafetyFactor
		if factor <= 0 {
			factor = c.gasFactor
		}
		gas = uint64(math.Ceil(float64(est) * factor))
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      data,
	})

	signed, err := opts.Signer(tx, chainID)
	if err != nil {
		return nil, errors.Wrap(err, "signing transaction")
	}

	if err := c.transport.SendTransaction(ctx, signed); err != nil {
		return nil, err
	}

	c.logger.Info("transaction sent", "contract", c.Address.Hex(), "method", name, "tx", signed.Hash().Hex())
	return &TxHandle{Hash: signed.Hash(), Tx: signed, transport: c.transport}, nil
}

// Selector returns the 4-byte selector of a canonical signature such as
// "transfer(address,uint256)".
func Selector(signature string) [4]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	var out [4]byte
	copy(out[:], h.Sum(nil)[:4])
	return out
}
