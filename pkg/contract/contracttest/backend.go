// Package contracttest provides an in-memory Transport for tests. Calls are
// routed by address and 4-byte selector to canned handlers, transactions are
// recorded instead of mined, and logs are pushed through channels.
package contracttest

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"

	"emperror.dev/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
)

// ErrNoHandler is returned by CallContract for an unrouted selector.
const ErrNoHandler = errors.Sentinel("no handler for call")

// HandlerFunc receives decoded call arguments and returns output values.
type HandlerFunc func(args []any) ([]any, error)

type route struct {
	method abi.Method
	fn     HandlerFunc
}

// Backend is a fake contract.Transport.
type Backend struct {
	mu sync.Mutex

	ChainIDValue *big.Int
	GasEstimate  uint64
	GasPrice     *big.Int

	// SendErr, when set, is returned by SendTransaction.
	SendErr error
	// FilterErr, when set, is returned by FilterLogs.
	FilterErr error

	code     map[common.Address][]byte
	routes   map[common.Address]map[[4]byte]route
	calls    map[common.Address]map[string]int
	sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt
	logs     []types.Log
	subs     []*subscription
}

var _ contract.Transport = (*Backend)(nil)

// New returns an empty backend on chain 1337.
func New() *Backend {
	return &Backend{
		ChainIDValue: big.NewInt(1337),
		GasEstimate:  100000,
		GasPrice:     big.NewInt(1_000_000_000),
		code:         make(map[common.Address][]byte),
		routes:       make(map[common.Address]map[[4]byte]route),
		calls:        make(map[common.Address]map[string]int),
		receipts:     make(map[common.Hash]*types.Receipt),
	}
}

// SetCode marks addr as a deployed contract.
func (b *Backend) SetCode(addr common.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.code[addr] = []byte{0x60, 0x80, 0x60, 0x40}
}

// Handle routes calls of method on addr to fn.
func (b *Backend) Handle(addr common.Address, def abi.ABI, method string, fn HandlerFunc) {
	m, ok := def.Methods[method]
	if !ok {
		panic("contracttest: unknown method " + method)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.routes[addr] == nil {
		b.routes[addr] = make(map[[4]byte]route)
	}
	var sel [4]byte
	copy(sel[:], m.ID)
	b.routes[addr][sel] = route{method: m, fn: fn}
	b.code[addr] = []byte{0x60, 0x80, 0x60, 0x40}
}

// Return routes method on addr to fixed outputs.
func (b *Backend) Return(addr common.Address, def abi.ABI, method string, outs ...any) {
	b.Handle(addr, def, method, func([]any) ([]any, error) { return outs, nil })
}

// Fail routes method on addr to err.
func (b *Backend) Fail(addr common.Address, def abi.ABI, method string, err error) {
	b.Handle(addr, def, method, func([]any) ([]any, error) { return nil, err })
}

// Calls returns how often method was called on addr.
func (b *Backend) Calls(addr common.Address, method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[addr][method]
}

// TotalCalls returns the number of eth_call requests served.
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, m := range b.calls {
		for _, c := range m {
			n += c
		}
	}
	return n
}

// Sent returns the transactions passed to SendTransaction.
func (b *Backend) Sent() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*types.Transaction(nil), b.sent...)
}

// SetReceipt makes TransactionReceipt return r for hash.
func (b *Backend) SetReceipt(hash common.Hash, r *types.Receipt) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receipts[hash] = r
}

// AddLogs stores logs returned by FilterLogs.
func (b *Backend) AddLogs(logs ...types.Log) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logs = append(b.logs, logs...)
}

func (b *Backend) CodeAt(_ context.Context, account common.Address, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.code[account], nil
}

func (b *Backend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if call.To == nil || len(call.Data) < 4 {
		return nil, errors.New("contracttest: malformed call")
	}
	var sel [4]byte
	copy(sel[:], call.Data[:4])

	b.mu.Lock()
	r, ok := b.routes[*call.To][sel]
	if ok {
		if b.calls[*call.To] == nil {
			b.calls[*call.To] = make(map[string]int)
		}
		b.calls[*call.To][r.method.Name]++
	}
	b.mu.Unlock()

	if !ok {
		return nil, errors.WithDetails(ErrNoHandler, "to", call.To.Hex(), "selector", common.Bytes2Hex(sel[:]))
	}

	args, err := r.method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, errors.Wrapf(err, "contracttest: decoding %s input", r.method.Name)
	}
	outs, err := r.fn(args)
	if err != nil {
		return nil, err
	}
	return r.method.Outputs.Pack(outs...)
}

func (b *Backend) PendingNonceAt(_ context.Context, _ common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.sent)), nil
}

func (b *Backend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.GasPrice), nil
}

func (b *Backend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return b.GasEstimate, nil
}

func (b *Backend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.ChainIDValue), nil
}

func (b *Backend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if b.SendErr != nil {
		return b.SendErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, tx)
	return nil
}

func (b *Backend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (b *Backend) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	if b.FilterErr != nil {
		return nil, b.FilterErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []types.Log
	for _, l := range b.logs {
		if matches(q, l) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Signer returns a SignerFn for key.
func Signer(key *ecdsa.PrivateKey) contract.SignerFn {
	return func(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
		return types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	}
}

// NewAccount generates a key and returns TxOpts that sign with it.
func NewAccount() (*contract.TxOpts, *ecdsa.PrivateKey) {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return &contract.TxOpts{From: crypto.PubkeyToAddress(key.PublicKey), Signer: Signer(key)}, key
}

// matches applies the address and positional topic rules of eth_getLogs.
func matches(q ethereum.FilterQuery, l types.Log) bool {
	if len(q.Addresses) > 0 {
		found := false
		for _, a := range q.Addresses {
			if a == l.Address {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for i, alts := range q.Topics {
		if len(alts) == 0 {
			continue
		}
		if i >= len(l.Topics) {
			return false
		}
		found := false
		for _, t := range alts {
			if t == l.Topics[i] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
