package generaltm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/abis"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules"
)

func init() {
	modules.Register(modules.Registration{
		Name:    modules.GeneralTransferManager,
		Version: "3.1.0",
		New: func(d modules.Descriptor, t contract.Transport, opts ...contract.Option) modules.Module {
			return NewV310(d, t, opts...)
		},
	})
}

// V310 is the GeneralTransferManager 3.1.0 wrapper. getKYCData gains an
// added column and the whole whitelist can be listed.
type V310 struct {
	*V300
}

var _ GeneralTransferManager = (*V310)(nil)

func NewV310(d modules.Descriptor, t contract.Transport, opts ...contract.Option) *V310 {
	return &V310{V300: newBase(abis.GeneralTransferManager310, d, t, opts...)}
}

func (v *V310) GetKYCData(ctx context.Context, investors []common.Address) ([]KYCData, error) {
	out, err := v.Call(ctx, "getKYCData", investors)
	if err != nil {
		return nil, err
	}
	return kycRows(investors, out[0].([]*big.Int), out[1].([]*big.Int), out[2].([]*big.Int), out[3].([]bool))
}

// GetAllKYCData lists every investor that was ever whitelisted.
func (v *V310) GetAllKYCData(ctx context.Context) ([]KYCData, error) {
	out, err := v.Call(ctx, "getAllKYCData")
	if err != nil {
		return nil, err
	}
	return kycRows(out[0].([]common.Address), out[1].([]*big.Int), out[2].([]*big.Int), out[3].([]*big.Int), out[4].([]bool))
}
