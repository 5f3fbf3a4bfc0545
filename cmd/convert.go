package cmd

import (
	"fmt"
	"math/big"
	"strings"

	"emperror.dev/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/internal/ui"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/units"
)

var convertFlags struct {
	decimals   uint8
	percentage bool
	bytes32    bool
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert between display values and on-chain integers",
	Long: `Convert between display values and the integers stored on chain.

Examples:
  polyctl convert to-chain 1.5                 # 1500000000000000000
  polyctl convert to-chain 12.5 --percentage   # 125000000000000000
  polyctl convert from-chain 1500000 --decimals 6
  polyctl convert to-chain founders --bytes32`,
}

var convertToChainCmd = &cobra.Command{
	Use:   "to-chain <value>",
	Short: "Display value to on-chain integer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, err := toChain(args[0])
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock("To chain", pairs))
		return nil
	},
}

var convertFromChainCmd = &cobra.Command{
	Use:   "from-chain <integer>",
	Short: "On-chain integer to display value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, err := fromChain(args[0])
		if err != nil {
			return err
		}
		fmt.Println(ui.KeyValueBlock("From chain", pairs))
		return nil
	},
}

func toChain(in string) ([][2]string, error) {
	if convertFlags.bytes32 {
		b, err := units.StringToBytes32(in)
		if err != nil {
			return nil, err
		}
		return [][2]string{{"Text", in}, {"Bytes32", common.Hash(b).Hex()}}, nil
	}

	v, err := units.Parse(in)
	if err != nil {
		return nil, err
	}
	var raw *big.Int
	if convertFlags.percentage {
		raw, err = units.PercentageToOnChain(v)
	} else {
		raw, err = units.ToOnChain(v, convertFlags.decimals)
	}
	if err != nil {
		return nil, err
	}
	return [][2]string{
		{"Input", in},
		{"On chain", raw.String()},
		{"Hex", "0x" + raw.Text(16)},
	}, nil
}

func fromChain(in string) ([][2]string, error) {
	if convertFlags.bytes32 {
		h := strings.TrimPrefix(strings.TrimPrefix(in, "0x"), "0X")
		if len(h) != 64 {
			return nil, errors.Errorf("bytes32 must be 32 hex bytes, got %q", in)
		}
		return [][2]string{{"Bytes32", in}, {"Text", units.Bytes32ToString(common.HexToHash(h))}}, nil
	}

	raw, ok := parseInteger(in)
	if !ok {
		return nil, errors.Errorf("invalid integer %q", in)
	}
	var display string
	if convertFlags.percentage {
		display = units.FormatRat(units.PercentageFromOnChain(raw), units.PercentageDecimals) + " %"
	} else {
		display = units.Format(raw, convertFlags.decimals)
	}
	return [][2]string{
		{"Input", in},
		{"Display", display},
	}, nil
}

// parseInteger reads a decimal or 0x-prefixed hex integer.
func parseInteger(s string) (*big.Int, bool) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return new(big.Int).SetString(s[2:], 16)
	}
	return new(big.Int).SetString(s, 10)
}

func init() {
	f := convertCmd.PersistentFlags()
	f.Uint8Var(&convertFlags.decimals, "decimals", 18, "token decimals")
	f.BoolVar(&convertFlags.percentage, "percentage", false, "use the percentage scale (100% = 10^18)")
	f.BoolVar(&convertFlags.bytes32, "bytes32", false, "convert text to and from bytes32")
	convertCmd.AddCommand(convertToChainCmd, convertFromChainCmd)
}
