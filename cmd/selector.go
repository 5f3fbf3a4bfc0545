package cmd

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/sha3"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/internal/ui"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/abis"
)

var selectorCmd = &cobra.Command{
	Use:   "selector <signature-or-selector>",
	Short: "Compute a selector or find it in the bundled module ABIs",
	Long: `Compute the 4-byte selector and event topic of a canonical signature, or
look up a selector or topic in the ABIs polyctl ships with.

Examples:
  polyctl selector "changeExemptWalletList(address _wallet, bool _exempted)"
  polyctl selector 0xa9059cbb`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]

		if strings.HasPrefix(input, "0x") || strings.HasPrefix(input, "0X") {
			matches := lookupSelector(input)
			if len(matches) == 0 {
				fmt.Println(ui.Warn("no bundled ABI declares " + input))
				return nil
			}
			t := ui.NewTable("ABI", "KIND", "SIGNATURE")
			for _, m := range matches {
				t.AddRow(m.abi, m.kind, m.sig)
			}
			fmt.Print(t.Render())
			return nil
		}

		sig := normalizeSignature(input)
		hash := keccak(sig)
		fmt.Println(ui.KeyValueBlock("Function Selector", [][2]string{
			{"Signature", sig},
			{"Selector", ui.Val("0x" + hex.EncodeToString(hash[:4]))},
			{"Event topic", "0x" + hex.EncodeToString(hash)},
		}))
		return nil
	},
}

func keccak(s string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(s))
	return h.Sum(nil)
}

// computeEventTopic returns the topic0 hash of an event signature.
func computeEventTopic(sig string) string {
	return "0x" + hex.EncodeToString(keccak(normalizeSignature(sig)))
}

// normalizeSignature removes parameter names, keeping only types.
// "transfer(address to, uint256 amount)" -> "transfer(address,uint256)"
func normalizeSignature(sig string) string {
	parenIdx := strings.Index(sig, "(")
	if parenIdx < 0 || !strings.HasSuffix(sig, ")") {
		return sig
	}

	name := strings.TrimSpace(sig[:parenIdx])
	paramStr := strings.TrimSpace(sig[parenIdx+1 : len(sig)-1])
	if paramStr == "" {
		return name + "()"
	}

	var types []string
	for _, p := range strings.Split(paramStr, ",") {
		// First word is the type; drop names and "indexed".
		if parts := strings.Fields(p); len(parts) > 0 {
			types = append(types, parts[0])
		}
	}
	return name + "(" + strings.Join(types, ",") + ")"
}

type selectorMatch struct {
	abi, kind, sig string
}

// lookupSelector finds a 4-byte method selector or a 32-byte event topic in
// the embedded ABIs.
func lookupSelector(input string) []selectorMatch {
	want := strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(input, "0x"), "0X"))

	var out []selectorMatch
	for _, key := range abis.Keys() {
		def, _ := abis.Get(key)
		for _, m := range def.ABI.Methods {
			if hex.EncodeToString(m.ID) == want {
				out = append(out, selectorMatch{key, "function", m.Sig})
			}
		}
		for _, ev := range def.ABI.Events {
			if strings.TrimPrefix(ev.ID.Hex(), "0x") == want {
				out = append(out, selectorMatch{key, "event", ev.Sig})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].abi < out[j].abi })
	return out
}
