package cmd

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// normalizeSignature
// ---------------------------------------------------------------------------

func TestNormalizeSignature_AlreadyCanonical(t *testing.T) {
	assert.Equal(t, "transfer(address,uint256)", normalizeSignature("transfer(address,uint256)"))
}

func TestNormalizeSignature_WithNames(t *testing.T) {
	assert.Equal(t, "changeExemptWalletList(address,bool)", normalizeSignature("changeExemptWalletList(address _wallet, bool _exempted)"))
}

func TestNormalizeSignature_NoParams(t *testing.T) {
	assert.Equal(t, "unpause()", normalizeSignature("unpause()"))
}

func TestNormalizeSignature_IndexedEventArgs(t *testing.T) {
	assert.Equal(t, "ChangedExemptWalletList(address,bool)", normalizeSignature("ChangedExemptWalletList(address indexed _wallet, bool _exempted)"))
}

func TestNormalizeSignature_NoParens(t *testing.T) {
	assert.Equal(t, "noop", normalizeSignature("noop"))
}

func TestNormalizeSignature_ExtraSpaces(t *testing.T) {
	assert.Equal(t, "approve(address,uint256)", normalizeSignature("approve(  address  spender ,  uint256  amount  )"))
}

// ---------------------------------------------------------------------------
// computeEventTopic
// ---------------------------------------------------------------------------

func TestComputeEventTopic_Transfer(t *testing.T) {
	topic := computeEventTopic("Transfer(address,address,uint256)")
	assert.Equal(t, "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef", topic)
}

func TestComputeEventTopic_IgnoresNames(t *testing.T) {
	assert.Equal(t,
		computeEventTopic("Transfer(address,address,uint256)"),
		computeEventTopic("Transfer(address indexed from, address indexed to, uint256 value)"))
}

// ---------------------------------------------------------------------------
// lookupSelector
// ---------------------------------------------------------------------------

func TestLookupSelectorFindsBundledMethod(t *testing.T) {
	sel := "0x" + hex.EncodeToString(keccak("changeExemptWalletList(address,bool)")[:4])

	matches := lookupSelector(sel)
	require.NotEmpty(t, matches)
	assert.Contains(t, matches, selectorMatch{"VolumeRestrictionTM_3_0_0", "function", "changeExemptWalletList(address,bool)"})
}

func TestLookupSelectorFindsEventTopic(t *testing.T) {
	matches := lookupSelector(computeEventTopic("ChangedExemptWalletList(address,bool)"))
	assert.Contains(t, matches, selectorMatch{"VolumeRestrictionTM_3_0_0", "event", "ChangedExemptWalletList(address,bool)"})
}

func TestLookupSelectorUnknown(t *testing.T) {
	assert.Empty(t, lookupSelector("0xdeadbeef"))
}
