package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConvertFlags(t *testing.T, decimals uint8, percentage, bytes32 bool) {
	t.Helper()
	old := convertFlags
	t.Cleanup(func() { convertFlags = old })
	convertFlags.decimals = decimals
	convertFlags.percentage = percentage
	convertFlags.bytes32 = bytes32
}

func pairValue(pairs [][2]string, key string) string {
	for _, p := range pairs {
		if p[0] == key {
			return p[1]
		}
	}
	return ""
}

func TestToChainScalesByDecimals(t *testing.T) {
	withConvertFlags(t, 18, false, false)
	pairs, err := toChain("1.5")
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", pairValue(pairs, "On chain"))
	assert.Equal(t, "0x14d1120d7b160000", pairValue(pairs, "Hex"))
}

func TestToChainRejectsExtraPrecision(t *testing.T) {
	withConvertFlags(t, 2, false, false)
	_, err := toChain("1.005")
	assert.Error(t, err)
}

func TestToChainPercentage(t *testing.T) {
	withConvertFlags(t, 18, true, false)
	pairs, err := toChain("12.5")
	require.NoError(t, err)
	assert.Equal(t, "125000000000000000", pairValue(pairs, "On chain"))
}

func TestFromChain(t *testing.T) {
	withConvertFlags(t, 6, false, false)
	pairs, err := fromChain("1500000")
	require.NoError(t, err)
	assert.Equal(t, "1.5", pairValue(pairs, "Display"))

	pairs, err = fromChain("0xf4240")
	require.NoError(t, err)
	assert.Equal(t, "1", pairValue(pairs, "Display"))

	_, err = fromChain("abc")
	assert.Error(t, err)
}

func TestFromChainPercentage(t *testing.T) {
	withConvertFlags(t, 18, true, false)
	pairs, err := fromChain("125000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "12.5 %", pairValue(pairs, "Display"))
}

func TestBytes32RoundTrip(t *testing.T) {
	withConvertFlags(t, 18, false, true)
	pairs, err := toChain("founders")
	require.NoError(t, err)
	encoded := pairValue(pairs, "Bytes32")
	assert.Len(t, encoded, 66)

	pairs, err = fromChain(encoded)
	require.NoError(t, err)
	assert.Equal(t, "founders", pairValue(pairs, "Text"))

	_, err = fromChain("0x1234")
	assert.Error(t, err)
}
