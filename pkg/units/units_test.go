package units

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polyerr"
)

func TestRoundTripIsExact(t *testing.T) {
	tests := []struct {
		decimals uint8
		values   []string
	}{
		{0, []string{"0", "1", "42", "1000000000000000000000000"}},
		{6, []string{"0", "1", "1.5", "0.000001", "123456.654321", "999999999999.999999"}},
		{18, []string{"0", "1", "0.1", "0.000000000000000001", "1.23456789012345678", "115792089237316195423570985008687907853269984665640564039457.584007913129639935"}},
	}

	for _, tt := range tests {
		for _, s := range tt.values {
			v := MustParse(s)
			raw, err := ToOnChain(v, tt.decimals)
			require.NoError(t, err, "decimals=%d value=%s", tt.decimals, s)

			back := FromOnChain(raw, tt.decimals)
			assert.Zero(t, v.Cmp(back), "decimals=%d value=%s got=%s", tt.decimals, s, back.RatString())
			assert.Equal(t, s, Format(raw, tt.decimals))
		}
	}
}

func TestToOnChainScales(t *testing.T) {
	raw, err := ToOnChain(MustParse("1.5"), 6)
	require.NoError(t, err)
	assert.Equal(t, "1500000", raw.String())

	raw, err = ToOnChain(MustParse("1"), 18)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", raw.String())
}

func TestToOnChainRejectsExcessPrecision(t *testing.T) {
	_, err := ToOnChain(MustParse("1.5"), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, polyerr.ErrInvalidData)

	_, err = ToOnChain(MustParse("0.0000001"), 6)
	assert.ErrorIs(t, err, polyerr.ErrInvalidData)
}

func TestToOnChainRejectsNegative(t *testing.T) {
	_, err := ToOnChain(MustParse("-1"), 6)
	assert.ErrorIs(t, err, polyerr.ErrInvalidData)
}

func TestParseRejectsNonDecimal(t *testing.T) {
	for _, s := range []string{"", "abc", "1e18", "1/3", "0x10", "1.", ".5"} {
		_, err := Parse(s)
		assert.ErrorIs(t, err, polyerr.ErrInvalidData, "input %q", s)
	}
}

func TestFormatTrimsZeros(t *testing.T) {
	assert.Equal(t, "1.25", Format(big.NewInt(1250000), 6))
	assert.Equal(t, "0.000001", Format(big.NewInt(1), 6))
	assert.Equal(t, "7", Format(big.NewInt(7), 0))
	assert.Equal(t, "-2.5", Format(big.NewInt(-2500), 3))
	assert.Equal(t, "0", Format(nil, 18))
}

func TestPercentageScale(t *testing.T) {
	raw, err := PercentageToOnChain(MustParse("100"))
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", raw.String())

	raw, err = PercentageToOnChain(MustParse("12.5"))
	require.NoError(t, err)
	assert.Zero(t, MustParse("12.5").Cmp(PercentageFromOnChain(raw)))
}

func TestBytes32(t *testing.T) {
	b, err := StringToBytes32("ADMIN")
	require.NoError(t, err)
	assert.Equal(t, byte('A'), b[0])
	assert.Equal(t, byte(0), b[5])
	assert.Equal(t, "ADMIN", Bytes32ToString(b))

	_, err = StringToBytes32("this name is definitely longer than thirty-two bytes")
	assert.ErrorIs(t, err, polyerr.ErrInvalidData)

	assert.Equal(t, "", Bytes32ToString([32]byte{}))
}

func TestTimeConversions(t *testing.T) {
	assert.Equal(t, int64(0), TimeToUint(time.Time{}).Int64())
	assert.True(t, UintToTime(big.NewInt(0)).IsZero())

	ts := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.True(t, ts.Equal(UintToTime(TimeToUint(ts))))

	assert.Equal(t, int64(3600), DurationToUint(time.Hour).Int64())
	assert.Equal(t, time.Hour, UintToDuration(big.NewInt(3600)))
}
