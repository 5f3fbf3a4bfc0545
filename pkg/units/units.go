// Package units converts between human display values and the integer
// representations the contracts store: token amounts scaled by decimals,
// percentages, bytes32 names and unix timestamps.
package units

import (
	"bytes"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polyerr"
)

// PercentageDecimals is the scale used on chain for percentages: 100% is 10^18.
const PercentageDecimals = 16

var decimalPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// Parse reads a plain decimal string such as "12.5". Exponents and fractions
// are rejected so the value is always exactly what the user typed.
func Parse(s string) (*big.Rat, error) {
	s = strings.TrimSpace(s)
	if !decimalPattern.MatchString(s) {
		return nil, polyerr.InvalidData("value", s, "not a decimal number")
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, polyerr.InvalidData("value", s, "not a decimal number")
	}
	return r, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) *big.Rat {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

func pow10(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

// ToOnChain scales v by 10^decimals. It fails when v is negative or carries
// more fractional digits than decimals can represent.
func ToOnChain(v *big.Rat, decimals uint8) (*big.Int, error) {
	if v == nil {
		return nil, polyerr.InvalidData("value", nil, "missing")
	}
	if v.Sign() < 0 {
		return nil, polyerr.InvalidData("value", v.FloatString(int(decimals)), "must not be negative")
	}
	num := new(big.Int).Mul(v.Num(), pow10(decimals))
	q, rem := new(big.Int).QuoRem(num, v.Denom(), new(big.Int))
	if rem.Sign() != 0 {
		return nil, polyerr.InvalidData("value", v.RatString(), "more than %d decimal places", decimals)
	}
	return q, nil
}

// FromOnChain is the exact inverse of ToOnChain.
func FromOnChain(raw *big.Int, decimals uint8) *big.Rat {
	if raw == nil {
		return new(big.Rat)
	}
	return new(big.Rat).SetFrac(raw, pow10(decimals))
}

// Format renders an on-chain amount as a decimal string with trailing
// fractional zeros removed.
func Format(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	neg := raw.Sign() < 0
	abs := new(big.Int).Abs(raw)
	q, r := new(big.Int).QuoRem(abs, pow10(decimals), new(big.Int))

	out := q.String()
	if decimals > 0 && r.Sign() != 0 {
		frac := r.String()
		frac = strings.Repeat("0", int(decimals)-len(frac)) + frac
		out += "." + strings.TrimRight(frac, "0")
	}
	if neg {
		out = "-" + out
	}
	return out
}

// FormatRat renders a display value using the same canonical form as Format.
func FormatRat(v *big.Rat, decimals uint8) string {
	raw, err := ToOnChain(new(big.Rat).Abs(v), decimals)
	if err != nil {
		return v.FloatString(int(decimals))
	}
	if v.Sign() < 0 {
		raw.Neg(raw)
	}
	return Format(raw, decimals)
}

// PercentageToOnChain converts a percentage in [0, 100] to its on-chain form.
func PercentageToOnChain(p *big.Rat) (*big.Int, error) {
	return ToOnChain(p, PercentageDecimals)
}

// PercentageFromOnChain converts an on-chain percentage back to [0, 100].
func PercentageFromOnChain(raw *big.Int) *big.Rat {
	return FromOnChain(raw, PercentageDecimals)
}

// StringToBytes32 right-pads s with zero bytes.
func StringToBytes32(s string) ([32]byte, error) {
	var out [32]byte
	if len(s) > 32 {
		return out, polyerr.InvalidData("name", s, "longer than 32 bytes")
	}
	copy(out[:], s)
	return out, nil
}

// Bytes32ToString trims the zero padding added by StringToBytes32.
func Bytes32ToString(b [32]byte) string {
	return string(bytes.TrimRight(b[:], "\x00"))
}

// TimeToUint converts t to unix seconds; the zero time maps to 0.
func TimeToUint(t time.Time) *big.Int {
	if t.IsZero() {
		return new(big.Int)
	}
	return big.NewInt(t.Unix())
}

// UintToTime converts unix seconds to a UTC time; 0 maps to the zero time.
func UintToTime(v *big.Int) time.Time {
	if v == nil || v.Sign() == 0 {
		return time.Time{}
	}
	return time.Unix(v.Int64(), 0).UTC()
}

// DurationToUint converts d to whole seconds.
func DurationToUint(d time.Duration) *big.Int {
	return big.NewInt(int64(d / time.Second))
}

// UintToDuration converts whole seconds to a duration.
func UintToDuration(v *big.Int) time.Duration {
	if v == nil {
		return 0
	}
	return time.Duration(v.Int64()) * time.Second
}
