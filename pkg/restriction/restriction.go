// Package restriction mirrors the rules volume and lockup restriction
// contracts enforce, so a call that would revert is rejected before it is
// signed. Nothing here touches the network.
package restriction

import (
	"math/big"
	"time"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polyerr"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/units"
)

// Type says how AllowedTokens is read.
type Type uint8

const (
	Fixed Type = iota
	Percentage
)

func (t Type) String() string {
	switch t {
	case Fixed:
		return "Fixed"
	case Percentage:
		return "Percentage"
	}
	return "Unknown"
}

func (t Type) Valid() bool { return t == Fixed || t == Percentage }

// Rolling period bounds, in days.
const (
	MinRollingPeriodDays = 1
	MaxRollingPeriodDays = 365
)

var hundred = big.NewRat(100, 1)

// Restriction is a time-bounded cap on token movement. AllowedTokens is a
// token quantity for Fixed and a percentage in (0, 100] for Percentage. A
// zero EndTime means no restriction is set.
type Restriction struct {
	AllowedTokens       *big.Rat
	StartTime           time.Time
	EndTime             time.Time
	RollingPeriodInDays uint64
	Type                Type
}

// IsActive reports whether the restriction is set.
func (r Restriction) IsActive() bool { return !r.EndTime.IsZero() }

// CheckRestrictionInputParams validates the parameters shared by every
// restriction family against the current time.
func CheckRestrictionInputParams(startTime time.Time, allowedTokens *big.Rat, restrictionType Type, rollingPeriodInDays uint64) error {
	return CheckRestrictionInputParamsAt(time.Now(), startTime, allowedTokens, restrictionType, rollingPeriodInDays)
}

// CheckRestrictionInputParamsAt is CheckRestrictionInputParams with an
// explicit clock.
func CheckRestrictionInputParamsAt(now, startTime time.Time, allowedTokens *big.Rat, restrictionType Type, rollingPeriodInDays uint64) error {
	if !startTime.After(now) {
		return polyerr.InvalidData("startTime", startTime.UTC().Format(time.RFC3339), "must be in the future")
	}
	if allowedTokens == nil || allowedTokens.Sign() <= 0 {
		return polyerr.InvalidData("allowedTokens", ratString(allowedTokens), "must be greater than zero")
	}
	if !restrictionType.Valid() {
		return polyerr.InvalidData("restrictionType", uint8(restrictionType), "must be Fixed or Percentage")
	}
	if restrictionType == Percentage && allowedTokens.Cmp(hundred) > 0 {
		return polyerr.InvalidData("allowedTokens", ratString(allowedTokens), "percentage must not exceed 100")
	}
	if rollingPeriodInDays < MinRollingPeriodDays || rollingPeriodInDays > MaxRollingPeriodDays {
		return polyerr.InvalidData("rollingPeriodInDays", rollingPeriodInDays, "must be in [%d, %d]", MinRollingPeriodDays, MaxRollingPeriodDays)
	}
	return nil
}

// CheckRestriction validates a full rolling-period restriction: the input
// rules plus a non-zero end that leaves room for at least one rolling period.
func CheckRestriction(now time.Time, r Restriction) error {
	if err := CheckRestrictionInputParamsAt(now, r.StartTime, r.AllowedTokens, r.Type, r.RollingPeriodInDays); err != nil {
		return err
	}
	if r.EndTime.IsZero() {
		return polyerr.InvalidData("endTime", 0, "must be set")
	}
	minEnd := r.StartTime.Add(time.Duration(r.RollingPeriodInDays) * 24 * time.Hour)
	if r.EndTime.Before(minEnd) {
		return polyerr.InvalidData("endTime", r.EndTime.UTC().Format(time.RFC3339),
			"must be at least %d days after startTime", r.RollingPeriodInDays)
	}
	return nil
}

// CheckDailyRestriction validates a daily restriction, whose rolling period
// is always one day.
func CheckDailyRestriction(now time.Time, r Restriction) error {
	r.RollingPeriodInDays = 1
	return CheckRestriction(now, r)
}

// Encode converts r to the on-chain argument order (allowedTokens, startTime,
// rollingPeriodInDays, endTime, restrictionType). Percentages use the fixed
// percentage scale; quantities use the token's decimals.
func (r Restriction) Encode(decimals uint8) (allowed, start, rolling, end *big.Int, typ uint8, err error) {
	if r.Type == Percentage {
		allowed, err = units.PercentageToOnChain(r.AllowedTokens)
	} else {
		allowed, err = units.ToOnChain(r.AllowedTokens, decimals)
	}
	if err != nil {
		return nil, nil, nil, nil, 0, err
	}
	return allowed,
		units.TimeToUint(r.StartTime),
		new(big.Int).SetUint64(r.RollingPeriodInDays),
		units.TimeToUint(r.EndTime),
		uint8(r.Type),
		nil
}

// Decode is the inverse of Encode.
func Decode(allowed, start, rolling, end *big.Int, typ uint8, decimals uint8) Restriction {
	r := Restriction{
		StartTime: units.UintToTime(start),
		EndTime:   units.UintToTime(end),
		Type:      Type(typ),
	}
	if rolling != nil {
		r.RollingPeriodInDays = rolling.Uint64()
	}
	if r.Type == Percentage {
		r.AllowedTokens = units.PercentageFromOnChain(allowed)
	} else {
		r.AllowedTokens = units.FromOnChain(allowed, decimals)
	}
	return r
}

func ratString(r *big.Rat) string {
	if r == nil {
		return "<nil>"
	}
	return r.RatString()
}
