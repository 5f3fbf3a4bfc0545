package cmd

import (
	"math/big"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/restriction"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/units"
)

// now is swapped in tests.
var now = time.Now

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func parseAddresses(ss []string) ([]common.Address, error) {
	out := make([]common.Address, len(ss))
	for i, s := range ss {
		a, err := parseAddress(s)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

// parseTime accepts RFC 3339, unix seconds, or an offset from now such as
// "+2h" or "+30d".
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if strings.HasPrefix(s, "+") {
		d, err := parseDuration(s[1:])
		if err != nil {
			return time.Time{}, err
		}
		return now().Add(d), nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Errorf("invalid time %q (use RFC 3339, unix seconds or +duration)", s)
	}
	return t, nil
}

// parseDuration is time.ParseDuration plus a "d" suffix for days.
func parseDuration(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		n, err := strconv.ParseInt(strings.TrimSuffix(s, "d"), 10, 64)
		if err != nil {
			return 0, errors.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Errorf("invalid duration %q", s)
	}
	return d, nil
}

func parseRestrictionType(s string) (restriction.Type, error) {
	switch strings.ToLower(s) {
	case "fixed", "0":
		return restriction.Fixed, nil
	case "percentage", "percent", "1":
		return restriction.Percentage, nil
	}
	return 0, errors.Errorf("invalid restriction type %q (use fixed or percentage)", s)
}

// restrictionFlags are shared by the commands that set a volume restriction.
type restrictionFlags struct {
	allowed string
	start   string
	end     string
	days    uint64
	kind    string
	daily   bool
}

func (f *restrictionFlags) restriction() (restriction.Restriction, error) {
	allowed, err := units.Parse(f.allowed)
	if err != nil {
		return restriction.Restriction{}, err
	}
	start, err := parseTime(f.start)
	if err != nil {
		return restriction.Restriction{}, err
	}
	end, err := parseTime(f.end)
	if err != nil {
		return restriction.Restriction{}, err
	}
	typ, err := parseRestrictionType(f.kind)
	if err != nil {
		return restriction.Restriction{}, err
	}
	r := restriction.Restriction{
		AllowedTokens:       allowed,
		StartTime:           start,
		EndTime:             end,
		RollingPeriodInDays: f.days,
		Type:                typ,
	}
	if f.daily {
		r.RollingPeriodInDays = 1
	}
	return r, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func formatAmount(v *big.Rat) string {
	if v == nil {
		return "0"
	}
	return units.FormatRat(v, 18)
}

func formatRestriction(r restriction.Restriction) [][2]string {
	if !r.IsActive() {
		return [][2]string{{"Status", "not set"}}
	}
	allowed := formatAmount(r.AllowedTokens)
	if r.Type == restriction.Percentage {
		allowed += " %"
	}
	return [][2]string{
		{"Type", r.Type.String()},
		{"Allowed", allowed},
		{"Start", formatTime(r.StartTime)},
		{"End", formatTime(r.EndTime)},
		{"Rolling period (days)", strconv.FormatUint(r.RollingPeriodInDays, 10)},
	}
}
