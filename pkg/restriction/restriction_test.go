package restriction

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polyerr"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/units"
)

var now = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

func TestCheckRestrictionInputParams(t *testing.T) {
	tomorrow := now.Add(24 * time.Hour)

	tests := []struct {
		name    string
		start   time.Time
		allowed string
		typ     Type
		rolling uint64
		field   string
	}{
		{"valid fixed", tomorrow, "1000", Fixed, 30, ""},
		{"valid percentage at bound", tomorrow, "100", Percentage, 365, ""},
		{"valid min rolling", tomorrow, "0.5", Percentage, 1, ""},
		{"start now", now, "10", Fixed, 1, "startTime"},
		{"start in past", now.Add(-time.Second), "10", Fixed, 1, "startTime"},
		{"zero allowed", tomorrow, "0", Fixed, 1, "allowedTokens"},
		{"negative allowed", tomorrow, "-1", Fixed, 1, "allowedTokens"},
		{"percentage above hundred", tomorrow, "100.01", Percentage, 1, "allowedTokens"},
		{"fixed above hundred is fine", tomorrow, "1000000", Fixed, 1, ""},
		{"rolling zero", tomorrow, "10", Fixed, 0, "rollingPeriodInDays"},
		{"rolling too long", tomorrow, "10", Fixed, 366, "rollingPeriodInDays"},
		{"bad type", tomorrow, "10", Type(2), 1, "restrictionType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRestrictionInputParamsAt(now, tt.start, units.MustParse(tt.allowed), tt.typ, tt.rolling)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, polyerr.ErrInvalidData)
			var pe *polyerr.Error
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.field, pe.Field)
		})
	}
}

func TestCheckRestrictionInputParamsNilAllowed(t *testing.T) {
	err := CheckRestrictionInputParamsAt(now, now.Add(time.Hour), nil, Fixed, 1)
	assert.ErrorIs(t, err, polyerr.ErrInvalidData)
}

func TestCheckRestrictionWindow(t *testing.T) {
	start := now.Add(time.Hour)
	r := Restriction{
		AllowedTokens:       big.NewRat(10, 1),
		StartTime:           start,
		EndTime:             start.Add(30 * 24 * time.Hour),
		RollingPeriodInDays: 30,
		Type:                Fixed,
	}
	require.NoError(t, CheckRestriction(now, r))

	short := r
	short.EndTime = start.Add(29 * 24 * time.Hour)
	assert.ErrorIs(t, CheckRestriction(now, short), polyerr.ErrInvalidData)

	unset := r
	unset.EndTime = time.Time{}
	assert.ErrorIs(t, CheckRestriction(now, unset), polyerr.ErrInvalidData)
}

func TestCheckDailyRestrictionForcesOneDay(t *testing.T) {
	start := now.Add(time.Hour)
	r := Restriction{
		AllowedTokens: big.NewRat(5, 1),
		StartTime:     start,
		EndTime:       start.Add(24 * time.Hour),
		Type:          Percentage,
	}
	assert.NoError(t, CheckDailyRestriction(now, r))
}

func TestIsActive(t *testing.T) {
	assert.False(t, Restriction{}.IsActive())
	assert.True(t, Restriction{EndTime: now}.IsActive())
}

func TestEncodeDecode(t *testing.T) {
	start := now.Add(time.Hour)
	r := Restriction{
		AllowedTokens:       units.MustParse("12.5"),
		StartTime:           start,
		EndTime:             start.Add(48 * time.Hour),
		RollingPeriodInDays: 2,
		Type:                Percentage,
	}
	allowed, s, rolling, e, typ, err := r.Encode(6)
	require.NoError(t, err)
	assert.Equal(t, "125000000000000000", allowed.String())
	assert.Equal(t, uint8(1), typ)

	back := Decode(allowed, s, rolling, e, typ, 6)
	assert.Zero(t, r.AllowedTokens.Cmp(back.AllowedTokens))
	assert.True(t, r.StartTime.Equal(back.StartTime))
	assert.True(t, r.EndTime.Equal(back.EndTime))
	assert.Equal(t, r.RollingPeriodInDays, back.RollingPeriodInDays)

	r.Type = Fixed
	allowed, _, _, _, _, err = r.Encode(6)
	require.NoError(t, err)
	assert.Equal(t, "12500000", allowed.String())
}

func TestCheckLockUp(t *testing.T) {
	valid := LockUp{
		Name:             "founders",
		Amount:           big.NewRat(1000, 1),
		StartTime:        now.Add(time.Hour),
		Period:           365 * 24 * time.Hour,
		ReleaseFrequency: 30 * 24 * time.Hour,
	}
	require.NoError(t, CheckLockUp(now, valid))

	tests := []struct {
		name   string
		mutate func(*LockUp)
		field  string
	}{
		{"empty name", func(l *LockUp) { l.Name = "" }, "lockupName"},
		{"long name", func(l *LockUp) { l.Name = "abcdefghijklmnopqrstuvwxyz0123456" }, "lockupName"},
		{"zero amount", func(l *LockUp) { l.Amount = new(big.Rat) }, "lockupAmount"},
		{"zero period", func(l *LockUp) { l.Period = 0 }, "lockUpPeriodSeconds"},
		{"zero frequency", func(l *LockUp) { l.ReleaseFrequency = 0 }, "releaseFrequencySeconds"},
		{"past start", func(l *LockUp) { l.StartTime = now }, "startTime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := valid
			tt.mutate(&l)
			err := CheckLockUp(now, l)
			var pe *polyerr.Error
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, polyerr.KindInvalidData, pe.Kind)
			assert.Equal(t, tt.field, pe.Field)
		})
	}
}
