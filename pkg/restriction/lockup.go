package restriction

import (
	"math/big"
	"time"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polyerr"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/units"
)

// LockUp is a named vesting schedule: Amount is locked from StartTime and
// released in steps of ReleaseFrequency over Period.
type LockUp struct {
	Name             string
	Amount           *big.Rat
	StartTime        time.Time
	Period           time.Duration
	ReleaseFrequency time.Duration
}

// CheckLockUp validates a lockup type before it is added or modified.
func CheckLockUp(now time.Time, l LockUp) error {
	if err := CheckLockUpName(l.Name); err != nil {
		return err
	}
	if l.Amount == nil || l.Amount.Sign() <= 0 {
		return polyerr.InvalidData("lockupAmount", ratString(l.Amount), "must be greater than zero")
	}
	if l.Period < time.Second {
		return polyerr.InvalidData("lockUpPeriodSeconds", int64(l.Period/time.Second), "must be greater than zero")
	}
	if l.ReleaseFrequency < time.Second {
		return polyerr.InvalidData("releaseFrequencySeconds", int64(l.ReleaseFrequency/time.Second), "must be greater than zero")
	}
	if !l.StartTime.After(now) {
		return polyerr.InvalidData("startTime", l.StartTime.UTC().Format(time.RFC3339), "must be in the future")
	}
	return nil
}

// CheckLockUpName rejects names that are empty or do not fit in bytes32.
func CheckLockUpName(name string) error {
	if name == "" {
		return polyerr.InvalidData("lockupName", name, "must not be empty")
	}
	if len(name) > 32 {
		return polyerr.InvalidData("lockupName", name, "longer than 32 bytes")
	}
	return nil
}

// Encode converts l to the on-chain argument order (lockupAmount, startTime,
// lockUpPeriodSeconds, releaseFrequencySeconds, lockupName).
func (l LockUp) Encode(decimals uint8) (amount, start, period, frequency *big.Int, name [32]byte, err error) {
	if amount, err = units.ToOnChain(l.Amount, decimals); err != nil {
		return
	}
	if name, err = units.StringToBytes32(l.Name); err != nil {
		return
	}
	return amount, units.TimeToUint(l.StartTime), units.DurationToUint(l.Period), units.DurationToUint(l.ReleaseFrequency), name, nil
}
