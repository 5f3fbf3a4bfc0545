package polyerr_test

import (
	"fmt"
	"testing"

	"emperror.dev/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polyerr"
)

func TestErrorMatchesSentinelOfItsKind(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
		kind     polyerr.Kind
	}{
		{polyerr.Unauthorized("caller", "0x1", "not admin"), polyerr.ErrUnauthorized, polyerr.KindUnauthorized},
		{polyerr.NotFound("delegate", "0x2", "missing"), polyerr.ErrNotFound, polyerr.KindNotFound},
		{polyerr.AlreadyExists("lockupName", "a", "taken"), polyerr.ErrAlreadyExists, polyerr.KindAlreadyExists},
		{polyerr.MismatchedArrayLength("startTimes", 3, 2), polyerr.ErrMismatchedArrayLength, polyerr.KindMismatchedArrayLength},
		{polyerr.InvalidData("holder", "0x0", "zero address"), polyerr.ErrInvalidData, polyerr.KindInvalidData},
		{polyerr.PreconditionRequired("holder", "0x3", "no restriction"), polyerr.ErrPreconditionRequired, polyerr.KindPreconditionRequired},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.kind, polyerr.KindOf(tt.err))

			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.True(t, polyerr.IsKind(wrapped, tt.kind))
		})
	}
}

func TestErrorDoesNotMatchOtherKinds(t *testing.T) {
	err := polyerr.InvalidData("allowedTokens", 0, "must be greater than zero")
	assert.NotErrorIs(t, err, polyerr.ErrNotFound)
	assert.NotErrorIs(t, err, polyerr.ErrPreconditionRequired)
}

func TestErrorMessageNamesFieldAndValue(t *testing.T) {
	err := polyerr.InvalidData("rollingPeriodInDays", 400, "must be in [1, 365]")
	assert.Equal(t, "invalid data: rollingPeriodInDays 400: must be in [1, 365]", err.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := polyerr.Wrap(cause, polyerr.KindNotFound, "version", "9.9.9", "unsupported")
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, polyerr.ErrNotFound)
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, polyerr.KindUnknown, polyerr.KindOf(errors.New("network down")))
	assert.Equal(t, polyerr.KindUnknown, polyerr.KindOf(nil))
}

func TestCheckLengths(t *testing.T) {
	require.NoError(t, polyerr.CheckLengths([]string{"a", "b"}, 2, 2))
	require.NoError(t, polyerr.CheckLengths(nil))

	err := polyerr.CheckLengths([]string{"holders", "allowedTokens"}, 3, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, polyerr.ErrMismatchedArrayLength)
	assert.Contains(t, err.Error(), "allowedTokens")
}

func TestAtIndexNamesElement(t *testing.T) {
	err := polyerr.AtIndex(polyerr.InvalidData("holder", "0x0", "zero address"), 2)
	assert.ErrorIs(t, err, polyerr.ErrInvalidData)
	assert.Contains(t, err.Error(), "holder[2]")

	plain := errors.New("io")
	assert.Equal(t, plain, polyerr.AtIndex(plain, 1))
}
