package capability

import (
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polyerr"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/units"
)

// Permission is a named capability flag stored on chain as bytes32.
type Permission string

const (
	Admin    Permission = "ADMIN"
	Operator Permission = "OPERATOR"
)

// ParsePermission decodes a bytes32 flag. Empty flags are rejected.
func ParsePermission(b [32]byte) (Permission, error) {
	s := units.Bytes32ToString(b)
	if s == "" {
		return "", polyerr.InvalidData("permission", nil, "empty permission flag")
	}
	return Permission(s), nil
}

// Bytes32 encodes p for a contract call.
func (p Permission) Bytes32() ([32]byte, error) {
	if p == "" {
		return [32]byte{}, polyerr.InvalidData("permission", nil, "empty permission flag")
	}
	return units.StringToBytes32(string(p))
}
