package modules

import (
	"fmt"
	"strings"

	"github.com/blang/semver/v4"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polyerr"
)

// Kind is the module type number a security token files a module under.
type Kind uint8

const (
	Permission Kind = iota + 1
	TransferManager
	STO
	Dividends
	Burn
	Data
	Wallet
)

var kindNames = map[Kind]string{
	Permission:      "Permission",
	TransferManager: "TransferManager",
	STO:             "STO",
	Dividends:       "Dividends",
	Burn:            "Burn",
	Data:            "Data",
	Wallet:          "Wallet",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Name is the name a module factory reports for the modules it deploys.
type Name string

const (
	GeneralPermissionManager      Name = "GeneralPermissionManager"
	GeneralTransferManager        Name = "GeneralTransferManager"
	CountTransferManager          Name = "CountTransferManager"
	ManualApprovalTransferManager Name = "ManualApprovalTransferManager"
	PercentageTransferManager     Name = "PercentageTransferManager"
	LockUpTransferManager         Name = "LockUpTransferManager"
	BlacklistTransferManager      Name = "BlacklistTransferManager"
	VolumeRestrictionTM           Name = "VolumeRestrictionTM"
	RestrictedPartialSaleTM       Name = "RestrictedPartialSaleTM"
	CappedSTO                     Name = "CappedSTO"
	USDTieredSTO                  Name = "USDTieredSTO"
	ERC20DividendCheckpoint       Name = "ERC20DividendCheckpoint"
	EtherDividendCheckpoint       Name = "EtherDividendCheckpoint"
	VestingEscrowWallet           Name = "VestingEscrowWallet"
)

var nameKinds = map[Name]Kind{
	GeneralPermissionManager:      Permission,
	GeneralTransferManager:        TransferManager,
	CountTransferManager:          TransferManager,
	ManualApprovalTransferManager: TransferManager,
	PercentageTransferManager:     TransferManager,
	LockUpTransferManager:         TransferManager,
	BlacklistTransferManager:      TransferManager,
	VolumeRestrictionTM:           TransferManager,
	RestrictedPartialSaleTM:       TransferManager,
	CappedSTO:                     STO,
	USDTieredSTO:                  STO,
	ERC20DividendCheckpoint:       Dividends,
	EtherDividendCheckpoint:       Dividends,
	VestingEscrowWallet:           Wallet,
}

// Kind returns the type a module name is filed under, if the name is known.
func (n Name) Kind() (Kind, bool) {
	k, ok := nameKinds[n]
	return k, ok
}

// ParseName matches s against the known module names, ignoring case.
func ParseName(s string) (Name, error) {
	for n := range nameKinds {
		if strings.EqualFold(string(n), s) {
			return n, nil
		}
	}
	return "", polyerr.InvalidData("module", s, "unknown module name")
}

// KnownNames returns every known module name.
func KnownNames() []Name {
	out := make([]Name, 0, len(nameKinds))
	for n := range nameKinds {
		out = append(out, n)
	}
	return out
}

// ParseVersion reads the version string a module factory reports. A string
// that is not a semantic version is an unsupported version.
func ParseVersion(s string) (semver.Version, error) {
	v, err := semver.ParseTolerant(s)
	if err != nil {
		return semver.Version{}, notFound(fmt.Errorf("%w: %w", ErrUnsupportedVersion, err), "version", s, "not a semantic version")
	}
	return v, nil
}
