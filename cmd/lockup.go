package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/internal/ui"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules/lockup"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/restriction"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/units"
)

var lockupFlags struct {
	name      string
	amount    string
	start     string
	period    string
	frequency string
	user      string
	modify    bool
}

var lockupCmd = &cobra.Command{
	Use:   "lockup",
	Short: "Lockup transfer manager",
}

func loadLockUp(ctx context.Context, addr string) (lockup.LockUpTransferManager, error) {
	a, err := parseAddress(addr)
	if err != nil {
		return nil, err
	}
	client, err := newClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.LockUpTransferManager(ctx, a)
}

var lockupShowCmd = &cobra.Command{
	Use:   "show <module>",
	Short: "List lockup types, or the lockups of one user with --user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m, err := loadLockUp(ctx, args[0])
		if err != nil {
			return err
		}

		if lockupFlags.user != "" {
			user, err := parseAddress(lockupFlags.user)
			if err != nil {
				return err
			}
			names, err := m.GetLockupsNamesToUser(ctx, user)
			if err != nil {
				return err
			}
			locked, err := m.GetLockedTokenToUser(ctx, user)
			if err != nil {
				return err
			}
			fmt.Println(ui.KeyValueBlock("Lockups of "+user.Hex(), [][2]string{
				{"Names", strings.Join(names, ", ")},
				{"Locked", formatAmount(locked)},
			}))
			return nil
		}

		all, err := m.GetAllLockupData(ctx)
		if err != nil {
			return err
		}
		t := ui.NewTable("NAME", "AMOUNT", "UNLOCKED", "START", "PERIOD", "FREQUENCY")
		for _, l := range all {
			t.AddRow(l.Name, formatAmount(l.Amount), formatAmount(l.Unlocked),
				formatTime(l.StartTime), l.Period.String(), l.ReleaseFrequency.String())
		}
		fmt.Print(t.Render())
		return nil
	},
}

var lockupAddTypeCmd = &cobra.Command{
	Use:   "add-type <module>",
	Short: "Add a named lockup type (--modify to change an existing one)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		opts, err := signer()
		if err != nil {
			return err
		}
		m, err := loadLockUp(ctx, args[0])
		if err != nil {
			return err
		}
		l, err := lockUpFromFlags()
		if err != nil {
			return err
		}

		var h *contract.TxHandle
		if lockupFlags.modify {
			h, err = m.ModifyLockUpType(ctx, opts, l)
		} else {
			h, err = m.AddNewLockUpType(ctx, opts, l)
		}
		if err != nil {
			return err
		}
		return report(ctx, h)
	},
}

var lockupAssignCmd = &cobra.Command{
	Use:   "assign <module> <user>...",
	Short: "Assign an existing lockup type to one or more users",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		opts, err := signer()
		if err != nil {
			return err
		}
		m, err := loadLockUp(ctx, args[0])
		if err != nil {
			return err
		}
		users, err := parseAddresses(args[1:])
		if err != nil {
			return err
		}

		var h *contract.TxHandle
		if len(users) == 1 {
			h, err = m.AddLockUpByName(ctx, opts, users[0], lockupFlags.name)
		} else {
			names := make([]string, len(users))
			for i := range names {
				names[i] = lockupFlags.name
			}
			h, err = m.AddLockUpByNameMulti(ctx, opts, users, names)
		}
		if err != nil {
			return err
		}
		return report(ctx, h)
	},
}

func lockUpFromFlags() (restriction.LockUp, error) {
	amount, err := units.Parse(lockupFlags.amount)
	if err != nil {
		return restriction.LockUp{}, err
	}
	start, err := parseTime(lockupFlags.start)
	if err != nil {
		return restriction.LockUp{}, err
	}
	period, err := parseDuration(lockupFlags.period)
	if err != nil {
		return restriction.LockUp{}, err
	}
	frequency, err := parseDuration(lockupFlags.frequency)
	if err != nil {
		return restriction.LockUp{}, err
	}
	return restriction.LockUp{
		Name:             lockupFlags.name,
		Amount:           amount,
		StartTime:        start,
		Period:           period,
		ReleaseFrequency: frequency,
	}, nil
}

func init() {
	lockupShowCmd.Flags().StringVar(&lockupFlags.user, "user", "", "show the lockups of one user")

	f := lockupAddTypeCmd.Flags()
	f.StringVar(&lockupFlags.name, "name", "", "lockup name (at most 32 bytes)")
	f.StringVar(&lockupFlags.amount, "amount", "", "locked amount")
	f.StringVar(&lockupFlags.start, "start", "+5m", "start time")
	f.StringVar(&lockupFlags.period, "period", "", "lockup period, e.g. 365d")
	f.StringVar(&lockupFlags.frequency, "frequency", "", "release frequency, e.g. 30d")
	f.BoolVar(&lockupFlags.modify, "modify", false, "modify an existing type")
	for _, name := range []string{"name", "amount", "period", "frequency"} {
		_ = lockupAddTypeCmd.MarkFlagRequired(name)
	}

	lockupAssignCmd.Flags().StringVar(&lockupFlags.name, "name", "", "lockup name")
	_ = lockupAssignCmd.MarkFlagRequired("name")

	lockupCmd.AddCommand(lockupShowCmd, lockupAddTypeCmd, lockupAssignCmd)
}
