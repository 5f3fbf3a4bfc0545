package cmd

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/internal/ui"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules/volumerestriction"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/restriction"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/units"
)

var (
	vrtmFlags  restrictionFlags
	vrtmHolder string
	vrtmRemove bool
)

var vrtmCmd = &cobra.Command{
	Use:   "vrtm",
	Short: "Volume restriction transfer manager",
}

func loadVRTM(ctx context.Context, addr string) (volumerestriction.VolumeRestrictionTM, error) {
	a, err := parseAddress(addr)
	if err != nil {
		return nil, err
	}
	client, err := newClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.VolumeRestrictionTM(ctx, a)
}

var vrtmShowCmd = &cobra.Command{
	Use:   "show <module>",
	Short: "Show exemptions and restrictions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m, err := loadVRTM(ctx, args[0])
		if err != nil {
			return err
		}
		d := m.Descriptor()
		fmt.Println(ui.Module(string(d.Name), d.Version.String()) + "  " + ui.Addr(d.Address.Hex()))

		if vrtmHolder != "" {
			holder, err := parseAddress(vrtmHolder)
			if err != nil {
				return err
			}
			r, err := m.GetIndividualRestriction(ctx, holder)
			if err != nil {
				return err
			}
			daily, err := m.GetIndividualDailyRestriction(ctx, holder)
			if err != nil {
				return err
			}
			fmt.Println(ui.KeyValueBlock("Individual", formatRestriction(r)))
			fmt.Println(ui.KeyValueBlock("Individual daily", formatRestriction(daily)))
			return nil
		}

		exempt, err := m.GetExemptAddresses(ctx)
		if err != nil {
			return err
		}
		def, err := m.GetDefaultRestriction(ctx)
		if err != nil {
			return err
		}
		daily, err := m.GetDefaultDailyRestriction(ctx)
		if err != nil {
			return err
		}
		rows, err := m.GetRestrictionData(ctx)
		if err != nil {
			return err
		}

		fmt.Println(ui.KeyValueBlock("Default", formatRestriction(def)))
		fmt.Println(ui.KeyValueBlock("Default daily", formatRestriction(daily)))

		t := ui.NewTable("EXEMPT")
		for _, a := range exempt {
			t.AddRow(a.Hex())
		}
		fmt.Print(t.Render())
		fmt.Println()

		t = ui.NewTable("HOLDER", "TYPE", "ALLOWED", "START", "END", "DAYS")
		for _, r := range rows {
			t.AddRow(r.Holder.Hex(), r.Type.String(), formatAmount(r.AllowedTokens),
				formatTime(r.StartTime), formatTime(r.EndTime), fmt.Sprint(r.RollingPeriodInDays))
		}
		fmt.Print(t.Render())
		return nil
	},
}

var vrtmExemptCmd = &cobra.Command{
	Use:   "exempt <module> <wallet>",
	Short: "Exempt a wallet from volume restrictions (--remove to undo)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m, opts, err := vrtmWrite(ctx, args[0])
		if err != nil {
			return err
		}
		w, err := parseAddress(args[1])
		if err != nil {
			return err
		}
		h, err := m.ChangeExemptWalletList(ctx, opts, w, !vrtmRemove)
		if err != nil {
			return err
		}
		return report(ctx, h)
	},
}

var vrtmAddIndividualCmd = &cobra.Command{
	Use:   "add-individual <module> <holder>...",
	Short: "Add an individual restriction to one or more holders",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m, opts, err := vrtmWrite(ctx, args[0])
		if err != nil {
			return err
		}
		holders, err := parseAddresses(args[1:])
		if err != nil {
			return err
		}
		r, err := vrtmFlags.restriction()
		if err != nil {
			return err
		}

		var h *contract.TxHandle
		switch {
		case len(holders) == 1 && vrtmFlags.daily:
			h, err = m.AddIndividualDailyRestriction(ctx, opts, holders[0], r)
		case len(holders) == 1:
			h, err = m.AddIndividualRestriction(ctx, opts, holders[0], r)
		case vrtmFlags.daily:
			h, err = m.AddIndividualDailyRestrictionMulti(ctx, opts, dailyMulti(holders, r))
		default:
			h, err = m.AddIndividualRestrictionMulti(ctx, opts, rollingMulti(holders, r))
		}
		if err != nil {
			return err
		}
		return report(ctx, h)
	},
}

var vrtmRemoveIndividualCmd = &cobra.Command{
	Use:   "remove-individual <module> <holder>...",
	Short: "Remove the individual restriction of one or more holders",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m, opts, err := vrtmWrite(ctx, args[0])
		if err != nil {
			return err
		}
		holders, err := parseAddresses(args[1:])
		if err != nil {
			return err
		}

		var h *contract.TxHandle
		switch {
		case len(holders) == 1 && vrtmFlags.daily:
			h, err = m.RemoveIndividualDailyRestriction(ctx, opts, holders[0])
		case len(holders) == 1:
			h, err = m.RemoveIndividualRestriction(ctx, opts, holders[0])
		case vrtmFlags.daily:
			h, err = m.RemoveIndividualDailyRestrictionMulti(ctx, opts, holders)
		default:
			h, err = m.RemoveIndividualRestrictionMulti(ctx, opts, holders)
		}
		if err != nil {
			return err
		}
		return report(ctx, h)
	},
}

var vrtmAddDefaultCmd = &cobra.Command{
	Use:   "add-default <module>",
	Short: "Add the default restriction for holders without an individual one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m, opts, err := vrtmWrite(ctx, args[0])
		if err != nil {
			return err
		}
		r, err := vrtmFlags.restriction()
		if err != nil {
			return err
		}
		var h *contract.TxHandle
		if vrtmFlags.daily {
			h, err = m.AddDefaultDailyRestriction(ctx, opts, r)
		} else {
			h, err = m.AddDefaultRestriction(ctx, opts, r)
		}
		if err != nil {
			return err
		}
		return report(ctx, h)
	},
}

var vrtmVerifyCmd = &cobra.Command{
	Use:   "verify <module> <from> <to> <amount>",
	Short: "Simulate a transfer against the module",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		m, err := loadVRTM(ctx, args[0])
		if err != nil {
			return err
		}
		addrs, err := parseAddresses(args[1:3])
		if err != nil {
			return err
		}
		amount, err := units.Parse(args[3])
		if err != nil {
			return err
		}
		v, err := m.VerifyTransfer(ctx, addrs[0], addrs[1], amount, nil)
		if err != nil {
			return err
		}
		verdict := ui.Success(v.Result.String())
		if !v.Passes() {
			verdict = ui.Err(v.Result.String())
		}
		fmt.Println(ui.KeyValueBlock("Transfer check", [][2]string{
			{"Result", verdict},
			{"Reason", v.Reason},
		}))
		return nil
	},
}

func vrtmWrite(ctx context.Context, addr string) (volumerestriction.VolumeRestrictionTM, *contract.TxOpts, error) {
	opts, err := signer()
	if err != nil {
		return nil, nil, err
	}
	m, err := loadVRTM(ctx, addr)
	if err != nil {
		return nil, nil, err
	}
	return m, opts, nil
}

func rollingMulti(holders []common.Address, r restriction.Restriction) volumerestriction.IndividualRestrictionMulti {
	n := len(holders)
	m := volumerestriction.IndividualRestrictionMulti{
		Holders:             holders,
		AllowedTokens:       make([]*big.Rat, n),
		StartTimes:          make([]time.Time, n),
		RollingPeriodInDays: make([]uint64, n),
		EndTimes:            make([]time.Time, n),
		RestrictionTypes:    make([]restriction.Type, n),
	}
	for i := range holders {
		m.AllowedTokens[i] = r.AllowedTokens
		m.StartTimes[i] = r.StartTime
		m.RollingPeriodInDays[i] = r.RollingPeriodInDays
		m.EndTimes[i] = r.EndTime
		m.RestrictionTypes[i] = r.Type
	}
	return m
}

func dailyMulti(holders []common.Address, r restriction.Restriction) volumerestriction.IndividualDailyRestrictionMulti {
	full := rollingMulti(holders, r)
	return volumerestriction.IndividualDailyRestrictionMulti{
		Holders:          full.Holders,
		AllowedTokens:    full.AllowedTokens,
		StartTimes:       full.StartTimes,
		EndTimes:         full.EndTimes,
		RestrictionTypes: full.RestrictionTypes,
	}
}

func addRestrictionFlags(cmd *cobra.Command, f *restrictionFlags) {
	cmd.Flags().StringVar(&f.allowed, "allowed", "", "allowed tokens, or a percentage with --type percentage")
	cmd.Flags().StringVar(&f.start, "start", "+5m", "start time")
	cmd.Flags().StringVar(&f.end, "end", "", "end time")
	cmd.Flags().Uint64Var(&f.days, "days", 1, "rolling period in days")
	cmd.Flags().StringVar(&f.kind, "type", "fixed", "fixed or percentage")
	_ = cmd.MarkFlagRequired("allowed")
	_ = cmd.MarkFlagRequired("end")
}

func init() {
	addRestrictionFlags(vrtmAddIndividualCmd, &vrtmFlags)
	addRestrictionFlags(vrtmAddDefaultCmd, &vrtmFlags)
	for _, c := range []*cobra.Command{vrtmAddIndividualCmd, vrtmRemoveIndividualCmd, vrtmAddDefaultCmd} {
		c.Flags().BoolVar(&vrtmFlags.daily, "daily", false, "use the daily restriction")
	}
	vrtmShowCmd.Flags().StringVar(&vrtmHolder, "holder", "", "show the restrictions of one holder")
	vrtmExemptCmd.Flags().BoolVar(&vrtmRemove, "remove", false, "remove the exemption")

	vrtmCmd.AddCommand(vrtmShowCmd, vrtmExemptCmd, vrtmAddIndividualCmd, vrtmRemoveIndividualCmd, vrtmAddDefaultCmd, vrtmVerifyCmd)
}
