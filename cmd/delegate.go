package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/capability"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules/permission"
)

var (
	delegatePerm   string
	delegateRevoke bool
)

var delegateCmd = &cobra.Command{
	Use:   "delegate",
	Short: "Manage delegates on a general permission manager",
}

func loadGPM(ctx context.Context, addr string) (permission.GeneralPermissionManager, error) {
	a, err := parseAddress(addr)
	if err != nil {
		return nil, err
	}
	client, err := newClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.GeneralPermissionManager(ctx, a)
}

var delegateAddCmd = &cobra.Command{
	Use:   "add <permission-manager> <delegate> <details>",
	Short: "Register a delegate",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		opts, err := signer()
		if err != nil {
			return err
		}
		m, err := loadGPM(ctx, args[0])
		if err != nil {
			return err
		}
		delegate, err := parseAddress(args[1])
		if err != nil {
			return err
		}
		h, err := m.AddDelegate(ctx, opts, delegate, args[2])
		if err != nil {
			return err
		}
		return report(ctx, h)
	},
}

var delegateGrantCmd = &cobra.Command{
	Use:   "grant <permission-manager> <delegate> <module>",
	Short: "Grant a delegate a permission on a module (--revoke to take it back)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		opts, err := signer()
		if err != nil {
			return err
		}
		m, err := loadGPM(ctx, args[0])
		if err != nil {
			return err
		}
		addrs, err := parseAddresses(args[1:])
		if err != nil {
			return err
		}
		perm := capability.Permission(strings.ToUpper(delegatePerm))
		h, err := m.ChangePermission(ctx, opts, addrs[0], addrs[1], perm, !delegateRevoke)
		if err != nil {
			return err
		}
		return report(ctx, h)
	},
}

func init() {
	delegateGrantCmd.Flags().StringVar(&delegatePerm, "perm", string(capability.Admin), "permission name, e.g. ADMIN or OPERATOR")
	delegateGrantCmd.Flags().BoolVar(&delegateRevoke, "revoke", false, "revoke instead of grant")
	delegateCmd.AddCommand(delegateAddCmd, delegateGrantCmd)
}
