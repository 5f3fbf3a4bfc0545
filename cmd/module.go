package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/internal/ui"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules"
)

var moduleCmd = &cobra.Command{
	Use:   "module",
	Short: "Resolve modules attached to a security token",
}

var moduleResolveCmd = &cobra.Command{
	Use:   "resolve <module-name> <address>",
	Short: "Resolve the wrapper version of one module",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := modules.ParseName(args[0])
		if err != nil {
			return err
		}
		addr, err := parseAddress(args[1])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		client, err := newClient(ctx)
		if err != nil {
			return err
		}
		m, err := client.Factory().Resolve(ctx, name, addr)
		if err != nil {
			return err
		}
		return printModule(cmd, m)
	},
}

var moduleListCmd = &cobra.Command{
	Use:   "list <token> <module-name>",
	Short: "List the modules of one name attached to a token",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := parseAddress(args[0])
		if err != nil {
			return err
		}
		name, err := modules.ParseName(args[1])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		client, err := newClient(ctx)
		if err != nil {
			return err
		}
		mods, err := client.AttachedModules(ctx, token, name)
		if err != nil {
			return err
		}

		t := ui.NewTable("ADDRESS", "MODULE", "VERSION", "KIND")
		for _, m := range mods {
			d := m.Descriptor()
			t.AddRow(d.Address.Hex(), string(d.Name), d.Version.String(), d.Kind.String())
		}
		fmt.Print(t.Render())
		return nil
	},
}

var moduleSupportedCmd = &cobra.Command{
	Use:   "supported",
	Short: "List module names and the versions polyctl can wrap",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := modules.KnownNames()
		sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

		t := ui.NewTable("MODULE", "KIND", "VERSIONS")
		for _, n := range names {
			versions := modules.Supported(n)
			if len(versions) == 0 {
				continue
			}
			vs := make([]string, len(versions))
			for i, v := range versions {
				vs[i] = v.String()
			}
			kind, _ := n.Kind()
			t.AddRow(string(n), kind.String(), strings.Join(vs, ", "))
		}
		fmt.Print(t.Render())
		return nil
	},
}

func printModule(cmd *cobra.Command, m modules.Module) error {
	ctx := cmd.Context()
	d := m.Descriptor()
	paused, err := m.Paused(ctx)
	if err != nil {
		return err
	}
	perms, err := m.GetPermissions(ctx)
	if err != nil {
		return err
	}
	ps := make([]string, len(perms))
	for i, p := range perms {
		ps[i] = string(p)
	}
	fmt.Println(ui.KeyValueBlock(ui.Module(string(d.Name), d.Version.String()), [][2]string{
		{"Address", ui.Addr(d.Address.Hex())},
		{"Kind", d.Kind.String()},
		{"Factory", ui.Addr(d.Factory.Hex())},
		{"Paused", fmt.Sprint(paused)},
		{"Permissions", strings.Join(ps, ", ")},
	}))
	return nil
}

func init() {
	moduleCmd.AddCommand(moduleResolveCmd, moduleListCmd, moduleSupportedCmd)
}
