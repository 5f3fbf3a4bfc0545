package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change polyctl settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := cfg.RegistryAddress
		if registry == "" {
			registry = ui.Meta("(network default)")
		}
		wallet := cfg.DefaultWallet
		if wallet == "" {
			wallet = ui.Meta("(none)")
		}
		fmt.Println(ui.KeyValueBlock("Configuration", [][2]string{
			{"network", cfg.Network},
			{"rpc_url", cfg.RPCURL},
			{"registry_address", registry},
			{"default_wallet", wallet},
			{"gas_safety_factor", strconv.FormatFloat(cfg.GasSafetyFactor, 'f', -1, 64)},
			{"confirm_timeout", cfg.Timeout().String()},
			{"log_level", cfg.LogLevel},
		}))
		fmt.Println(ui.Meta("config dir: " + cfg.Dir()))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long:  "Change one setting. Valid keys: network, rpc_url, registry_address, default_wallet,\ngas_safety_factor, confirm_timeout (seconds), log_level.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("%s = %s", args[0], args[1])))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
}
