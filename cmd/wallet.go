package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"emperror.dev/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/internal/ui"
)

var walletKeyFlag string

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage signing wallets",
}

var walletImportCmd = &cobra.Command{
	Use:   "import <name>",
	Short: "Import a private key into the keyring",
	Long: `Import a private key into the OS keyring (or an encrypted file when no
keyring is available). Without --key the key is read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := walletKeyFlag
		if key == "" {
			var err error
			if key, err = readSecret("Private key: "); err != nil {
				return err
			}
		}

		mgr, _, err := newWalletManager()
		if err != nil {
			return err
		}
		w, err := mgr.Import(args[0], key)
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("wallet %q imported: %s", w.Name, ui.Addr(w.Address.Hex()))))
		if cfg.DefaultWallet == "" {
			fmt.Println(ui.Meta("make it the default with: polyctl config set default_wallet " + w.Name))
		}
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wallets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := newWalletManager()
		if err != nil {
			return err
		}
		wallets, err := mgr.List()
		if err != nil {
			return err
		}

		t := ui.NewTable("NAME", "ADDRESS", "DEFAULT", "CREATED")
		for _, w := range wallets {
			def := ""
			if w.Name == cfg.DefaultWallet {
				def = "yes"
			}
			t.AddRow(w.Name, w.Address.Hex(), def, w.CreatedAt)
		}
		fmt.Print(t.Render())
		return nil
	},
}

var walletRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a wallet and its key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := newWalletManager()
		if err != nil {
			return err
		}
		if err := mgr.Remove(args[0]); err != nil {
			return err
		}
		if cfg.DefaultWallet == args[0] {
			cfg.DefaultWallet = ""
			if err := cfg.Save(); err != nil {
				return err
			}
		}
		fmt.Println(ui.Success(fmt.Sprintf("wallet %q removed", args[0])))
		return nil
	},
}

// readSecret reads one line without echo when stdin is a terminal.
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", errors.Wrap(err, "reading key")
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(err, "reading key")
	}
	return strings.TrimSpace(line), nil
}

func init() {
	walletImportCmd.Flags().StringVar(&walletKeyFlag, "key", "", "hex private key (prefer stdin)")
	walletCmd.AddCommand(walletImportCmd, walletListCmd, walletRemoveCmd)
}
