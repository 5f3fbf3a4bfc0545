package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"emperror.dev/errors"
	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/internal/config"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/internal/ui"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/internal/wallet"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/contract"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/polymath"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/PolymathNetwork/polymath-contract-wrappers-sub003/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir     string
	cfg        *config.Config
	logger     *log.Logger
	logLevel   string
	walletName string
	wait       bool
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "polyctl",
	Short: "Manage Polymath security token modules",
	Long: `polyctl reads and configures the modules attached to Polymath security tokens:
volume restrictions, lockups, KYC whitelists and delegate permissions.

Every write is checked locally before it is signed, so a call the contract
would reject fails without spending gas.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return errors.Wrap(err, "loading config")
		}

		level := cfg.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		lvl, err := log.ParseLevel(level)
		if err != nil {
			return errors.Errorf("invalid log level %q", level)
		}
		logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "polyctl", Level: lvl})
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.Err(err.Error()))
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default: $"+config.EnvDir+" or ~/.polyctl)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&walletName, "wallet", "w", "", "wallet that signs transactions (default: config default_wallet)")
	rootCmd.PersistentFlags().BoolVar(&wait, "wait", false, "wait for the transaction receipt")

	rootCmd.AddCommand(
		configCmd,
		walletCmd,
		moduleCmd,
		vrtmCmd,
		lockupCmd,
		delegateCmd,
		eventsCmd,
		convertCmd,
		selectorCmd,
	)
}

// newClient dials the configured node and builds a library client over it.
func newClient(ctx context.Context) (*polymath.Client, error) {
	rpc, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", cfg.RPCURL)
	}
	opts := []polymath.Option{
		polymath.WithNetwork(cfg.Network),
		polymath.WithLogger(logger),
		polymath.WithGasSafetyFactor(cfg.GasSafetyFactor),
	}
	if cfg.RegistryAddress != "" {
		opts = append(opts, polymath.WithRegistryAddress(cfg.Registry()))
	}
	return polymath.New(rpc, opts...)
}

func openKeystore() (*wallet.Keystore, error) {
	return wallet.OpenKeystore(filepath.Join(cfg.Dir(), "keys"))
}

func newWalletManager() (*wallet.Manager, *wallet.Keystore, error) {
	ks, err := openKeystore()
	if err != nil {
		return nil, nil, err
	}
	return wallet.NewManager(wallet.NewJSONStore(cfg.WalletsPath()), ks), ks, nil
}

// signer returns the transaction options of the selected wallet.
func signer() (*contract.TxOpts, error) {
	mgr, ks, err := newWalletManager()
	if err != nil {
		return nil, err
	}
	name := walletName
	if name == "" {
		name = cfg.DefaultWallet
	}
	w, err := mgr.Resolve(name)
	if err != nil {
		return nil, err
	}
	logger.Debug("signing", "wallet", w.Name, "address", w.Address)
	return wallet.TxOpts(w, ks), nil
}

// report prints the hash of a sent transaction and, with --wait, blocks
// until it is mined.
func report(ctx context.Context, h *contract.TxHandle) error {
	fmt.Println(ui.Success("sent " + ui.Addr(h.Hash.Hex())))
	if !wait {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	receipt, err := h.Wait(ctx)
	if err != nil {
		return err
	}
	fmt.Println(ui.Success(fmt.Sprintf("mined in block #%d (gas used %d)", receipt.BlockNumber.Uint64(), receipt.GasUsed)))
	return nil
}
