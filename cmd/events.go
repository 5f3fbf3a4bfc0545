package cmd

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"emperror.dev/errors"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/internal/ui"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/events"
	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/modules"
)

var eventsFlags struct {
	from    int64
	to      int64
	filters []string
}

// eventSource is implemented by every module wrapper.
type eventSource interface {
	modules.Module
	Events() *events.Subscriber
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Read or stream module events",
}

var eventsLogsCmd = &cobra.Command{
	Use:   "logs <module-name> <address> <event>",
	Short: "Print past events",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		src, filter, err := eventTarget(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		var r events.BlockRange
		if eventsFlags.from >= 0 {
			r.From = big.NewInt(eventsFlags.from)
		}
		if eventsFlags.to >= 0 {
			r.To = big.NewInt(eventsFlags.to)
		}

		evs, err := src.Events().GetLogs(ctx, args[2], r, filter)
		if err != nil {
			return err
		}
		t := ui.NewTable("BLOCK", "TX", "ARGS")
		for _, ev := range evs {
			t.AddRow(fmt.Sprint(ev.Log.BlockNumber), ev.Log.TxHash.Hex(), ui.FormatArgs(ev.Args))
		}
		fmt.Print(t.Render())
		return nil
	},
}

var eventsWatchCmd = &cobra.Command{
	Use:   "watch <module-name> <address> <event>",
	Short: "Stream new events live (needs a websocket rpc_url)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		src, filter, err := eventTarget(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		d := src.Descriptor()
		p := tea.NewProgram(ui.NewWatchModel(string(d.Name), d.Address.Hex(), args[2]))

		sub, err := src.Events().Subscribe(ctx, args[2], filter, func(ev events.Event, err error) {
			if err != nil {
				p.Send(ui.StreamErrMsg{Err: err})
				return
			}
			p.Send(ui.EventMsg(ev))
		})
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()

		_, err = p.Run()
		return err
	},
}

// eventTarget resolves the module and parses --filter.
func eventTarget(ctx context.Context, name, addr string) (eventSource, events.Filter, error) {
	n, err := modules.ParseName(name)
	if err != nil {
		return nil, nil, err
	}
	a, err := parseAddress(addr)
	if err != nil {
		return nil, nil, err
	}
	filter, err := parseFilter(eventsFlags.filters)
	if err != nil {
		return nil, nil, err
	}
	client, err := newClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	m, err := client.Factory().Resolve(ctx, n, a)
	if err != nil {
		return nil, nil, err
	}
	src, ok := m.(eventSource)
	if !ok {
		return nil, nil, errors.Errorf("%s does not expose events", n)
	}
	return src, filter, nil
}

// parseFilter reads name=value pairs. Integers become *big.Int and
// true/false become bool; everything else is passed as text.
func parseFilter(pairs []string) (events.Filter, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(events.Filter, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, errors.Errorf("invalid filter %q (want name=value)", p)
		}
		switch {
		case v == "true" || v == "false":
			out[k] = v == "true"
		case !strings.HasPrefix(v, "0x"):
			if n, ok := new(big.Int).SetString(v, 10); ok {
				out[k] = n
				continue
			}
			out[k] = v
		default:
			out[k] = v
		}
	}
	return out, nil
}

func init() {
	for _, c := range []*cobra.Command{eventsLogsCmd, eventsWatchCmd} {
		c.Flags().StringArrayVar(&eventsFlags.filters, "filter", nil, "indexed argument filter name=value (repeatable)")
	}
	eventsLogsCmd.Flags().Int64Var(&eventsFlags.from, "from", 0, "first block")
	eventsLogsCmd.Flags().Int64Var(&eventsFlags.to, "to", -1, "last block (default: latest)")
	eventsCmd.AddCommand(eventsLogsCmd, eventsWatchCmd)
}
