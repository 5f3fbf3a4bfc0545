package ui

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"

	"github.com/PolymathNetwork/polymath-contract-wrappers-sub003/pkg/events"
)

const maxWatchRows = 200

var spinFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// EventMsg delivers one decoded event to the stream.
type EventMsg events.Event

// StreamErrMsg reports a stream failure. The stream stops accepting events.
type StreamErrMsg struct{ Err error }

// WatchModel is the Bubble Tea model for a live module event stream.
type WatchModel struct {
	Module  string
	Address string
	Event   string

	Rows     []events.Event
	Err      error
	Frame    int
	Quitting bool
	cursor   int
}

// NewWatchModel creates a stream view for event on the module at address.
func NewWatchModel(module, address, event string) WatchModel {
	return WatchModel{Module: module, Address: address, Event: event}
}

type watchTickMsg struct{}

func watchSpinTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return watchTickMsg{}
	})
}

func (m WatchModel) Init() tea.Cmd { return watchSpinTick() }

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.Rows)-1 {
				m.cursor++
			}
		}

	case watchTickMsg:
		if m.Err != nil {
			return m, nil
		}
		m.Frame = (m.Frame + 1) % len(spinFrames)
		return m, watchSpinTick()

	case EventMsg:
		if m.Err != nil {
			return m, nil
		}
		// Latest on top.
		m.Rows = append([]events.Event{events.Event(msg)}, m.Rows...)
		if len(m.Rows) > maxWatchRows {
			m.Rows = m.Rows[:maxWatchRows]
		}

	case StreamErrMsg:
		m.Err = msg.Err
	}

	return m, nil
}

func (m WatchModel) View() string {
	if m.Quitting {
		return ""
	}

	var sb strings.Builder
	title := fmt.Sprintf("%s  ·  %s  ·  %s", m.Module, TruncateAddr(m.Address), m.Event)
	sb.WriteString(StyleTitle.Render(title) + "\n")

	switch {
	case m.Err != nil:
		sb.WriteString(Err("stream ended: "+m.Err.Error()) + "\n\n")
	default:
		sb.WriteString(StyleMeta.Render(spinFrames[m.Frame]+" listening…") + "\n\n")
	}

	const wBlock, wTx = 10, 14
	sb.WriteString(padR(StyleMeta.Render("BLOCK"), wBlock) + "  " +
		padR(StyleMeta.Render("TX"), wTx) + "  " + StyleMeta.Render("ARGS") + "\n")

	if len(m.Rows) == 0 {
		sb.WriteString(StyleMeta.Render("  waiting for events…") + "\n")
	}
	for i, ev := range m.Rows {
		line := padR(StyleMeta.Render(fmt.Sprintf("#%d", ev.Log.BlockNumber)), wBlock) + "  " +
			padR(Addr(TruncateAddr(ev.Log.TxHash.Hex())), wTx) + "  " +
			FormatArgs(ev.Args)
		if i == m.cursor {
			line = StyleSelected.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	if len(m.Rows) > 0 {
		sb.WriteString(StyleMeta.Render(fmt.Sprintf("  %d event(s)", len(m.Rows))) + "\n")
	}

	sb.WriteString("\n" + StyleMeta.Render("[ ↑↓ ] navigate   [ q ] quit") + "\n")
	return sb.String()
}

// FormatArgs renders decoded event arguments as "k=v" pairs sorted by name.
func FormatArgs(args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + FormatValue(args[k])
	}
	return strings.Join(parts, " ")
}

// FormatValue renders one ABI value for display.
func FormatValue(v any) string {
	switch x := v.(type) {
	case common.Address:
		return x.Hex()
	case common.Hash:
		return x.Hex()
	case [32]byte:
		return common.Hash(x).Hex()
	case *big.Int:
		if x == nil {
			return "0"
		}
		return x.String()
	case []common.Address:
		out := make([]string, len(x))
		for i, a := range x {
			out[i] = a.Hex()
		}
		return "[" + strings.Join(out, ",") + "]"
	default:
		return fmt.Sprint(v)
	}
}
