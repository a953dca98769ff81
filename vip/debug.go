package vip

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/mvk/vip8/chip8"
)

// DebugView is a terminal monitor for a running machine. The top of the
// screen is split between memory watches and the log; below that a state
// pane shows the registers and a disassembly window around PC, and an
// input field accepts commands:
//
//	p, pause     stop the machine
//	s, step      execute one instruction
//	c, cont      resume the machine
//	q, quit      stop the machine and exit
//	w <addr>     watch the memory byte at hex addr
//	w2 <addr>    watch two bytes at hex addr
type DebugView struct {
	r *Runner

	log   *tview.TextView
	watch *tview.TextView
	state *tview.TextView
	input *tview.InputField
	cols  *tview.Flex
	rows  *tview.Flex
	app   *tview.Application

	mu      sync.Mutex
	watches []memWatch
}

type memWatch struct {
	addr  uint16
	short bool
}

func NewDebugView() *DebugView {
	d := &DebugView{
		log: tview.NewTextView().
			SetMaxLines(1000),
		watch: tview.NewTextView().
			SetWrap(false).
			SetTextAlign(tview.AlignRight),
		state: tview.NewTextView().
			SetWrap(false),
		input: tview.NewInputField(),
		cols:  tview.NewFlex(),
		rows: tview.NewFlex().
			SetDirection(tview.FlexRow),
		app: tview.NewApplication(),
	}
	d.log.SetChangedFunc(func() { d.app.Draw() })
	d.watch.SetBackgroundColor(tcell.ColorDarkBlue)
	d.state.SetBackgroundColor(tcell.ColorDarkGrey)
	d.cols.
		AddItem(d.watch, 0, 1, false).
		AddItem(d.log, 0, 2, false)
	d.rows.
		AddItem(d.cols, 0, 1, false).
		AddItem(d.state, 9, 0, false).
		AddItem(d.input, 1, 0, true)
	d.app.SetRoot(d.rows, true)

	d.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		cmd := d.input.GetText()
		if cmd == "" {
			return
		}
		d.input.SetText("")
		if cmd, arg, ok := strings.Cut(cmd, " "); ok {
			switch cmd {
			case "w", "w2", "watch", "watch2":
				addr, err := strconv.ParseUint(arg, 16, 16)
				if err != nil || addr >= chip8.MemSize {
					log.Printf("invalid addr %q", arg)
					return
				}
				d.mu.Lock()
				d.watches = append(d.watches, memWatch{
					addr:  uint16(addr),
					short: strings.HasSuffix(cmd, "2"),
				})
				d.mu.Unlock()
				log.Printf("watching %.3x", addr)
			default:
				log.Printf("unknown command %q", cmd)
			}
			return
		}
		switch cmd {
		case "p", "pause":
			d.r.Debug("pause")
		case "s", "step":
			d.r.Debug("step")
		case "c", "cont":
			d.r.Debug("cont")
		case "q", "quit":
			d.r.Debug("quit")
			d.app.Stop()
		default:
			log.Printf("unknown command %q", cmd)
		}
	})
	return d
}

// Attach connects the view to the runner its commands control.
// It must be called before Run.
func (d *DebugView) Attach(r *Runner) { d.r = r }

func (d *DebugView) Run() error { return d.app.Run() }

// Log returns a writer that appends to the monitor's log pane, for use
// as a log.SetOutput destination while the monitor owns the terminal.
func (d *DebugView) Log() io.Writer { return d.log }

// StateFunc is passed to NewRunner. It is called from the machine loop,
// so it reads the machine before handing text off to the UI goroutine.
func (d *DebugView) StateFunc(m *chip8.Machine, k StateKind) {
	var (
		watch = d.watchContent(m)
		state = stateMsg(m, k)
	)
	d.app.QueueUpdateDraw(func() {
		switch k {
		case RunState:
			d.state.SetTextColor(tcell.ColorBlack)
			d.state.SetBackgroundColor(tcell.ColorDarkGrey)
		case PauseState:
			d.state.SetTextColor(tcell.ColorWhite)
			d.state.SetBackgroundColor(tcell.ColorDarkBlue)
		case HaltState:
			d.state.SetTextColor(tcell.ColorWhite)
			d.state.SetBackgroundColor(tcell.ColorDarkRed)
		}
		d.watch.SetText(watch)
		d.state.SetText(state)
	})
}

func stateMsg(m *chip8.Machine, k StateKind) string {
	kind := "       "
	switch k {
	case PauseState:
		kind = "[pause]"
	case HaltState:
		kind = "[HALT!]"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "pc %.4x %s  i %.4x  dt %.2x  st %.2x\nv   % x\nstk % x\n",
		m.PC, kind, m.I, m.Delay, m.Sound, m.V, m.Stack[:m.SP])
	for off := -2; off <= 2; off++ {
		s, err := m.MnemonicAt(off)
		if err != nil {
			continue
		}
		mark := "   "
		if off == 0 {
			mark = "-> "
		}
		fmt.Fprintf(&b, "%s%.4x  %s\n", mark, int(m.PC)+2*off, s)
	}
	return b.String()
}

func (d *DebugView) watchContent(m *chip8.Machine) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var b strings.Builder
	for i, w := range d.watches {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%.3x] ", w.addr)
		if w.short && int(w.addr)+1 < chip8.MemSize {
			fmt.Fprintf(&b, "%.2x%.2x", m.Mem[w.addr], m.Mem[w.addr+1])
		} else {
			fmt.Fprintf(&b, "  %.2x", m.Mem[w.addr])
		}
	}
	return b.String()
}
