package vip

import (
	"log"
	"time"

	"github.com/mvk/vip8/chip8"
)

// The timer domain runs at a fixed 60Hz regardless of the instruction
// clock rate.
const tickHz = 60

// DefaultCPS is the default instruction clock, in steps per second.
// The machine this recreates was clocked at roughly 1kHz.
const DefaultCPS = 1000

// StateKind tells a StateFunc why it is being called.
type StateKind int

const (
	RunState StateKind = iota
	PauseState
	HaltState
)

// A StateFunc observes the machine from inside the machine loop. It is
// called synchronously between instructions, so it may read the machine
// freely but must not retain it.
type StateFunc func(m *chip8.Machine, k StateKind)

// Runner executes a machine against a Display, keeping the instruction
// clock and the 60Hz timer domain independently on schedule. If the host
// falls behind either cadence it catches up by running the owed
// operations, never by skipping virtual time.
type Runner struct {
	cps     int
	display Display
	state   StateFunc

	swap chan []byte
	ctrl chan string
}

// NewRunner returns a Runner stepping cps instructions per second.
// state may be nil.
func NewRunner(display Display, cps int, state StateFunc) *Runner {
	if cps <= 0 {
		cps = DefaultCPS
	}
	return &Runner{
		cps:     cps,
		display: display,
		state:   state,
		swap:    make(chan []byte),
		ctrl:    make(chan string),
	}
}

// Swap resets the machine with a new ROM, keeping its configuration.
// It blocks until the machine loop has performed the reset.
func (r *Runner) Swap(rom []byte) { r.swap <- rom }

// Debug submits a monitor command: "pause", "step", "cont" or "quit".
func (r *Runner) Debug(cmd string) { r.ctrl <- cmd }

// Run drives m against the display until the user quits, the machine
// faults, or a "quit" command arrives. The display runs on the calling
// goroutine; the machine loop runs on its own.
func (r *Runner) Run(m *chip8.Machine) error {
	var (
		frames  = make(chan Frame, 1)
		events  = make(chan Event, 16)
		stop    = make(chan struct{})
		loopErr = make(chan error, 1)
	)
	go func() {
		loopErr <- r.loop(m, frames, events)
		close(stop)
	}()
	err := r.display.Run(frames, events, stop)
	// If the display gave up first, release the machine loop.
	select {
	case events <- Event{Quit: true}:
	default:
	}
	if lerr := <-loopErr; err == nil {
		err = lerr
	}
	return err
}

func (r *Runner) loop(m *chip8.Machine, frames chan<- Frame, events <-chan Event) error {
	var (
		clockPeriod = time.Second / time.Duration(r.cps)
		tickPeriod  = time.Second / tickHz
		lastClock   = time.Now()
		lastTick    = lastClock
		paused      bool
		beeping     bool
	)
	grain := time.NewTicker(time.Millisecond)
	defer grain.Stop()

	for {
		select {
		case ev := <-events:
			if ev.Quit {
				return nil
			}
			m.SetKey(ev.Key, true)

		case rom := <-r.swap:
			fresh := chip8.New()
			fresh.LegacyShift = m.LegacyShift
			fresh.Strict = m.Strict
			fresh.Rand = m.Rand
			fresh.Diag = m.Diag
			if err := fresh.Load(rom); err != nil {
				log.Printf("swap: %v", err)
				break
			}
			*m = *fresh
			lastClock, lastTick = time.Now(), time.Now()

		case cmd := <-r.ctrl:
			switch cmd {
			case "pause":
				paused = true
				r.notify(m, PauseState)
			case "step":
				paused = true
				if err := m.Clock(); err != nil {
					r.notify(m, HaltState)
					return err
				}
				r.notify(m, PauseState)
			case "cont":
				paused = false
				lastClock, lastTick = time.Now(), time.Now()
			case "quit":
				return nil
			}

		case <-grain.C:
			if paused {
				continue
			}
			for time.Since(lastClock) >= clockPeriod {
				if err := m.Clock(); err != nil {
					r.notify(m, HaltState)
					return err
				}
				lastClock = lastClock.Add(clockPeriod)
			}
			for time.Since(lastTick) >= tickPeriod {
				m.Tick()
				lastTick = lastTick.Add(tickPeriod)
				if beep := m.Sound > 0; m.DrawPending() || beep != beeping {
					select {
					case frames <- Frame{FB: m.Framebuffer(), Beep: beep}:
						m.AckDraw()
						beeping = beep
					default:
						// Display busy; the draw handshake holds the
						// frame until it can be delivered.
					}
				}
				r.notify(m, RunState)
			}
		}
	}
}

func (r *Runner) notify(m *chip8.Machine, k StateKind) {
	if r.state != nil {
		r.state(m, k)
	}
}
