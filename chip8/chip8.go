// Package chip8 provides an implementation of the CHIP-8 virtual machine,
// called Machine, that can be used to execute CHIP-8 ROMs.
//
// The Machine owns no clocks of its own. A driver calls Clock once per
// instruction owed at the instruction rate (historically about 1000 steps
// per second) and Tick at a fixed 60Hz, and reads the framebuffer through
// the draw handshake: after a Tick in which DrawPending reports true, the
// driver renders Framebuffer and calls AckDraw.
package chip8

import (
	"errors"
	"math/rand"
)

const (
	// MemSize is the size of addressable memory in bytes.
	MemSize = 0xfff
	// ProgStart is the address programs are loaded at.
	ProgStart = 0x200

	// ScreenWidth and ScreenHeight are the display dimensions in pixels.
	ScreenWidth  = 64
	ScreenHeight = 32

	screenBytes = ScreenWidth / 8 * ScreenHeight
	stackDepth  = 16
)

// Framebuffer is a packed snapshot of the display: one bit per pixel,
// row major, eight bytes per row.
type Framebuffer [screenBytes]byte

// Pixel reports whether the pixel at (x, y) is lit.
func (f *Framebuffer) Pixel(x, y int) bool {
	return f[y*ScreenWidth/8+x/8]>>(7-x%8)&1 == 1
}

// Machine is an implementation of the CHIP-8 virtual machine.
// The zero value is not ready to use; call New, which installs the
// builtin font and sets the program counter.
type Machine struct {
	Mem   [MemSize]byte
	V     [16]byte // V0..VF; VF doubles as the arithmetic/draw flag
	I     uint16
	PC    uint16
	Stack [stackDepth]uint16
	SP    byte

	Delay byte
	Sound byte

	// Keys holds the keypad state for the current frame. The host sets
	// entries with SetKey; Tick clears them all, so a held physical key
	// must be re-asserted every frame.
	Keys [16]bool

	// LegacyShift selects the original COSMAC VIP interpretation of the
	// two shift opcodes, where the shifted value and the carried-out bit
	// come from Vy rather than Vx. Both readings appear in period
	// documentation, so the choice stays configurable.
	LegacyShift bool

	// Strict makes Clock fail on an unknown opcode instead of executing
	// it as a no-op.
	Strict bool

	// Rand supplies bytes for the RND instruction. Tests install a
	// deterministic source. If nil, math/rand is used.
	Rand func() byte

	// Diag, if non-nil, receives a report for every unknown opcode
	// executed as a no-op.
	Diag func(addr, code uint16)

	// BadOps counts unknown opcodes executed as no-ops.
	BadOps int

	screen Framebuffer
	draw   drawPhase
}

// The draw handshake between machine and host is a three-phase cycle:
// CLS and DRW move the machine to drawPending, the host consumes the
// framebuffer and calls AckDraw, and the next Tick returns the machine
// to drawIdle. A frame is never retired before the host has seen it,
// however fast instructions run relative to the render rate.
type drawPhase byte

const (
	drawIdle drawPhase = iota
	drawPending
	drawAcked
)

// New returns a Machine with the font installed at the bottom of memory
// and the program counter at ProgStart.
func New() *Machine {
	m := &Machine{PC: ProgStart}
	copy(m.Mem[:], font[:])
	return m
}

// ErrROMTooLarge is returned by Load when the ROM cannot fit in memory.
var ErrROMTooLarge = errors.New("ROM too large")

// Load copies rom into memory starting at ProgStart.
// Memory is left untouched if the ROM does not fit.
func (m *Machine) Load(rom []byte) error {
	if len(rom) > MemSize-ProgStart {
		return ErrROMTooLarge
	}
	copy(m.Mem[ProgStart:], rom)
	return nil
}

// Tick advances the 60Hz timer domain: both timers count down with
// saturation, the keypad pulses are retired, and an acknowledged frame
// completes the draw handshake. Tick must be called at a fixed 60Hz
// regardless of the instruction clock rate.
func (m *Machine) Tick() {
	if m.Delay > 0 {
		m.Delay--
	}
	if m.Sound > 0 {
		m.Sound--
	}
	for i := range m.Keys {
		m.Keys[i] = false
	}
	if m.draw == drawAcked {
		m.draw = drawIdle
	}
}

// SetKey records the keypad key k (0..f) as pressed or released for the
// current frame.
func (m *Machine) SetKey(k byte, down bool) {
	if k < 16 {
		m.Keys[k] = down
	}
}

// Framebuffer returns a snapshot of the display.
func (m *Machine) Framebuffer() Framebuffer { return m.screen }

// DrawPending reports whether the display has changed and the frame has
// not yet been retired by the handshake.
func (m *Machine) DrawPending() bool { return m.draw != drawIdle }

// AckDraw records that the host has consumed the current frame. The
// handshake completes on the next Tick.
func (m *Machine) AckDraw() {
	if m.draw == drawPending {
		m.draw = drawAcked
	}
}

// MnemonicAt returns the mnemonic for the instruction offset whole
// instructions away from PC (offset 0 is the current instruction, -1 the
// previous one). It is a diagnostic lookup and does not mutate the
// machine.
func (m *Machine) MnemonicAt(offset int) (string, error) {
	addr := int(m.PC) + 2*offset
	if addr < 0 || addr+1 >= MemSize {
		return "", FaultError{Fault: InvalidAddress, Addr: m.PC}
	}
	op := Decode(uint16(m.Mem[addr])<<8 | uint16(m.Mem[addr+1]))
	return m.inst(op).name, nil
}

func (m *Machine) randByte() byte {
	if m.Rand != nil {
		return m.Rand()
	}
	return byte(rand.Intn(0x100))
}
