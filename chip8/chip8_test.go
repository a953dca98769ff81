package chip8

import (
	"bytes"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	m := New()
	if m.PC != ProgStart {
		t.Errorf("PC is %.3x, want %.3x", m.PC, ProgStart)
	}
	if g := m.Mem[:len(font)]; !bytes.Equal(g, font[:]) {
		t.Errorf("font region is %x, want %x", g, font)
	}
	for i := len(font); i < MemSize; i++ {
		if m.Mem[i] != 0 {
			t.Fatalf("Mem[%.3x] = %.2x, want 00", i, m.Mem[i])
		}
	}
}

func TestLoad(t *testing.T) {
	for _, c := range []struct {
		romSize int
		err     error
	}{
		{0, nil},
		{1, nil},
		{MemSize - ProgStart, nil},
		{MemSize - ProgStart + 1, ErrROMTooLarge},
		{MemSize, ErrROMTooLarge},
	} {
		t.Run(fmt.Sprintf("%.4x", c.romSize), func(t *testing.T) {
			m := New()
			if err := m.Load(bytes.Repeat([]byte{1}, c.romSize)); err != c.err {
				t.Fatalf("Load returned %v, want %v", err, c.err)
			}
			for i := ProgStart; i < MemSize; i++ {
				w := byte(0)
				if c.err == nil && i < ProgStart+c.romSize {
					w = 1
				}
				if g := m.Mem[i]; g != w {
					t.Fatalf("Mem[%.3x] = %.2x, want %.2x", i, g, w)
				}
			}
		})
	}
}

// run loads a program and clocks the machine until the given number of
// instructions have executed, failing the test on any fault.
func run(t *testing.T, m *Machine, rom []byte, steps int) {
	t.Helper()
	if err := m.Load(rom); err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i := 0; i < steps; i++ {
		if err := m.Clock(); err != nil {
			t.Fatalf("Clock %d: %v", i, err)
		}
	}
}

func TestDraw(t *testing.T) {
	m := New()
	run(t, m, []byte{
		0x00, 0xe0, // CLS
		0x60, 0x00, // LD V0, 0
		0xa2, 0x0a, // LD I, 0x20a
		0xd0, 0x05, // DRW V0, V0, 5  (the 0 glyph in program memory)
		0x00, 0x00,
		0xf0, 0x90, 0x90, 0x90, 0xf0,
	}, 4)

	fb := m.Framebuffer()
	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			w := y < 5 && x < 4 && (y == 0 || y == 4 || x == 0 || x == 3)
			if g := fb.Pixel(x, y); g != w {
				t.Errorf("pixel (%d, %d) = %t, want %t", x, y, g, w)
			}
		}
	}
	if m.V[0xf] != 0 {
		t.Errorf("VF = %d after drawing on a clear screen, want 0", m.V[0xf])
	}
	if !m.DrawPending() {
		t.Error("DrawPending = false after DRW, want true")
	}
}

func TestDrawCollision(t *testing.T) {
	m := New()
	run(t, m, []byte{
		0x60, 0x00, // LD V0, 0
		0xa2, 0x08, // LD I, 0x208
		0xd0, 0x01, // DRW V0, V0, 1
		0xd0, 0x01, // DRW V0, V0, 1
		0x80, 0x00,
	}, 3)
	fb := m.Framebuffer()
	if !fb.Pixel(0, 0) {
		t.Error("pixel (0, 0) unlit after first draw")
	}
	if m.V[0xf] != 0 {
		t.Errorf("VF = %d after first draw, want 0", m.V[0xf])
	}

	// The second identical draw erases the sprite and reports collision.
	if err := m.Clock(); err != nil {
		t.Fatalf("Clock: %v", err)
	}
	if fb := m.Framebuffer(); fb != (Framebuffer{}) {
		t.Errorf("framebuffer not empty after XOR-ing the sprite twice: %x", fb)
	}
	if m.V[0xf] != 1 {
		t.Errorf("VF = %d after overlapping draw, want 1", m.V[0xf])
	}
}

func TestDrawWrapsHorizontally(t *testing.T) {
	m := New()
	run(t, m, []byte{
		0x60, 0x3c, // LD V0, 60
		0x61, 0x00, // LD V1, 0
		0xa2, 0x08, // LD I, 0x208
		0xd0, 0x11, // DRW V0, V1, 1
		0xff, 0x00,
	}, 4)
	fb := m.Framebuffer()
	for x := 0; x < ScreenWidth; x++ {
		w := x >= 60 || x < 4
		if g := fb.Pixel(x, 0); g != w {
			t.Errorf("pixel (%d, 0) = %t, want %t", x, g, w)
		}
	}
	for x := 0; x < ScreenWidth; x++ {
		if fb.Pixel(x, 1) {
			t.Errorf("pixel (%d, 1) lit, want row 1 untouched", x)
		}
	}
}

func TestDrawWrapsVertically(t *testing.T) {
	m := New()
	run(t, m, []byte{
		0x60, 0x00, // LD V0, 0
		0x61, 0x1e, // LD V1, 30
		0xa2, 0x08, // LD I, 0x208
		0xd0, 0x14, // DRW V0, V1, 4
		0x80, 0x80, 0x80, 0x80,
	}, 4)
	fb := m.Framebuffer()
	for y := 0; y < ScreenHeight; y++ {
		w := y == 30 || y == 31 || y == 0 || y == 1
		if g := fb.Pixel(0, y); g != w {
			t.Errorf("pixel (0, %d) = %t, want %t", y, g, w)
		}
	}
}

func TestCallRetBalance(t *testing.T) {
	m := New()
	run(t, m, []byte{
		0x22, 0x04, // CALL 0x204
		0x00, 0x00,
		0x00, 0xee, // RET
	}, 2)
	if m.PC != 0x202 {
		t.Errorf("PC after balanced CALL/RET is %.3x, want 202", m.PC)
	}
	if m.SP != 0 {
		t.Errorf("SP after balanced CALL/RET is %d, want 0", m.SP)
	}
}

func TestStackOverflow(t *testing.T) {
	// Seventeen CALLs, each to the next instruction, never returning.
	var rom []byte
	for i := 0; i < 17; i++ {
		next := ProgStart + 2*(i+1)
		rom = append(rom, 0x20|byte(next>>8), byte(next))
	}
	m := New()
	run(t, m, rom, 16)
	err := m.Clock()
	want := FaultError{Fault: StackOverflow, Code: 0x2222, Addr: 0x220}
	if err != want {
		t.Fatalf("17th CALL returned %v, want %v", err, want)
	}
}

func TestWaitKey(t *testing.T) {
	m := New()
	if err := m.Load([]byte{0xf5, 0x0a}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := m.Clock(); err != nil {
			t.Fatal(err)
		}
		if m.PC != ProgStart {
			t.Fatalf("PC advanced to %.3x while no key pressed", m.PC)
		}
	}
	m.SetKey(0xb, true)
	m.SetKey(0x4, true)
	if err := m.Clock(); err != nil {
		t.Fatal(err)
	}
	if m.PC != ProgStart+2 {
		t.Errorf("PC is %.3x after key press, want %.3x", m.PC, ProgStart+2)
	}
	if m.V[5] != 0x4 {
		t.Errorf("V5 = %#x, want the lowest pressed key 0x4", m.V[5])
	}
}

func TestTickTimers(t *testing.T) {
	m := New()
	m.Delay, m.Sound = 2, 3
	for i := 0; i < 5; i++ {
		m.Tick()
	}
	if m.Delay != 0 {
		t.Errorf("delay timer is %d, want 0 (saturating)", m.Delay)
	}
	if m.Sound != 0 {
		t.Errorf("sound timer is %d, want 0 (saturating)", m.Sound)
	}
}

func TestTickClearsKeys(t *testing.T) {
	m := New()
	m.SetKey(3, true)
	m.SetKey(0xf, true)
	m.Tick()
	if m.Keys != [16]bool{} {
		t.Errorf("keys are %v after Tick, want all released", m.Keys)
	}
}

func TestDrawHandshake(t *testing.T) {
	m := New()
	run(t, m, []byte{0x00, 0xe0}, 1)
	if !m.DrawPending() {
		t.Fatal("DrawPending = false after CLS")
	}

	// An unacknowledged frame survives any number of ticks.
	m.Tick()
	m.Tick()
	if !m.DrawPending() {
		t.Fatal("pending frame retired before the host acknowledged it")
	}

	// An acknowledged frame is retired by the next tick only.
	m.AckDraw()
	if !m.DrawPending() {
		t.Fatal("frame retired by AckDraw alone, want retirement on Tick")
	}
	m.Tick()
	if m.DrawPending() {
		t.Fatal("DrawPending = true after acknowledged tick, want false")
	}
}

func TestAddSubRoundTrip(t *testing.T) {
	for _, c := range []struct{ x, y byte }{
		{0, 0}, {1, 2}, {0xff, 0xff}, {0x80, 0x80}, {0xfe, 0x03}, {42, 0xd3},
	} {
		m := New()
		m.V[1], m.V[2] = c.x, c.y
		run(t, m, []byte{
			0x81, 0x24, // ADD V1, V2
			0x81, 0x25, // SUB V1, V2
		}, 1)
		if carry := uint16(c.x)+uint16(c.y) > 0xff; (m.V[0xf] == 1) != carry {
			t.Errorf("VF = %d after %#x + %#x, want carry %t", m.V[0xf], c.x, c.y, carry)
		}
		if err := m.Clock(); err != nil {
			t.Fatal(err)
		}
		if m.V[1] != c.x {
			t.Errorf("V1 = %#x after add/sub round trip of %#x and %#x, want %#x",
				m.V[1], c.x, c.y, c.x)
		}
	}
}

func TestMnemonicAt(t *testing.T) {
	m := New()
	if err := m.Load([]byte{
		0xa2, 0x00, // LD I, addr
		0x12, 0x00, // JP addr
		0xff, 0xff,
	}); err != nil {
		t.Fatal(err)
	}
	m.PC = ProgStart + 2
	for _, c := range []struct {
		offset int
		want   string
	}{
		{-1, "LD I, addr"},
		{0, "JP addr"},
		{1, "???"},
	} {
		got, err := m.MnemonicAt(c.offset)
		if err != nil {
			t.Fatalf("MnemonicAt(%d): %v", c.offset, err)
		}
		if got != c.want {
			t.Errorf("MnemonicAt(%d) = %q, want %q", c.offset, got, c.want)
		}
	}
	if _, err := m.MnemonicAt(-0x200); err == nil {
		t.Error("MnemonicAt before the start of memory succeeded, want error")
	}
	if _, err := m.MnemonicAt(0x1000); err == nil {
		t.Error("MnemonicAt past the end of memory succeeded, want error")
	}
	if m.PC != ProgStart+2 {
		t.Errorf("MnemonicAt moved PC to %.3x", m.PC)
	}
}

func TestFontAddressing(t *testing.T) {
	for d := byte(0); d <= 0xf; d++ {
		m := New()
		m.V[0] = d
		run(t, m, []byte{0xf0, 0x29}, 1)
		if w := uint16(d) * 5; m.I != w {
			t.Errorf("I = %#x for digit %#x, want %#x", m.I, d, w)
		}
		if g, w := m.Mem[m.I:m.I+5], font[d*5:d*5+5]; !bytes.Equal(g, w) {
			t.Errorf("glyph %#x bytes are %x, want %x", d, g, w)
		}
	}
}

func TestInvalidOpcodeDiag(t *testing.T) {
	m := New()
	var gotAddr, gotCode uint16
	m.Diag = func(addr, code uint16) { gotAddr, gotCode = addr, code }
	run(t, m, []byte{0xe5, 0x00}, 1)
	if gotAddr != ProgStart || gotCode != 0xe500 {
		t.Errorf("Diag got (%.3x, %.4x), want (%.3x, e500)", gotAddr, gotCode, ProgStart)
	}
	if m.BadOps != 1 {
		t.Errorf("BadOps = %d, want 1", m.BadOps)
	}
	if m.PC != ProgStart+2 {
		t.Errorf("PC = %.3x, want the no-op to advance past the bad word", m.PC)
	}
}

func TestFetchOutOfRange(t *testing.T) {
	m := New()
	m.PC = MemSize - 1
	err := m.Clock()
	want := FaultError{Fault: InvalidAddress, Addr: MemSize - 1}
	if err != want {
		t.Fatalf("Clock returned %v, want %v", err, want)
	}
}
