package vip

import "testing"

func TestKeymapLookup(t *testing.T) {
	km := DefaultKeymap()
	for _, c := range []struct {
		r    rune
		n    byte
		ok   bool
	}{
		{'1', 0x1, true},
		{'4', 0xc, true},
		{'q', 0x4, true},
		{'Q', 0x4, true}, // case-insensitive
		{'x', 0x0, true},
		{'V', 0xf, true},
		{'9', 0, false},
		{'p', 0, false},
		{' ', 0, false},
	} {
		n, ok := km.Lookup(c.r)
		if n != c.n || ok != c.ok {
			t.Errorf("Lookup(%q): got %#x, %v, want %#x, %v", c.r, n, ok, c.n, c.ok)
		}
	}
}

func TestKeymapCoversKeypad(t *testing.T) {
	seen := make(map[byte]bool)
	for _, n := range DefaultKeymap() {
		if seen[n] {
			t.Errorf("nibble %#x mapped twice", n)
		}
		seen[n] = true
	}
	for n := byte(0); n < 16; n++ {
		if !seen[n] {
			t.Errorf("nibble %#x not mapped", n)
		}
	}
}
