// Package vip drives a chip8.Machine: it keeps the instruction clock and
// the 60Hz timer domain on schedule, renders frames to a terminal or a
// window, and feeds keypad input back to the machine.
package vip

import "unicode"

// A Keymap translates keyboard runes to keypad nibbles. The default
// layout maps the 4x4 hex pad onto the left-hand side of a QWERTY
// keyboard, as hosts have done since the machine was first emulated:
//
//	1 2 3 C        1 2 3 4
//	4 5 6 D   <-   q w e r
//	7 8 9 E        a s d f
//	A 0 B F        z x c v
type Keymap map[rune]byte

func DefaultKeymap() Keymap {
	return Keymap{
		'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xc,
		'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xd,
		'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xe,
		'z': 0xa, 'x': 0x0, 'c': 0xb, 'v': 0xf,
	}
}

// Lookup reports the keypad nibble for r, ignoring case.
func (k Keymap) Lookup(r rune) (byte, bool) {
	n, ok := k[unicode.ToLower(r)]
	return n, ok
}
