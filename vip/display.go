package vip

import "github.com/mvk/vip8/chip8"

// An Event is an input event captured by a Display.
type Event struct {
	Quit bool
	Key  byte // keypad nibble, valid when Quit is false
}

// A Frame is a display update handed from the machine loop to a Display.
// Frames are only sent after the machine's draw handshake marks them
// pending, so every one carries a visible change.
type Frame struct {
	FB   chip8.Framebuffer
	Beep bool // sound timer is running
}

// A Display owns the user-facing surface. Run takes the surface over and
// blocks, rendering frames and forwarding input events to the machine
// loop, until stop is closed. The machine loop never touches the surface
// directly; the two sides share only these channels.
type Display interface {
	Run(frames <-chan Frame, events chan<- Event, stop <-chan struct{}) error
}
