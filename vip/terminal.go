package vip

import (
	"github.com/gdamore/tcell/v2"

	"github.com/mvk/vip8/chip8"
)

// Terminal renders the display as a 64x32 grid of block characters on an
// alternate screen, and maps key presses through a Keymap. Esc or Ctrl-C
// quits.
type Terminal struct {
	keys Keymap

	// newScreen is swapped for a tcell simulation screen in tests.
	newScreen func() (tcell.Screen, error)
}

func NewTerminal(keys Keymap) *Terminal {
	return &Terminal{keys: keys, newScreen: tcell.NewScreen}
}

func (t *Terminal) Run(frames <-chan Frame, events chan<- Event, stop <-chan struct{}) error {
	scr, err := t.newScreen()
	if err != nil {
		return err
	}
	if err := scr.Init(); err != nil {
		return err
	}
	defer scr.Fini()
	scr.SetStyle(tcell.StyleDefault)
	scr.HideCursor()
	scr.Clear()

	input := make(chan Event)
	go t.poll(scr, input)

	for {
		select {
		case <-stop:
			return nil
		case f := <-frames:
			t.render(scr, &f.FB)
			if f.Beep {
				scr.Beep()
			}
		case ev := <-input:
			select {
			case events <- ev:
			case <-stop:
				return nil
			}
		}
	}
}

// poll forwards key events until the screen is finalized, at which point
// PollEvent returns nil.
func (t *Terminal) poll(scr tcell.Screen, input chan<- Event) {
	for {
		switch ev := scr.PollEvent().(type) {
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
				input <- Event{Quit: true}
				return
			case ev.Key() == tcell.KeyRune:
				if n, ok := t.keys.Lookup(ev.Rune()); ok {
					input <- Event{Key: n}
				}
			}
		case *tcell.EventResize:
			scr.Sync()
		case nil:
			return
		}
	}
}

func (t *Terminal) render(scr tcell.Screen, fb *chip8.Framebuffer) {
	for y := 0; y < chip8.ScreenHeight; y++ {
		for x := 0; x < chip8.ScreenWidth; x++ {
			ch := ' '
			if fb.Pixel(x, y) {
				ch = '█'
			}
			scr.SetContent(x, y, ch, nil, tcell.StyleDefault)
		}
	}
	scr.Show()
}
