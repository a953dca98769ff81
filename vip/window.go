package vip

import (
	"image"
	"image/color"
	"image/draw"
	"log"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/mvk/vip8/chip8"
)

const windowScale = 8

// Window renders the display in a native window, scaled up from the
// 64x32 machine resolution. Esc or closing the window quits.
type Window struct {
	keys Keymap
}

func NewWindow(keys Keymap) *Window {
	return &Window{keys: keys}
}

func (g *Window) Run(frames <-chan Frame, events chan<- Event, stop <-chan struct{}) error {
	driver.Main(func(s screen.Screen) {
		w, err := s.NewWindow(&screen.NewWindowOptions{
			Title:  "vip8",
			Width:  chip8.ScreenWidth * windowScale,
			Height: chip8.ScreenHeight * windowScale,
		})
		if err != nil {
			log.Fatal(err)
		}
		defer w.Release()

		type done struct{}
		go func() {
			for {
				select {
				case f := <-frames:
					w.Send(f)
				case <-stop:
					w.Send(done{})
					return
				}
			}
		}()

		res := image.Point{chip8.ScreenWidth, chip8.ScreenHeight}
		buf, err := s.NewBuffer(res)
		if err != nil {
			log.Fatal(err)
		}
		defer buf.Release()
		tex, err := s.NewTexture(res)
		if err != nil {
			log.Fatal(err)
		}
		defer tex.Release()

		var sz size.Event
		for {
			switch e := w.NextEvent().(type) {
			case done:
				return

			case lifecycle.Event:
				if e.To == lifecycle.StageDead {
					g.send(events, stop, Event{Quit: true})
					return
				}

			case size.Event:
				sz = e

			case key.Event:
				if e.Direction == key.DirRelease {
					break
				}
				if e.Code == key.CodeEscape {
					g.send(events, stop, Event{Quit: true})
					return
				}
				if n, ok := g.keys.Lookup(e.Rune); ok {
					g.send(events, stop, Event{Key: n})
				}

			case Frame:
				render(buf.RGBA(), &e.FB)
				tex.Upload(image.Point{}, buf, buf.Bounds())
				w.Scale(sz.Bounds(), tex, tex.Bounds(), draw.Src, nil)
				w.Publish()

			case paint.Event:
				tex.Upload(image.Point{}, buf, buf.Bounds())
				w.Scale(sz.Bounds(), tex, tex.Bounds(), draw.Src, nil)
				w.Publish()

			case error:
				log.Print(e)
			}
		}
	})
	return nil
}

func (g *Window) send(events chan<- Event, stop <-chan struct{}, ev Event) {
	select {
	case events <- ev:
	case <-stop:
	}
}

var (
	pixelOn  = color.RGBA{0xdd, 0xdd, 0xdd, 0xff}
	pixelOff = color.RGBA{0x11, 0x11, 0x11, 0xff}
)

func render(m *image.RGBA, fb *chip8.Framebuffer) {
	for y := 0; y < chip8.ScreenHeight; y++ {
		for x := 0; x < chip8.ScreenWidth; x++ {
			c := pixelOff
			if fb.Pixel(x, y) {
				c = pixelOn
			}
			m.SetRGBA(x, y, c)
		}
	}
}
