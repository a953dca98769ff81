// Command vip8 is a CHIP-8 virtual machine. It loads a ROM image and
// interprets it, rendering the 64x32 display in the terminal or in a
// native window.
package main

import "github.com/mvk/vip8/cmd"

func main() {
	cmd.Execute()
}
