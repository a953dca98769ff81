// Package cmd implements the vip8 command line.
package cmd

import (
	"fmt"
	"log"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mvk/vip8/chip8"
	"github.com/mvk/vip8/vip"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "vip8 <rom.ch8>",
	Short: "CHIP-8 virtual machine",
	Long: `vip8 interprets CHIP-8 ROM images, rendering the 64x32 display in the
terminal or, with --gui, in a native window. The hex keypad is mapped to
1234/qwer/asdf/zxcv; Esc quits.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0])
	},
}

// Execute runs the root command, exiting non-zero on error.
func Execute() {
	log.SetPrefix("vip8: ")
	log.SetFlags(0)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.vip8.yaml)")
	rootCmd.Flags().Int("cps", vip.DefaultCPS, "instruction clock, in steps per second")
	rootCmd.Flags().Bool("legacy-shift", false, "shift instructions read Vy, as the original interpreter did")
	rootCmd.Flags().Bool("strict", false, "halt on unknown opcodes instead of skipping them")
	rootCmd.Flags().Bool("gui", false, "render in a native window instead of the terminal")
	rootCmd.Flags().Bool("dev", false, "reload the ROM whenever it changes on disk")
	rootCmd.Flags().Bool("debug", false, "run the machine monitor in the terminal (implies --gui)")
	for _, name := range []string{"cps", "legacy-shift", "strict", "gui", "dev", "debug"} {
		if err := viper.BindPFlag(name, rootCmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in the config file and VIP8_* environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigName(".vip8")
	}
	viper.SetEnvPrefix("vip8")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err == nil {
		log.Printf("using config file %s", viper.ConfigFileUsed())
	}
}

func run(romPath string) error {
	rom, err := os.ReadFile(romPath)
	if err != nil {
		return err
	}

	m := chip8.New()
	m.LegacyShift = viper.GetBool("legacy-shift")
	m.Strict = viper.GetBool("strict")
	m.Diag = func(addr, code uint16) {
		log.Printf("unknown opcode %.4x at %.4x", code, addr)
	}
	if err := m.Load(rom); err != nil {
		return fmt.Errorf("%s: %w", romPath, err)
	}

	var (
		debug = viper.GetBool("debug")
		gui   = viper.GetBool("gui") || debug
		state vip.StateFunc
		dv    *vip.DebugView
	)
	if debug {
		dv = vip.NewDebugView()
		state = dv.StateFunc
	}

	var display vip.Display
	if gui {
		display = vip.NewWindow(vip.DefaultKeymap())
	} else {
		display = vip.NewTerminal(vip.DefaultKeymap())
	}

	r := vip.NewRunner(display, viper.GetInt("cps"), state)

	if viper.GetBool("dev") {
		go func() {
			if err := vip.WatchROM(romPath, r); err != nil {
				log.Printf("dev: %v", err)
			}
		}()
	}

	if dv != nil {
		// The monitor owns the terminal; route the log through it
		// until it exits.
		dv.Attach(r)
		log.SetPrefix("")
		log.SetOutput(dv.Log())
		go func() {
			if err := dv.Run(); err != nil {
				log.Fatalf("debug: %v", err)
			}
			log.SetOutput(os.Stderr)
			log.SetPrefix("vip8: ")
			r.Debug("quit")
		}()
	}

	err = r.Run(m)
	if m.BadOps > 0 {
		log.Printf("skipped %d unknown opcodes", m.BadOps)
	}
	return err
}
