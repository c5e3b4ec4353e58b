//go:build linux || darwin || freebsd || openbsd || netbsd

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/lixenwraith/vikey/audio"
	"github.com/lixenwraith/vikey/config"
	"github.com/lixenwraith/vikey/service"
	"github.com/lixenwraith/vikey/terminal"
)

var (
	configFlag  = flag.String("config", "vikey.toml", "Config file path (missing file uses defaults)")
	deviceFlag  = flag.String("device", "", "Read keys from a serial device instead of stdin")
	rawFlag     = flag.String("raw", "", "Raw mode: cbreak or full")
	debugFlag   = flag.Bool("debug", false, "Write a debug log under the log directory")
	timeoutFlag = flag.Int("timeout", 0, "Escape sequence timeout in ms (0 keeps config)")
)

func main() {
	// Panic Recovery: Ensure terminal is reset even if the viewer crashes
	defer func() {
		if r := recover(); r != nil {
			terminal.EmergencyReset(os.Stdout)
			fmt.Fprintf(os.Stderr, "\n\x1b[31mVIKEY CRASHED: %v\x1b[0m\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()

	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "vikey: %v\n", err)
		os.Exit(2)
	}

	logDir = cfg.Log.Dir
	if logFile := setupLogging(cfg.Log.Debug); logFile != nil {
		defer logFile.Close()
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "vikey: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers file, environment and flags, in that order
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configFlag)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "vikey: ignoring %v\n", err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			cfg.Input.Device = *deviceFlag
		case "raw":
			cfg.Terminal.RawMode = *rawFlag
		case "debug":
			cfg.Log.Debug = *debugFlag
		case "timeout":
			cfg.Input.EscapeTimeoutMs = *timeoutFlag
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cfg *config.Config) error {
	var (
		src      terminal.Source
		resizeFd = -1
		isTTY    bool
	)

	if cfg.Input.Device != "" {
		serial, err := terminal.OpenSerial(cfg.Input.Device, cfg.Input.Baud)
		if err != nil {
			return err
		}
		defer serial.Close()
		src = serial
		log.Printf("reading %s at %d baud", cfg.Input.Device, cfg.Input.Baud)
	} else {
		fd := int(os.Stdin.Fd())
		src = terminal.NewFileSource(os.Stdin)
		isTTY = terminal.IsTerminal(fd)
		if isTTY {
			state, err := terminal.MakeRaw(fd, cfg.RawMode())
			if err != nil {
				return err
			}
			defer state.Restore()
			resizeFd = fd
			log.Printf("stdin in %s mode", cfg.RawMode())
		}
	}

	cols, rows, err := terminal.Size(int(os.Stdout.Fd()))
	if err != nil {
		log.Printf("size: %v, assuming %dx%d", err, cols, rows)
	}
	out := terminal.NewOutput(os.Stdout, cols, rows)

	keys := terminal.NewKeyService(src, resizeFd)
	bell := audio.NewService()

	hub := service.NewHub()
	if err := hub.Register(keys); err != nil {
		return err
	}
	if err := hub.Register(bell); err != nil {
		return err
	}
	if err := hub.InitAll(map[string][]any{
		keys.Name(): {cfg.DecoderOptions()},
		bell.Name(): {cfg.BellConfig(), out},
	}); err != nil {
		return err
	}

	// Ask before the pump starts: the reply arrives on the same stream
	if isTTY && cfg.Terminal.AskSize {
		if c, r, err := terminal.AskSize(out, keys.Decoder()); err == nil {
			cols, rows = c, r
			out.SetSize(cols, rows)
		} else {
			log.Printf("ask size: %v", err)
		}
	}

	if cfg.Terminal.AltScreen {
		out.AltScreenStart()
		defer func() {
			out.AltScreenEnd()
			out.Flush()
		}()
	}

	if err := hub.StartAll(); err != nil {
		return err
	}
	defer func() {
		if err := hub.StopAll(); err != nil {
			log.Printf("stop: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	printLine := func(s string) {
		out.WriteString(s)
		out.InsertLine()
		out.Flush()
	}

	printLine(fmt.Sprintf("vikey %dx%d, %s mode, bell %s. Ctrl-G rings, q or Ctrl-C quits.",
		cols, rows, cfg.RawMode(), cfg.BellConfig().Mode))

	var runes runeAssembler
	for {
		select {
		case sig := <-sigCh:
			log.Printf("signal %v", sig)
			return nil

		case ev := <-keys.Events():
			switch ev.Type {
			case terminal.EventKey:
				r := ev.Key
				log.Printf("key %v (%#x)", r, int64(r))
				printLine(formatKey(r, cols))

				if r.IsByte() {
					if ru, ok := runes.add(r.Byte()); ok {
						printLine(formatRune(ru))
					}
					switch r.Byte() {
					case terminal.ByteBell:
						bell.Ring()
					case 'q', terminal.ByteCtrlC:
						return nil
					}
				}

			case terminal.EventResize:
				cols, rows = ev.Width, ev.Height
				out.SetSize(cols, rows)
				printLine(fmt.Sprintf("resize %dx%d", cols, rows))

			case terminal.EventError:
				log.Printf("input error: %v", ev.Err)

			case terminal.EventClosed:
				if ev.Err != nil && !errors.Is(ev.Err, io.EOF) {
					return ev.Err
				}
				return nil
			}
		}
	}
}
