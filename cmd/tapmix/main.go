// ABOUTME: Entry point for the tapmix recorder CLI
// ABOUTME: Parses flags, wires the session to the meter TUI and monitor feed, records until stopped
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/tapmix-audio/tapmix-go/internal/capture"
	"github.com/tapmix-audio/tapmix-go/internal/config"
	"github.com/tapmix-audio/tapmix-go/internal/monitor"
	"github.com/tapmix-audio/tapmix-go/internal/session"
	"github.com/tapmix-audio/tapmix-go/internal/ui"
	"github.com/tapmix-audio/tapmix-go/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to YAML config file")
	list       = flag.Bool("list", false, "List capturable entities and exit")
	target     = flag.Int("target", 0, "Target entity ID (0 records the system mixdown)")
	outputDir  = flag.String("o", "", "Output directory (overrides config)")
	container  = flag.String("container", "", "Output container: wav or caf (overrides config)")
	encoding   = flag.String("encoding", "", "Sample encoding: float32 or int16 (overrides config)")
	mode       = flag.String("mode", "", "Record mode: mixed, system or mic (overrides config)")
	inputDev   = flag.String("input", "", "Input device name substring (overrides config)")
	backend    = flag.String("backend", "", "Input backend: malgo or portaudio (overrides config)")
	monAddr    = flag.String("monitor", "", "Monitor feed address, e.g. 127.0.0.1:8940 (overrides config)")
	withTUI    = flag.Bool("tui", false, "Show the level meter TUI")
	logFile    = flag.String("log-file", "", "Log file path (default: stderr only)")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	applyOverrides(&cfg)

	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			log.Fatalf("error opening log file: %v", err)
		}
		defer f.Close()
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	// done closes when the session has nothing more to say: either the
	// completion summary arrived or an error force-stopped it.
	done := make(chan struct{})
	var doneOnce sync.Once
	finish := func() { doneOnce.Do(func() { close(done) }) }
	cb := session.Callbacks{
		OnComplete: func(result session.Result) {
			fmt.Printf("Saved %s (%.2fs, %d bytes)\n", result.Path, result.DurationSeconds, result.SizeBytes)
			finish()
		},
		OnError: func(err error) {
			log.Printf("Recording error: %v", err)
			finish()
		},
	}

	var hub *monitor.Hub
	if cfg.MonitorAddr != "" {
		hub = monitor.NewHub(cfg.MonitorAddr)
		if err := hub.Start(); err != nil {
			log.Fatalf("monitor error: %v", err)
		}
		defer hub.Close()
		cb = hub.Callbacks(cb)
	}

	rec := session.New(session.Config{
		OutputDir:      cfg.OutputDir,
		Container:      cfg.Container,
		Encoding:       cfg.Encoding,
		Mode:           cfg.Mode,
		InputBackend:   cfg.InputBackend,
		InputDevice:    cfg.InputDevice,
		ProcessFilters: cfg.ProcessFilters,
	}, cb, session.WithLogger(session.NewStdLogger(*debug)))

	if *list {
		printEntities(rec.Entities())
		return
	}

	if *withTUI {
		runWithTUI(rec, cb)
		return
	}

	if err := rec.Start(int32(*target)); err != nil {
		log.Fatalf("start failed: %v", err)
	}
	log.Printf("Recording... press Ctrl-C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		log.Printf("Stopping...")
	case <-done:
	}
	rec.Stop()
	<-done
}

// applyOverrides copies any set flags over the loaded config.
func applyOverrides(cfg *config.Config) {
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *container != "" {
		cfg.Container = *container
	}
	if *encoding != "" {
		cfg.Encoding = *encoding
	}
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *inputDev != "" {
		cfg.InputDevice = *inputDev
	}
	if *backend != "" {
		cfg.InputBackend = *backend
	}
	if *monAddr != "" {
		cfg.MonitorAddr = *monAddr
	}
}

func printEntities(entities []capture.Entity) {
	fmt.Println("Capturable entities:")
	for _, e := range entities {
		kind := "process"
		if e.Kind == capture.SystemMixdown {
			kind = "system"
		}
		fmt.Printf("  %6d  %-8s %s\n", e.ID, kind, e.Name)
	}
}

// runWithTUI records with the meter TUI in the foreground. The session's
// callbacks feed the TUI; quitting the TUI stops the session.
func runWithTUI(rec *session.Recorder, base session.Callbacks) {
	prog, err := ui.Run(func() { go rec.Stop() })
	if err != nil {
		log.Fatalf("tui error: %v", err)
	}

	cb := session.Callbacks{
		OnLevel: func(level float64) {
			prog.Send(ui.LevelMsg(level))
			if base.OnLevel != nil {
				base.OnLevel(level)
			}
		},
		OnStatus: func(status string) {
			prog.Send(ui.StatusMsg(status))
			if base.OnStatus != nil {
				base.OnStatus(status)
			}
		},
		OnComplete: func(result session.Result) {
			prog.Send(ui.CompleteMsg{
				Path:            result.Path,
				DurationSeconds: result.DurationSeconds,
				SizeBytes:       result.SizeBytes,
			})
			if base.OnComplete != nil {
				base.OnComplete(result)
			}
		},
		OnError: func(err error) {
			prog.Send(ui.ErrorMsg{Err: err})
			if base.OnError != nil {
				base.OnError(err)
			}
		},
	}
	rec.SetCallbacks(cb)

	if err := rec.Start(int32(*target)); err != nil {
		log.Fatalf("start failed: %v", err)
	}

	if _, err := prog.Run(); err != nil {
		log.Printf("tui error: %v", err)
	}
	rec.Stop()
}
