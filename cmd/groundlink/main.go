package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/lh2uav/groundlink/internal/command"
	"github.com/lh2uav/groundlink/internal/config"
	"github.com/lh2uav/groundlink/internal/ingest"
	"github.com/lh2uav/groundlink/internal/observability"
	"github.com/lh2uav/groundlink/internal/reliable"
	"github.com/lh2uav/groundlink/internal/server"
	"github.com/lh2uav/groundlink/internal/store"
	"github.com/lh2uav/groundlink/internal/transport"
	"github.com/lh2uav/groundlink/internal/tui"
)

func main() {
	var (
		portName  = flag.String("port", "", "serial port (defaults to last used)")
		baud      = flag.Int("baud", 0, "baud rate (defaults to last used)")
		cfgPath   = flag.String("config", "", "settings file path")
		httpAddr  = flag.String("http", "", "serve the status API on this address (e.g. :9200)")
		listPorts = flag.Bool("list", false, "list serial ports and exit")
	)
	flag.Parse()

	if *listPorts {
		ports, err := transport.ListPorts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "groundlink: %v\n", err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	// The TUI owns the terminal; keep structured logs out of it.
	observability.InitLoggerTo("groundlink", io.Discard)

	path := *cfgPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "groundlink: %v\n", err)
			os.Exit(1)
		}
	}
	settings, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "groundlink: %v\n", err)
		os.Exit(1)
	}
	if *portName != "" {
		settings.LastPort = *portName
	}
	if *baud > 0 {
		settings.Baud = *baud
	}
	if settings.LastPort == "" {
		fmt.Fprintln(os.Stderr, "groundlink: no serial port; pass -port or run -list")
		os.Exit(1)
	}

	link, err := transport.OpenSerial(settings.LastPort, settings.Baud)
	if err != nil {
		fmt.Fprintf(os.Stderr, "groundlink: %v\n", err)
		os.Exit(1)
	}
	defer link.Close()

	st := store.New(settings.StoreOptions())
	tr := reliable.New()
	tr.SetGate(settings.WaitAckGate)

	logBuf := tui.NewLogBuffer(tui.MaxLogLines)
	loop := ingest.New(link, st, tr, logBuf.Append, log.Logger)
	connInfo := fmt.Sprintf("%s @ %d", settings.LastPort, settings.Baud)
	model := tui.New(loop, st, tr, settings, connInfo, logBuf)

	go loop.Run()

	if *httpAddr != "" {
		srv := server.New(st, tr)
		go func() {
			if err := srv.Run(*httpAddr); err != nil {
				log.Error().Err(err).Msg("status api stopped")
			}
		}()
	}

	// Ask for link statistics once connected, as the desktop host does.
	if err := loop.Send(command.LoraStat()); err != nil {
		log.Warn().Err(err).Msg("initial lora stat failed")
	}

	prog := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "groundlink: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(path, model.Settings()); err != nil {
		fmt.Fprintf(os.Stderr, "groundlink: save settings: %v\n", err)
	}
}
