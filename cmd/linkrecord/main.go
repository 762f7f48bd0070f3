package main

import (
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/lh2uav/groundlink/internal/config"
	"github.com/lh2uav/groundlink/internal/ingest"
	"github.com/lh2uav/groundlink/internal/observability"
	"github.com/lh2uav/groundlink/internal/reliable"
	"github.com/lh2uav/groundlink/internal/server"
	"github.com/lh2uav/groundlink/internal/store"
	"github.com/lh2uav/groundlink/internal/transport"
)

// linkrecord is the headless field recorder: it ingests telemetry from
// the gateway and writes the CSV capture on shutdown. No screen, no
// commands.
func main() {
	var (
		portName = flag.String("port", "", "serial port")
		baud     = flag.Int("baud", 115200, "baud rate")
		outPath  = flag.String("out", "", "output CSV path (defaults to timestamped name)")
		httpAddr = flag.String("http", "", "serve the status API on this address")
	)
	flag.Parse()

	observability.InitLogger("linkrecord")

	if *portName == "" {
		log.Fatal().Msg("missing -port")
	}

	link, err := transport.OpenSerial(*portName, *baud)
	if err != nil {
		log.Fatal().Err(err).Msg("open serial")
	}
	defer link.Close()

	settings := config.Default()
	st := store.New(settings.StoreOptions())
	tr := reliable.New()

	sink := func(line string) {
		log.Info().Str("console", line).Msg("gateway")
	}
	loop := ingest.New(link, st, tr, sink, log.Logger)
	go loop.Run()

	if *httpAddr != "" {
		srv := server.New(st, tr)
		go func() {
			if err := srv.Run(*httpAddr); err != nil {
				log.Error().Err(err).Msg("status api stopped")
			}
		}()
	}

	log.Info().Str("port", *portName).Int("baud", *baud).Msg("recording")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	path := *outPath
	if path == "" {
		path = filepath.Join(".", st.DefaultCSVName())
	}
	if err := st.ExportCSV(path); err != nil {
		log.Fatal().Err(err).Msg("export failed")
	}
	log.Info().Str("path", path).Int("points", st.RecPoints()).
		Float64("duration_s", st.RecDuration()).Msg("capture saved")
}
