package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the process-wide logger with console output.
func InitLogger(app string) zerolog.Logger {
	return initLogger(app, os.Stderr)
}

// InitLoggerTo is InitLogger with an explicit sink; the TUI uses it to
// keep console writes off the alternate screen.
func InitLoggerTo(app string, out io.Writer) zerolog.Logger {
	return initLogger(app, out)
}

func initLogger(app string, out io.Writer) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
