package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tbourn/bibion-backend/internal/sysutil"
)

// LogOptions controls the process-wide zerolog logger.
type LogOptions struct {
	Level   string
	Pretty  bool
	File    string // optional, rotated by lumberjack
	Service string
	Version string
}

// stdout is swapped in tests.
var stdout io.Writer = os.Stdout

// SetupLogger configures log.Logger and the global level. The returned
// closer flushes the rotating file, if any.
func SetupLogger(opts LogOptions) io.Closer {
	sysutil.SetLogLevel(opts.Level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var console io.Writer = stdout
	if opts.Pretty {
		console = zerolog.ConsoleWriter{Out: stdout, TimeFormat: time.RFC3339}
	}

	var closer io.Closer = nopCloser{}
	out := console
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(console, lj)
		closer = lj
	}

	log.Logger = zerolog.New(out).With().
		Timestamp().
		Str("service", opts.Service).
		Str("version", opts.Version).
		Logger()
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
