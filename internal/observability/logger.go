package observability

import (
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"gitnotifier/pkg/errors"
	"gitnotifier/pkg/models"
)

// Logger is the project-wide logging type
type Logger = zerolog.Logger

// Options configures the logger
type Options struct {
	Level      string
	Format     string
	Component  string
	Writer     io.Writer
	WithCaller bool
}

// FromConfig builds Options from the log section of the configuration
func FromConfig(cfg models.Log) Options {
	return Options{
		Level:  strings.ToLower(cfg.Level),
		Format: strings.ToLower(cfg.Format),
	}
}

var (
	once   sync.Once
	root   atomic.Pointer[zerolog.Logger]
	inited atomic.Bool
)

// Init builds the process-wide root logger. Only the first call has an effect.
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		log := New(opt)
		root.Store(&log)
		inited.Store(true)
	})
}

// New builds a logger without touching the root logger. Output goes to
// stderr unless a writer is given, so stdout stays free for commit reports.
func New(opt Options) Logger {
	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}
	if opt.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(w).Level(parseLevel(opt.Level)).With().Timestamp()
	if opt.Component != "" {
		ctx = ctx.Str("component", opt.Component)
	}

	log := ctx.Logger()
	if opt.WithCaller {
		log = log.With().Caller().Logger()
	}
	return log
}

// Get returns the root logger, initialising it with defaults if needed
func Get() *Logger {
	if !inited.Load() {
		Init(Options{Level: "info", Format: "console"})
	}
	return root.Load()
}

// Named returns a child logger with a component field
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	ll := Get().With().Str("component", component).Logger()
	return &ll
}

// WithCycle returns a child logger tagged with a fresh cycle id
func WithCycle(log Logger) (Logger, string) {
	id := uuid.NewString()
	return log.With().Str("cycle_id", id).Logger(), id
}

// LogError logs err with the code and context of an AppError when it is one
func LogError(log *Logger, err error, msg string) {
	event := log.Error().Err(err)

	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		event = event.Str("code", string(appErr.Code)).Str("severity", string(appErr.Severity))
		for k, v := range appErr.Context {
			event = event.Interface(k, v)
		}
	}

	event.Msg(msg)
}

// parseLevel supports string-only levels
func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}
