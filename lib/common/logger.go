package common

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/rs/zerolog"
)

type LogFormat string

const (
	LogFormatConsole LogFormat = "console"
	LogFormatJSON    LogFormat = "json"
)

// Loggers lists the names of all loggers used by stones
var Loggers = []string{"store", "engine", "codec", "cli"}

// sink is the zerolog logger all named loggers write to
var sink atomic.Pointer[zerolog.Logger]

func init() {
	SetOutput(os.Stderr, LogFormatConsole)
}

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// stonesLogger implements the ILogger interface on top of zerolog
type stonesLogger struct {
	name  string
	level atomic.Int32
}

func (l *stonesLogger) SetLevel(level logger.LogLevel) {
	l.level.Store(int32(level))
}

func (l *stonesLogger) enabled(level logger.LogLevel) bool {
	return logger.LogLevel(l.level.Load()) >= level
}

func (l *stonesLogger) Debugf(format string, args ...interface{}) {
	if l.enabled(logger.DEBUG) {
		l.log(zerolog.DebugLevel, format, args...)
	}
}

func (l *stonesLogger) Infof(format string, args ...interface{}) {
	if l.enabled(logger.INFO) {
		l.log(zerolog.InfoLevel, format, args...)
	}
}

func (l *stonesLogger) Warningf(format string, args ...interface{}) {
	if l.enabled(logger.WARNING) {
		l.log(zerolog.WarnLevel, format, args...)
	}
}

func (l *stonesLogger) Errorf(format string, args ...interface{}) {
	if l.enabled(logger.ERROR) {
		l.log(zerolog.ErrorLevel, format, args...)
	}
}

func (l *stonesLogger) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.log(zerolog.PanicLevel, "%s", msg)
	panic(msg)
}

func (l *stonesLogger) log(level zerolog.Level, format string, args ...interface{}) {
	sink.Load().WithLevel(level).Str("component", l.name).Msgf(format, args...)
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// CreateLogger implements dragonboats logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	l := &stonesLogger{name: pkgName}
	l.SetLevel(logger.INFO)
	return l
}

// SetOutput replaces the destination and format of all loggers
func SetOutput(w io.Writer, format LogFormat) {
	var zl zerolog.Logger
	switch format {
	case LogFormatJSON:
		zl = zerolog.New(w)
	default:
		zl = zerolog.New(newConsoleWriter(w))
	}
	zl = zl.With().Timestamp().Logger()
	sink.Store(&zl)
}

func newConsoleWriter(w io.Writer) zerolog.ConsoleWriter {
	cw := zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.RFC3339}

	cw.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}

	cw.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s=", i)
	}
	return cw
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logger.DEBUG, nil
	case "info", "":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// ParseLogFormat converts a string into a LogFormat
func ParseLogFormat(format string) (LogFormat, error) {
	switch LogFormat(strings.ToLower(strings.TrimSpace(format))) {
	case LogFormatConsole, "":
		return LogFormatConsole, nil
	case LogFormatJSON:
		return LogFormatJSON, nil
	default:
		return "", fmt.Errorf("invalid log format: %s. must be one of console, json", format)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

var factoryOnce sync.Once

// InitLoggers installs the custom logger factory and applies the level and format of config
func InitLoggers(config StoreConfig) error {
	level, err := ParseLogLevel(config.LogLevel)
	if err != nil {
		return err
	}
	format, err := ParseLogFormat(config.LogFormat)
	if err != nil {
		return err
	}

	factoryOnce.Do(func() {
		logger.SetLoggerFactory(CreateLogger)
	})
	SetOutput(os.Stderr, format)

	for _, name := range Loggers {
		logger.GetLogger(name).SetLevel(level)
	}
	return nil
}
