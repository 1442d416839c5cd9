package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type LogLevel int

const (
	NoneLevel  LogLevel = iota
	ErrorLevel LogLevel = iota
	InfoLevel  LogLevel = iota
	TraceLevel LogLevel = iota
)

var (
	Level LogLevel = NoneLevel

	output = newWriter()
	base   = zerolog.New(output).With().Timestamp().Logger()

	TraceLog = base.With().Str("level", "trace").Logger()
	InfoLog  = base.With().Str("level", "info").Logger()
	ErrorLog = base.With().Str("level", "error").Logger()
)

func newWriter() io.Writer {
	if os.Getenv("BOLT_DRIVER_LOG_PRETTY") == "" {
		return os.Stderr
	}
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
}

func SetLevel(level string) {
	switch strings.ToLower(level) {
	case "trace":
		Level = TraceLevel
	case "info":
		Level = InfoLevel
	case "error":
		Level = ErrorLevel
	default:
		Level = NoneLevel
	}
}

func Trace(args ...interface{}) {
	if Level >= TraceLevel {
		TraceLog.Trace().Msg(fmt.Sprint(args...))
	}
}

func Tracef(msg string, args ...interface{}) {
	if Level >= TraceLevel {
		TraceLog.Trace().Msg(fmt.Sprintf(msg, args...))
	}
}

func Info(args ...interface{}) {
	if Level >= InfoLevel {
		InfoLog.Info().Msg(fmt.Sprint(args...))
	}
}

func Infof(msg string, args ...interface{}) {
	if Level >= InfoLevel {
		InfoLog.Info().Msg(fmt.Sprintf(msg, args...))
	}
}

func Error(args ...interface{}) {
	if Level >= ErrorLevel {
		ErrorLog.Error().Msg(fmt.Sprint(args...))
	}
}

func Errorf(msg string, args ...interface{}) {
	if Level >= ErrorLevel {
		ErrorLog.Error().Msg(fmt.Sprintf(msg, args...))
	}
}

func Fatal(args ...interface{}) {
	if Level >= ErrorLevel {
		ErrorLog.Error().Msg(fmt.Sprint(args...))
		os.Exit(1)
	}
}

func Fatalf(msg string, args ...interface{}) {
	if Level >= ErrorLevel {
		ErrorLog.Error().Msg(fmt.Sprintf(msg, args...))
		os.Exit(1)
	}
}

func Panic(args ...interface{}) {
	if Level >= ErrorLevel {
		msg := fmt.Sprint(args...)
		ErrorLog.Error().Msg(msg)
		panic(msg)
	}
}

func Panicf(msg string, args ...interface{}) {
	if Level >= ErrorLevel {
		formatted := fmt.Sprintf(msg, args...)
		ErrorLog.Error().Msg(formatted)
		panic(formatted)
	}
}
