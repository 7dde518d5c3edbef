// Package log wraps logrus with the formatter and rotating file sink used by
// every smudge-pin binary.
package log

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger = logrus.New()
	once   sync.Once
)

type Fields = logrus.Fields

// Options controls logger construction.
type Options struct {
	Level string // logrus level name, defaults to "info"
	File  string // rotating log file; empty disables the file sink
}

// NewLogger configures the package logger once and returns it.
// Later calls return the already configured logger.
func NewLogger(opts Options) *logrus.Logger {
	once.Do(func() {
		level, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)

		logger.SetFormatter(&formatter.Formatter{
			NoColors:        false,
			TimestampFormat: "02 Jan 06 - 15:04:05",
			HideKeys:        false,
			CallerFirst:     true,
			CustomCallerFormatter: func(f *runtime.Frame) string {
				s := strings.Split(f.Function, ".")
				funcName := s[len(s)-1]
				return fmt.Sprintf(" \x1b[%dm[%s:%d][%s()]", 34, path.Base(f.File), f.Line, funcName)
			},
		})

		writers := []io.Writer{os.Stderr}
		if opts.File != "" && os.Getenv("APP_ENV") != "test" {
			writers = append(writers, &lumberjack.Logger{
				Filename:   opts.File,
				LocalTime:  true,
				Compress:   true,
				MaxSize:    50,
				MaxAge:     14,
				MaxBackups: 3,
			})
		}

		logger.SetOutput(io.MultiWriter(writers...))
		logger.SetReportCaller(true)
	})

	return logger
}

// Logger returns the package logger, configured or not.
func Logger() *logrus.Logger {
	return logger
}

func Debug(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	logger.WithFields(fields).Debug(msg)
}

func Info(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	logger.WithFields(fields).Info(msg)
}

func Warn(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	logger.WithFields(fields).Warn(msg)
}

func Error(fields Fields, msg string) {
	if fields == nil {
		fields = Fields{}
	}
	logger.WithFields(fields).Error(msg)
}
