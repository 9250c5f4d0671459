package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

var console atomic.Pointer[slog.Logger]

func init() {
	console.Store(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// Setup installs the console logger on w. Colour is used only when w is
// a terminal.
func Setup(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}

	logger := slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}))
	console.Store(logger)
	return logger
}

// Logger returns the console logger.
func Logger() *slog.Logger {
	return console.Load()
}

// Info logs to the console at info level.
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Warn logs to the console at warn level.
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

func debugf(format string, args ...any) {
	logger := Logger()
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	logger.Debug(fmt.Sprintf(format, args...))
}
