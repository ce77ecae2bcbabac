package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// ParseLevel converts a string log level to slog.Level
// Valid levels: debug, info, warn, error
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, nil
	}
}

// getLevelColor returns ANSI color code for a log level
func getLevelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "\033[31m" // Red for error
	case level >= slog.LevelWarn:
		return "\033[33m" // Yellow for warn
	case level >= slog.LevelInfo:
		return "\033[36m" // Cyan for info
	default:
		return "\033[90m" // Gray for debug
	}
}

// isTerminal checks if the file is a terminal
func isTerminal(file *os.File) bool {
	if fileInfo, err := file.Stat(); err == nil {
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// textHandler formats logs as LEVEL message key=value pairs, with ANSI
// colors when writing to a terminal and a timestamp prefix in verbose mode.
type textHandler struct {
	handler  slog.Handler
	writer   io.Writer
	useColor bool
	verbose  bool
}

func (h *textHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *textHandler) Handle(ctx context.Context, record slog.Record) error {
	var buf strings.Builder

	if h.verbose && !record.Time.IsZero() {
		buf.WriteString(record.Time.Format("2006/01/02 15:04:05 "))
	}

	levelStr := record.Level.String()
	if levelStr == "WARNING" {
		levelStr = "WARN"
	}
	if h.useColor {
		buf.WriteString(getLevelColor(record.Level))
		buf.WriteString(strings.ToUpper(levelStr))
		buf.WriteString("\033[0m")
	} else {
		buf.WriteString(strings.ToUpper(levelStr))
	}
	buf.WriteString(" ")
	buf.WriteString(record.Message)

	record.Attrs(func(a slog.Attr) bool {
		buf.WriteString(" ")
		buf.WriteString(a.Key)
		buf.WriteString("=")
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")

	_, err := h.writer.Write([]byte(buf.String()))
	return err
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &textHandler{
		handler:  h.handler.WithAttrs(attrs),
		writer:   h.writer,
		useColor: h.useColor,
		verbose:  h.verbose,
	}
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	return &textHandler{
		handler:  h.handler.WithGroup(name),
		writer:   h.writer,
		useColor: h.useColor,
		verbose:  h.verbose,
	}
}

// Init initializes the logger with the specified level and format.
// Color support is enabled automatically for terminal output.
// format: "simple" (level + message), "verbose" (time + level + message),
// or any other value for the default slog text format.
func Init(level slog.Level, output *os.File, format string) {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Normalize WARNING to WARN
			if a.Key == slog.LevelKey {
				if a.Value.String() == "WARNING" {
					return slog.String("level", "WARN")
				}
			}
			return a
		},
	}

	baseHandler := slog.NewTextHandler(output, opts)

	var handler slog.Handler = baseHandler
	switch format {
	case "simple", "":
		handler = &textHandler{
			handler:  baseHandler,
			writer:   output,
			useColor: isTerminal(output),
		}
	case "verbose":
		handler = &textHandler{
			handler:  baseHandler,
			writer:   output,
			useColor: isTerminal(output),
			verbose:  true,
		}
	}

	defaultLogger = slog.New(handler)

	// All libraries logging through slog pick this up
	slog.SetDefault(defaultLogger)
}

// OpenLogFile opens or creates a log file at the specified path
// Returns the file handle and a cleanup function, or an error
func OpenLogFile(path string) (*os.File, func(), error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		file.Close()
	}

	return file, cleanup, nil
}

// GetLogger returns the default slog logger
func GetLogger() *slog.Logger {
	if defaultLogger == nil {
		Init(slog.LevelInfo, os.Stderr, "simple")
	}
	return defaultLogger
}
