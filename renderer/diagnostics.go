package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sagitario/engine/gpu"
)

// SeverityLevel maps a driver message severity onto a log level. The
// highest bit present wins.
func SeverityLevel(severity gpu.DebugSeverity) slog.Level {
	switch {
	case severity&gpu.SeverityError != 0:
		return slog.LevelError
	case severity&gpu.SeverityWarning != 0:
		return slog.LevelWarn
	case severity&gpu.SeverityInfo != 0:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// diagnosticsSink returns the callback registered with the driver. It only
// formats and forwards; a panic inside the logger is swallowed so it never
// unwinds into driver code.
func diagnosticsSink(log *slog.Logger) gpu.DebugCallback {
	return func(msg gpu.DebugMessage) {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "diagnostics sink: dropped message after panic: %v\n", r)
			}
		}()

		attrs := []slog.Attr{slog.String("type", msg.Types.String())}
		if msg.MessageIDName != "" {
			attrs = append(attrs, slog.String("id", msg.MessageIDName))
		}
		log.LogAttrs(context.Background(), SeverityLevel(msg.Severity), msg.Message, attrs...)
	}
}

func debugMessengerCreateInfo(log *slog.Logger) gpu.DebugMessengerCreateInfo {
	return gpu.DebugMessengerCreateInfo{
		Severities: gpu.SeverityAll,
		Types:      gpu.MessageTypeAll,
		Callback:   diagnosticsSink(log.With(slog.String("source", "driver"))),
	}
}
