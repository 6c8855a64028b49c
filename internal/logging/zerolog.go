package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewZerolog builds the logger handed to the infrastructure managers. It
// writes uncoloured console lines to w and, when state is set, stamps each
// event with its attributes.
func NewZerolog(w io.Writer, level string, state func(e *zerolog.Event)) zerolog.Logger {
	// same names and fallback as the slog side
	lvl, err := zerolog.ParseLevel(strings.ToLower(parseLevel(level).String()))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}).Level(lvl).With().Timestamp().Logger()

	if state != nil {
		logger = logger.Hook(zerolog.HookFunc(func(e *zerolog.Event, _ zerolog.Level, _ string) {
			state(e)
		}))
	}
	return logger
}
