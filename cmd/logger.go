package cmd

import (
	"io"
	"log/slog"
	"strings"

	"github.com/lmittmann/tint"
)

// NewLogger writes JSON records when LOG_FORMAT=json and colourised text
// otherwise.
func NewLogger(cfg Config, w io.Writer) *slog.Logger {
	if strings.EqualFold(strings.TrimSpace(cfg.LogFormat), "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{Level: cfg.LogLevel}))
}
