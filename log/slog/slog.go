package slog

import (
	"context"
	stdslog "log/slog"

	"github.com/unkn0wn-root/castore"
)

var _ castore.Logger = Logger{}

// Logger passes ctx through to the slog handler.
type Logger struct{ L *stdslog.Logger }

func (s Logger) Debug(ctx context.Context, msg string, f castore.Fields) {
	s.log(ctx, stdslog.LevelDebug, msg, f)
}
func (s Logger) Info(ctx context.Context, msg string, f castore.Fields) {
	s.log(ctx, stdslog.LevelInfo, msg, f)
}
func (s Logger) Warn(ctx context.Context, msg string, f castore.Fields) {
	s.log(ctx, stdslog.LevelWarn, msg, f)
}
func (s Logger) Error(ctx context.Context, msg string, f castore.Fields) {
	s.log(ctx, stdslog.LevelError, msg, f)
}

func (s Logger) log(ctx context.Context, lvl stdslog.Level, msg string, f castore.Fields) {
	if !s.L.Enabled(ctx, lvl) {
		return
	}
	s.L.LogAttrs(ctx, lvl, msg, attrs(f)...)
}

func attrs(f castore.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	out := make([]stdslog.Attr, 0, len(f))
	for k, v := range f {
		out = append(out, stdslog.Any(k, v))
	}
	return out
}
