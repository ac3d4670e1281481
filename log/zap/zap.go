package zap

import (
	"context"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/castore"
)

var _ castore.Logger = ZapLogger{}

// ZapLogger adapts *zap.Logger. zap has no notion of context; FromContext,
// when set, pulls fields such as trace ids out of ctx.
type ZapLogger struct {
	L           *zap.Logger
	FromContext func(context.Context) []zap.Field
}

func (z ZapLogger) Debug(ctx context.Context, msg string, f castore.Fields) {
	z.L.Debug(msg, z.fields(ctx, f)...)
}
func (z ZapLogger) Info(ctx context.Context, msg string, f castore.Fields) {
	z.L.Info(msg, z.fields(ctx, f)...)
}
func (z ZapLogger) Warn(ctx context.Context, msg string, f castore.Fields) {
	z.L.Warn(msg, z.fields(ctx, f)...)
}
func (z ZapLogger) Error(ctx context.Context, msg string, f castore.Fields) {
	z.L.Error(msg, z.fields(ctx, f)...)
}

func (z ZapLogger) fields(ctx context.Context, f castore.Fields) []zap.Field {
	var extra []zap.Field
	if z.FromContext != nil {
		extra = z.FromContext(ctx)
	}
	if len(f) == 0 && len(extra) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f)+len(extra))
	out = append(out, extra...)
	for k, v := range f {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}
