package zap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/castore"
)

type traceKey struct{}

func TestZapLoggerFieldsAndContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := ZapLogger{
		L: zap.New(core),
		FromContext: func(ctx context.Context) []zap.Field {
			if id, ok := ctx.Value(traceKey{}).(string); ok {
				return []zap.Field{zap.String("trace_id", id)}
			}
			return nil
		},
	}
	ctx := context.WithValue(context.Background(), traceKey{}, "abc")

	l.Warn(ctx, "cache read failed", castore.Fields{"key": "app:user:1", "err": errors.New("boom")})

	require.Equal(t, 1, logs.Len())
	e := logs.All()[0]
	assert.Equal(t, "cache read failed", e.Message)
	assert.Equal(t, zapcore.WarnLevel, e.Level)
	m := e.ContextMap()
	assert.Equal(t, "abc", m["trace_id"])
	assert.Equal(t, "app:user:1", m["key"])
	assert.Equal(t, "boom", m["err"])
}
