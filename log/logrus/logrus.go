package logrus

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/castore"
)

var _ castore.Logger = LogrusLogger{}

// LogrusLogger attaches ctx to every entry so logrus hooks can read
// request-scoped values from it.
type LogrusLogger struct{ E *logrus.Entry }

func (l LogrusLogger) entry(ctx context.Context, f castore.Fields) *logrus.Entry {
	return l.E.WithContext(ctx).WithFields(logrus.Fields(f))
}

func (l LogrusLogger) Debug(ctx context.Context, msg string, f castore.Fields) {
	if !l.E.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	l.entry(ctx, f).Debug(msg)
}
func (l LogrusLogger) Info(ctx context.Context, msg string, f castore.Fields) {
	l.entry(ctx, f).Info(msg)
}
func (l LogrusLogger) Warn(ctx context.Context, msg string, f castore.Fields) {
	l.entry(ctx, f).Warn(msg)
}
func (l LogrusLogger) Error(ctx context.Context, msg string, f castore.Fields) {
	l.entry(ctx, f).Error(msg)
}
