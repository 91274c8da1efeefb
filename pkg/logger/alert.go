package logger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"trading-journal/pkg/common"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AlertSink receives formatted alert messages. pkg/telegram.Notifier satisfies it.
type AlertSink interface {
	Notify(ctx context.Context, message string) error
}

// alertCore tees entries flagged with common.KEY_LOG_HOOK_SEND_ALERT to a sink.
type alertCore struct {
	zapcore.Core
	sink     AlertSink
	minLevel zapcore.Level
	fields   []zapcore.Field
	timeout  time.Duration
}

// WithAlerts returns a logger that also forwards flagged entries at or above
// minLevel to sink. Delivery is asynchronous and failures are dropped.
func (l *Logger) WithAlerts(sink AlertSink, minLevel zapcore.Level) *Logger {
	if sink == nil {
		return l
	}
	return &Logger{l.Logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &alertCore{Core: core, sink: sink, minLevel: minLevel, timeout: 10 * time.Second}
	}))}
}

func (a *alertCore) With(fields []zapcore.Field) zapcore.Core {
	return &alertCore{
		Core:     a.Core.With(fields),
		sink:     a.sink,
		minLevel: a.minLevel,
		fields:   append(append([]zapcore.Field{}, a.fields...), fields...),
		timeout:  a.timeout,
	}
}

func (a *alertCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if a.Enabled(entry.Level) {
		return checked.AddCore(entry, a)
	}
	return checked
}

func (a *alertCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Level >= a.minLevel && hasAlertFlag(fields) {
		message := formatAlert(entry, append(append([]zapcore.Field{}, a.fields...), fields...))
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
			defer cancel()
			_ = a.sink.Notify(ctx, message)
		}()
	}
	return a.Core.Write(entry, fields)
}

func hasAlertFlag(fields []zapcore.Field) bool {
	for _, f := range fields {
		if f.Key == common.KEY_LOG_HOOK_SEND_ALERT && f.Type == zapcore.BoolType && f.Integer == 1 {
			return true
		}
	}
	return false
}

func formatAlert(entry zapcore.Entry, fields []zapcore.Field) string {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		if f.Key == common.KEY_LOG_HOOK_SEND_ALERT {
			continue
		}
		f.AddTo(enc)
	}

	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "🚨 *%s Alert*\n\n*Message:* %s\n", entry.Level.CapitalString(), entry.Message)
	if len(keys) > 0 {
		b.WriteString("\n*Fields:*\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "• %s: %v\n", k, enc.Fields[k])
		}
	}
	fmt.Fprintf(&b, "\n*Time:* %s", entry.Time.UTC().Format(time.RFC3339))
	return b.String()
}

// ErrorContextWithAlert logs at error level and flags the entry for the alert sink.
func (l *Logger) ErrorContextWithAlert(ctx context.Context, msg string, fields ...zap.Field) {
	l.FromContext(ctx).Logger.Error(msg, append(fields, zap.Bool(common.KEY_LOG_HOOK_SEND_ALERT, true))...)
}
