package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes one JSON line per action, tagged with the owning service.
type Logger struct {
	service string
	z       *zap.Logger
}

func New(service string) *Logger {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))))); err != nil {
		_ = level.UnmarshalText([]byte("info"))
	}
	cfg := zap.Config{
		Level:    level,
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:  "message",
			TimeKey:     "timestamp",
			LevelKey:    "level",
			EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
			EncodeLevel: zapcore.CapitalLevelEncoder,
		},
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     true,
		DisableStacktrace: true,
	}
	z, err := cfg.Build()
	if err != nil {
		z = zap.NewNop()
	}
	return wrap(service, z)
}

// NewWithCore is used by tests to capture entries.
func NewWithCore(service string, core zapcore.Core) *Logger {
	return wrap(service, zap.New(core))
}

func Nop() *Logger { return wrap("", zap.NewNop()) }

func wrap(service string, z *zap.Logger) *Logger {
	return &Logger{
		service: service,
		z:       z.With(zap.String("service", service), zap.String("hostname", hostname())),
	}
}

func (l *Logger) With(fields map[string]any) *Logger {
	return &Logger{service: l.service, z: l.z.With(toFields(fields)...)}
}

func (l *Logger) Info(action string, fields map[string]any) {
	l.z.Info(action, append(toFields(fields), zap.String("action", action))...)
}

func (l *Logger) Debug(action string, fields map[string]any) {
	l.z.Debug(action, append(toFields(fields), zap.String("action", action))...)
}

func (l *Logger) Error(action string, err error, fields map[string]any) {
	l.z.Error(action, append(toFields(fields), zap.String("action", action), zap.Error(err))...)
}

func (l *Logger) Sync() { _ = l.z.Sync() }

func toFields(m map[string]any) []zap.Field {
	out := make([]zap.Field, 0, len(m)+2)
	for k, v := range m {
		out = append(out, zap.Any(k, v))
	}
	return out
}

func hostname() string { h, _ := os.Hostname(); return h }
