// Package telemetry is the server and client's structured logging and
// metrics surface: a zap logger teed to a rotated JSON file and the
// console (grounded on cppla-moto/utils/log.go), plus a Prometheus
// collector exposing the replication core's runtime counters (grounded
// on runZeroInc-conniver/pkg/exporter and runZeroInc-sockstats/pkg/
// exporter's Collector pattern). Every session-transition and
// packet-drop log line that the teacher's raw server code sent through
// log.Printf goes through this logger instead.
package telemetry

import (
	"fmt"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var levelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// NewLogger builds a *zap.Logger writing JSON lines to a lumberjack-
// rotated file at logPath and human-readable lines to stderr, both
// gated at level (one of debug/info/warn/error).
func NewLogger(level, logPath string) (*zap.Logger, error) {
	enabler, ok := levelMap[level]
	if !ok {
		return nil, fmt.Errorf("telemetry: unknown log level %q", level)
	}
	priority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl >= enabler })

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     timeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	fileSync := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    64,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
	consoleSync := zapcore.Lock(zapcore.AddSync(os.Stderr))

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileSync, priority),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), consoleSync, priority),
	)

	return zap.New(core, zap.AddCaller()), nil
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}
