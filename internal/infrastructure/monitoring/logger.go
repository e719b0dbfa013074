package monitoring

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/crowdlens/crowdlens/internal/config"
	"github.com/crowdlens/crowdlens/pkg/constants"
	"github.com/crowdlens/crowdlens/pkg/logger"
)

type zapLogger struct {
	*zap.Logger
}

// NewZapLogger creates the production logger.Logger backed by zap with JSON
// output on stdout.
func NewZapLogger(cfg *config.LogConfig) (logger.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		level,
	)

	return &zapLogger{zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))}, nil
}

func (l *zapLogger) Debug(ctx context.Context, msg string, fields ...logger.Field) {
	l.Logger.Debug(msg, convertFields(ctx, fields)...)
}

func (l *zapLogger) Info(ctx context.Context, msg string, fields ...logger.Field) {
	l.Logger.Info(msg, convertFields(ctx, fields)...)
}

func (l *zapLogger) Warn(ctx context.Context, msg string, fields ...logger.Field) {
	l.Logger.Warn(msg, convertFields(ctx, fields)...)
}

func (l *zapLogger) Error(ctx context.Context, msg string, err error, fields ...logger.Field) {
	l.Logger.Error(msg, convertFields(ctx, append(fields, logger.Err(err)))...)
}

func (l *zapLogger) Fatal(ctx context.Context, msg string, err error, fields ...logger.Field) {
	l.Logger.Fatal(msg, convertFields(ctx, append(fields, logger.Err(err)))...)
}

func (l *zapLogger) WithFields(fields ...logger.Field) logger.Logger {
	return &zapLogger{l.Logger.With(convertFields(context.Background(), fields)...)}
}

func (l *zapLogger) WithComponent(component string) logger.Logger {
	return &zapLogger{l.Logger.With(zap.String("component", component))}
}

func convertFields(ctx context.Context, fields []logger.Field) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields)+2)
	if requestID, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok {
		zapFields = append(zapFields, zap.String("request_id", requestID))
	}
	if traceID, ok := ctx.Value(constants.ContextKeyTraceID).(string); ok {
		zapFields = append(zapFields, zap.String("trace_id", traceID))
	}
	for _, f := range fields {
		zapFields = append(zapFields, zap.Any(f.Key, f.Value))
	}
	return zapFields
}
