package logging

import (
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps both slog and zap loggers. Messages are emitted through zap;
// the slog logger shares its level and output for code that wants a
// *slog.Logger.
type Logger struct {
	slog *slog.Logger
	zap  *zap.Logger
}

// Config holds logging configuration
type Config struct {
	Level     string
	Format    string // "json" or "console"
	Output    string // "stdout" or "stderr"
	AddCaller bool
	AddStack  bool
}

// DefaultConfig logs info and above as JSON to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
		Output: "stderr",
	}
}

// NewLogger creates a new structured logger
func NewLogger(config Config) (*Logger, error) {
	if config.Format == "" {
		config.Format = "json"
	}
	if config.Output == "" {
		config.Output = "stderr"
	}

	slogHandler := slog.NewJSONHandler(slogWriter(config.Output), &slog.HandlerOptions{
		Level: parseSlogLevel(config.Level),
	})

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = parseZapLevel(config.Level)
	zapConfig.Encoding = config.Format
	zapConfig.OutputPaths = []string{config.Output}
	zapConfig.ErrorOutputPaths = []string{config.Output}
	zapConfig.DisableCaller = !config.AddCaller
	zapConfig.DisableStacktrace = !config.AddStack
	if config.Format == "console" {
		zapConfig.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{
		slog: slog.New(slogHandler),
		zap:  zapLogger,
	}, nil
}

// NewFromZap wraps an existing zap logger.
func NewFromZap(z *zap.Logger) *Logger {
	return &Logger{
		slog: slog.New(slog.DiscardHandler),
		zap:  z,
	}
}

// NewNop returns a logger that drops everything.
func NewNop() *Logger {
	return NewFromZap(zap.NewNop())
}

func slogWriter(output string) io.Writer {
	if output == "stdout" {
		return os.Stdout
	}
	return os.Stderr
}

// parseSlogLevel parses slog level from string
func parseSlogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// parseZapLevel parses zap level from string
func parseZapLevel(level string) zap.AtomicLevel {
	switch level {
	case "debug":
		return zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
}

// WithSystem tags every entry with the fuzzy system name
func (l *Logger) WithSystem(system string) *Logger {
	return &Logger{
		slog: l.slog.With("system", system),
		zap:  l.zap.With(zap.String("system", system)),
	}
}

// WithTraceID adds trace ID to logger context
func (l *Logger) WithTraceID(traceID string) *Logger {
	if traceID == "" {
		return l
	}
	return &Logger{
		slog: l.slog.With("trace_id", traceID),
		zap:  l.zap.With(zap.String("trace_id", traceID)),
	}
}

// WithFields adds fields to logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	slogAttrs := make([]any, 0, len(fields)*2)
	zapFields := make([]zap.Field, 0, len(fields))
	for _, key := range keys {
		slogAttrs = append(slogAttrs, key, fields[key])
		zapFields = append(zapFields, zap.Any(key, fields[key]))
	}

	return &Logger{
		slog: l.slog.With(slogAttrs...),
		zap:  l.zap.With(zapFields...),
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.zap.Debug(msg, convertToZapFields(args)...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...interface{}) {
	l.zap.Info(msg, convertToZapFields(args)...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.zap.Warn(msg, convertToZapFields(args)...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...interface{}) {
	l.zap.Error(msg, convertToZapFields(args)...)
}

// convertToZapFields converts interface{} args to zap.Field
func convertToZapFields(args []interface{}) []zap.Field {
	if len(args) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i < len(args)-1; i += 2 {
		if key, ok := args[i].(string); ok {
			if err, ok := args[i+1].(error); ok {
				fields = append(fields, zap.NamedError(key, err))
				continue
			}
			fields = append(fields, zap.Any(key, args[i+1]))
		}
	}
	return fields
}

// LogCompute logs one inference pass
func (l *Logger) LogCompute(system string, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"system":      system,
		"duration_ms": float64(duration.Nanoseconds()) / 1e6,
	}

	logger := l.WithFields(fields)
	if err != nil {
		logger.Warn("Inference failed", "error", err)
		return
	}
	logger.Debug("Inference completed")
}

// LogClamp logs an input pulled back into its universe
func (l *Logger) LogClamp(system, variable string, requested, applied float64) {
	fields := map[string]interface{}{
		"system":    system,
		"variable":  variable,
		"requested": requested,
		"applied":   applied,
	}

	l.WithFields(fields).Warn("Input clamped to universe")
}

// LogNoRuleFired logs an output without any fired rule
func (l *Logger) LogNoRuleFired(system, variable string) {
	fields := map[string]interface{}{
		"system":   system,
		"variable": variable,
	}

	l.WithFields(fields).Warn("No rule fired")
}

// LogCycle logs one control-loop cycle
func (l *Logger) LogCycle(cycle int, outputs map[string]float64, fallbacks []string, duration time.Duration) {
	fields := map[string]interface{}{
		"cycle":       cycle,
		"outputs":     outputs,
		"duration_ms": float64(duration.Nanoseconds()) / 1e6,
	}
	if len(fallbacks) > 0 {
		fields["fallbacks"] = fallbacks
	}

	l.WithFields(fields).Info("Control cycle completed")
}

// LogBreakerState logs a circuit breaker transition
func (l *Logger) LogBreakerState(name, from, to string) {
	fields := map[string]interface{}{
		"breaker": name,
		"from":    from,
		"to":      to,
	}

	l.WithFields(fields).Warn("Circuit breaker state changed")
}

// Sync syncs the logger
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// GetSlog returns the slog logger
func (l *Logger) GetSlog() *slog.Logger {
	return l.slog
}

// GetZap returns the zap logger
func (l *Logger) GetZap() *zap.Logger {
	return l.zap
}
