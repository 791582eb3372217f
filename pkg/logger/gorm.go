package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// maxStatementLength caps the SQL text written per log entry.
const maxStatementLength = 1000

// callerErrors are translated by the repositories into not-found, conflict or
// validation errors and logged there with business context.
var callerErrors = []error{
	gorm.ErrRecordNotFound,
	gorm.ErrDuplicatedKey,
	gorm.ErrForeignKeyViolated,
}

// GormLogger writes GORM statements to zap with the request id of the context.
type GormLogger struct {
	log           *zap.Logger
	slowThreshold time.Duration
	level         gormlogger.LogLevel
}

// NewGormLoggerWithConfig maps the application log level to a GORM level.
// debug logs every statement, warn only slow ones, error only failures.
func NewGormLoggerWithConfig(zapLogger *zap.Logger, slowQuerySeconds float64, logLevel string) *GormLogger {
	level := gormlogger.Warn
	switch logLevel {
	case "silent":
		level = gormlogger.Silent
	case "error":
		level = gormlogger.Error
	case "info", "debug":
		level = gormlogger.Info
	}

	return &GormLogger{
		log:           zapLogger.Named("db"),
		slowThreshold: time.Duration(slowQuerySeconds * float64(time.Second)),
		level:         level,
	}
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		WithContext(ctx, l.log).Sugar().Infof(msg, data...)
	}
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		WithContext(ctx, l.log).Sugar().Warnf(msg, data...)
	}
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		WithContext(ctx, l.log).Sugar().Errorf(msg, data...)
	}
}

// Trace implements gormlogger.Interface. Failures are logged at error level unless
// they are caller errors, slow statements at warn, everything else at info.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !isCallerError(err)
	slow := l.slowThreshold > 0 && elapsed > l.slowThreshold

	switch {
	case failed && l.level >= gormlogger.Error:
		WithContext(ctx, l.log).Error("db statement failed", append(statementFields(fc, elapsed), zap.Error(err))...)
	case !failed && slow && l.level >= gormlogger.Warn:
		WithContext(ctx, l.log).Warn("db slow statement",
			append(statementFields(fc, elapsed), zap.Duration("threshold", l.slowThreshold))...)
	case !failed && l.level >= gormlogger.Info:
		WithContext(ctx, l.log).Info("db statement", statementFields(fc, elapsed)...)
	}
}

func statementFields(fc func() (string, int64), elapsed time.Duration) []zap.Field {
	sql, rows := fc()

	fields := make([]zap.Field, 0, 4)
	if len(sql) > maxStatementLength {
		sql = sql[:maxStatementLength] + "..."
		fields = append(fields, zap.Bool("statement_truncated", true))
	}
	return append(fields,
		zap.String("statement", sql),
		zap.Int64("rows_affected", rows),
		zap.Float64("elapsed_ms", float64(elapsed.Microseconds())/1000),
	)
}

func isCallerError(err error) bool {
	for _, target := range callerErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
