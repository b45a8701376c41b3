package report

import (
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

type logging struct {
	logger *zap.Logger
	next   Reporter
}

// Logging returns a Reporter that logs every assertion to logger before handing
// it to next. Failures are logged at warn, passes at debug.
func Logging(logger *zap.Logger, next Reporter) Reporter {
	return &logging{logger: logger, next: next}
}

func (l *logging) log(passed bool, msg string, fields ...zap.Field) {
	if passed {
		l.logger.Debug(msg, fields...)
		return
	}
	l.logger.Warn(msg, fields...)
}

func (l *logging) Equal(actual, expected interface{}, msg string, details ...interface{}) {
	passed := cmp.Equal(actual, expected)
	fields := []zap.Field{zap.Bool("passed", passed), zap.Any("details", details)}
	if !passed {
		fields = append(fields, zap.Any("actual", actual), zap.Any("expected", expected))
	}
	l.log(passed, msg, fields...)
	l.next.Equal(actual, expected, msg, details...)
}

func (l *logging) Ok(cond bool, msg string, details ...interface{}) {
	l.log(cond, msg, zap.Bool("passed", cond), zap.Any("details", details))
	l.next.Ok(cond, msg, details...)
}

func (l *logging) Fail(msg string, details ...interface{}) {
	l.log(false, msg, zap.Bool("passed", false), zap.Any("details", details))
	l.next.Fail(msg, details...)
}

func (l *logging) Pass(msg string) {
	l.log(true, msg, zap.Bool("passed", true))
	l.next.Pass(msg)
}

func (l *logging) End() {
	l.logger.Debug("run ended")
	l.next.End()
}
