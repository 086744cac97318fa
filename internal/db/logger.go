package db

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// slogWriter feeds gorm's formatted log lines into slog.
type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Printf(format string, args ...interface{}) {
	w.logger.Warn(fmt.Sprintf(format, args...))
}

// newGormLogger reports slow queries and errors through l. Missing rows are
// an expected outcome of lookups and are not logged.
func newGormLogger(l *slog.Logger) logger.Interface {
	if l == nil {
		l = slog.Default()
	}
	return logger.New(slogWriter{logger: l.With("component", "gorm")}, logger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
