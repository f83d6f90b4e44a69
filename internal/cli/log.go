package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// logTimeFormat stamps log lines to the hundredth of a second.
const logTimeFormat = "15:04:05.00"

// newLogger returns a logger writing to w at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Level:           level,
	})
}

// stage times one step of a command. Finish logs the step at debug level
// with its elapsed time.
type stage struct {
	logger *log.Logger
	name   string
	start  time.Time
}

func startStage(l *log.Logger, name string) *stage {
	return &stage{logger: l, name: name, start: time.Now()}
}

// Finish logs the stage name, keyvals and "elapsed".
func (s *stage) Finish(keyvals ...any) time.Duration {
	d := time.Since(s.start)
	s.logger.Debug(s.name, append(keyvals, "elapsed", d.Round(time.Millisecond))...)
	return d
}

type loggerKey struct{}

// withLogger attaches l to ctx for the command's RunE.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger attached by withLogger, falling back
// to log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
