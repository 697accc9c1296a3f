package whatsapp

import (
	"fmt"
	"log/slog"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// adapts slog to the whatsmeow logger interface
type slogLogger struct {
	inner  *slog.Logger
	module string
}

var _ waLog.Logger = slogLogger{}

func NewLogger(logger *slog.Logger, module string) waLog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return slogLogger{inner: logger.With("module", module), module: module}
}

func (l slogLogger) Errorf(msg string, args ...interface{}) {
	l.inner.Error(fmt.Sprintf(msg, args...))
}

func (l slogLogger) Warnf(msg string, args ...interface{}) {
	l.inner.Warn(fmt.Sprintf(msg, args...))
}

func (l slogLogger) Infof(msg string, args ...interface{}) {
	l.inner.Info(fmt.Sprintf(msg, args...))
}

func (l slogLogger) Debugf(msg string, args ...interface{}) {
	l.inner.Debug(fmt.Sprintf(msg, args...))
}

func (l slogLogger) Sub(module string) waLog.Logger {
	sub := l.module + "/" + module
	return slogLogger{inner: l.inner.With("submodule", module), module: sub}
}
