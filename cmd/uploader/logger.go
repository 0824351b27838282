package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	// Packages
	serverlog "github.com/mutablelogic/go-server/pkg/logger"
	uploader "github.com/mutablelogic/go-uploader"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// logger writes coordinator messages through the server log handlers:
// colourised on a terminal, plain text otherwise
type logger struct {
	*slog.Logger
	level *slog.LevelVar
}

var _ uploader.Logger = (*logger)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newLogger(w io.Writer, level slog.Level) *logger {
	self := &logger{level: new(slog.LevelVar)}
	self.level.Set(level)

	var handler slog.Handler
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		handler = serverlog.NewTermHandler(w, self.level)
	} else {
		handler = serverlog.NewLevelHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}), self.level)
	}
	self.Logger = slog.New(handler)
	return self
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// SetLevel changes the minimum level of messages written
func (l *logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

func (l *logger) Print(ctx context.Context, args ...any) {
	l.InfoContext(ctx, fmt.Sprint(args...))
}

func (l *logger) Printf(ctx context.Context, format string, args ...any) {
	l.InfoContext(ctx, fmt.Sprintf(format, args...))
}

func (l *logger) Debugf(ctx context.Context, format string, args ...any) {
	l.DebugContext(ctx, fmt.Sprintf(format, args...))
}
