package composables

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/munigov/munigov-sdk/pkg/constants"
)

var ErrNoLogger = errors.New("logger not found")

// WithLogger returns a new context carrying the given log entry.
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// UseLogger returns the logger from the context.
// If no logger is attached, a default logger entry is returned.
func UseLogger(ctx context.Context) *logrus.Entry {
	logger, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry)
	if !ok {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return logger
}
