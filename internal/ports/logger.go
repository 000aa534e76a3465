package ports

import "context"

// Logger is the structured logging port used by the application layer,
// adapters and commands. Analytics packages never log.
// The default implementation is adapters/logger.ZeroLogger.
type Logger interface {
	// Debug logs a message at Debug level.
	Debug(ctx context.Context, msg string, fields ...map[string]interface{})
	// Info logs a message at Info level.
	Info(ctx context.Context, msg string, fields ...map[string]interface{})
	// Warn logs a message at Warning level.
	Warn(ctx context.Context, msg string, fields ...map[string]interface{})
	// Error logs err with a message at Error level.
	Error(ctx context.Context, err error, msg string, fields ...map[string]interface{})
}
