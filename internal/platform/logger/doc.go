// Package logger configures the process-wide log/slog JSON logger and
// carries request- and task-scoped child loggers through context.Context.
package logger
