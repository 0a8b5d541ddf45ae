// Package log builds the application's slog loggers.
//
// Every logger wraps its output handler in a RedactingHandler, which masks
// credentials and e-mail addresses. Feedback submissions carry the sender's
// address, and server logs are often shared.
//
//	logger := log.NewLogger(os.Stderr, verbose, false)
//	slog.SetDefault(logger)
package log
