// Package logger provides a structured logging interface for ckpthub.
//
// It wraps zerolog with a small API: leveled methods, field-carrying child
// loggers and a global instance configured from config.LoggingConfig.
// Console output is written to stderr; an optional log file receives the
// same events.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.WithField("repo_id", repoID).Info("Upload started")
//
// Tests use NewTestLogger to capture messages or NewNopLogger to discard them.
package logger
