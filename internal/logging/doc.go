// Package logging provides structured logging for sectionspy.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// context propagation. Active-section trackers run inside a full-screen
// terminal UI, so logs normally go to a file rather than stderr.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/path/to/logs", "DEBUG")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.WithSource("scroll").Debug("section activated", "key", "usage", "previous", "intro")
//
// # Context Propagation
//
//	docLogger := logger.WithDocument("README.md")
//	trackerLogger := docLogger.WithTracker("7f4c...")
//	trackerLogger.WithSource("visibility").Debug("section activated", "key", "intro", "previous", "")
//
// Output:
//
//	{"time":"...","level":"DEBUG","msg":"section activated","document":"README.md","tracker_id":"7f4c...","source":"visibility","key":"intro","previous":""}
//
// # Log Rotation
//
//	logger, err := logging.NewLoggerWithRotation(dir, "INFO", logging.RotationConfig{
//	    MaxSizeMB:  10,
//	    MaxBackups: 3,
//	    Compress:   true,
//	})
//
// Rotated files are named sectionspy.log.1, sectionspy.log.2, and so on,
// where .1 is the most recent backup.
//
// # Testing
//
// Use [NopLogger] to discard all output.
package logging
