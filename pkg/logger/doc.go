// Package logger provides structured logging for igharvest.
//
// It wraps zerolog behind a small Logger interface so pipeline stages can be
// handed a logger (or a TestLogger in tests) instead of reaching for a global.
//
// Basic usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.WithField("topic", topic).Info("harvest started")
//
// Stage code usually carries a scoped logger:
//
//	log := logger.GetLogger().WithField("stage", "enrichment")
//	log.InfoWithFields("profile fetched", map[string]interface{}{
//	    "username": username,
//	    "has_email": record.Email != "",
//	})
//
// Configuration:
//   - Level: debug, info, warn, error
//   - File: path to a log file; when set, output goes to both console and file
package logger
