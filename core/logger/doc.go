// Package logger provides slog attribute helpers shared by the client
// packages. Helpers return an empty slog.Attr for nil or zero values, so
// call sites never need explicit nil checks:
//
//	log.Warn("request failed",
//		logger.Endpoint(req.Path),
//		logger.Error(err),
//	)
package logger
