// Package log provides logging for creditline, built on top of the standard
// slog package.
//
// The ElideHandler wraps any slog.Handler and shortens attribute values
// before they are written:
//   - data: URIs keep their media type and lose their payload, so pages
//     with inline base64 images do not flood the log
//   - any other string longer than MaxValueLen is truncated
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Debug("annotated image", "src", "data:image/png;base64,iVBOR...")
//	// src="data:image/png;base64,…(4096 bytes)"
//
//	slog.SetDefault(logger)
package log
