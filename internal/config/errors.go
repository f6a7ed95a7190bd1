package config

import "errors"

// Configuration validation errors returned by Config.Validate and
// Config.ValidateServer. Callers match them with errors.Is.
var (
	// ErrNoInput is returned when the annotate command gets no HTML file.
	ErrNoInput = errors.New("no input specified: provide at least one HTML file")

	// ErrInvalidConcurrency is returned when the worker count is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrUnknownReportFormat is returned for a report format other than
	// text, json or markdown.
	ErrUnknownReportFormat = errors.New("unknown report format: use text, json or markdown")

	// ErrConflictingOutput is returned when --in-place and --output-dir are
	// both given.
	ErrConflictingOutput = errors.New("conflicting output: --in-place and --output-dir cannot be used together")

	// ErrInvalidPosition is returned when the label position is not one of
	// the four corners.
	ErrInvalidPosition = errors.New("invalid position: use bottom-right, bottom-left, top-right or top-left")

	// ErrNoListenAddress is returned when the server has no address to bind.
	ErrNoListenAddress = errors.New("no listen address specified")

	// ErrInvalidRoot is returned when the served directory does not exist.
	ErrInvalidRoot = errors.New("invalid root: not a directory")

	// ErrInvalidBaseURL is returned when the base URL cannot be parsed or is
	// not absolute.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute URL")
)
