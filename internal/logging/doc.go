// Package logging assembles the structured slog loggers used across
// mediastore components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with asset IDs, folders, and correlation IDs. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
