// Package logging builds slog loggers for the CLI: a console handler
// that keeps lines greppable and a JSON handler for machine ingestion,
// both selected through the config's logging section. Attr helpers keep
// call sites terse and a no-op logger backs library code that was given
// none.
package logging
