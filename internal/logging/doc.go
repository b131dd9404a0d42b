// Package logging centralizes slog construction for scribe.
//
// It provides console and JSON handlers, standardized attribute helpers,
// and a throttled progress/ETA reporter for long dispatch runs. Components
// receive loggers tagged with a component attribute via NewComponentLogger.
package logging
