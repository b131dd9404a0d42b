// Package runstore persists run lifecycle records in SQLite.
//
// A run row is created when a pipeline starts and updated once at normal
// completion. The store exists for observability and resumability only;
// the pipeline logs store failures at warning level and carries on.
package runstore
