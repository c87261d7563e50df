// Package history persists publish runs in SQLite.
//
// Two tables are kept: an append-only events table with one row per run
// start, state change and finish, and a runs table summarising each run for
// quick listing. Sink adapts a Store to pipeline.EventSink.
package history
