// Package daemon implements the watch mode: the configured source is
// republished on a fixed interval, and an HTTP listener exposes Prometheus
// metrics and a health endpoint.
//
// Scheduled runs never overlap. gocron runs the job in singleton mode and the
// orchestrator itself refuses a second concurrent run. Before each run the
// source HEAD is listed; a commit that already produced a settled outcome is
// not published again, so a rejected stylesheet is reported to moderators once.
package daemon
