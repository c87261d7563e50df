// Package metrics records pipeline observability data.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics cost nothing unless the watch daemon installs a
// PrometheusRecorder:
//
//	reg := prometheus.NewRegistry()
//	orch := pipeline.New(cfg, deps).WithRecorder(metrics.NewPrometheusRecorder(reg))
//	http.Handle("/metrics", metrics.HTTPHandler(reg))
//
// Tests inject their own Recorder to assert on what was observed.
package metrics
