package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "csspublisher"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration    *prom.HistogramVec
	runDuration      prom.Histogram
	stageResults     *prom.CounterVec
	runOutcome       *prom.CounterVec
	cloneDuration    *prom.HistogramVec
	assetUploads     *prom.CounterVec
	assetConcurrency prom.Gauge
}

// NewPrometheusRecorder constructs the collectors and registers them with reg.
// A nil registry gets a fresh private one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total publish run duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Publish runs by terminal outcome",
		}, []string{"outcome"}),
		cloneDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "clone_duration_seconds",
			Help:      "Duration of source repository clones",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		assetUploads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "asset_uploads_total",
			Help:      "Image asset uploads by kind and result",
		}, []string{"kind", "result"}),
		assetConcurrency: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "asset_upload_concurrency",
			Help:      "Number of asset uploads issued by the last publish",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.runDuration, pr.stageResults, pr.runOutcome, pr.cloneDuration, pr.assetUploads, pr.assetConcurrency)
	return pr
}

func resultFor(success bool) string {
	if success {
		return string(ResultSuccess)
	}
	return string(ResultFailed)
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveCloneDuration(d time.Duration, success bool) {
	if p == nil {
		return
	}
	p.cloneDuration.WithLabelValues(resultFor(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncAssetUpload(kind string, success bool) {
	if p == nil {
		return
	}
	p.assetUploads.WithLabelValues(kind, resultFor(success)).Inc()
}

func (p *PrometheusRecorder) SetAssetConcurrency(n int) {
	if p == nil {
		return
	}
	p.assetConcurrency.Set(float64(n))
}
