package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testRecorder struct {
	mu             sync.Mutex
	stageDurations map[string]int
	stageResults   map[string]map[ResultLabel]int
	runOutcomes    map[string]int
	assetUploads   int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{stageDurations: map[string]int{}, stageResults: map[string]map[ResultLabel]int{}, runOutcomes: map[string]int{}}
}

func (t *testRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stageDurations[stage]++
}
func (t *testRecorder) ObserveRunDuration(time.Duration) {}
func (t *testRecorder) IncStageResult(stage string, result ResultLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.stageResults[stage]
	if !ok {
		m = map[ResultLabel]int{}
		t.stageResults[stage] = m
	}
	m[result]++
}
func (t *testRecorder) IncRunOutcome(outcome string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.runOutcomes[outcome]++
}
func (t *testRecorder) ObserveCloneDuration(time.Duration, bool) {}
func (t *testRecorder) IncAssetUpload(string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.assetUploads++
}
func (t *testRecorder) SetAssetConcurrency(int) {}

func TestRecorderInterfaceSatisfied(t *testing.T) {
	var _ Recorder = NoopRecorder{}
	var _ Recorder = (*PrometheusRecorder)(nil)
	var r Recorder = newTestRecorder()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.IncAssetUpload("jpeg", true)
		}()
	}
	wg.Wait()
	r.IncStageResult("publishing", ResultFailed)
	r.IncRunOutcome("publish_rejected")

	tr := r.(*testRecorder)
	assert.Equal(t, 10, tr.assetUploads)
	assert.Equal(t, 1, tr.stageResults["publishing"][ResultFailed])
	assert.Equal(t, 1, tr.runOutcomes["publish_rejected"])
}
