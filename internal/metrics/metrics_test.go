package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func findFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	if c := NewCollector(reg); c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordUpstreamStatus_LabelsByCode はステータスコード別にカウントされることを検証する。
func TestRecordUpstreamStatus_LabelsByCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstreamStatus(200)
	c.RecordUpstreamStatus(200)
	c.RecordUpstreamStatus(502)

	mf := findFamily(t, reg, "eduqa_upstream_http_status_total")
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		got[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
	}
	if got["200"] != 2 || got["502"] != 1 {
		t.Errorf("status counts = %v, want 200:2 502:1", got)
	}
}

// TestRecordUpstreamFailure_IncrementsCounter は失敗カウンタが増加することを検証する。
func TestRecordUpstreamFailure_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstreamFailure("transport")

	mf := findFamily(t, reg, "eduqa_upstream_fail_total")
	if v := mf.GetMetric()[0].GetCounter().GetValue(); v != 1 {
		t.Errorf("upstream_fail_total = %v, want 1", v)
	}
}

// TestRecordUpstreamLatency_ObservesHistogram はレイテンシが記録されることを検証する。
func TestRecordUpstreamLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordUpstreamLatency(250 * time.Millisecond)

	mf := findFamily(t, reg, "eduqa_upstream_latency_seconds")
	h := mf.GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 1 {
		t.Errorf("sample count = %d, want 1", h.GetSampleCount())
	}
	if h.GetSampleSum() != 0.25 {
		t.Errorf("sample sum = %v, want 0.25", h.GetSampleSum())
	}
}

// TestRecordOperation_LabelsByModeAndOutcome は操作がモードと結果で分類されることを検証する。
func TestRecordOperation_LabelsByModeAndOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordOperation("simulated", "Login", "ok", time.Millisecond)
	c.RecordOperation("simulated", "Login", "INVALID_CREDENTIAL", time.Millisecond)

	mf := findFamily(t, reg, "eduqa_gateway_operations_total")
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 label sets, got %d", len(mf.GetMetric()))
	}

	lat := findFamily(t, reg, "eduqa_gateway_operation_latency_seconds")
	if n := lat.GetMetric()[0].GetHistogram().GetSampleCount(); n != 2 {
		t.Errorf("latency sample count = %d, want 2", n)
	}
}
