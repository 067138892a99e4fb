package metrics_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/artpar/shapegen/adapters/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}
	return byName
}

func counterValue(f *dto.MetricFamily, label, value string) float64 {
	for _, m := range f.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == label && l.GetValue() == value {
				return m.GetCounter().GetValue()
			}
		}
	}
	return -1
}

func TestNewWithRegistry(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	if m.TargetsTotal == nil || m.AnalysisDuration == nil || m.PropertiesEmitted == nil {
		t.Error("generator metrics should be initialized")
	}
	if m.RequestsTotal == nil || m.RequestDuration == nil || m.RequestsInFlight == nil {
		t.Error("request metrics should be initialized")
	}
	if m.ConfigReloads == nil || m.ConfigReloadErrors == nil || m.ConfigLastReload == nil {
		t.Error("config metrics should be initialized")
	}
}

func TestObserveTarget(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveTarget("success", 2*time.Millisecond)
	m.ObserveTarget("success", time.Millisecond)
	m.ObserveTarget("failure", time.Millisecond)

	families := gather(t, reg)
	f, ok := families["shapegen_targets_total"]
	if !ok {
		t.Fatal("shapegen_targets_total metric not found")
	}
	if got := counterValue(f, "result", "success"); got != 2 {
		t.Errorf("expected 2 successes, got %v", got)
	}
	if got := counterValue(f, "result", "failure"); got != 1 {
		t.Errorf("expected 1 failure, got %v", got)
	}

	h := families["shapegen_analysis_duration_seconds"]
	if h == nil || h.GetMetric()[0].GetHistogram().GetSampleCount() != 3 {
		t.Error("expected 3 duration samples")
	}
}

func TestObserveSectionsAndConstructor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveSections(map[string]int{"prototypeProperties": 3, "prototypeMethods": 2, "staticMethods": 0})
	m.ObserveConstructor("illegal")

	families := gather(t, reg)
	f := families["shapegen_properties_emitted_total"]
	if f == nil {
		t.Fatal("shapegen_properties_emitted_total metric not found")
	}
	if len(f.GetMetric()) != 2 {
		t.Errorf("empty sections should not create series, got %d", len(f.GetMetric()))
	}
	if got := counterValue(f, "section", "prototypeProperties"); got != 3 {
		t.Errorf("expected 3, got %v", got)
	}
	if got := counterValue(families["shapegen_constructor_outcomes_total"], "status", "illegal"); got != 1 {
		t.Errorf("expected 1 illegal outcome, got %v", got)
	}
}

func TestObserveBatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveBatch(3, 1)

	families := gather(t, reg)
	if got := families["shapegen_batches_total"].GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Errorf("expected 1 batch, got %v", got)
	}
	if got := families["shapegen_batch_target_failures_total"].GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Errorf("expected 1 failure, got %v", got)
	}
}

func TestObserveReload(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	at := time.Unix(1700000000, 0)
	m.ObserveReload(nil, at)
	m.ObserveReload(errors.New("bad yaml"), at)

	families := gather(t, reg)
	if got := families["shapegen_config_reloads_total"].GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Errorf("expected 1 reload, got %v", got)
	}
	if got := families["shapegen_config_reload_errors_total"].GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Errorf("expected 1 reload error, got %v", got)
	}
	if got := families["shapegen_config_last_reload_timestamp"].GetMetric()[0].GetGauge().GetValue(); got != 1700000000 {
		t.Errorf("unexpected timestamp %v", got)
	}
}

func TestNormalizePath(t *testing.T) {
	if got := metrics.NormalizePath("/v1/generate?target=Location"); got != "/v1/generate" {
		t.Errorf("expected query dropped, got %q", got)
	}
	long := "/" + strings.Repeat("a", 80)
	if got := metrics.NormalizePath(long); len(got) != 53 || !strings.HasSuffix(got, "...") {
		t.Errorf("expected truncation, got %q", got)
	}
}
