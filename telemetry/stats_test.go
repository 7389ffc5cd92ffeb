package telemetry

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name                string
		values              []float64
		mean, p10, p50, p90 float64
	}{
		{"empty", nil, 0, 0, 0, 0},
		{"single", []float64{5}, 5, 5, 5, 5},
		{"odd", []float64{5, 1, 4, 2, 3}, 3, 1, 3, 5},
		{"ten", []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, 5.5, 1, 5, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, p10, p50, p90 := Summarize(tt.values)
			assert.InDelta(t, tt.mean, mean, 1e-9, "mean")
			assert.InDelta(t, tt.p10, p10, 1e-9, "p10")
			assert.InDelta(t, tt.p50, p50, 1e-9, "p50")
			assert.InDelta(t, tt.p90, p90, 1e-9, "p90")
		})
	}
}

func TestSummarizeLeavesInputAlone(t *testing.T) {
	values := []float64{3, 1, 2}
	Summarize(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestWindowStatsLogValue(t *testing.T) {
	s := WindowStats{WindowEndTick: 600, Hits: 4, PlanFailRate: 0.25}
	v := s.LogValue()
	assert.Equal(t, slog.KindGroup, v.Kind())

	attrs := map[string]slog.Value{}
	for _, a := range v.Group() {
		attrs[a.Key] = a.Value
	}
	assert.Equal(t, int64(600), attrs["window_end"].Int64())
	assert.Equal(t, int64(4), attrs["hits"].Int64())
	assert.Equal(t, 0.25, attrs["plan_fail_rate"].Float64())
}
