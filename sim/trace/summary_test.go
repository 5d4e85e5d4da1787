package trace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_NilTrace_ReturnsZeroSummary(t *testing.T) {
	summary := Summarize(nil)

	require.NotNil(t, summary)
	assert.Equal(t, 0, summary.TotalSamples)
	assert.Equal(t, 0, summary.Runs)
	assert.Empty(t, summary.Tissues)
	assert.True(t, summary.FirstRun.IsZero())
}

func TestSummarize_TwoRuns_AggregatesPerTissue(t *testing.T) {
	// GIVEN two runs of two tissues each
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	dt := NewDeliveryTrace("NP_00000002")
	dt.Record(SampleRecord{Tissue: "liver", ConcentrationUgMl: 300, Timestamp: t0})
	dt.Record(SampleRecord{Tissue: "tumor", ConcentrationUgMl: 50, Timestamp: t0})
	dt.Record(SampleRecord{Tissue: "liver", ConcentrationUgMl: 100, Timestamp: t1})
	dt.Record(SampleRecord{Tissue: "tumor", ConcentrationUgMl: 450, Timestamp: t1})

	// WHEN summarized
	summary := Summarize(dt)

	// THEN counts, bounds and per-tissue statistics are correct
	assert.Equal(t, "NP_00000002", summary.NanoparticleID)
	assert.Equal(t, 4, summary.TotalSamples)
	assert.Equal(t, 2, summary.Runs)
	assert.True(t, summary.FirstRun.Equal(t0))
	assert.True(t, summary.LastRun.Equal(t1))

	require.Len(t, summary.Tissues, 2)
	// tumor mean 250 > liver mean 200
	assert.Equal(t, "tumor", summary.Tissues[0].Tissue)
	assert.InDelta(t, 250.0, summary.Tissues[0].MeanUgMl, 1e-9)
	assert.InDelta(t, 450.0, summary.Tissues[0].MaxUgMl, 1e-9)
	assert.InDelta(t, 450.0, summary.Tissues[0].LatestUgMl, 1e-9)
	assert.Equal(t, "liver", summary.Tissues[1].Tissue)
	assert.InDelta(t, 200.0, summary.Tissues[1].MeanUgMl, 1e-9)
	assert.InDelta(t, 300.0, summary.Tissues[1].MaxUgMl, 1e-9)
	assert.InDelta(t, 100.0, summary.Tissues[1].LatestUgMl, 1e-9)
	assert.Equal(t, 2, summary.Tissues[1].Samples)
}

func TestSummarize_EqualMeans_OrderedByName(t *testing.T) {
	dt := NewDeliveryTrace("NP_00000003")
	dt.Record(SampleRecord{Tissue: "spleen", ConcentrationUgMl: 10})
	dt.Record(SampleRecord{Tissue: "kidney", ConcentrationUgMl: 10})

	summary := Summarize(dt)

	require.Len(t, summary.Tissues, 2)
	assert.Equal(t, "kidney", summary.Tissues[0].Tissue)
	assert.Equal(t, "spleen", summary.Tissues[1].Tissue)
	assert.Equal(t, 1, summary.Runs)
}
