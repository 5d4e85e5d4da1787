package trace

import (
	"sort"
	"time"
)

// TissueSummary aggregates the samples of one tissue.
type TissueSummary struct {
	Tissue     string  `json:"tissue" yaml:"tissue"`
	Samples    int     `json:"samples" yaml:"samples"`
	MeanUgMl   float64 `json:"mean_ug_ml" yaml:"mean_ug_ml"`
	MaxUgMl    float64 `json:"max_ug_ml" yaml:"max_ug_ml"`
	LatestUgMl float64 `json:"latest_ug_ml" yaml:"latest_ug_ml"`
}

// TraceSummary aggregates statistics from a DeliveryTrace.
type TraceSummary struct {
	NanoparticleID string          `json:"nanoparticle_id" yaml:"nanoparticle_id"`
	TotalSamples   int             `json:"total_samples" yaml:"total_samples"`
	Runs           int             `json:"runs" yaml:"runs"` // distinct sample timestamps, one per simulation call
	FirstRun       time.Time       `json:"first_run,omitempty" yaml:"first_run,omitempty"`
	LastRun        time.Time       `json:"last_run,omitempty" yaml:"last_run,omitempty"`
	Tissues        []TissueSummary `json:"tissues" yaml:"tissues"` // highest mean first
}

// Summarize computes aggregate statistics from a DeliveryTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(dt *DeliveryTrace) *TraceSummary {
	summary := &TraceSummary{Tissues: make([]TissueSummary, 0)}
	if dt == nil {
		return summary
	}
	summary.NanoparticleID = dt.NanoparticleID
	summary.TotalSamples = len(dt.Samples)

	runs := make(map[time.Time]bool)
	byTissue := make(map[string]*TissueSummary)
	sums := make(map[string]float64)
	for _, s := range dt.Samples {
		ts := s.Timestamp.UTC()
		runs[ts] = true
		if summary.FirstRun.IsZero() || ts.Before(summary.FirstRun) {
			summary.FirstRun = ts
		}
		if ts.After(summary.LastRun) {
			summary.LastRun = ts
		}

		agg, ok := byTissue[s.Tissue]
		if !ok {
			agg = &TissueSummary{Tissue: s.Tissue}
			byTissue[s.Tissue] = agg
		}
		agg.Samples++
		sums[s.Tissue] += s.ConcentrationUgMl
		if s.ConcentrationUgMl > agg.MaxUgMl {
			agg.MaxUgMl = s.ConcentrationUgMl
		}
		agg.LatestUgMl = s.ConcentrationUgMl
	}
	summary.Runs = len(runs)

	for tissue, t := range byTissue {
		t.MeanUgMl = sums[tissue] / float64(t.Samples)
		summary.Tissues = append(summary.Tissues, *t)
	}
	sort.Slice(summary.Tissues, func(i, j int) bool {
		if summary.Tissues[i].MeanUgMl == summary.Tissues[j].MeanUgMl {
			return summary.Tissues[i].Tissue < summary.Tissues[j].Tissue
		}
		return summary.Tissues[i].MeanUgMl > summary.Tissues[j].MeanUgMl
	})
	return summary
}
