package sim

import "time"

// BiodistributionSample is one row of the append-only biodistribution log.
type BiodistributionSample struct {
	NanoparticleID    string    `json:"nanoparticle_id" yaml:"nanoparticle_id"`
	Tissue            string    `json:"tissue" yaml:"tissue"`
	ConcentrationUgMl float64   `json:"concentration_ug_ml" yaml:"concentration_ug_ml"`
	Timestamp         time.Time `json:"timestamp" yaml:"timestamp"`
}

// TissueConcentration is the predicted concentration surrogate for one tissue.
type TissueConcentration struct {
	Tissue            string  `json:"tissue" yaml:"tissue"`
	SharePct          float64 `json:"share_pct" yaml:"share_pct"`
	ConcentrationUgMl float64 `json:"concentration_ug_ml" yaml:"concentration_ug_ml"`
}

// Biodistribution is the result of one allocation. Tissues keep table order,
// with a boosted tissue absent from the baseline appended last.
type Biodistribution struct {
	NanoparticleID string                `json:"nanoparticle_id" yaml:"nanoparticle_id"`
	TargetTissue   string                `json:"target_tissue" yaml:"target_tissue"`
	DoseMg         float64               `json:"dose_mg" yaml:"dose_mg"`
	Tissues        []TissueConcentration `json:"tissues" yaml:"tissues"`
}

// Concentrations returns the allocation as a tissue -> concentration map.
func (b Biodistribution) Concentrations() map[string]float64 {
	out := make(map[string]float64, len(b.Tissues))
	for _, t := range b.Tissues {
		out[t.Tissue] = t.ConcentrationUgMl
	}
	return out
}

// Samples converts the allocation into log rows sharing one timestamp.
func (b Biodistribution) Samples(ts time.Time) []BiodistributionSample {
	out := make([]BiodistributionSample, len(b.Tissues))
	for i, t := range b.Tissues {
		out[i] = BiodistributionSample{
			NanoparticleID:    b.NanoparticleID,
			Tissue:            t.Tissue,
			ConcentrationUgMl: t.ConcentrationUgMl,
			Timestamp:         ts,
		}
	}
	return out
}

// Allocate redistributes the baseline tissue table for np and converts shares to
// concentrations. A targeted particle boosts targetTissue by 40 points, capped at 70.
// Concentrations are share × doseMg × 1000 (mg -> µg per unit volume), so they sum
// to doseMg × 1000.
func Allocate(np NanoparticleSpec, targetTissue string, doseMg float64) Biodistribution {
	shares := BaselineDistribution()
	if np.Targeted() {
		idx := -1
		for i, s := range shares {
			if s.Tissue == targetTissue {
				idx = i
				break
			}
		}
		if idx < 0 {
			shares = append(shares, TissueShare{Tissue: targetTissue, Percent: unlistedTissuePriorPct})
			idx = len(shares) - 1
		}
		shares[idx].Percent = min(targetingCapPct, shares[idx].Percent+targetingBoostPct)
	}

	total := 0.0
	for _, s := range shares {
		total += s.Percent
	}

	result := Biodistribution{
		NanoparticleID: np.ID,
		TargetTissue:   targetTissue,
		DoseMg:         doseMg,
		Tissues:        make([]TissueConcentration, len(shares)),
	}
	for i, s := range shares {
		frac := s.Percent / total
		result.Tissues[i] = TissueConcentration{
			Tissue:            s.Tissue,
			SharePct:          frac * 100,
			ConcentrationUgMl: frac * doseMg * 1000,
		}
	}
	return result
}
