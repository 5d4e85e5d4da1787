package sim

import "strconv"

// PKParameters is a simplified one-compartment pharmacokinetic profile.
type PKParameters struct {
	CmaxUgMl       float64  `json:"cmax_ug_ml" yaml:"cmax_ug_ml"`
	TmaxH          float64  `json:"tmax_h" yaml:"tmax_h"`
	AUCUgHMl       float64  `json:"auc_ug_h_ml" yaml:"auc_ug_h_ml"`
	HalfLifeH      float64  `json:"half_life_h" yaml:"half_life_h"`
	ClearanceRoute Material `json:"clearance_route" yaml:"clearance_route"`
}

// HalfLifeHours selects the elimination half-life tier for a diameter.
// Each boundary (50, 100, 200 nm) belongs to the tier starting at it.
func HalfLifeHours(diameterNm float64) float64 {
	switch {
	case diameterNm < 50:
		return 0.5
	case diameterNm < 100:
		return 2.0
	case diameterNm < 200:
		return 6.0
	default:
		return 12.0
	}
}

// AbsorptionFor returns the absorbed dose fraction for m (0.75 when unlisted).
func AbsorptionFor(m Material) float64 {
	if a, ok := absorptionFraction[m]; ok {
		return a
	}
	return defaultAbsorptionFraction
}

// ComputePK derives PK parameters for np at doseMg.
//
//	cmax = dose * absorption / (diameter / 100)
//	tmax = t½ * 0.3
//	auc  = cmax / (0.693 / t½)
//
// All values are rounded to two decimals.
func ComputePK(np NanoparticleSpec, doseMg float64) PKParameters {
	halfLife := HalfLifeHours(np.DiameterNm)
	absorption := AbsorptionFor(np.Material)

	cmax := doseMg * absorption / (np.DiameterNm / 100)
	tmax := halfLife * 0.3
	ke := 0.693 / halfLife
	auc := cmax / ke

	return PKParameters{
		CmaxUgMl:       round2(cmax),
		TmaxH:          round2(tmax),
		AUCUgHMl:       round2(auc),
		HalfLifeH:      round2(halfLife),
		ClearanceRoute: np.Material,
	}
}

// round2 rounds the exact binary value of v to two decimals, ties to even.
func round2(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}
