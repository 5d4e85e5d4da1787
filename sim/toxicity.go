package sim

import "math"

// RiskLevel is the categorical reading of a safety score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// ToxicityAssessment is the bounded safety score of a nanoparticle (higher is safer).
type ToxicityAssessment struct {
	SafetyScore     int       `json:"safety_score" yaml:"safety_score"`
	RiskLevel       RiskLevel `json:"risk_level" yaml:"risk_level"`
	DiameterOptimal bool      `json:"diameter_optimal" yaml:"diameter_optimal"`
	ChargeOptimal   bool      `json:"charge_optimal" yaml:"charge_optimal"`
	Material        Material  `json:"material" yaml:"material"`
}

// ToxicityCeilingFor returns the maximum safety score reachable by m (60 when unlisted).
func ToxicityCeilingFor(m Material) int {
	if c, ok := toxicityCeiling[m]; ok {
		return c
	}
	return defaultToxicityCeiling
}

func sizePenalty(diameterNm float64) int {
	switch {
	case diameterNm < 10 || diameterNm > 500:
		return 30
	case diameterNm < 30 || diameterNm > 300:
		return 15
	default:
		return 0
	}
}

// chargePenalty applies the near-neutral and highly-charged penalties as
// exclusive branches: at most one of them fires.
func chargePenalty(absChargeMv float64) int {
	if absChargeMv < 5 {
		return 10
	} else if absChargeMv > 50 {
		return 15
	}
	return 0
}

// RiskLevelFor maps a safety score to its risk category.
func RiskLevelFor(score int) RiskLevel {
	switch {
	case score > 75:
		return RiskLow
	case score > 50:
		return RiskModerate
	default:
		return RiskHigh
	}
}

// AssessToxicity scores np: start at 100, subtract size and charge penalties,
// then clamp down to the material ceiling.
func AssessToxicity(np NanoparticleSpec) ToxicityAssessment {
	charge := math.Abs(np.SurfaceChargeMv)

	score := 100
	score -= sizePenalty(np.DiameterNm)
	score -= chargePenalty(charge)
	score = min(score, ToxicityCeilingFor(np.Material))

	return ToxicityAssessment{
		SafetyScore:     score,
		RiskLevel:       RiskLevelFor(score),
		DiameterOptimal: 50 <= np.DiameterNm && np.DiameterNm <= 200,
		ChargeOptimal:   10 <= charge && charge <= 40,
		Material:        np.Material,
	}
}
