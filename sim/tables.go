// Static lookup tables used by the biodistribution, PK, toxicity and formulation models.

package sim

// surfaceChargeMv maps material -> zeta potential assigned at design time.
var surfaceChargeMv = map[Material]float64{
	MaterialLipid:     -10,
	MaterialPLGA:      -15,
	MaterialPLA:       -12,
	MaterialChitosan:  25,
	MaterialGold:      -8,
	MaterialIronOxide: -20,
	MaterialSilica:    -25,
}

// defaultSurfaceChargeMv is never reached for validated materials.
const defaultSurfaceChargeMv = -10

// absorptionFraction maps material -> fraction of the dose reaching circulation.
var absorptionFraction = map[Material]float64{
	MaterialLipid:     0.95,
	MaterialPLGA:      0.85,
	MaterialPLA:       0.80,
	MaterialChitosan:  0.70,
	MaterialGold:      0.50,
	MaterialIronOxide: 0.60,
	MaterialSilica:    0.40,
}

const defaultAbsorptionFraction = 0.75

// toxicityCeiling maps material -> highest safety score the material can reach.
var toxicityCeiling = map[Material]int{
	MaterialLipid:     90,
	MaterialPLGA:      85,
	MaterialPLA:       85,
	MaterialChitosan:  80,
	MaterialGold:      75,
	MaterialIronOxide: 70,
	MaterialSilica:    65,
}

const defaultToxicityCeiling = 60

// TissueShare is one row of the baseline biodistribution table (percent of dose).
type TissueShare struct {
	Tissue  string
	Percent float64
}

// baselineDistribution sums to 100. Order is the order samples are logged in.
var baselineDistribution = []TissueShare{
	{"liver", 35},
	{"spleen", 25},
	{"kidney", 15},
	{"bone_marrow", 10},
	{"tumor", 5},
	{"other", 10},
}

const (
	targetingBoostPct      = 40
	targetingCapPct        = 70
	unlistedTissuePriorPct = 10
)

// FormulationTemplate is a recommended set of physical/chemical parameters.
type FormulationTemplate struct {
	DiameterNm      float64  `json:"diameter_nm" yaml:"diameter_nm"`
	Category        Category `json:"type" yaml:"type"`
	Material        Material `json:"material" yaml:"material"`
	TargetingLigand string   `json:"targeting_ligand" yaml:"targeting_ligand"`
	ChargeMv        float64  `json:"charge_mv" yaml:"charge_mv"`
	Route           Route    `json:"route" yaml:"route"`
}

var formulationTemplates = map[string]FormulationTemplate{
	"lung":  {DiameterNm: 50, Category: CategoryPolymeric, Material: MaterialPLGA, TargetingLigand: "folate", ChargeMv: -15, Route: RouteInhalation},
	"tumor": {DiameterNm: 100, Category: CategoryLiposome, Material: MaterialLipid, TargetingLigand: "rgd_peptide", ChargeMv: -20, Route: RouteIV},
	"brain": {DiameterNm: 80, Category: CategoryPolymeric, Material: MaterialPLA, TargetingLigand: "transferrin", ChargeMv: 15, Route: RouteIV},
	"liver": {DiameterNm: 150, Category: CategoryDendrimer, Material: MaterialChitosan, TargetingLigand: "galactose", ChargeMv: 25, Route: RouteIV},
}

// systemicTemplate is used for any tissue without a dedicated template.
var systemicTemplate = FormulationTemplate{
	DiameterNm: 100, Category: CategoryLiposome, Material: MaterialLipid, TargetingLigand: "peg", ChargeMv: -10, Route: RouteIV,
}

// SurfaceChargeFor returns the design-time surface charge for m.
func SurfaceChargeFor(m Material) float64 {
	if q, ok := surfaceChargeMv[m]; ok {
		return q
	}
	return defaultSurfaceChargeMv
}

// BaselineDistribution returns a copy of the untargeted tissue distribution.
func BaselineDistribution() []TissueShare {
	out := make([]TissueShare, len(baselineDistribution))
	copy(out, baselineDistribution)
	return out
}
