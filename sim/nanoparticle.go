package sim

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NanoparticleSpec is an immutable nanoparticle design.
// SurfaceChargeMv is derived from Material at design time.
type NanoparticleSpec struct {
	ID               string    `json:"id" yaml:"id"`
	Name             string    `json:"name" yaml:"name"`
	Category         Category  `json:"type" yaml:"type"`
	DiameterNm       float64   `json:"diameter_nm" yaml:"diameter_nm"`
	SurfaceChargeMv  float64   `json:"surface_charge_mv" yaml:"surface_charge_mv"`
	DrugPayload      string    `json:"drug_payload" yaml:"drug_payload"`
	EncapsulationPct float64   `json:"encapsulation_pct" yaml:"encapsulation_pct"`
	TargetingLigand  string    `json:"targeting_ligand" yaml:"targeting_ligand"` // empty = untargeted
	Material         Material  `json:"material" yaml:"material"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
}

// Targeted reports whether the particle carries a targeting ligand.
func (np NanoparticleSpec) Targeted() bool {
	return np.TargetingLigand != ""
}

func (np NanoparticleSpec) String() string {
	return fmt.Sprintf("Nanoparticle: (ID: %s, Name: %s, Type: %s, Diameter: %.1fnm, Material: %s)",
		np.ID, np.Name, np.Category, np.DiameterNm, np.Material)
}

// NanoparticleInput carries the caller-supplied fields of a new design.
// Category and Material are raw strings validated by NewNanoparticle.
type NanoparticleInput struct {
	Name             string
	Category         string
	DiameterNm       float64
	DrugPayload      string
	Material         string
	TargetingLigand  string
	EncapsulationPct float64
}

// NewNanoparticle validates in and builds a NanoparticleSpec with the given id and creation time.
func NewNanoparticle(id string, in NanoparticleInput, now time.Time) (NanoparticleSpec, error) {
	category, err := ParseCategory(in.Category)
	if err != nil {
		return NanoparticleSpec{}, err
	}
	material, err := ParseMaterial(in.Material)
	if err != nil {
		return NanoparticleSpec{}, err
	}
	if !positiveFinite(in.DiameterNm) {
		return NanoparticleSpec{}, &ValidationError{Field: "diameter_nm", Value: formatFloat(in.DiameterNm), Reason: "must be positive and finite"}
	}
	if !isPercent(in.EncapsulationPct) {
		return NanoparticleSpec{}, &ValidationError{Field: "encapsulation_pct", Value: formatFloat(in.EncapsulationPct), Reason: "must be within [0, 100]"}
	}
	return NanoparticleSpec{
		ID:               id,
		Name:             in.Name,
		Category:         category,
		DiameterNm:       in.DiameterNm,
		SurfaceChargeMv:  SurfaceChargeFor(material),
		DrugPayload:      in.DrugPayload,
		EncapsulationPct: in.EncapsulationPct,
		TargetingLigand:  strings.TrimSpace(in.TargetingLigand),
		Material:         material,
		CreatedAt:        now,
	}, nil
}

// NewRecordID returns prefix + "_" + 8 upper-case hex characters, e.g. NP_1A2B3C4D.
func NewRecordID(prefix string) string {
	return prefix + "_" + strings.ToUpper(uuid.NewString()[:8])
}

// positiveFinite rejects zero, negatives, NaN and +Inf.
func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// isPercent rejects NaN as well as values outside [0, 100].
func isPercent(v float64) bool {
	return v >= 0 && v <= 100
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
