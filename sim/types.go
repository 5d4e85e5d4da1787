package sim

import "sort"

// Category is the structural class of a nanoparticle.
type Category string

const (
	CategoryLiposome       Category = "liposome"
	CategoryPolymeric      Category = "polymeric"
	CategoryMetallic       Category = "metallic"
	CategoryDendrimer      Category = "dendrimer"
	CategoryQuantumDot     Category = "quantum_dot"
	CategoryCarbonNanotube Category = "carbon_nanotube"
)

// Material is the bulk material a nanoparticle is made of.
type Material string

const (
	MaterialPLA       Material = "pla"
	MaterialPLGA      Material = "plga"
	MaterialChitosan  Material = "chitosan"
	MaterialGold      Material = "gold"
	MaterialIronOxide Material = "iron_oxide"
	MaterialSilica    Material = "silica"
	MaterialLipid     Material = "lipid"
)

// Route is the delivery route of a treatment. RouteIV is intravenous.
type Route string

const (
	RouteIV           Route = "iv"
	RouteOral         Route = "oral"
	RouteInhalation   Route = "inhalation"
	RouteTopical      Route = "topical"
	RouteIntratumoral Route = "intratumoral"
)

// TreatmentStatus is the lifecycle state of a treatment record.
type TreatmentStatus string

const (
	StatusPlanned      TreatmentStatus = "planned"
	StatusActive       TreatmentStatus = "active"
	StatusCompleted    TreatmentStatus = "completed"
	StatusDiscontinued TreatmentStatus = "discontinued"
)

// The declaration order of each enumeration is kept for error messages.
var (
	categories = []Category{CategoryLiposome, CategoryPolymeric, CategoryMetallic,
		CategoryDendrimer, CategoryQuantumDot, CategoryCarbonNanotube}
	materials = []Material{MaterialPLA, MaterialPLGA, MaterialChitosan, MaterialGold,
		MaterialIronOxide, MaterialSilica, MaterialLipid}
	routes   = []Route{RouteIV, RouteOral, RouteInhalation, RouteTopical, RouteIntratumoral}
	statuses = []TreatmentStatus{StatusPlanned, StatusActive, StatusCompleted, StatusDiscontinued}
)

// ValidCategories is the set of recognized nanoparticle categories.
var ValidCategories = setOf(categories)

// ValidMaterials is the set of recognized materials.
var ValidMaterials = setOf(materials)

// ValidRoutes is the set of recognized delivery routes.
var ValidRoutes = setOf(routes)

// ValidStatuses is the set of recognized treatment statuses.
var ValidStatuses = setOf(statuses)

func setOf[T ~string](values []T) map[T]bool {
	set := make(map[T]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// ParseCategory validates s against the category enumeration.
func ParseCategory(s string) (Category, error) {
	if !ValidCategories[Category(s)] {
		return "", &ValidationError{Field: "type", Value: s, Allowed: names(categories)}
	}
	return Category(s), nil
}

// ParseMaterial validates s against the material enumeration.
func ParseMaterial(s string) (Material, error) {
	if !ValidMaterials[Material(s)] {
		return "", &ValidationError{Field: "material", Value: s, Allowed: names(materials)}
	}
	return Material(s), nil
}

// ParseRoute validates s against the delivery route enumeration.
func ParseRoute(s string) (Route, error) {
	if !ValidRoutes[Route(s)] {
		return "", &ValidationError{Field: "route", Value: s, Allowed: names(routes)}
	}
	return Route(s), nil
}

// ParseStatus validates s against the treatment status enumeration.
func ParseStatus(s string) (TreatmentStatus, error) {
	if !ValidStatuses[TreatmentStatus(s)] {
		return "", &ValidationError{Field: "status", Value: s, Allowed: names(statuses)}
	}
	return TreatmentStatus(s), nil
}

// Terminal reports whether no further transitions are allowed from s.
func (s TreatmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusDiscontinued
}

// KnownTemplateTissues lists tissues with a dedicated formulation template, sorted.
func KnownTemplateTissues() []string {
	out := make([]string, 0, len(formulationTemplates))
	for tissue := range formulationTemplates {
		out = append(out, tissue)
	}
	sort.Strings(out)
	return out
}
