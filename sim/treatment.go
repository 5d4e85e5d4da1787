package sim

import (
	"fmt"
	"time"
)

// TreatmentRecord is a treatment plan for one patient using one nanoparticle.
// Efficacy, side effects and status change after creation through Transition.
type TreatmentRecord struct {
	ID             string          `json:"id" yaml:"id"`
	PatientID      string          `json:"patient_id" yaml:"patient_id"`
	NanoparticleID string          `json:"nanoparticle_id" yaml:"nanoparticle_id"`
	DoseMgKg       float64         `json:"dose_mg_kg" yaml:"dose_mg_kg"`
	Route          Route           `json:"route" yaml:"route"`
	Frequency      string          `json:"frequency" yaml:"frequency"`
	DurationDays   int             `json:"duration_days" yaml:"duration_days"`
	Status         TreatmentStatus `json:"status" yaml:"status"`
	EfficacyPct    float64         `json:"efficacy_pct" yaml:"efficacy_pct"`
	SideEffects    []string        `json:"side_effects" yaml:"side_effects"`
	CreatedAt      time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" yaml:"updated_at"`
}

// TreatmentInput carries the caller-supplied fields of a new treatment plan.
type TreatmentInput struct {
	PatientID      string
	NanoparticleID string
	DoseMgKg       float64
	Route          string
	Frequency      string
	DurationDays   int
}

// TreatmentFilter narrows ListTreatments. Zero-value fields match everything.
type TreatmentFilter struct {
	PatientID string
	Status    TreatmentStatus
}

// Matches reports whether rec satisfies the filter.
func (f TreatmentFilter) Matches(rec TreatmentRecord) bool {
	if f.PatientID != "" && rec.PatientID != f.PatientID {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	return true
}

// NewTreatment validates in and builds a planned TreatmentRecord.
// The nanoparticle reference is resolved by the engine, not here.
func NewTreatment(id string, in TreatmentInput, now time.Time) (TreatmentRecord, error) {
	route, err := ParseRoute(in.Route)
	if err != nil {
		return TreatmentRecord{}, err
	}
	if !positiveFinite(in.DoseMgKg) {
		return TreatmentRecord{}, &ValidationError{Field: "dose_mg_kg", Value: formatFloat(in.DoseMgKg), Reason: "must be positive and finite"}
	}
	if in.DurationDays < 0 {
		return TreatmentRecord{}, &ValidationError{Field: "duration_days", Value: fmt.Sprint(in.DurationDays), Reason: "must not be negative"}
	}
	return TreatmentRecord{
		ID:             id,
		PatientID:      in.PatientID,
		NanoparticleID: in.NanoparticleID,
		DoseMgKg:       in.DoseMgKg,
		Route:          route,
		Frequency:      in.Frequency,
		DurationDays:   in.DurationDays,
		Status:         StatusPlanned,
		EfficacyPct:    0,
		SideEffects:    []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// TreatmentEvent is an input to the treatment status transition function.
type TreatmentEvent string

const (
	EventEfficacyRecorded TreatmentEvent = "efficacy_recorded"
	EventCompleted        TreatmentEvent = "completed"
	EventDiscontinued     TreatmentEvent = "discontinued"
)

// transitions is the full table of allowed status changes.
var transitions = map[TreatmentStatus]map[TreatmentEvent]TreatmentStatus{
	StatusPlanned: {
		EventEfficacyRecorded: StatusActive,
		EventCompleted:        StatusCompleted,
		EventDiscontinued:     StatusDiscontinued,
	},
	StatusActive: {
		EventEfficacyRecorded: StatusActive,
		EventCompleted:        StatusCompleted,
		EventDiscontinued:     StatusDiscontinued,
	},
}

// Transition returns the status reached from 'from' on event ev.
// Terminal statuses accept no events.
func Transition(from TreatmentStatus, ev TreatmentEvent) (TreatmentStatus, error) {
	to, ok := transitions[from][ev]
	if !ok {
		return from, fmt.Errorf("%s on %s treatment: %w", ev, from, ErrInvalidTransition)
	}
	return to, nil
}

// RecordEfficacy returns a copy of rec with efficacy and side effects replaced,
// the status advanced and UpdatedAt refreshed.
func RecordEfficacy(rec TreatmentRecord, efficacyPct float64, sideEffects []string, now time.Time) (TreatmentRecord, error) {
	if !isPercent(efficacyPct) {
		return rec, &ValidationError{Field: "efficacy_pct", Value: formatFloat(efficacyPct), Reason: "must be within [0, 100]"}
	}
	status, err := Transition(rec.Status, EventEfficacyRecorded)
	if err != nil {
		return rec, err
	}
	out := rec
	out.EfficacyPct = efficacyPct
	out.SideEffects = append([]string{}, sideEffects...)
	out.Status = status
	out.UpdatedAt = now
	return out, nil
}

// Close returns a copy of rec moved to a terminal status (completed or discontinued).
func Close(rec TreatmentRecord, to TreatmentStatus, now time.Time) (TreatmentRecord, error) {
	var ev TreatmentEvent
	switch to {
	case StatusCompleted:
		ev = EventCompleted
	case StatusDiscontinued:
		ev = EventDiscontinued
	default:
		return rec, &ValidationError{Field: "status", Value: string(to), Allowed: names([]TreatmentStatus{StatusCompleted, StatusDiscontinued})}
	}
	status, err := Transition(rec.Status, ev)
	if err != nil {
		return rec, err
	}
	out := rec
	out.SideEffects = append([]string{}, rec.SideEffects...)
	out.Status = status
	out.UpdatedAt = now
	return out, nil
}
