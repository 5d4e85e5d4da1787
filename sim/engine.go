package sim

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nanomed-sim/nanomed-sim/sim/trace"
)

// RecordStore persists nanoparticles, treatments and the biodistribution log.
// Lookups of unknown ids return an error wrapping ErrNotFound.
// Implementations live in sim/store/.
type RecordStore interface {
	SaveNanoparticle(ctx context.Context, np NanoparticleSpec) error
	GetNanoparticle(ctx context.Context, id string) (NanoparticleSpec, error)
	SaveTreatment(ctx context.Context, rec TreatmentRecord) error
	GetTreatment(ctx context.Context, id string) (TreatmentRecord, error)
	// UpdateTreatment replaces status, efficacy, side effects and UpdatedAt of an existing record.
	UpdateTreatment(ctx context.Context, rec TreatmentRecord) error
	// ListTreatments returns matching records ordered by creation time.
	ListTreatments(ctx context.Context, filter TreatmentFilter) ([]TreatmentRecord, error)
	// AppendBiodistribution stores all samples or none.
	AppendBiodistribution(ctx context.Context, samples []BiodistributionSample) error
	ListBiodistribution(ctx context.Context, nanoparticleID string) ([]BiodistributionSample, error)
	Close() error
}

// Engine binds the simulation and scoring computations to a record store.
type Engine struct {
	store RecordStore
	now   func() time.Time
	newID func(prefix string) string
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(gen func(prefix string) string) EngineOption {
	return func(e *Engine) { e.newID = gen }
}

// NewEngine creates an Engine over store.
func NewEngine(store RecordStore, opts ...EngineOption) *Engine {
	e := &Engine{store: store, now: time.Now, newID: NewRecordID}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DesignNanoparticle validates a new design, derives its surface charge and saves it.
func (e *Engine) DesignNanoparticle(ctx context.Context, in NanoparticleInput) (NanoparticleSpec, error) {
	np, err := NewNanoparticle(e.newID("NP"), in, e.now())
	if err != nil {
		return NanoparticleSpec{}, err
	}
	if err := e.store.SaveNanoparticle(ctx, np); err != nil {
		return NanoparticleSpec{}, fmt.Errorf("saving nanoparticle: %w", err)
	}
	logrus.Debugf("designed %s (charge %.0f mV)", np.ID, np.SurfaceChargeMv)
	return np, nil
}

// GetNanoparticle returns a stored design.
func (e *Engine) GetNanoparticle(ctx context.Context, id string) (NanoparticleSpec, error) {
	return e.store.GetNanoparticle(ctx, id)
}

// SimulateDelivery allocates doseMg of nanoparticle id across tissues and logs one sample per tissue.
func (e *Engine) SimulateDelivery(ctx context.Context, id, targetTissue string, doseMg float64) (Biodistribution, error) {
	np, err := e.store.GetNanoparticle(ctx, id)
	if err != nil {
		return Biodistribution{}, err
	}
	if strings.TrimSpace(targetTissue) == "" {
		return Biodistribution{}, &ValidationError{Field: "target_tissue", Value: targetTissue, Reason: "must not be empty"}
	}
	if err := validateDose(doseMg); err != nil {
		return Biodistribution{}, err
	}
	dist := Allocate(np, targetTissue, doseMg)
	if err := e.store.AppendBiodistribution(ctx, dist.Samples(e.now())); err != nil {
		return Biodistribution{}, fmt.Errorf("appending biodistribution: %w", err)
	}
	logrus.Debugf("simulated %s -> %s: %d tissues", id, targetTissue, len(dist.Tissues))
	return dist, nil
}

// Pharmacokinetics computes PK parameters for nanoparticle id at doseMg.
func (e *Engine) Pharmacokinetics(ctx context.Context, id string, doseMg float64) (PKParameters, error) {
	np, err := e.store.GetNanoparticle(ctx, id)
	if err != nil {
		return PKParameters{}, err
	}
	if err := validateDose(doseMg); err != nil {
		return PKParameters{}, err
	}
	pk := ComputePK(np, doseMg)
	logrus.Debugf("pk %s: t½=%.1fh cmax=%.2f", id, pk.HalfLifeH, pk.CmaxUgMl)
	return pk, nil
}

// AssessToxicity scores nanoparticle id.
func (e *Engine) AssessToxicity(ctx context.Context, id string) (ToxicityAssessment, error) {
	np, err := e.store.GetNanoparticle(ctx, id)
	if err != nil {
		return ToxicityAssessment{}, err
	}
	tox := AssessToxicity(np)
	logrus.Debugf("toxicity %s: score=%d risk=%s", id, tox.SafetyScore, tox.RiskLevel)
	return tox, nil
}

// OptimizeFormulation suggests formulation parameters. It does not touch the store.
func (e *Engine) OptimizeFormulation(drugPayload, targetTissue string) FormulationSuggestion {
	return Optimize(drugPayload, targetTissue)
}

// CreateTreatment validates and saves a planned treatment for an existing nanoparticle.
func (e *Engine) CreateTreatment(ctx context.Context, in TreatmentInput) (TreatmentRecord, error) {
	now := e.now()
	rec, err := NewTreatment(e.newID("TX"), in, now)
	if err != nil {
		return TreatmentRecord{}, err
	}
	if _, err := e.store.GetNanoparticle(ctx, in.NanoparticleID); err != nil {
		return TreatmentRecord{}, err
	}
	if err := e.store.SaveTreatment(ctx, rec); err != nil {
		return TreatmentRecord{}, fmt.Errorf("saving treatment: %w", err)
	}
	return rec, nil
}

// UpdateEfficacy records observed efficacy and side effects, advancing planned treatments to active.
func (e *Engine) UpdateEfficacy(ctx context.Context, id string, efficacyPct float64, sideEffects []string) (TreatmentRecord, error) {
	rec, err := e.store.GetTreatment(ctx, id)
	if err != nil {
		return TreatmentRecord{}, err
	}
	next, err := RecordEfficacy(rec, efficacyPct, sideEffects, e.now())
	if err != nil {
		return TreatmentRecord{}, err
	}
	if err := e.store.UpdateTreatment(ctx, next); err != nil {
		return TreatmentRecord{}, fmt.Errorf("updating treatment: %w", err)
	}
	logrus.Debugf("treatment %s: %s -> %s", id, rec.Status, next.Status)
	return next, nil
}

// CloseTreatment moves a treatment to completed or discontinued.
func (e *Engine) CloseTreatment(ctx context.Context, id string, status TreatmentStatus) (TreatmentRecord, error) {
	rec, err := e.store.GetTreatment(ctx, id)
	if err != nil {
		return TreatmentRecord{}, err
	}
	next, err := Close(rec, status, e.now())
	if err != nil {
		return TreatmentRecord{}, err
	}
	if err := e.store.UpdateTreatment(ctx, next); err != nil {
		return TreatmentRecord{}, fmt.Errorf("updating treatment: %w", err)
	}
	return next, nil
}

// ListTreatments returns treatments matching filter.
func (e *Engine) ListTreatments(ctx context.Context, filter TreatmentFilter) ([]TreatmentRecord, error) {
	if filter.Status != "" {
		if _, err := ParseStatus(string(filter.Status)); err != nil {
			return nil, err
		}
	}
	return e.store.ListTreatments(ctx, filter)
}

// BiodistributionHistory returns the logged samples of an existing nanoparticle.
func (e *Engine) BiodistributionHistory(ctx context.Context, id string) ([]BiodistributionSample, error) {
	if _, err := e.store.GetNanoparticle(ctx, id); err != nil {
		return nil, err
	}
	return e.store.ListBiodistribution(ctx, id)
}

// SummarizeHistory loads the sample log of nanoparticle id and aggregates it per tissue.
func (e *Engine) SummarizeHistory(ctx context.Context, id string) (*trace.TraceSummary, error) {
	samples, err := e.BiodistributionHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	dt := trace.NewDeliveryTrace(id)
	for _, s := range samples {
		dt.Record(trace.SampleRecord{Tissue: s.Tissue, ConcentrationUgMl: s.ConcentrationUgMl, Timestamp: s.Timestamp})
	}
	return trace.Summarize(dt), nil
}

func validateDose(doseMg float64) error {
	if !positiveFinite(doseMg) {
		return &ValidationError{Field: "dose_mg", Value: formatFloat(doseMg), Reason: "must be positive and finite"}
	}
	return nil
}
