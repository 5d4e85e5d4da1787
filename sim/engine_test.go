package sim_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanomed-sim/nanomed-sim/sim"
	"github.com/nanomed-sim/nanomed-sim/sim/store/memory"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(t *testing.T) (*sim.Engine, *memory.Store, *fixedClock) {
	t.Helper()
	store := memory.NewStore()
	clock := &fixedClock{now: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	seq := 0
	eng := sim.NewEngine(store,
		sim.WithClock(clock.Now),
		sim.WithIDGenerator(func(prefix string) string {
			seq++
			return fmt.Sprintf("%s_%08X", prefix, seq)
		}),
	)
	return eng, store, clock
}

func design(t *testing.T, eng *sim.Engine, material, ligand string, diameter float64) sim.NanoparticleSpec {
	t.Helper()
	np, err := eng.DesignNanoparticle(context.Background(), sim.NanoparticleInput{
		Name: "np", Category: "polymeric", DiameterNm: diameter, DrugPayload: "doxorubicin",
		Material: material, TargetingLigand: ligand, EncapsulationPct: 85,
	})
	require.NoError(t, err)
	return np
}

func TestEngine_DesignNanoparticle_GoldChargeAndPersisted(t *testing.T) {
	eng, store, clock := newTestEngine(t)

	// WHEN a gold particle is designed
	np := design(t, eng, "gold", "", 60)

	// THEN its charge comes from the table and it is stored
	assert.Equal(t, -8.0, np.SurfaceChargeMv)
	assert.Equal(t, "NP_00000001", np.ID)
	assert.True(t, np.CreatedAt.Equal(clock.now))
	got, err := store.GetNanoparticle(context.Background(), np.ID)
	require.NoError(t, err)
	assert.Equal(t, np, got)
}

func TestEngine_DesignNanoparticle_InvalidInput_NothingSaved(t *testing.T) {
	eng, store, _ := newTestEngine(t)

	_, err := eng.DesignNanoparticle(context.Background(), sim.NanoparticleInput{
		Name: "bad", Category: "liposome", DiameterNm: 100, Material: "unobtainium",
	})

	var verr *sim.ValidationError
	require.ErrorAs(t, err, &verr)
	_, err = store.GetNanoparticle(context.Background(), "NP_00000001")
	assert.ErrorIs(t, err, sim.ErrNotFound)
}

func TestEngine_UnknownNanoparticle_NotFoundEverywhere(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Pharmacokinetics(ctx, "NP_NOPE", 10)
	assert.ErrorIs(t, err, sim.ErrNotFound)

	_, err = eng.AssessToxicity(ctx, "NP_NOPE")
	assert.ErrorIs(t, err, sim.ErrNotFound)

	_, err = eng.SimulateDelivery(ctx, "NP_NOPE", "tumor", 10)
	assert.ErrorIs(t, err, sim.ErrNotFound)

	_, err = eng.CreateTreatment(ctx, sim.TreatmentInput{PatientID: "p1", NanoparticleID: "NP_NOPE", DoseMgKg: 1, Route: "iv"})
	assert.ErrorIs(t, err, sim.ErrNotFound)

	_, err = eng.BiodistributionHistory(ctx, "NP_NOPE")
	assert.ErrorIs(t, err, sim.ErrNotFound)

	_, err = eng.UpdateEfficacy(ctx, "TX_NOPE", 10, nil)
	assert.ErrorIs(t, err, sim.ErrNotFound)
}

func TestEngine_SimulateDelivery_AppendsOneSamplePerTissue(t *testing.T) {
	eng, store, clock := newTestEngine(t)
	ctx := context.Background()
	np := design(t, eng, "lipid", "rgd_peptide", 100)

	// WHEN delivery is simulated twice
	first, err := eng.SimulateDelivery(ctx, np.ID, "tumor", 10)
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = eng.SimulateDelivery(ctx, np.ID, "brain", 10)
	require.NoError(t, err)

	// THEN the log holds 6 + 7 rows and concentrations sum to dose*1000
	total := 0.0
	for _, c := range first.Concentrations() {
		total += c
	}
	assert.InDelta(t, 10000.0, total, 1e-6)

	samples, err := store.ListBiodistribution(ctx, np.ID)
	require.NoError(t, err)
	require.Len(t, samples, 13)
	assert.Equal(t, "brain", samples[12].Tissue)
	assert.True(t, samples[0].Timestamp.Equal(samples[5].Timestamp))
	assert.False(t, samples[0].Timestamp.Equal(samples[6].Timestamp))
}

func TestEngine_SimulateDelivery_InvalidArguments_NoAppend(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()
	np := design(t, eng, "plga", "", 100)

	_, err := eng.SimulateDelivery(ctx, np.ID, " ", 10)
	var verr *sim.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = eng.SimulateDelivery(ctx, np.ID, "liver", 0)
	assert.ErrorAs(t, err, &verr)

	_, err = eng.SimulateDelivery(ctx, np.ID, "liver", math.Inf(1))
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "dose_mg", verr.Field)

	samples, err := store.ListBiodistribution(ctx, np.ID)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestEngine_Pharmacokinetics_UsesStoredParticle(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	np := design(t, eng, "gold", "", 200)

	pk, err := eng.Pharmacokinetics(context.Background(), np.ID, 20)

	// cmax = 20*0.5/2 = 5; t½ = 12; auc = 5/(0.693/12)
	require.NoError(t, err)
	assert.Equal(t, 5.0, pk.CmaxUgMl)
	assert.Equal(t, 12.0, pk.HalfLifeH)
	assert.Equal(t, 3.6, pk.TmaxH)
	assert.Equal(t, 86.58, pk.AUCUgHMl)
	assert.Equal(t, sim.MaterialGold, pk.ClearanceRoute)

	_, err = eng.Pharmacokinetics(context.Background(), np.ID, -1)
	assert.Error(t, err)

	_, err = eng.Pharmacokinetics(context.Background(), np.ID, math.Inf(1))
	assert.Error(t, err)
}

func TestEngine_AssessToxicity_Silica(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	np := design(t, eng, "silica", "", 100)

	tox, err := eng.AssessToxicity(context.Background(), np.ID)

	require.NoError(t, err)
	assert.Equal(t, 65, tox.SafetyScore)
	assert.Equal(t, sim.RiskModerate, tox.RiskLevel)
}

func TestEngine_OptimizeFormulation_NoStoreAccess(t *testing.T) {
	eng := sim.NewEngine(nil)

	got := eng.OptimizeFormulation("doxorubicin", "tumor")

	assert.Equal(t, sim.CategoryLiposome, got.Category)
	assert.Equal(t, "doxorubicin", got.DrugPayload)
}

func TestEngine_TreatmentLifecycle(t *testing.T) {
	eng, _, clock := newTestEngine(t)
	ctx := context.Background()
	np := design(t, eng, "chitosan", "galactose", 150)

	// GIVEN a new treatment
	rec, err := eng.CreateTreatment(ctx, sim.TreatmentInput{
		PatientID: "patient-7", NanoparticleID: np.ID, DoseMgKg: 2, Route: "iv", Frequency: "daily", DurationDays: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, sim.StatusPlanned, rec.Status)
	assert.Equal(t, "TX_00000002", rec.ID)

	// WHEN efficacy is recorded
	clock.Advance(72 * time.Hour)
	updated, err := eng.UpdateEfficacy(ctx, rec.ID, 35, []string{"mild nausea"})
	require.NoError(t, err)

	// THEN it becomes active with a refreshed timestamp
	assert.Equal(t, sim.StatusActive, updated.Status)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	active, err := eng.ListTreatments(ctx, sim.TreatmentFilter{Status: sim.StatusActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, []string{"mild nausea"}, active[0].SideEffects)

	// AND once discontinued no further efficacy updates are accepted
	closed, err := eng.CloseTreatment(ctx, rec.ID, sim.StatusDiscontinued)
	require.NoError(t, err)
	assert.Equal(t, sim.StatusDiscontinued, closed.Status)

	_, err = eng.UpdateEfficacy(ctx, rec.ID, 50, nil)
	assert.True(t, errors.Is(err, sim.ErrInvalidTransition))
}

func TestEngine_CreateTreatment_InvalidRoute(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	np := design(t, eng, "pla", "", 80)

	_, err := eng.CreateTreatment(context.Background(), sim.TreatmentInput{
		PatientID: "p", NanoparticleID: np.ID, DoseMgKg: 1, Route: "subcutaneous",
	})

	var verr *sim.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "route", verr.Field)
}

func TestEngine_ListTreatments_InvalidStatus(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	_, err := eng.ListTreatments(context.Background(), sim.TreatmentFilter{Status: "paused"})

	var verr *sim.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestEngine_SummarizeHistory(t *testing.T) {
	eng, _, clock := newTestEngine(t)
	ctx := context.Background()
	np := design(t, eng, "lipid", "", 100)

	for i := 0; i < 3; i++ {
		_, err := eng.SimulateDelivery(ctx, np.ID, "tumor", 1)
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	summary, err := eng.SummarizeHistory(ctx, np.ID)

	require.NoError(t, err)
	assert.Equal(t, 18, summary.TotalSamples)
	assert.Equal(t, 3, summary.Runs)
	require.NotEmpty(t, summary.Tissues)
	assert.Equal(t, "liver", summary.Tissues[0].Tissue)
	assert.InDelta(t, 350.0, summary.Tissues[0].MeanUgMl, 1e-9)
}

func TestEngine_CreateTreatment_PaddedNanoparticleID_NotFound(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	np := design(t, eng, "lipid", "", 100)

	_, err := eng.CreateTreatment(context.Background(), sim.TreatmentInput{
		PatientID: "p1", NanoparticleID: " " + np.ID, DoseMgKg: 1, Route: "iv",
	})

	assert.ErrorIs(t, err, sim.ErrNotFound)
	recs, err := store.ListTreatments(context.Background(), sim.TreatmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}
