// Package storetest holds the behavioral contract every sim.RecordStore must satisfy.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanomed-sim/nanomed-sim/sim"
)

// Factory returns a fresh, empty store. Cleanup is the factory's responsibility.
type Factory func(t *testing.T) sim.RecordStore

var baseTime = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// Nanoparticle returns a valid design with the given id, targeted when ligand is non-empty.
func Nanoparticle(t *testing.T, id, ligand string) sim.NanoparticleSpec {
	t.Helper()
	np, err := sim.NewNanoparticle(id, sim.NanoparticleInput{
		Name:             "Lipo-" + id,
		Category:         "liposome",
		DiameterNm:       100,
		DrugPayload:      "doxorubicin",
		Material:         "lipid",
		TargetingLigand:  ligand,
		EncapsulationPct: 85,
	}, baseTime)
	require.NoError(t, err)
	return np
}

// Treatment returns a planned treatment for patient on nanoparticle npID created at offset after baseTime.
func Treatment(t *testing.T, id, patient, npID string, offset time.Duration) sim.TreatmentRecord {
	t.Helper()
	rec, err := sim.NewTreatment(id, sim.TreatmentInput{
		PatientID:      patient,
		NanoparticleID: npID,
		DoseMgKg:       2.5,
		Route:          "iv",
		Frequency:      "daily",
		DurationDays:   14,
	}, baseTime.Add(offset))
	require.NoError(t, err)
	return rec
}

// Run executes the contract suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("NanoparticleRoundTrip", func(t *testing.T) { testNanoparticleRoundTrip(t, newStore(t)) })
	t.Run("UnknownIDsAreNotFound", func(t *testing.T) { testUnknownIDs(t, newStore(t)) })
	t.Run("IDsMatchExactly", func(t *testing.T) { testIDsMatchExactly(t, newStore(t)) })
	t.Run("TreatmentLifecycle", func(t *testing.T) { testTreatmentLifecycle(t, newStore(t)) })
	t.Run("ListTreatmentsFilters", func(t *testing.T) { testListTreatments(t, newStore(t)) })
	t.Run("BiodistributionAppendOnly", func(t *testing.T) { testBiodistribution(t, newStore(t)) })
}

func testNanoparticleRoundTrip(t *testing.T, store sim.RecordStore) {
	ctx := context.Background()
	// GIVEN a targeted and an untargeted design
	targeted := Nanoparticle(t, "NP_AAAA0001", "folate")
	plain := Nanoparticle(t, "NP_AAAA0002", "")

	// WHEN both are saved and read back
	require.NoError(t, store.SaveNanoparticle(ctx, targeted))
	require.NoError(t, store.SaveNanoparticle(ctx, plain))
	gotTargeted, err := store.GetNanoparticle(ctx, targeted.ID)
	require.NoError(t, err)
	gotPlain, err := store.GetNanoparticle(ctx, plain.ID)
	require.NoError(t, err)

	// THEN every field survives, including the empty ligand
	assert.Equal(t, targeted.Name, gotTargeted.Name)
	assert.Equal(t, sim.CategoryLiposome, gotTargeted.Category)
	assert.Equal(t, sim.MaterialLipid, gotTargeted.Material)
	assert.InDelta(t, 100.0, gotTargeted.DiameterNm, 1e-9)
	assert.InDelta(t, -10.0, gotTargeted.SurfaceChargeMv, 1e-9)
	assert.InDelta(t, 85.0, gotTargeted.EncapsulationPct, 1e-9)
	assert.Equal(t, "folate", gotTargeted.TargetingLigand)
	assert.True(t, targeted.CreatedAt.Equal(gotTargeted.CreatedAt), "created_at %v != %v", targeted.CreatedAt, gotTargeted.CreatedAt)
	assert.Equal(t, "", gotPlain.TargetingLigand)
	assert.False(t, gotPlain.Targeted())

	// AND a duplicate id is rejected
	assert.Error(t, store.SaveNanoparticle(ctx, plain))
}

func testUnknownIDs(t *testing.T, store sim.RecordStore) {
	ctx := context.Background()

	_, err := store.GetNanoparticle(ctx, "NP_MISSING")
	assert.ErrorIs(t, err, sim.ErrNotFound)

	_, err = store.GetTreatment(ctx, "TX_MISSING")
	assert.ErrorIs(t, err, sim.ErrNotFound)

	rec := Treatment(t, "TX_MISSING", "P1", "NP_MISSING", 0)
	assert.ErrorIs(t, store.UpdateTreatment(ctx, rec), sim.ErrNotFound)
}

func testIDsMatchExactly(t *testing.T, store sim.RecordStore) {
	ctx := context.Background()
	// GIVEN a stored nanoparticle and treatment
	np := Nanoparticle(t, "NP_EEEE0001", "")
	require.NoError(t, store.SaveNanoparticle(ctx, np))
	rec := Treatment(t, "TX_EEEE0001", "p1", np.ID, 0)
	require.NoError(t, store.SaveTreatment(ctx, rec))

	// WHEN looked up with surrounding whitespace THEN neither resolves
	for _, id := range []string{" " + np.ID, np.ID + " ", "\t" + np.ID} {
		_, err := store.GetNanoparticle(ctx, id)
		assert.ErrorIs(t, err, sim.ErrNotFound, "nanoparticle %q", id)
	}
	_, err := store.GetTreatment(ctx, " "+rec.ID)
	assert.ErrorIs(t, err, sim.ErrNotFound)
}

func testTreatmentLifecycle(t *testing.T, store sim.RecordStore) {
	ctx := context.Background()
	np := Nanoparticle(t, "NP_BBBB0001", "")
	require.NoError(t, store.SaveNanoparticle(ctx, np))

	// GIVEN a planned treatment
	rec := Treatment(t, "TX_BBBB0001", "patient-1", np.ID, 0)
	require.NoError(t, store.SaveTreatment(ctx, rec))

	got, err := store.GetTreatment(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, sim.StatusPlanned, got.Status)
	assert.Equal(t, 0.0, got.EfficacyPct)
	assert.Empty(t, got.SideEffects)
	assert.NotNil(t, got.SideEffects)

	// WHEN efficacy is recorded
	next, err := sim.RecordEfficacy(got, 62.5, []string{"nausea", "fatigue"}, baseTime.Add(48*time.Hour))
	require.NoError(t, err)
	require.NoError(t, store.UpdateTreatment(ctx, next))

	// THEN the stored record reflects the transition
	got, err = store.GetTreatment(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, sim.StatusActive, got.Status)
	assert.InDelta(t, 62.5, got.EfficacyPct, 1e-9)
	assert.Equal(t, []string{"nausea", "fatigue"}, got.SideEffects)
	assert.True(t, got.UpdatedAt.Equal(baseTime.Add(48*time.Hour)))
	assert.True(t, got.CreatedAt.Equal(baseTime))
	assert.Equal(t, sim.RouteIV, got.Route)
	assert.Equal(t, "daily", got.Frequency)
	assert.Equal(t, 14, got.DurationDays)
}

func testListTreatments(t *testing.T, store sim.RecordStore) {
	ctx := context.Background()
	np := Nanoparticle(t, "NP_CCCC0001", "")
	require.NoError(t, store.SaveNanoparticle(ctx, np))

	// GIVEN three treatments across two patients, saved out of creation order
	t3 := Treatment(t, "TX_CCCC0003", "p2", np.ID, 3*time.Hour)
	t1 := Treatment(t, "TX_CCCC0001", "p1", np.ID, 1*time.Hour)
	t2 := Treatment(t, "TX_CCCC0002", "p1", np.ID, 2*time.Hour)
	for _, rec := range []sim.TreatmentRecord{t3, t1, t2} {
		require.NoError(t, store.SaveTreatment(ctx, rec))
	}
	active, err := sim.RecordEfficacy(t2, 40, nil, baseTime.Add(5*time.Hour))
	require.NoError(t, err)
	require.NoError(t, store.UpdateTreatment(ctx, active))

	ids := func(recs []sim.TreatmentRecord) []string {
		out := make([]string, len(recs))
		for i, r := range recs {
			out[i] = r.ID
		}
		return out
	}

	// WHEN listing with no filter THEN all come back in creation order
	all, err := store.ListTreatments(ctx, sim.TreatmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"TX_CCCC0001", "TX_CCCC0002", "TX_CCCC0003"}, ids(all))

	byPatient, err := store.ListTreatments(ctx, sim.TreatmentFilter{PatientID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"TX_CCCC0001", "TX_CCCC0002"}, ids(byPatient))

	byStatus, err := store.ListTreatments(ctx, sim.TreatmentFilter{Status: sim.StatusActive})
	require.NoError(t, err)
	assert.Equal(t, []string{"TX_CCCC0002"}, ids(byStatus))

	both, err := store.ListTreatments(ctx, sim.TreatmentFilter{PatientID: "p2", Status: sim.StatusActive})
	require.NoError(t, err)
	assert.Empty(t, both)
}

func testBiodistribution(t *testing.T, store sim.RecordStore) {
	ctx := context.Background()
	np := Nanoparticle(t, "NP_DDDD0001", "rgd_peptide")
	other := Nanoparticle(t, "NP_DDDD0002", "")
	require.NoError(t, store.SaveNanoparticle(ctx, np))
	require.NoError(t, store.SaveNanoparticle(ctx, other))

	// GIVEN two simulation runs for np and one for another particle
	first := sim.Allocate(np, "tumor", 10).Samples(baseTime)
	second := sim.Allocate(np, "lung", 5).Samples(baseTime.Add(time.Minute))
	require.NoError(t, store.AppendBiodistribution(ctx, first))
	require.NoError(t, store.AppendBiodistribution(ctx, sim.Allocate(other, "liver", 1).Samples(baseTime)))
	require.NoError(t, store.AppendBiodistribution(ctx, second))

	// WHEN the log for np is read
	got, err := store.ListBiodistribution(ctx, np.ID)
	require.NoError(t, err)

	// THEN it holds exactly np's rows in append order
	require.Len(t, got, len(first)+len(second))
	for i, want := range append(first, second...) {
		assert.Equal(t, want.Tissue, got[i].Tissue, "row %d", i)
		assert.InDelta(t, want.ConcentrationUgMl, got[i].ConcentrationUgMl, 1e-6, "row %d", i)
		assert.True(t, want.Timestamp.Equal(got[i].Timestamp), "row %d timestamp", i)
		assert.Equal(t, np.ID, got[i].NanoparticleID)
	}

	empty, err := store.ListBiodistribution(ctx, "NP_NOSAMPLES")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
