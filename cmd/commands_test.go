package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nanomed-sim/nanomed-sim/sim"
	"github.com/nanomed-sim/nanomed-sim/sim/store/memory"
	"github.com/nanomed-sim/nanomed-sim/sim/store/sqlite"
)

func newTestSession(t *testing.T, format string) (session, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return session{
		ctx: context.Background(),
		eng: sim.NewEngine(memory.NewStore()),
		cfg: DefaultConfig(),
		out: reporter{w: &buf, format: format},
	}, &buf
}

// splitReport separates the "✓" header line from the structured body.
func splitReport(t *testing.T, out string) (string, string) {
	t.Helper()
	header, body, ok := strings.Cut(out, "\n")
	require.True(t, ok, "report must have a header line")
	require.True(t, strings.HasPrefix(header, "✓ "), "header %q", header)
	return header, body
}

func designForTest(t *testing.T, s session, buf *bytes.Buffer, ligand string) sim.NanoparticleSpec {
	t.Helper()
	require.NoError(t, runDesign(s, []string{"Lipo-1", "liposome", "100", "doxorubicin", "lipid"}, ligand, 85))
	_, body := splitReport(t, buf.String())
	var np sim.NanoparticleSpec
	require.NoError(t, json.Unmarshal([]byte(body), &np))
	buf.Reset()
	return np
}

func TestRunDesign_ReportsDerivedCharge(t *testing.T) {
	s, buf := newTestSession(t, "json")

	np := designForTest(t, s, buf, "folate")

	assert.Regexp(t, `^NP_[0-9A-F]{8}$`, np.ID)
	assert.Equal(t, -10.0, np.SurfaceChargeMv)
	assert.Equal(t, "folate", np.TargetingLigand)
	assert.Equal(t, sim.CategoryLiposome, np.Category)
}

func TestRunDesign_BadDiameter(t *testing.T) {
	s, _ := newTestSession(t, "json")

	err := runDesign(s, []string{"x", "liposome", "big", "drug", "lipid"}, "", 85)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "diameter")
}

func TestRunSimulate_RendersMicrogramsPerMl(t *testing.T) {
	// GIVEN an untargeted particle
	s, buf := newTestSession(t, "json")
	np := designForTest(t, s, buf, "")

	// WHEN simulating a 10 mg dose
	require.NoError(t, runSimulate(s, []string{np.ID, "tumor", "10"}))

	// THEN liver gets 35% of 10000 μg
	header, body := splitReport(t, buf.String())
	assert.Contains(t, header, np.ID)
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "3500.00 μg/mL", got["liver"])
	assert.Equal(t, "500.00 μg/mL", got["tumor"])
	assert.Len(t, got, 6)
}

func TestRunPK_YAMLOutput(t *testing.T) {
	s, buf := newTestSession(t, "json")
	np := designForTest(t, s, buf, "")
	s.out.format = "yaml"

	require.NoError(t, runPK(s, []string{np.ID, "10"}))

	_, body := splitReport(t, buf.String())
	var pk sim.PKParameters
	require.NoError(t, yaml.Unmarshal([]byte(body), &pk))
	assert.Equal(t, 9.5, pk.CmaxUgMl)
	assert.Equal(t, 6.0, pk.HalfLifeH)
	assert.Equal(t, sim.MaterialLipid, pk.ClearanceRoute)
}

func TestRunToxicity_UnknownID(t *testing.T) {
	s, _ := newTestSession(t, "json")

	err := runToxicity(s, "NP_DEADBEEF")

	assert.ErrorIs(t, err, sim.ErrNotFound)
}

func TestRunOptimize_SystemicHeader(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, runOptimize(reporter{w: &buf, format: "json"}, "insulin", "pancreas"))

	header, body := splitReport(t, buf.String())
	assert.Contains(t, header, "systemic")
	assert.Contains(t, header, "brain, liver, lung, tumor")
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "peg", got["targeting_ligand"])
	assert.Equal(t, "insulin", got["drug_payload"])
	assert.Equal(t, "liposome", got["type"])
}

func TestTreatCommands_Lifecycle(t *testing.T) {
	s, buf := newTestSession(t, "json")
	np := designForTest(t, s, buf, "")

	// GIVEN a created treatment
	require.NoError(t, runTreatCreate(s, []string{"patient-1", np.ID, "2.5", "iv", "14"}, "weekly"))
	_, body := splitReport(t, buf.String())
	var rec sim.TreatmentRecord
	require.NoError(t, json.Unmarshal([]byte(body), &rec))
	assert.Equal(t, sim.StatusPlanned, rec.Status)
	assert.Equal(t, "weekly", rec.Frequency)
	buf.Reset()

	// WHEN efficacy is recorded and the treatment is completed
	require.NoError(t, runTreatUpdate(s, []string{rec.ID, "55"}, []string{"fatigue"}))
	header, _ := splitReport(t, buf.String())
	assert.Contains(t, header, "active")
	buf.Reset()
	require.NoError(t, runTreatClose(s, []string{rec.ID, "completed"}))
	buf.Reset()

	// THEN it is listed as completed and further updates fail
	require.NoError(t, runTreatList(s, "patient-1", "completed"))
	_, body = splitReport(t, buf.String())
	var recs []sim.TreatmentRecord
	require.NoError(t, json.Unmarshal([]byte(body), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"fatigue"}, recs[0].SideEffects)

	assert.ErrorIs(t, runTreatUpdate(s, []string{rec.ID, "60"}, nil), sim.ErrInvalidTransition)
}

func TestRunTreatCreate_BadDuration(t *testing.T) {
	s, _ := newTestSession(t, "json")

	err := runTreatCreate(s, []string{"p", "NP_X", "1", "iv", "two"}, "daily")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "duration")
}

func TestRunTreatList_InvalidStatus(t *testing.T) {
	s, _ := newTestSession(t, "json")

	err := runTreatList(s, "", "paused")

	var verr *sim.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestRunHistory_SummarizesRuns(t *testing.T) {
	s, buf := newTestSession(t, "json")
	np := designForTest(t, s, buf, "rgd_peptide")
	require.NoError(t, runSimulate(s, []string{np.ID, "brain", "1"}))
	buf.Reset()

	require.NoError(t, runHistory(s, np.ID))

	header, body := splitReport(t, buf.String())
	assert.Contains(t, header, "7 samples over 1 runs")
	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &summary))
	assert.Equal(t, float64(7), summary["total_samples"])
}

func TestOpenStore_Backends(t *testing.T) {
	ctx := context.Background()

	mem, err := openStore(ctx, StoreConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, mem)
	require.NoError(t, mem.Close())

	path := filepath.Join(t.TempDir(), "nested", "nanomed.db")
	db, err := openStore(ctx, StoreConfig{Backend: "sqlite", Path: path})
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	assert.FileExists(t, path)
	assert.Equal(t, path, db.(*sqlite.Store).Path())
	require.NoError(t, db.Close())

	_, err = openStore(ctx, StoreConfig{Backend: "redis"})
	assert.Error(t, err)
}
