// Package testutil provides shared test infrastructure for the nanomed engine.
// It holds the golden dataset types and assertion helpers used by sim/ tests.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one reference design with its expected model outputs.
type GoldenTestCase struct {
	Name            string        `json:"name"`
	Category        string        `json:"type"`
	Material        string        `json:"material"`
	DiameterNm      float64       `json:"diameter_nm"`
	TargetingLigand string        `json:"targeting_ligand"`
	TargetTissue    string        `json:"target_tissue"`
	DoseMg          float64       `json:"dose_mg"`
	Expected        GoldenMetrics `json:"expected"`
}

// GoldenMetrics represents the expected outputs of a golden test case.
type GoldenMetrics struct {
	// Rounded to two decimals by the PK model, compared exactly
	CmaxUgMl  float64 `json:"cmax_ug_ml"`
	TmaxH     float64 `json:"tmax_h"`
	AUCUgHMl  float64 `json:"auc_ug_h_ml"`
	HalfLifeH float64 `json:"half_life_h"`

	SafetyScore int    `json:"safety_score"`
	RiskLevel   string `json:"risk_level"`

	// Unrounded, compared with relative tolerance
	Concentrations map[string]float64 `json:"concentrations"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
