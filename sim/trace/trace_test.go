package trace

import (
	"testing"
	"time"
)

func TestDeliveryTrace_Record_AppendsRecord(t *testing.T) {
	// GIVEN an empty trace
	dt := NewDeliveryTrace("NP_00000001")

	// WHEN a sample is recorded
	dt.Record(SampleRecord{Tissue: "liver", ConcentrationUgMl: 3500, Timestamp: time.Unix(100, 0)})

	// THEN the trace contains one sample with correct data
	if len(dt.Samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(dt.Samples))
	}
	if dt.Samples[0].Tissue != "liver" {
		t.Errorf("expected tissue liver, got %s", dt.Samples[0].Tissue)
	}
	if dt.NanoparticleID != "NP_00000001" {
		t.Errorf("expected NP_00000001, got %s", dt.NanoparticleID)
	}
}

func TestDeliveryTrace_MultipleRecords_PreservesOrder(t *testing.T) {
	dt := NewDeliveryTrace("NP_00000001")

	dt.Record(SampleRecord{Tissue: "liver"})
	dt.Record(SampleRecord{Tissue: "spleen"})
	dt.Record(SampleRecord{Tissue: "tumor"})

	want := []string{"liver", "spleen", "tumor"}
	for i, w := range want {
		if dt.Samples[i].Tissue != w {
			t.Errorf("sample %d: expected %s, got %s", i, w, dt.Samples[i].Tissue)
		}
	}
}
