// Package memory provides an in-process RecordStore backed by maps.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/nanomed-sim/nanomed-sim/sim"
)

var _ sim.RecordStore = (*Store)(nil)

// Store keeps all records in memory. Safe for concurrent use.
type Store struct {
	mu            sync.RWMutex
	nanoparticles map[string]sim.NanoparticleSpec
	treatments    map[string]sim.TreatmentRecord
	samples       []sim.BiodistributionSample
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		nanoparticles: make(map[string]sim.NanoparticleSpec),
		treatments:    make(map[string]sim.TreatmentRecord),
		samples:       make([]sim.BiodistributionSample, 0),
	}
}

func (s *Store) SaveNanoparticle(_ context.Context, np sim.NanoparticleSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(np.ID) == "" {
		return errors.New("nanoparticle id required")
	}
	if _, exists := s.nanoparticles[np.ID]; exists {
		return errors.New("nanoparticle already exists")
	}
	s.nanoparticles[np.ID] = np
	return nil
}

func (s *Store) GetNanoparticle(_ context.Context, id string) (sim.NanoparticleSpec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	np, ok := s.nanoparticles[id]
	if !ok {
		return sim.NanoparticleSpec{}, sim.NotFoundError("nanoparticle", id)
	}
	return np, nil
}

func (s *Store) SaveTreatment(_ context.Context, rec sim.TreatmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("treatment id required")
	}
	if _, exists := s.treatments[rec.ID]; exists {
		return errors.New("treatment already exists")
	}
	s.treatments[rec.ID] = cloneTreatment(rec)
	return nil
}

func (s *Store) GetTreatment(_ context.Context, id string) (sim.TreatmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.treatments[id]
	if !ok {
		return sim.TreatmentRecord{}, sim.NotFoundError("treatment", id)
	}
	return cloneTreatment(rec), nil
}

func (s *Store) UpdateTreatment(_ context.Context, rec sim.TreatmentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.treatments[rec.ID]
	if !ok {
		return sim.NotFoundError("treatment", rec.ID)
	}
	cur.Status = rec.Status
	cur.EfficacyPct = rec.EfficacyPct
	cur.SideEffects = append([]string{}, rec.SideEffects...)
	cur.UpdatedAt = rec.UpdatedAt
	s.treatments[rec.ID] = cur
	return nil
}

func (s *Store) ListTreatments(_ context.Context, filter sim.TreatmentFilter) ([]sim.TreatmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]sim.TreatmentRecord, 0)
	for _, rec := range s.treatments {
		if filter.Matches(rec) {
			out = append(out, cloneTreatment(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) AppendBiodistribution(_ context.Context, samples []sim.BiodistributionSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, smp := range samples {
		if strings.TrimSpace(smp.NanoparticleID) == "" || strings.TrimSpace(smp.Tissue) == "" {
			return errors.New("sample requires nanoparticle id and tissue")
		}
	}
	s.samples = append(s.samples, samples...)
	return nil
}

func (s *Store) ListBiodistribution(_ context.Context, nanoparticleID string) ([]sim.BiodistributionSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]sim.BiodistributionSample, 0)
	for _, smp := range s.samples {
		if smp.NanoparticleID == nanoparticleID {
			out = append(out, smp)
		}
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func cloneTreatment(rec sim.TreatmentRecord) sim.TreatmentRecord {
	out := rec
	out.SideEffects = append([]string{}, rec.SideEffects...)
	return out
}
