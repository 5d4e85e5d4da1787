// Package sqlite provides an embedded SQLite RecordStore.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/nanomed-sim/nanomed-sim/sim"
)

var _ sim.RecordStore = (*Store)(nil)

// timeLayout is fixed-width so TEXT timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS nanoparticles (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	diameter_nm REAL NOT NULL,
	surface_charge_mv REAL NOT NULL,
	drug_payload TEXT NOT NULL,
	encapsulation_pct REAL NOT NULL,
	targeting_ligand TEXT,
	material TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS treatments (
	id TEXT PRIMARY KEY,
	patient_id TEXT NOT NULL,
	nanoparticle_id TEXT NOT NULL,
	dose_mg_kg REAL NOT NULL,
	route TEXT NOT NULL,
	frequency TEXT NOT NULL,
	duration_days INTEGER NOT NULL,
	status TEXT NOT NULL,
	efficacy_pct REAL DEFAULT 0,
	side_effects TEXT DEFAULT '[]',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	FOREIGN KEY(nanoparticle_id) REFERENCES nanoparticles(id)
);
CREATE TABLE IF NOT EXISTS biodistribution (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	nanoparticle_id TEXT NOT NULL,
	tissue TEXT NOT NULL,
	concentration_ug_ml REAL NOT NULL,
	timestamp TEXT NOT NULL,
	FOREIGN KEY(nanoparticle_id) REFERENCES nanoparticles(id)
);`

// Store persists records in a single SQLite file.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the database at path and applies the schema.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "nanomed.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) SaveNanoparticle(ctx context.Context, np sim.NanoparticleSpec) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO nanoparticles
		(id, name, type, diameter_nm, surface_charge_mv, drug_payload, encapsulation_pct, targeting_ligand, material, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		np.ID, np.Name, string(np.Category), np.DiameterNm, np.SurfaceChargeMv, np.DrugPayload,
		np.EncapsulationPct, np.TargetingLigand, string(np.Material), formatTime(np.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert nanoparticle: %w", err)
	}
	return nil
}

func (s *Store) GetNanoparticle(ctx context.Context, id string) (sim.NanoparticleSpec, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, type, diameter_nm, surface_charge_mv, drug_payload,
		encapsulation_pct, targeting_ligand, material, created_at FROM nanoparticles WHERE id = ?`, id)

	var (
		np        sim.NanoparticleSpec
		category  string
		material  string
		ligand    sql.NullString
		createdAt string
	)
	err := row.Scan(&np.ID, &np.Name, &category, &np.DiameterNm, &np.SurfaceChargeMv, &np.DrugPayload,
		&np.EncapsulationPct, &ligand, &material, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return sim.NanoparticleSpec{}, sim.NotFoundError("nanoparticle", id)
	}
	if err != nil {
		return sim.NanoparticleSpec{}, fmt.Errorf("select nanoparticle: %w", err)
	}
	np.Category = sim.Category(category)
	np.Material = sim.Material(material)
	np.TargetingLigand = ligand.String
	if np.CreatedAt, err = parseTime(createdAt); err != nil {
		return sim.NanoparticleSpec{}, err
	}
	return np, nil
}

func (s *Store) SaveTreatment(ctx context.Context, rec sim.TreatmentRecord) error {
	sideEffects, err := encodeSideEffects(rec.SideEffects)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO treatments
		(id, patient_id, nanoparticle_id, dose_mg_kg, route, frequency, duration_days, status, efficacy_pct, side_effects, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.PatientID, rec.NanoparticleID, rec.DoseMgKg, string(rec.Route), rec.Frequency,
		rec.DurationDays, string(rec.Status), rec.EfficacyPct, sideEffects,
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert treatment: %w", err)
	}
	return nil
}

const treatmentColumns = `id, patient_id, nanoparticle_id, dose_mg_kg, route, frequency, duration_days,
	status, efficacy_pct, side_effects, created_at, updated_at`

func (s *Store) GetTreatment(ctx context.Context, id string) (sim.TreatmentRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+treatmentColumns+` FROM treatments WHERE id = ?`, id)
	rec, err := scanTreatment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return sim.TreatmentRecord{}, sim.NotFoundError("treatment", id)
	}
	return rec, err
}

func (s *Store) UpdateTreatment(ctx context.Context, rec sim.TreatmentRecord) error {
	sideEffects, err := encodeSideEffects(rec.SideEffects)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE treatments
		SET efficacy_pct = ?, side_effects = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		rec.EfficacyPct, sideEffects, string(rec.Status), formatTime(rec.UpdatedAt), rec.ID)
	if err != nil {
		return fmt.Errorf("update treatment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sim.NotFoundError("treatment", rec.ID)
	}
	return nil
}

func (s *Store) ListTreatments(ctx context.Context, filter sim.TreatmentFilter) ([]sim.TreatmentRecord, error) {
	query := `SELECT ` + treatmentColumns + ` FROM treatments WHERE 1=1`
	var params []any
	if filter.PatientID != "" {
		query += ` AND patient_id = ?`
		params = append(params, filter.PatientID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		params = append(params, string(filter.Status))
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("select treatments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]sim.TreatmentRecord, 0)
	for rows.Next() {
		rec, err := scanTreatment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate treatments: %w", err)
	}
	return out, nil
}

func (s *Store) AppendBiodistribution(ctx context.Context, samples []sim.BiodistributionSample) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, smp := range samples {
		if _, err := tx.ExecContext(ctx, `INSERT INTO biodistribution
			(nanoparticle_id, tissue, concentration_ug_ml, timestamp) VALUES (?, ?, ?, ?)`,
			smp.NanoparticleID, smp.Tissue, smp.ConcentrationUgMl, formatTime(smp.Timestamp)); err != nil {
			return fmt.Errorf("insert sample %s/%s: %w", smp.NanoparticleID, smp.Tissue, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) ListBiodistribution(ctx context.Context, nanoparticleID string) ([]sim.BiodistributionSample, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT nanoparticle_id, tissue, concentration_ug_ml, timestamp
		FROM biodistribution WHERE nanoparticle_id = ? ORDER BY id`, nanoparticleID)
	if err != nil {
		return nil, fmt.Errorf("select biodistribution: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]sim.BiodistributionSample, 0)
	for rows.Next() {
		var (
			smp sim.BiodistributionSample
			ts  string
		)
		if err := rows.Scan(&smp.NanoparticleID, &smp.Tissue, &smp.ConcentrationUgMl, &ts); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		if smp.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		out = append(out, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate biodistribution: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTreatment(row scanner) (sim.TreatmentRecord, error) {
	var (
		rec                  sim.TreatmentRecord
		route, status        string
		sideEffects          string
		createdAt, updatedAt string
	)
	err := row.Scan(&rec.ID, &rec.PatientID, &rec.NanoparticleID, &rec.DoseMgKg, &route, &rec.Frequency,
		&rec.DurationDays, &status, &rec.EfficacyPct, &sideEffects, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sim.TreatmentRecord{}, err
		}
		return sim.TreatmentRecord{}, fmt.Errorf("scan treatment: %w", err)
	}
	rec.Route = sim.Route(route)
	rec.Status = sim.TreatmentStatus(status)
	if err := json.Unmarshal([]byte(sideEffects), &rec.SideEffects); err != nil {
		return sim.TreatmentRecord{}, fmt.Errorf("decode side effects: %w", err)
	}
	if rec.SideEffects == nil {
		rec.SideEffects = []string{}
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return sim.TreatmentRecord{}, err
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return sim.TreatmentRecord{}, err
	}
	return rec, nil
}

func encodeSideEffects(sideEffects []string) (string, error) {
	if sideEffects == nil {
		sideEffects = []string{}
	}
	data, err := json.Marshal(sideEffects)
	if err != nil {
		return "", fmt.Errorf("encode side effects: %w", err)
	}
	return string(data), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
