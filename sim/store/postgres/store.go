// Package postgres provides a Postgres-backed RecordStore using pgx through database/sql.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/nanomed-sim/nanomed-sim/sim"
)

var _ sim.RecordStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/nanomed?sslmode=disable"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS nanoparticles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		diameter_nm DOUBLE PRECISION NOT NULL,
		surface_charge_mv DOUBLE PRECISION NOT NULL,
		drug_payload TEXT NOT NULL,
		encapsulation_pct DOUBLE PRECISION NOT NULL,
		targeting_ligand TEXT,
		material TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS treatments (
		id TEXT PRIMARY KEY,
		patient_id TEXT NOT NULL,
		nanoparticle_id TEXT NOT NULL REFERENCES nanoparticles(id),
		dose_mg_kg DOUBLE PRECISION NOT NULL,
		route TEXT NOT NULL,
		frequency TEXT NOT NULL,
		duration_days INTEGER NOT NULL,
		status TEXT NOT NULL,
		efficacy_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
		side_effects JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS biodistribution (
		id BIGSERIAL PRIMARY KEY,
		nanoparticle_id TEXT NOT NULL REFERENCES nanoparticles(id),
		tissue TEXT NOT NULL,
		concentration_ug_ml DOUBLE PRECISION NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_treatments_patient ON treatments(patient_id)`,
	`CREATE INDEX IF NOT EXISTS idx_biodistribution_np ON biodistribution(nanoparticle_id)`,
}

// Store persists records in Postgres.
type Store struct {
	db *sql.DB
}

// Open connects to dsn (falls back to defaultDSN), pings it and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sql.Open(defaultDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("execute ddl: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) SaveNanoparticle(ctx context.Context, np sim.NanoparticleSpec) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nanoparticles (
			id, name, type, diameter_nm, surface_charge_mv,
			drug_payload, encapsulation_pct, targeting_ligand, material, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		np.ID,
		np.Name,
		string(np.Category),
		np.DiameterNm,
		np.SurfaceChargeMv,
		np.DrugPayload,
		np.EncapsulationPct,
		toNullString(np.TargetingLigand),
		string(np.Material),
		np.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert nanoparticle: %w", err)
	}
	return nil
}

func (s *Store) GetNanoparticle(ctx context.Context, id string) (sim.NanoparticleSpec, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, type, diameter_nm, surface_charge_mv,
			drug_payload, encapsulation_pct, targeting_ligand, material, created_at
		FROM nanoparticles WHERE id = $1
	`, id)

	var (
		np       sim.NanoparticleSpec
		category string
		material string
		ligand   sql.NullString
	)
	err := row.Scan(&np.ID, &np.Name, &category, &np.DiameterNm, &np.SurfaceChargeMv,
		&np.DrugPayload, &np.EncapsulationPct, &ligand, &material, &np.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return sim.NanoparticleSpec{}, sim.NotFoundError("nanoparticle", id)
	}
	if err != nil {
		return sim.NanoparticleSpec{}, fmt.Errorf("select nanoparticle: %w", err)
	}
	np.Category = sim.Category(category)
	np.Material = sim.Material(material)
	np.TargetingLigand = ligand.String
	return np, nil
}

func (s *Store) SaveTreatment(ctx context.Context, rec sim.TreatmentRecord) error {
	sideEffects, err := encodeSideEffects(rec.SideEffects)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO treatments (
			id, patient_id, nanoparticle_id, dose_mg_kg, route, frequency,
			duration_days, status, efficacy_pct, side_effects, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		rec.ID,
		rec.PatientID,
		rec.NanoparticleID,
		rec.DoseMgKg,
		string(rec.Route),
		rec.Frequency,
		rec.DurationDays,
		string(rec.Status),
		rec.EfficacyPct,
		sideEffects,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert treatment: %w", err)
	}
	return nil
}

const treatmentColumns = `id, patient_id, nanoparticle_id, dose_mg_kg, route, frequency,
	duration_days, status, efficacy_pct, side_effects, created_at, updated_at`

func (s *Store) GetTreatment(ctx context.Context, id string) (sim.TreatmentRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+treatmentColumns+` FROM treatments WHERE id = $1`, id)
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
	res, err := s.db.ExecContext(ctx, `
		UPDATE treatments
		SET
			efficacy_pct = $2,
			side_effects = $3,
			status = $4,
			updated_at = $5
		WHERE id = $1
	`,
		rec.ID,
		rec.EfficacyPct,
		sideEffects,
		string(rec.Status),
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update treatment: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sim.NotFoundError("treatment", rec.ID)
	}
	return nil
}

func (s *Store) ListTreatments(ctx context.Context, filter sim.TreatmentFilter) ([]sim.TreatmentRecord, error) {
	var (
		where  []string
		params []any
	)
	if filter.PatientID != "" {
		params = append(params, filter.PatientID)
		where = append(where, fmt.Sprintf("patient_id = $%d", len(params)))
	}
	if filter.Status != "" {
		params = append(params, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(params)))
	}
	query := `SELECT ` + treatmentColumns + ` FROM treatments`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`

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
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO biodistribution (nanoparticle_id, tissue, concentration_ug_ml, timestamp)
			VALUES ($1,$2,$3,$4)
		`, smp.NanoparticleID, smp.Tissue, smp.ConcentrationUgMl, smp.Timestamp); err != nil {
			return fmt.Errorf("insert sample %s/%s: %w", smp.NanoparticleID, smp.Tissue, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) ListBiodistribution(ctx context.Context, nanoparticleID string) ([]sim.BiodistributionSample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT nanoparticle_id, tissue, concentration_ug_ml, timestamp
		FROM biodistribution
		WHERE nanoparticle_id = $1
		ORDER BY id ASC
	`, nanoparticleID)
	if err != nil {
		return nil, fmt.Errorf("select biodistribution: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]sim.BiodistributionSample, 0)
	for rows.Next() {
		var smp sim.BiodistributionSample
		if err := rows.Scan(&smp.NanoparticleID, &smp.Tissue, &smp.ConcentrationUgMl, &smp.Timestamp); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
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
		rec           sim.TreatmentRecord
		route, status string
		sideEffects   []byte
	)
	err := row.Scan(&rec.ID, &rec.PatientID, &rec.NanoparticleID, &rec.DoseMgKg, &route, &rec.Frequency,
		&rec.DurationDays, &status, &rec.EfficacyPct, &sideEffects, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sim.TreatmentRecord{}, err
		}
		return sim.TreatmentRecord{}, fmt.Errorf("scan treatment: %w", err)
	}
	rec.Route = sim.Route(route)
	rec.Status = sim.TreatmentStatus(status)
	if err := json.Unmarshal(sideEffects, &rec.SideEffects); err != nil {
		return sim.TreatmentRecord{}, fmt.Errorf("decode side effects: %w", err)
	}
	if rec.SideEffects == nil {
		rec.SideEffects = []string{}
	}
	return rec, nil
}

func encodeSideEffects(sideEffects []string) ([]byte, error) {
	if sideEffects == nil {
		sideEffects = []string{}
	}
	data, err := json.Marshal(sideEffects)
	if err != nil {
		return nil, fmt.Errorf("encode side effects: %w", err)
	}
	return data, nil
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
