//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"peirama/internal/results"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveCampaign(ctx context.Context, rec CampaignRecord, records []results.Record) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeRecords(records)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO campaigns (source_id, mvmt, scape, trials, max_steps, sample_period, artifact_path, created_at_utc, records)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, mvmt) DO UPDATE SET
			scape = excluded.scape,
			trials = excluded.trials,
			max_steps = excluded.max_steps,
			sample_period = excluded.sample_period,
			artifact_path = excluded.artifact_path,
			created_at_utc = excluded.created_at_utc,
			records = excluded.records
	`, rec.SourceID, rec.Mvmt, rec.Scape, rec.Trials, rec.MaxSteps, rec.SamplePeriod, rec.ArtifactPath, rec.CreatedAtUTC, payload)
	return err
}

func (s *SQLiteStore) GetCampaign(ctx context.Context, sourceID, mvmt string) (CampaignRecord, []results.Record, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return CampaignRecord{}, nil, false, err
	}

	rec := CampaignRecord{SourceID: sourceID, Mvmt: mvmt}
	var payload []byte
	err = db.QueryRowContext(ctx, `
		SELECT scape, trials, max_steps, sample_period, artifact_path, created_at_utc, records
		FROM campaigns WHERE source_id = ? AND mvmt = ?
	`, sourceID, mvmt).Scan(&rec.Scape, &rec.Trials, &rec.MaxSteps, &rec.SamplePeriod, &rec.ArtifactPath, &rec.CreatedAtUTC, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CampaignRecord{}, nil, false, nil
		}
		return CampaignRecord{}, nil, false, err
	}

	records, err := DecodeRecords(payload)
	if err != nil {
		return CampaignRecord{}, nil, false, fmt.Errorf("decode campaign %s/%s: %w", sourceID, mvmt, err)
	}
	return rec, records, true, nil
}

func (s *SQLiteStore) ListCampaigns(ctx context.Context) ([]CampaignRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT source_id, mvmt, scape, trials, max_steps, sample_period, artifact_path, created_at_utc
		FROM campaigns ORDER BY source_id, mvmt
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CampaignRecord, 0)
	for rows.Next() {
		var rec CampaignRecord
		if err := rows.Scan(&rec.SourceID, &rec.Mvmt, &rec.Scape, &rec.Trials, &rec.MaxSteps, &rec.SamplePeriod, &rec.ArtifactPath, &rec.CreatedAtUTC); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS campaigns (
			source_id TEXT NOT NULL,
			mvmt TEXT NOT NULL,
			scape TEXT NOT NULL,
			trials INTEGER NOT NULL,
			max_steps INTEGER NOT NULL,
			sample_period INTEGER NOT NULL,
			artifact_path TEXT NOT NULL,
			created_at_utc TEXT NOT NULL,
			records BLOB NOT NULL,
			PRIMARY KEY (source_id, mvmt)
		);
	`)
	return err
}
