// Package sqlite persists reconciled case snapshots per pipeline run.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vsinha/repairkpi/pkg/domain/entities"
	"github.com/vsinha/repairkpi/pkg/domain/repositories"
	_ "modernc.org/sqlite"
)

const (
	dateLayout = "2006-01-02"

	// timestampLayout is fixed width so created_at sorts lexically
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// CaseStore wraps SQLite access for runs and their cases
type CaseStore struct {
	db *sql.DB
}

// Verify interface compliance
var _ repositories.CaseRepository = (*CaseStore)(nil)

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway store.
func Open(path string) (*CaseStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &CaseStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite %s: %w", path, err)
	}
	return s, nil
}

// Close releases the database handle
func (s *CaseStore) Close() error { return s.db.Close() }

func (s *CaseStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			source TEXT,
			created_at TEXT,
			case_count INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS cases (
			run_id TEXT,
			seq INTEGER,
			case_id TEXT,
			engineer TEXT,
			client TEXT,
			serial_number TEXT,
			raw_type TEXT,
			service_type TEXT,
			model TEXT,
			status TEXT,
			requirement TEXT,
			fault TEXT,
			completion_date TEXT,
			raw_tat INTEGER,
			tat INTEGER,
			pending_days INTEGER,
			backlog_days INTEGER,
			construction_days REAL,
			revenue TEXT,
			external_cost TEXT,
			warranty INTEGER,
			parts_json TEXT,
			points REAL,
			is_recall INTEGER,
			recall_reason TEXT,
			recall_ref TEXT,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

type partRow struct {
	PartNumber string `json:"no"`
	Name       string `json:"name"`
}

// SaveCases replaces the snapshot stored under run.ID inside one transaction
func (s *CaseStore) SaveCases(ctx context.Context, run repositories.Run, cases []*entities.Case) error {
	if run.ID == "" {
		return fmt.Errorf("run id cannot be empty")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO runs(run_id, source, created_at, case_count) VALUES(?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET source=excluded.source, created_at=excluded.created_at, case_count=excluded.case_count`,
		run.ID, run.Source, run.CreatedAt.UTC().Format(timestampLayout), len(cases)); err != nil {
		return fmt.Errorf("failed to upsert run %s: %w", run.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cases WHERE run_id=?`, run.ID); err != nil {
		return fmt.Errorf("failed to clear run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cases(run_id, seq, case_id, engineer, client, serial_number, raw_type,
		service_type, model, status, requirement, fault, completion_date, raw_tat, tat, pending_days, backlog_days,
		construction_days, revenue, external_cost, warranty, parts_json, points, is_recall, recall_reason, recall_ref)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range cases {
		parts := make([]partRow, len(c.Parts))
		for j, p := range c.Parts {
			parts[j] = partRow{PartNumber: string(p.PartNumber), Name: p.Name}
		}
		partsJSON, err := json.Marshal(parts)
		if err != nil {
			return err
		}
		completion := ""
		if c.IsDated() {
			completion = c.CompletionDate.Format(dateLayout)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, c.ID, c.Engineer, c.Client, c.SerialNumber, c.RawType,
			c.ServiceType.Key(), c.Model, c.Status, c.Requirement, c.FaultDescription, completion,
			c.RawTAT, c.TAT, c.PendingDays, c.BacklogDays, c.ConstructionDays,
			c.Revenue.String(), c.ExternalRepairCost.String(), boolToInt(c.IsUnderWarranty), string(partsJSON),
			c.Points, boolToInt(c.IsRecall), c.RecallReason, c.RecallReferenceID); err != nil {
			return fmt.Errorf("failed to insert case %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// GetCases loads the snapshot of runID in saved order
func (s *CaseStore) GetCases(ctx context.Context, runID string) ([]*entities.Case, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM runs WHERE run_id=?`, runID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", repositories.ErrRunNotFound, runID)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT case_id, engineer, client, serial_number, raw_type, service_type, model,
		status, requirement, fault, completion_date, raw_tat, tat, pending_days, backlog_days, construction_days,
		revenue, external_cost, warranty, parts_json, points, is_recall, recall_reason, recall_ref
		FROM cases WHERE run_id=? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []*entities.Case
	for rows.Next() {
		var (
			c                      entities.Case
			serviceKey, completion string
			revenue, externalCost  string
			partsJSON              string
			warranty, recall       int
		)
		if err := rows.Scan(&c.ID, &c.Engineer, &c.Client, &c.SerialNumber, &c.RawType, &serviceKey, &c.Model,
			&c.Status, &c.Requirement, &c.FaultDescription, &completion, &c.RawTAT, &c.TAT, &c.PendingDays,
			&c.BacklogDays, &c.ConstructionDays, &revenue, &externalCost, &warranty, &partsJSON, &c.Points,
			&recall, &c.RecallReason, &c.RecallReferenceID); err != nil {
			return nil, err
		}

		if c.ServiceType, err = entities.ParseServiceTypeKey(serviceKey); err != nil {
			return nil, fmt.Errorf("case %s: %w", c.ID, err)
		}
		if completion != "" {
			if c.CompletionDate, err = time.Parse(dateLayout, completion); err != nil {
				return nil, fmt.Errorf("case %s: invalid completion date %q: %w", c.ID, completion, err)
			}
		}
		if c.Revenue, err = decimal.NewFromString(revenue); err != nil {
			return nil, fmt.Errorf("case %s: invalid revenue %q: %w", c.ID, revenue, err)
		}
		if c.ExternalRepairCost, err = decimal.NewFromString(externalCost); err != nil {
			return nil, fmt.Errorf("case %s: invalid external cost %q: %w", c.ID, externalCost, err)
		}
		var parts []partRow
		if err := json.Unmarshal([]byte(partsJSON), &parts); err != nil {
			return nil, fmt.Errorf("case %s: invalid parts: %w", c.ID, err)
		}
		for _, p := range parts {
			c.Parts = append(c.Parts, entities.Part{PartNumber: entities.PartNumber(p.PartNumber), Name: p.Name})
		}
		c.IsUnderWarranty = warranty != 0
		c.IsRecall = recall != 0

		cases = append(cases, &c)
	}
	return cases, rows.Err()
}

// LatestRun returns the most recently created run
func (s *CaseStore) LatestRun(ctx context.Context) (repositories.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT run_id, source, created_at, case_count FROM runs ORDER BY created_at DESC LIMIT 1`)
	var (
		run     repositories.Run
		created string
	)
	switch err := row.Scan(&run.ID, &run.Source, &created, &run.CaseCount); {
	case errors.Is(err, sql.ErrNoRows):
		return repositories.Run{}, repositories.ErrRunNotFound
	case err != nil:
		return repositories.Run{}, err
	}

	t, err := time.Parse(timestampLayout, created)
	if err != nil {
		return repositories.Run{}, fmt.Errorf("run %s: invalid created_at %q: %w", run.ID, created, err)
	}
	run.CreatedAt = t
	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
