// Package sqlite stores node executions in a SQLite database.
//
// Every accepted change is appended to node_execution_snapshots; the
// node_executions table only holds the latest version and serves lookups.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/facilitator/pkg/domain"
	"github.com/mattn/go-sqlite3"
)

// sortableTime keeps every fractional digit so that start_ts sorts
// chronologically as text.
const sortableTime = "2006-01-02T15:04:05.000000000Z"

const schema = `
	CREATE TABLE IF NOT EXISTS node_executions (
		id TEXT PRIMARY KEY,
		plan_execution_id TEXT NOT NULL,
		status TEXT NOT NULL,
		version INTEGER NOT NULL,
		start_ts TEXT NOT NULL,
		data TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_node_executions_plan
		ON node_executions (plan_execution_id);

	CREATE TABLE IF NOT EXISTS node_execution_snapshots (
		id TEXT NOT NULL,
		version INTEGER NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (id, version),
		FOREIGN KEY (id) REFERENCES node_executions(id)
	);`

// Store implements ports.NodeExecutionStore on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// dsn carries the connection pragmas, which the driver applies to every
// pooled connection.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts a new record and its first snapshot.
func (s *Store) Save(ctx context.Context, exec *domain.NodeExecution) error {
	exec.Version = 0
	data, err := json.Marshal(exec)
	if err != nil {
		return fmt.Errorf("marshal node execution: %w", err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO node_executions (id, plan_execution_id, status, version, start_ts, data)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			exec.ID,
			exec.Ambiance.PlanExecutionID,
			string(exec.Status),
			exec.Version,
			exec.StartTs.UTC().Format(sortableTime),
			string(data),
		)
		if err != nil {
			if isConstraint(err) {
				return domain.ErrDuplicateKey
			}
			return fmt.Errorf("insert node execution: %w", err)
		}
		return insertSnapshot(ctx, tx, exec.ID, exec.Version, data)
	})
}

// Get retrieves the current record.
func (s *Store) Get(ctx context.Context, id string) (*domain.NodeExecution, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM node_executions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNodeExecutionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query node execution: %w", err)
	}
	return decode(data)
}

// Find retrieves the record addressed by the ambiance leaf.
func (s *Store) Find(ctx context.Context, ambiance domain.Ambiance) (*domain.NodeExecution, error) {
	return s.Get(ctx, ambiance.CurrentRuntimeID())
}

// Update bumps the version if exec.Version is still current.
func (s *Store) Update(ctx context.Context, exec *domain.NodeExecution) error {
	next := exec.Snapshot()
	next.Version = exec.Version + 1
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal node execution: %w", err)
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE node_executions SET status = ?, version = ?, data = ?
			 WHERE id = ? AND version = ?`,
			string(next.Status), next.Version, string(data), exec.ID, exec.Version,
		)
		if err != nil {
			return fmt.Errorf("update node execution: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update node execution: %w", err)
		}
		if n == 0 {
			var exists int
			err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM node_executions WHERE id = ?`, exec.ID).Scan(&exists)
			if err != nil {
				return fmt.Errorf("check node execution: %w", err)
			}
			if exists == 0 {
				return domain.ErrNodeExecutionNotFound
			}
			return domain.ErrVersionConflict
		}
		return insertSnapshot(ctx, tx, exec.ID, next.Version, data)
	})
	if err != nil {
		return err
	}

	exec.Version = next.Version
	return nil
}

// History returns the snapshots of a record ordered by version.
func (s *Store) History(ctx context.Context, id string) ([]*domain.NodeExecution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM node_execution_snapshots WHERE id = ? ORDER BY version`, id)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out, err := scanAll(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, domain.ErrNodeExecutionNotFound
	}
	return out, nil
}

// ListByPlanExecution returns the records of a plan execution ordered by start time.
func (s *Store) ListByPlanExecution(ctx context.Context, planExecutionID string) ([]*domain.NodeExecution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM node_executions WHERE plan_execution_id = ? ORDER BY start_ts, id`, planExecutionID)
	if err != nil {
		return nil, fmt.Errorf("query plan execution: %w", err)
	}
	defer rows.Close()

	return scanAll(rows)
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func insertSnapshot(ctx context.Context, tx *sql.Tx, id string, version int64, data []byte) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO node_execution_snapshots (id, version, data) VALUES (?, ?, ?)`,
		id, version, string(data),
	)
	if err != nil {
		if isConstraint(err) {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func isConstraint(err error) bool {
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code == sqlite3.ErrConstraint
	}
	return false
}

func scanAll(rows *sql.Rows) ([]*domain.NodeExecution, error) {
	var out []*domain.NodeExecution
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan node execution: %w", err)
		}
		exec, err := decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, exec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate node executions: %w", err)
	}
	return out, nil
}

func decode(data string) (*domain.NodeExecution, error) {
	var exec domain.NodeExecution
	if err := json.Unmarshal([]byte(data), &exec); err != nil {
		return nil, fmt.Errorf("unmarshal node execution: %w", err)
	}
	return &exec, nil
}
