package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const currentVersion = 2

// storedLayout keeps punched_at fixed-width UTC so text order is time order.
const storedLayout = "2006-01-02T15:04:05.000000000Z"

// Store is an offline punch store backed by a local SQLite file.
type Store struct {
	db  *sql.DB
	loc *time.Location
}

// Open opens (or creates) the database at path and runs migrations. Use
// ":memory:" for a throwaway store.
func Open(path string, loc *time.Location) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	if loc == nil {
		loc = time.UTC
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, loc: loc}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		const ddl = `
		CREATE TABLE IF NOT EXISTS punch_events (
			id            TEXT PRIMARY KEY,
			employee_id   TEXT NOT NULL,
			employee_name TEXT NOT NULL DEFAULT '',
			email         TEXT NOT NULL DEFAULT '',
			position      TEXT NOT NULL DEFAULT '',
			punched_at    TEXT NOT NULL,
			punch_type    TEXT NOT NULL DEFAULT '',
			created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
			UNIQUE(employee_id, punched_at)
		);

		CREATE INDEX IF NOT EXISTS idx_punch_events_email ON punch_events(email);`
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("migrate v1: %w", err)
		}
	}

	if version < 2 {
		// v1 stored whole seconds as 2006-01-02T15:04:05Z
		const dml = `
		UPDATE punch_events
		SET punched_at = substr(punched_at, 1, 19) || '.000000000Z'
		WHERE length(punched_at) = 20`
		if _, err := s.db.Exec(dml); err != nil {
			return fmt.Errorf("migrate v2: %w", err)
		}
	}

	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

// ListPunches implements attendance.PunchSource. Employee and email filters
// run in SQL; the month is matched on the local date.
func (s *Store) ListPunches(ctx context.Context, query attendance.PunchQuery) ([]attendance.PunchEvent, error) {
	conditions := []string{"1 = 1"}
	var args []interface{}

	if query.EmployeeID != nil && *query.EmployeeID != "" {
		conditions = append(conditions, "employee_id = ?")
		args = append(args, *query.EmployeeID)
	}
	if query.Email != nil && *query.Email != "" {
		conditions = append(conditions, "LOWER(email) = LOWER(?)")
		args = append(args, strings.TrimSpace(*query.Email))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, employee_name, email, position, punched_at, punch_type
		FROM punch_events
		WHERE `+strings.Join(conditions, " AND ")+`
		ORDER BY punched_at, created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("query punch events: %w", err)
	}
	defer rows.Close()

	punches := make([]attendance.PunchEvent, 0)
	for rows.Next() {
		var (
			p         attendance.PunchEvent
			punchedAt string
			punchType string
		)
		if err := rows.Scan(&p.ID, &p.EmployeeID, &p.EmployeeName, &p.Email, &p.Position, &punchedAt, &punchType); err != nil {
			return nil, fmt.Errorf("scan punch event: %w", err)
		}
		p.Timestamp = s.render(punchedAt)
		p.PunchType = attendance.PunchType(punchType)

		if query.Month != nil && *query.Month != "" && !strings.HasPrefix(p.Timestamp, *query.Month) {
			continue
		}
		punches = append(punches, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate punch events: %w", err)
	}

	return punches, nil
}

// CreatePunch implements attendance.PunchWriter.
func (s *Store) CreatePunch(ctx context.Context, punch attendance.PunchEvent) (attendance.PunchEvent, error) {
	at, ok := attendance.ParseTimestamp(punch.Timestamp)
	if !ok {
		return attendance.PunchEvent{}, fmt.Errorf("create punch event: invalid timestamp %q", punch.Timestamp)
	}

	punch.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO punch_events (id, employee_id, employee_name, email, position, punched_at, punch_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		punch.ID, punch.EmployeeID, punch.EmployeeName, punch.Email, punch.Position,
		at.UTC().Format(storedLayout), string(punch.PunchType),
	)
	if err != nil {
		return attendance.PunchEvent{}, fmt.Errorf("create punch event: %w", err)
	}

	punch.Timestamp = at.In(s.loc).Format(time.RFC3339Nano)
	return punch, nil
}

// Import stores punches in one transaction, skipping rows without an
// employee id or a readable timestamp and rows already present for the same
// employee and instant. It returns how many rows were inserted.
func (s *Store) Import(ctx context.Context, punches []attendance.PunchEvent) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO punch_events (id, employee_id, employee_name, email, position, punched_at, punch_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, p := range punches {
		at, ok := attendance.ParseTimestamp(p.Timestamp)
		if strings.TrimSpace(p.EmployeeID) == "" || !ok {
			continue
		}
		res, err := stmt.ExecContext(ctx,
			uuid.NewString(), p.EmployeeID, p.EmployeeName, p.Email, p.Position,
			at.UTC().Format(storedLayout), string(p.PunchType),
		)
		if err != nil {
			return 0, fmt.Errorf("import punch event: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return inserted, nil
}

func (s *Store) render(stored string) string {
	t, err := time.Parse(time.RFC3339Nano, stored)
	if err != nil {
		return stored
	}
	return t.In(s.loc).Format(time.RFC3339Nano)
}
