package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-service/internal/pkg/database"
	"github.com/google/uuid"
)

type punchRepository struct {
	db  *database.DB
	loc *time.Location
}

// PunchRepository is the PostgreSQL punch source. It can also record punches.
type PunchRepository interface {
	attendance.PunchSource
	attendance.PunchWriter
}

// NewPunchRepository returns a repository rendering timestamps in loc, so the
// date part of each timestamp is the local calendar date.
func NewPunchRepository(db *database.DB, loc *time.Location) PunchRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &punchRepository{db: db, loc: loc}
}

// ListPunches implements attendance.PunchSource.
func (p *punchRepository) ListPunches(ctx context.Context, query attendance.PunchQuery) ([]attendance.PunchEvent, error) {
	q := GetQuerier(ctx, p.db)

	// Build WHERE clause
	conditions := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if query.EmployeeID != nil && *query.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argIdx))
		args = append(args, *query.EmployeeID)
		argIdx++
	}

	if query.Email != nil && *query.Email != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(email) = LOWER($%d)", argIdx))
		args = append(args, strings.TrimSpace(*query.Email))
		argIdx++
	}

	if query.Month != nil && *query.Month != "" {
		conditions = append(conditions, fmt.Sprintf("to_char(punched_at AT TIME ZONE $%d, 'YYYY-MM') = $%d", argIdx, argIdx+1))
		args = append(args, p.loc.String(), *query.Month)
		argIdx += 2
	}

	selectQuery := `
		SELECT id, employee_id, employee_name, email, position, punched_at, punch_type
		FROM punch_events
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY punched_at ASC, created_at ASC
	`

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query punch events: %w", err)
	}
	defer rows.Close()

	punches := make([]attendance.PunchEvent, 0)
	for rows.Next() {
		var (
			punch     attendance.PunchEvent
			id        uuid.UUID
			punchedAt time.Time
			punchType string
		)
		if err := rows.Scan(
			&id, &punch.EmployeeID, &punch.EmployeeName, &punch.Email, &punch.Position,
			&punchedAt, &punchType,
		); err != nil {
			return nil, fmt.Errorf("failed to scan punch event: %w", err)
		}
		punch.ID = id.String()
		punch.Timestamp = punchedAt.In(p.loc).Format(time.RFC3339Nano)
		punch.PunchType = attendance.PunchType(punchType)
		punches = append(punches, punch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read punch events: %w", err)
	}

	return punches, nil
}

// CreatePunch implements attendance.PunchWriter.
func (p *punchRepository) CreatePunch(ctx context.Context, punch attendance.PunchEvent) (attendance.PunchEvent, error) {
	q := GetQuerier(ctx, p.db)

	punchedAt, ok := attendance.ParseTimestamp(punch.Timestamp)
	if !ok {
		return attendance.PunchEvent{}, fmt.Errorf("failed to create punch event: invalid timestamp %q", punch.Timestamp)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.PunchEvent{}, fmt.Errorf("failed to generate punch id: %w", err)
	}

	query := `
		INSERT INTO punch_events (
			id, employee_id, employee_name, email, position, punched_at, punch_type
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		) RETURNING punched_at
	`

	var stored time.Time
	err = q.QueryRow(ctx, query,
		id,
		punch.EmployeeID,
		punch.EmployeeName,
		punch.Email,
		punch.Position,
		punchedAt,
		string(punch.PunchType),
	).Scan(&stored)
	if err != nil {
		return attendance.PunchEvent{}, fmt.Errorf("failed to create punch event: %w", err)
	}

	punch.ID = id.String()
	punch.Timestamp = stored.In(p.loc).Format(time.RFC3339Nano)
	return punch, nil
}
