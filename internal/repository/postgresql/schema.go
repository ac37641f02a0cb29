package postgresql

import (
	"context"
	"fmt"
	"regexp"

	"github.com/cmlabs-hris/attendance-service/internal/pkg/database"
)

var channelNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Migrate creates the punch_events table and the trigger that announces every
// change on the given notification channel. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *database.DB, channel string) error {
	if !channelNameRegex.MatchString(channel) {
		return fmt.Errorf("invalid notification channel name %q", channel)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS punch_events (
			id            UUID PRIMARY KEY,
			employee_id   TEXT NOT NULL,
			employee_name TEXT NOT NULL DEFAULT '',
			email         TEXT NOT NULL DEFAULT '',
			position      TEXT NOT NULL DEFAULT '',
			punched_at    TIMESTAMPTZ NOT NULL,
			punch_type    TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_punch_events_employee_punched_at
			ON punch_events (employee_id, punched_at)`,
		`CREATE OR REPLACE FUNCTION notify_punch_events() RETURNS trigger AS $$
		DECLARE
			changed RECORD;
		BEGIN
			IF TG_OP = 'DELETE' THEN
				changed := OLD;
			ELSE
				changed := NEW;
			END IF;
			PERFORM pg_notify(
				TG_ARGV[0],
				json_build_object('employee_id', changed.employee_id, 'op', TG_OP)::text
			);
			RETURN NULL;
		END;
		$$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS punch_events_notify ON punch_events`,
		fmt.Sprintf(`CREATE TRIGGER punch_events_notify
			AFTER INSERT OR UPDATE OR DELETE ON punch_events
			FOR EACH ROW EXECUTE FUNCTION notify_punch_events('%s')`, channel),
	}

	return WithTransaction(ctx, db, func(ctx context.Context) error {
		q := GetQuerier(ctx, db)
		for _, stmt := range statements {
			if _, err := q.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to migrate punch_events: %w", err)
			}
		}
		return nil
	})
}
