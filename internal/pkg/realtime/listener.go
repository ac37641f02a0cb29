package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-service/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// Change is the payload sent by the punch_events trigger.
type Change struct {
	EmployeeID string `json:"employee_id"`
	Op         string `json:"op"`
}

// ParseChange decodes a notification payload. Payloads that are not JSON are
// still reported as a change with no employee, so subscribers re-fetch.
func ParseChange(payload string) Change {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return Change{Op: "UNKNOWN"}
	}
	c.EmployeeID = strings.TrimSpace(c.EmployeeID)
	c.Op = strings.ToUpper(c.Op)
	return c
}

// Listener relays PostgreSQL notifications on one channel to registered handlers.
type Listener struct {
	db      *database.DB
	channel string

	mu        sync.RWMutex
	handlers  []func(Change)
	listening []func()
}

func NewListener(db *database.DB, channel string) *Listener {
	return &Listener{db: db, channel: channel}
}

// OnChange registers a handler called for every notification. Handlers run on
// the listener goroutine and must not block.
func (l *Listener) OnChange(fn func(Change)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers = append(l.handlers, fn)
}

// OnListening registers a callback invoked each time LISTEN succeeds,
// including after a reconnect.
func (l *Listener) OnListening(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listening = append(l.listening, fn)
}

// Run listens until ctx is done, reconnecting with capped backoff.
func (l *Listener) Run(ctx context.Context) {
	backoff := minBackoff
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			slog.Info("Realtime listener stopped", "channel", l.channel)
			return
		}

		slog.Error("Realtime listener disconnected", "channel", l.channel, "error", err, "retry_in", backoff.String())
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", l.channel, err)
	}
	slog.Info("Realtime listener started", "channel", l.channel)

	l.mu.RLock()
	for _, fn := range l.listening {
		fn()
	}
	l.mu.RUnlock()

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("failed to wait for notification: %w", err)
		}
		l.dispatch(ParseChange(notification.Payload))
	}
}

func (l *Listener) dispatch(change Change) {
	slog.Debug("Punch events changed", "employee_id", change.EmployeeID, "op", change.Op)

	l.mu.RLock()
	handlers := make([]func(Change), len(l.handlers))
	copy(handlers, l.handlers)
	l.mu.RUnlock()

	for _, fn := range handlers {
		fn(change)
	}
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
