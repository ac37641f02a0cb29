package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cmlabs-hris/attendance-service/internal/domain/attendance"
)

type sourceImpl struct {
	path string
}

// NewSource returns a read-only source reading a JSON array of punch events
// from path. The file is read on every call.
func NewSource(path string) attendance.PunchSource {
	return &sourceImpl{path: path}
}

func (s *sourceImpl) ListPunches(ctx context.Context, _ attendance.PunchQuery) ([]attendance.PunchEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read punch file: %w", err)
	}

	punches := make([]attendance.PunchEvent, 0)
	if err := json.Unmarshal(data, &punches); err != nil {
		return nil, fmt.Errorf("failed to decode punch file %s: %w", s.path, err)
	}
	return punches, nil
}
