package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/vsinha/repairkpi/pkg/domain/entities"
)

// ErrRunNotFound is returned when no snapshot exists for the requested run
var ErrRunNotFound = errors.New("run not found")

// Run identifies one persisted pipeline snapshot
type Run struct {
	ID        string
	Source    string
	CreatedAt time.Time
	CaseCount int
}

// CaseRepository stores reconciled case snapshots per pipeline run
type CaseRepository interface {
	SaveCases(ctx context.Context, run Run, cases []*entities.Case) error
	GetCases(ctx context.Context, runID string) ([]*entities.Case, error)
	LatestRun(ctx context.Context) (Run, error)
}
