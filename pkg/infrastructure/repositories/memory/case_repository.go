package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vsinha/repairkpi/pkg/domain/entities"
	"github.com/vsinha/repairkpi/pkg/domain/repositories"
)

// CaseRepository provides in-memory case snapshot storage
type CaseRepository struct {
	mu     sync.RWMutex
	runs   []repositories.Run
	runIdx map[string]int
	cases  map[string][]*entities.Case
}

// NewCaseRepository creates a new in-memory case repository
func NewCaseRepository(expectedRuns int) *CaseRepository {
	return &CaseRepository{
		runs:   make([]repositories.Run, 0, expectedRuns),
		runIdx: make(map[string]int, expectedRuns),
		cases:  make(map[string][]*entities.Case, expectedRuns),
	}
}

// Verify interface compliance
var _ repositories.CaseRepository = (*CaseRepository)(nil)

// SaveCases stores a deep copy of the cases under run.ID
func (r *CaseRepository) SaveCases(ctx context.Context, run repositories.Run, cases []*entities.Case) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if run.ID == "" {
		return fmt.Errorf("run id cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	run.CaseCount = len(cases)
	if idx, exists := r.runIdx[run.ID]; exists {
		r.runs[idx] = run
	} else {
		r.runIdx[run.ID] = len(r.runs)
		r.runs = append(r.runs, run)
	}
	r.cases[run.ID] = entities.CloneCases(cases)
	return nil
}

// GetCases returns a copy of the cases saved for runID
func (r *CaseRepository) GetCases(ctx context.Context, runID string) ([]*entities.Case, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cases, exists := r.cases[runID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", repositories.ErrRunNotFound, runID)
	}
	return entities.CloneCases(cases), nil
}

// LatestRun returns the most recently saved run
func (r *CaseRepository) LatestRun(ctx context.Context) (repositories.Run, error) {
	if err := ctx.Err(); err != nil {
		return repositories.Run{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.runs) == 0 {
		return repositories.Run{}, repositories.ErrRunNotFound
	}
	latest := r.runs[0]
	for _, run := range r.runs[1:] {
		if !run.CreatedAt.Before(latest.CreatedAt) {
			latest = run
		}
	}
	return latest, nil
}
