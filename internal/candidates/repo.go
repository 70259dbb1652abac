package candidates

import (
	"context"

	"recruit-assistant/internal/pipeline"
)

// Repo defines persistence operations for candidates.
type Repo interface {
	Create(ctx context.Context, c Candidate) (Candidate, error)
	GetByID(ctx context.Context, id int64) (Candidate, error)
	// List returns candidates newest first; limit 0 means no limit.
	List(ctx context.Context, limit, offset int) ([]Candidate, error)
	UpdateProfile(ctx context.Context, id int64, profile pipeline.ResumeProfile) error
	Delete(ctx context.Context, id int64) error
}
