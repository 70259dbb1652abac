package analyses

import "context"

// Repo defines persistence operations for job descriptions and analyses.
// Listing methods return records newest first.
type Repo interface {
	CreateJobDescription(ctx context.Context, candidateID int64, text string) (JobDescription, error)
	DeleteJobDescription(ctx context.Context, id int64) error
	Create(ctx context.Context, r Record) (Record, error)
	GetByID(ctx context.Context, id int64) (Record, error)
	LatestForCandidate(ctx context.Context, candidateID int64) (Record, error)
	ListByCandidate(ctx context.Context, candidateID int64) ([]Record, error)
	List(ctx context.Context) ([]Record, error)
	// Replace overwrites every stored field of an existing record.
	Replace(ctx context.Context, r Record) (Record, error)
}
