package analyses

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu      sync.RWMutex
	nextJD  int64
	nextID  int64
	jobs    map[int64]JobDescription
	records map[int64]Record
	now     func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		jobs:    make(map[int64]JobDescription),
		records: make(map[int64]Record),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateJobDescription stores a job description for a candidate.
func (r *MemoryRepo) CreateJobDescription(ctx context.Context, candidateID int64, text string) (JobDescription, error) {
	if err := ctx.Err(); err != nil {
		return JobDescription{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextJD++
	jd := JobDescription{ID: r.nextJD, CandidateID: candidateID, Text: text, CreatedAt: r.now()}
	r.jobs[jd.ID] = jd
	return jd, nil
}

// DeleteJobDescription removes a job description. Missing ids are ignored.
func (r *MemoryRepo) DeleteJobDescription(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
	return nil
}

// Create assigns the next id and stores the record.
func (r *MemoryRepo) Create(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rec.ID = r.nextID
	now := r.now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.Degraded = nil
	r.records[rec.ID] = rec.clone()
	return r.withJob(rec), nil
}

// GetByID returns a record by id.
func (r *MemoryRepo) GetByID(ctx context.Context, id int64) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r.withJob(rec.clone()), nil
}

// LatestForCandidate returns the newest record for a candidate.
func (r *MemoryRepo) LatestForCandidate(ctx context.Context, candidateID int64) (Record, error) {
	list, err := r.ListByCandidate(ctx, candidateID)
	if err != nil {
		return Record{}, err
	}
	if len(list) == 0 {
		return Record{}, ErrNotFound
	}
	return list[0], nil
}

// ListByCandidate returns a candidate's records newest first.
func (r *MemoryRepo) ListByCandidate(ctx context.Context, candidateID int64) ([]Record, error) {
	return r.list(ctx, func(rec Record) bool { return rec.CandidateID == candidateID })
}

// List returns every record newest first.
func (r *MemoryRepo) List(ctx context.Context) ([]Record, error) {
	return r.list(ctx, func(Record) bool { return true })
}

// Replace overwrites a stored record and bumps UpdatedAt.
func (r *MemoryRepo) Replace(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.records[rec.ID]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.CandidateID = existing.CandidateID
	rec.JobDescriptionID = existing.JobDescriptionID
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = r.now()
	degraded := rec.Degraded
	rec.Degraded = nil
	r.records[rec.ID] = rec.clone()
	rec.Degraded = degraded
	return r.withJob(rec), nil
}

func (r *MemoryRepo) list(ctx context.Context, keep func(Record) bool) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := []Record{}
	for _, rec := range r.records {
		if keep(rec) {
			out = append(out, r.withJob(rec.clone()))
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// withJob fills the job description text; callers hold r.mu.
func (r *MemoryRepo) withJob(rec Record) Record {
	if jd, ok := r.jobs[rec.JobDescriptionID]; ok {
		rec.JobDescription = jd.Text
	}
	return rec
}

func (rec Record) clone() Record {
	rec.Questions = slices.Clone(rec.Questions)
	rec.Degraded = slices.Clone(rec.Degraded)
	return rec
}
