package candidates

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"recruit-assistant/internal/pipeline"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]Candidate
	now    func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[int64]Candidate),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create assigns the next id and stores the candidate.
func (r *MemoryRepo) Create(ctx context.Context, c Candidate) (Candidate, error) {
	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	now := r.now()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Profile = cloneProfile(c.Profile)
	r.data[c.ID] = c
	return c, nil
}

// GetByID returns a candidate by id.
func (r *MemoryRepo) GetByID(ctx context.Context, id int64) (Candidate, error) {
	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.data[id]
	if !ok {
		return Candidate{}, ErrNotFound
	}
	c.Profile = cloneProfile(c.Profile)
	return c, nil
}

// List returns candidates newest first, honoring limit/offset.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	out := make([]Candidate, 0, len(r.data))
	for _, c := range r.data {
		c.Profile = cloneProfile(c.Profile)
		out = append(out, c)
	}
	r.mu.RUnlock()

	// Ids grow monotonically, so they break CreatedAt ties.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	if offset >= len(out) {
		return []Candidate{}, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

// UpdateProfile stores the parsed resume for a candidate.
func (r *MemoryRepo) UpdateProfile(ctx context.Context, id int64, profile pipeline.ResumeProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	c.Profile = cloneProfile(&profile)
	c.UpdatedAt = r.now()
	r.data[id] = c
	return nil
}

// Delete removes a candidate.
func (r *MemoryRepo) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func cloneProfile(p *pipeline.ResumeProfile) *pipeline.ResumeProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.ContactInfo = maps.Clone(p.ContactInfo)
	cp.Skills = slices.Clone(p.Skills)
	cp.Experience = slices.Clone(p.Experience)
	cp.Education = slices.Clone(p.Education)
	cp.Projects = slices.Clone(p.Projects)
	cp.Certifications = slices.Clone(p.Certifications)
	return &cp
}
