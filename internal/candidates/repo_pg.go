package candidates

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"recruit-assistant/internal/pipeline"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const candidateColumns = `id, file_name, storage_key, mime_type, size_bytes, file_hash, resume_content, resume_profile, created_at, updated_at`

// Create inserts a new candidate and returns it with its id and timestamps.
func (r *PGRepo) Create(ctx context.Context, c Candidate) (Candidate, error) {
	const query = `
INSERT INTO candidates (
    file_name,
    storage_key,
    mime_type,
    size_bytes,
    file_hash,
    resume_content,
    resume_profile
) VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at, updated_at`

	profile, err := encodeProfile(c.Profile)
	if err != nil {
		return Candidate{}, err
	}
	err = r.DB.QueryRowContext(
		ctx,
		query,
		c.FileName,
		c.StorageKey,
		c.MimeType,
		c.SizeBytes,
		c.FileHash,
		c.ResumeContent,
		profile,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Candidate{}, fmt.Errorf("insert candidate: %w", err)
	}
	return c, nil
}

// GetByID returns a candidate by id.
func (r *PGRepo) GetByID(ctx context.Context, id int64) (Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = $1`
	c, err := scanCandidate(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Candidate{}, ErrNotFound
		}
		return Candidate{}, fmt.Errorf("get candidate %d: %w", id, err)
	}
	return c, nil
}

// List returns candidates newest first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Candidate, error) {
	if offset < 0 {
		offset = 0
	}
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		query := `SELECT ` + candidateColumns + ` FROM candidates ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
		rows, err = r.DB.QueryContext(ctx, query, limit, offset)
	} else {
		query := `SELECT ` + candidateColumns + ` FROM candidates ORDER BY created_at DESC, id DESC OFFSET $1`
		rows, err = r.DB.QueryContext(ctx, query, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	out := []Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateProfile stores the parsed resume for a candidate.
func (r *PGRepo) UpdateProfile(ctx context.Context, id int64, profile pipeline.ResumeProfile) error {
	const query = `UPDATE candidates SET resume_profile = $1, updated_at = now() WHERE id = $2`
	raw, err := encodeProfile(&profile)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, raw, id)
	if err != nil {
		return fmt.Errorf("update candidate profile %d: %w", id, err)
	}
	return requireAffected(res)
}

// Delete removes a candidate; job descriptions and analyses cascade.
func (r *PGRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM candidates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete candidate %d: %w", id, err)
	}
	return requireAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (Candidate, error) {
	var (
		c       Candidate
		profile []byte
	)
	if err := row.Scan(
		&c.ID,
		&c.FileName,
		&c.StorageKey,
		&c.MimeType,
		&c.SizeBytes,
		&c.FileHash,
		&c.ResumeContent,
		&profile,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return Candidate{}, err
	}
	if len(profile) > 0 && string(profile) != "null" {
		var p pipeline.ResumeProfile
		if err := json.Unmarshal(profile, &p); err != nil {
			return Candidate{}, fmt.Errorf("decode resume profile: %w", err)
		}
		c.Profile = &p
	}
	return c, nil
}

func encodeProfile(p *pipeline.ResumeProfile) (any, error) {
	if p == nil {
		return nil, nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode resume profile: %w", err)
	}
	return string(raw), nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
