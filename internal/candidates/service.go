package candidates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"recruit-assistant/internal/extract"
	"recruit-assistant/internal/pipeline"
	"recruit-assistant/internal/shared/storage/object"
	"recruit-assistant/internal/shared/telemetry"
	"recruit-assistant/internal/shared/util"
)

var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".docx": {},
	".doc":  {},
}

// Service contains business logic for uploaded resumes.
type Service struct {
	Store object.ObjectStore
	Repo  Repo
	// Extract defaults to extract.FromBytes.
	Extract func(ctx context.Context, data []byte, mimeType, fileName string) (string, error)
}

// NewService constructs a Service.
func NewService(store object.ObjectStore, repo Repo) *Service {
	return &Service{Store: store, Repo: repo, Extract: extract.FromBytes}
}

// Upload stores the file, extracts its text and records the candidate.
// Extraction failures keep the upload with empty resume text.
func (s *Service) Upload(ctx context.Context, fileName string, r io.Reader) (Candidate, error) {
	if fileName == "" {
		return Candidate{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if _, ok := allowedExtensions[util.FileExt(fileName)]; !ok {
		return Candidate{}, fmt.Errorf("%w: unsupported file type %q, allowed: .pdf, .docx, .doc", ErrInvalidInput, util.FileExt(fileName))
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Candidate{}, fmt.Errorf("%w: read upload: %v", ErrInvalidInput, err)
	}
	if len(data) == 0 {
		return Candidate{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, fileName, bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, util.ErrInvalidFileName) {
			return Candidate{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return Candidate{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	content, err := s.extract(ctx, data, mimeType, fileName)
	if err != nil {
		telemetry.Warn("candidates.extract.failed", map[string]any{
			"file_name":   fileName,
			"mime_type":   mimeType,
			"storage_key": storageKey,
			"error":       err.Error(),
		})
		content = ""
	}

	c, err := s.Repo.Create(ctx, Candidate{
		FileName:      fileName,
		StorageKey:    storageKey,
		MimeType:      mimeType,
		SizeBytes:     size,
		FileHash:      util.HashContent(data),
		ResumeContent: extract.Clean(content),
	})
	if err != nil {
		if delErr := s.Store.Delete(ctx, storageKey); delErr != nil {
			telemetry.Warn("candidates.cleanup.failed", map[string]any{"storage_key": storageKey, "error": delErr.Error()})
		}
		return Candidate{}, err
	}

	telemetry.Info("candidates.uploaded", map[string]any{
		"candidate_id": c.ID,
		"mime_type":    c.MimeType,
		"size_bytes":   c.SizeBytes,
		"text_chars":   len([]rune(c.ResumeContent)),
	})
	return c, nil
}

// Get returns a candidate by id.
func (s *Service) Get(ctx context.Context, id int64) (Candidate, error) {
	if id <= 0 {
		return Candidate{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns candidates newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Candidate, error) {
	return s.Repo.List(ctx, limit, offset)
}

// Open returns the candidate and a reader over its stored file. The caller
// closes the reader.
func (s *Service) Open(ctx context.Context, id int64) (Candidate, io.ReadCloser, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return Candidate{}, nil, err
	}
	body, err := s.Store.Open(ctx, c.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Candidate{}, nil, fmt.Errorf("stored file for candidate %d: %w", id, ErrNotFound)
		}
		return Candidate{}, nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return c, body, nil
}

// SaveProfile records the parsed resume so later runs can skip parsing.
func (s *Service) SaveProfile(ctx context.Context, id int64, profile pipeline.ResumeProfile) error {
	return s.Repo.UpdateProfile(ctx, id, profile)
}

// Delete removes the candidate record and its stored file. A missing file is
// logged, not returned.
func (s *Service) Delete(ctx context.Context, id int64) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, c.StorageKey); err != nil {
		telemetry.Warn("candidates.file_delete.failed", map[string]any{
			"candidate_id": id,
			"storage_key":  c.StorageKey,
			"error":        err.Error(),
		})
	}
	return nil
}

func (s *Service) extract(ctx context.Context, data []byte, mimeType, fileName string) (string, error) {
	if s.Extract == nil {
		return extract.FromBytes(ctx, data, mimeType, fileName)
	}
	return s.Extract(ctx, data, mimeType, fileName)
}
