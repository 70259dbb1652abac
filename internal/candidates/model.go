package candidates

import (
	"time"

	"recruit-assistant/internal/pipeline"
)

// Candidate is one uploaded resume and the text extracted from it.
type Candidate struct {
	ID            int64
	FileName      string
	StorageKey    string
	MimeType      string
	SizeBytes     int64
	FileHash      string
	ResumeContent string
	// Profile is the parsed resume, set after the first pipeline run.
	Profile   *pipeline.ResumeProfile
	CreatedAt time.Time
	UpdatedAt time.Time
}
