package analyses

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"recruit-assistant/internal/candidates"
	"recruit-assistant/internal/pipeline"
	"recruit-assistant/internal/shared/server/respond"
	"recruit-assistant/internal/shared/telemetry"
)

// ReportHandler serves read-only views of a candidate's latest analysis.
type ReportHandler struct {
	Svc *Service
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(svc *Service) *ReportHandler {
	return &ReportHandler{Svc: svc}
}

// RegisterRoutes attaches report routes to the router group.
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/report/:id", h.full)
	rg.GET("/report/:id/summary", h.summary)
	rg.GET("/report/:id/charts", h.charts)
	rg.GET("/report/:id/questions", h.questions)
	rg.POST("/report/:id/export", h.export)
	rg.GET("/reports", h.list)
}

func (h *ReportHandler) full(c *gin.Context) {
	id, ok := parseID(c, "candidateId")
	if !ok {
		return
	}
	cand, err := h.Svc.Candidates.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "candidate", id, "failed to load report")
		return
	}
	rec, ok := h.latest(c, id)
	if !ok {
		return
	}
	respond.OK(c, gin.H{
		"candidate_info": gin.H{
			"id":         cand.ID,
			"file_name":  cand.FileName,
			"created_at": cand.CreatedAt,
		},
		"job_description":     rec.JobDescription,
		"match_score":         rec.MatchScore,
		"skills_analysis":     rec.Skills,
		"experience_analysis": rec.Experience,
		"education_analysis":  rec.Education,
		"interview_questions": toView(rec).InterviewQuestions,
		"questions_generated": rec.QuestionsGenerated,
		"candidate_profile":   rec.Profile,
		"analysis_report":     rec.Report,
		"chart_data":          rec.Charts,
		"created_at":          rec.CreatedAt,
		"updated_at":          rec.UpdatedAt,
	})
}

func (h *ReportHandler) summary(c *gin.Context) {
	rec, ok := h.latestByParam(c)
	if !ok {
		return
	}
	respond.OK(c, gin.H{
		"match_score":    rec.MatchScore,
		"weighted_score": pipeline.WeightedScore(rec.Analysis()),
		"candidate_name": candidateName(rec.Profile),
		"summary":        rec.Profile.Summary,
		"strengths":      rec.Profile.Strengths,
		"weaknesses":     rec.Profile.Weaknesses,
		"potential":      rec.Profile.Potential,
		"created_at":     rec.CreatedAt,
	})
}

func (h *ReportHandler) charts(c *gin.Context) {
	rec, ok := h.latestByParam(c)
	if !ok {
		return
	}
	respond.OK(c, gin.H{
		"chart_data":  rec.Charts,
		"match_score": rec.MatchScore,
	})
}

func (h *ReportHandler) questions(c *gin.Context) {
	rec, ok := h.latestByParam(c)
	if !ok {
		return
	}
	questions := toView(rec).InterviewQuestions
	respond.OK(c, gin.H{
		"questions":   questions,
		"total_count": len(questions),
	})
}

func (h *ReportHandler) export(c *gin.Context) {
	rec, ok := h.latestByParam(c)
	if !ok {
		return
	}
	var cand *candidates.Candidate
	if got, err := h.Svc.Candidates.Get(c.Request.Context(), rec.CandidateID); err == nil {
		cand = &got
	}
	html, err := renderExport(rec, cand)
	if err != nil {
		telemetry.Error("analyses.export.failed", map[string]any{"record_id": rec.ID, "error": err.Error()})
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to export report", nil)
		return
	}
	respond.OK(c, gin.H{
		"html_content": html,
		"export_time":  rec.UpdatedAt.Format(time.RFC3339),
	})
}

type reportItem struct {
	AnalysisID     int64     `json:"analysis_id"`
	CandidateID    int64     `json:"candidate_id"`
	CandidateName  string    `json:"candidate_name"`
	FileName       string    `json:"file_name"`
	MatchScore     float64   `json:"match_score"`
	JobDescription string    `json:"job_description"`
	CreatedAt      time.Time `json:"created_at"`
}

func (h *ReportHandler) list(c *gin.Context) {
	ctx := c.Request.Context()
	records, err := h.Svc.List(ctx)
	if err != nil {
		telemetry.Error("analyses.list.failed", map[string]any{"error": err.Error()})
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to list reports", nil)
		return
	}

	fileNames := map[int64]string{}
	items := make([]reportItem, 0, len(records))
	for _, r := range records {
		name, seen := fileNames[r.CandidateID]
		if !seen {
			name = "未知文件"
			if cand, err := h.Svc.Candidates.Get(ctx, r.CandidateID); err == nil {
				name = cand.FileName
			}
			fileNames[r.CandidateID] = name
		}
		items = append(items, reportItem{
			AnalysisID:     r.ID,
			CandidateID:    r.CandidateID,
			CandidateName:  candidateName(r.Profile),
			FileName:       name,
			MatchScore:     r.MatchScore,
			JobDescription: previewJobDescription(r.JobDescription),
			CreatedAt:      r.CreatedAt,
		})
	}
	respond.OK(c, gin.H{"reports": items})
}

func (h *ReportHandler) latestByParam(c *gin.Context) (Record, bool) {
	id, ok := parseID(c, "candidateId")
	if !ok {
		return Record{}, false
	}
	return h.latest(c, id)
}

func (h *ReportHandler) latest(c *gin.Context, candidateID int64) (Record, bool) {
	rec, err := h.Svc.Latest(c.Request.Context(), candidateID)
	if err != nil {
		fail(c, err, "candidate", candidateID, "failed to load report")
		return Record{}, false
	}
	c.Set("analysisId", rec.ID)
	return rec, true
}
