package analyses

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"recruit-assistant/internal/candidates"
	"recruit-assistant/internal/shared/server/respond"
	"recruit-assistant/internal/shared/telemetry"
)

// Handler wires the process routes to the analyses service.
type Handler struct {
	Svc      *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, validate: newValidator()}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// RegisterRoutes attaches process routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/process", h.process)
	rg.GET("/process/:id/history", h.history)
	rg.GET("/process/:id", h.get)
	rg.POST("/process/:id/regenerate", h.regenerate)
	rg.POST("/process/:id/generate-questions", h.generateQuestions)
}

type processRequest struct {
	FileID         int64  `json:"file_id" validate:"required,gt=0"`
	JobDescription string `json:"job_description" validate:"required,max=20000"`
}

func (h *Handler) process(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request", validationDetails(err))
		return
	}
	c.Set("candidateId", req.FileID)

	rec, err := h.Svc.Process(c.Request.Context(), req.FileID, req.JobDescription)
	if err != nil {
		fail(c, err, "candidate", req.FileID, "failed to process analysis")
		return
	}
	c.Set("analysisId", rec.ID)
	c.Set("pipelineStatus", "complete")
	respond.OK(c, toView(rec))
}

func (h *Handler) history(c *gin.Context) {
	id, ok := parseID(c, "candidateId")
	if !ok {
		return
	}
	records, err := h.Svc.History(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "candidate", id, "failed to load history")
		return
	}
	items := make([]historyItem, 0, len(records))
	for _, r := range records {
		items = append(items, historyItem{
			ID:             r.ID,
			JobDescription: r.JobDescription,
			MatchScore:     r.MatchScore,
			CreatedAt:      r.CreatedAt,
			UpdatedAt:      r.UpdatedAt,
		})
	}
	respond.OK(c, gin.H{"history": items})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := parseID(c, "analysisId")
	if !ok {
		return
	}
	rec, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "analysis", id, "failed to fetch analysis")
		return
	}
	respond.OK(c, toView(rec))
}

func (h *Handler) regenerate(c *gin.Context) {
	id, ok := parseID(c, "analysisId")
	if !ok {
		return
	}
	rec, err := h.Svc.Regenerate(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "analysis", id, "failed to regenerate analysis")
		return
	}
	c.Set("pipelineStatus", "complete")
	respond.OK(c, gin.H{
		"message":     "分析结果重新生成成功",
		"analysis_id": rec.ID,
		"degraded":    rec.Degraded,
	})
}

func (h *Handler) generateQuestions(c *gin.Context) {
	id, ok := parseID(c, "candidateId")
	if !ok {
		return
	}
	questions, existed, err := h.Svc.GenerateQuestions(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "candidate", id, "failed to generate interview questions")
		return
	}
	message := "面试问题生成成功"
	if existed {
		message = "面试问题已存在"
	} else {
		c.Set("pipelineStatus", "questions_generated")
	}
	respond.OK(c, gin.H{
		"interview_questions": questions,
		"questions_generated": true,
		"message":             message,
	})
}

// fail maps service errors onto the response envelope. entity and id name
// the resource the route was addressed by.
func fail(c *gin.Context, err error, entity string, id int64, message string) {
	switch {
	case errors.Is(err, candidates.ErrNotFound):
		if entity == "candidate" {
			respond.Error(c, http.StatusNotFound, respond.CodeNotFound, fmt.Sprintf("candidate %d not found", id), nil)
			return
		}
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, fmt.Sprintf("candidate of analysis %d not found", id), nil)
	case errors.Is(err, ErrNotFound):
		if entity == "candidate" {
			respond.Error(c, http.StatusNotFound, respond.CodeNotFound, fmt.Sprintf("no analysis found for candidate %d", id), nil)
			return
		}
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, fmt.Sprintf("analysis %d not found", id), nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error(), nil)
	default:
		telemetry.Error("analyses.request.failed", map[string]any{
			"entity": entity,
			"id":     id,
			"error":  err.Error(),
		})
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, message, nil)
	}
}

func parseID(c *gin.Context, key string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "id must be a positive integer", nil)
		return 0, false
	}
	c.Set(key, id)
	return id, true
}

func validationDetails(err error) []map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, map[string]string{"field": fe.Field(), "issue": fe.Tag()})
	}
	return out
}
