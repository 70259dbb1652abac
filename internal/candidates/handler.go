package candidates

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"recruit-assistant/internal/shared/server/respond"
	"recruit-assistant/internal/shared/telemetry"
)

const defaultMaxUploadBytes = 10 << 20 // 10MB

// multipartOverhead bounds the form envelope around the file part.
const multipartOverhead = 1 << 20

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches file routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.upload)
	rg.GET("/files", h.list)
	rg.GET("/file/:id", h.info)
	rg.DELETE("/file/:id", h.delete)
	rg.GET("/file/:id/download", h.download)
	rg.GET("/file/:id/content", h.content)
}

type fileSummary struct {
	ID        int64  `json:"id"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	FileSize  int64  `json:"file_size"`
	CreatedAt string `json:"created_at"`
}

func toSummary(c Candidate) fileSummary {
	return fileSummary{
		ID:        c.ID,
		FileName:  c.FileName,
		MimeType:  c.MimeType,
		FileSize:  c.SizeBytes,
		CreatedAt: c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, respond.CodeValidation,
				fmt.Sprintf("file exceeds the %.1fMB limit", float64(h.MaxUploadBytes)/(1<<20)), nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "file is required", nil)
		return
	}
	if fileHeader.Size > h.MaxUploadBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, respond.CodeValidation,
			fmt.Sprintf("file exceeds the %.1fMB limit", float64(h.MaxUploadBytes)/(1<<20)), nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "unable to read file", nil)
		return
	}
	defer file.Close()

	cand, err := h.Svc.Upload(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error(), nil)
		case errors.Is(err, ErrStorage):
			respond.Error(c, http.StatusInternalServerError, respond.CodeStorage, "failed to store file", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to upload file", nil)
		}
		return
	}
	c.Set("candidateId", cand.ID)

	respond.OK(c, gin.H{
		"file_id":   cand.ID,
		"file_name": cand.FileName,
		"status":    "success",
		"message":   "文件上传成功",
	})
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := 0, 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			offset = parsed
		}
	}

	list, err := h.Svc.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to list files", nil)
		return
	}
	files := make([]fileSummary, 0, len(list))
	for _, cand := range list {
		files = append(files, toSummary(cand))
	}
	respond.OK(c, gin.H{"files": files})
}

func (h *Handler) info(c *gin.Context) {
	cand, ok := h.lookup(c)
	if !ok {
		return
	}
	respond.OK(c, toSummary(cand))
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, id, err, "failed to delete file")
		return
	}
	respond.OK(c, gin.H{"message": "文件删除成功"})
}

func (h *Handler) download(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	cand, body, err := h.Svc.Open(c.Request.Context(), id)
	if err != nil {
		h.fail(c, id, err, "failed to open file")
		return
	}
	defer body.Close()

	contentType := cand.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": cand.FileName})
	c.DataFromReader(http.StatusOK, cand.SizeBytes, contentType, body, map[string]string{
		"Content-Disposition": disposition,
	})
}

func (h *Handler) content(c *gin.Context) {
	cand, ok := h.lookup(c)
	if !ok {
		return
	}
	respond.OK(c, gin.H{
		"file_id":    cand.ID,
		"file_name":  cand.FileName,
		"content":    cand.ResumeContent,
		"created_at": toSummary(cand).CreatedAt,
	})
}

func (h *Handler) lookup(c *gin.Context) (Candidate, bool) {
	id, ok := parseID(c)
	if !ok {
		return Candidate{}, false
	}
	cand, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, id, err, "failed to fetch file")
		return Candidate{}, false
	}
	return cand, true
}

func (h *Handler) fail(c *gin.Context, id int64, err error, message string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, fmt.Sprintf("candidate %d not found", id), nil)
	case errors.Is(err, ErrStorage):
		respond.Error(c, http.StatusInternalServerError, respond.CodeStorage, message, nil)
	default:
		telemetry.Error("candidates.request.failed", map[string]any{"candidate_id": id, "error": err.Error()})
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, message, nil)
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "id must be a positive integer", nil)
		return 0, false
	}
	c.Set("candidateId", id)
	return id, true
}
