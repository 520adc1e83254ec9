package projects

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rag-backend/internal/catalog"
	"rag-backend/internal/index"
	"rag-backend/internal/reconcile"
	"rag-backend/internal/shared/metrics"
	"rag-backend/internal/shared/server/respond"
)

const maxUploadSize = 20 << 20 // 20MB

// Handler wires the project administration HTTP surface.
type Handler struct {
	Svc    *Service
	Engine *reconcile.Engine
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, engine *reconcile.Engine) *Handler {
	return &Handler{Svc: svc, Engine: engine}
}

// RegisterRoutes attaches project routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/projects", h.create)
	rg.GET("/projects", h.list)
	rg.PATCH("/projects/:projectID", h.rename)
	rg.POST("/projects/:projectID/archive", h.archive)
	rg.POST("/projects/:projectID/documents", h.upload)
	rg.GET("/projects/:projectID/documents", h.listDocuments)
	rg.DELETE("/projects/:projectID/documents/:fileID", h.removeDocument)
	rg.GET("/projects/:projectID/reconcile", h.reconcile)
	rg.POST("/projects/:projectID/repair", h.repair)
}

type createProjectRequest struct {
	Name string `json:"name"`
}

func (h *Handler) create(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	project, err := h.Svc.Create(c.Request.Context(), req.Name)
	if err != nil {
		h.fail(c, err, "failed to create project")
		return
	}

	c.Set("projectId", project.ID)
	respond.JSON(c, http.StatusCreated, toProjectResponse(project))
}

func (h *Handler) list(c *gin.Context) {
	activeOnly := true
	if v := c.Query("all"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil && parsed {
			activeOnly = false
		}
	}

	list, err := h.Svc.List(c.Request.Context(), activeOnly)
	if err != nil {
		h.fail(c, err, "failed to list projects")
		return
	}

	resp := make([]gin.H, 0, len(list))
	for _, p := range list {
		resp = append(resp, toProjectResponse(p))
	}
	respond.OK(c, resp)
}

type renameProjectRequest struct {
	Name string `json:"name"`
}

func (h *Handler) rename(c *gin.Context) {
	projectID := c.Param("projectID")
	c.Set("projectId", projectID)

	var req renameProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	if err := h.Svc.Rename(c.Request.Context(), projectID, req.Name); err != nil {
		h.fail(c, err, "failed to rename project")
		return
	}

	project, err := h.Svc.Get(c.Request.Context(), projectID)
	if err != nil {
		h.fail(c, err, "failed to load project")
		return
	}
	respond.OK(c, toProjectResponse(project))
}

func (h *Handler) archive(c *gin.Context) {
	projectID := c.Param("projectID")
	c.Set("projectId", projectID)

	if err := h.Svc.Archive(c.Request.Context(), projectID); err != nil {
		h.fail(c, err, "failed to archive project")
		return
	}
	respond.OK(c, gin.H{"project_id": projectID, "status": string(catalog.StatusArchived)})
}

func (h *Handler) upload(c *gin.Context) {
	projectID := c.Param("projectID")
	c.Set("projectId", projectID)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	dedup := true
	if v := c.Query("dedup"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			dedup = parsed
		}
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	result, err := h.Svc.UploadDocument(c.Request.Context(), projectID, fileHeader.Filename, content, dedup)
	if err != nil {
		h.fail(c, err, "failed to upload document")
		return
	}

	if result.Deduped {
		respond.OK(c, gin.H{"deduped": true, "filename": fileHeader.Filename})
		return
	}

	c.Set("fileId", result.File.FileID)
	respond.JSON(c, http.StatusCreated, gin.H{
		"file_id":  result.File.FileID,
		"filename": result.File.Filename,
		"sha256":   result.File.SHA256,
		"pages":    result.Pages,
	})
}

func (h *Handler) listDocuments(c *gin.Context) {
	projectID := c.Param("projectID")
	c.Set("projectId", projectID)

	files, err := h.Svc.ListDocuments(c.Request.Context(), projectID)
	if err != nil {
		h.fail(c, err, "failed to list documents")
		return
	}

	resp := make([]gin.H, 0, len(files))
	for _, f := range files {
		resp = append(resp, gin.H{
			"file_id":  f.FileID,
			"filename": f.Filename,
			"sha256":   f.SHA256,
			"added_at": f.AddedAt,
		})
	}
	respond.OK(c, resp)
}

func (h *Handler) removeDocument(c *gin.Context) {
	projectID := c.Param("projectID")
	fileID := c.Param("fileID")
	c.Set("projectId", projectID)
	c.Set("fileId", fileID)

	if err := h.Svc.RemoveDocument(c.Request.Context(), projectID, fileID); err != nil {
		h.fail(c, err, "failed to remove document")
		return
	}
	respond.OK(c, gin.H{"removed": fileID})
}

func (h *Handler) reconcile(c *gin.Context) {
	projectID := c.Param("projectID")
	c.Set("projectId", projectID)
	metrics.IncReconcile()

	report, err := h.Engine.Reconcile(c.Request.Context(), projectID)
	if err != nil {
		h.fail(c, err, "failed to reconcile project")
		return
	}
	respond.OK(c, toReportResponse(report))
}

func (h *Handler) repair(c *gin.Context) {
	projectID := c.Param("projectID")
	c.Set("projectId", projectID)
	metrics.IncReconcile()

	report, err := h.Engine.Repair(c.Request.Context(), projectID)
	if err != nil {
		h.fail(c, err, "failed to repair project")
		return
	}
	resp := toReportResponse(report)
	resp["restored"] = len(report.OnlyRemote)
	respond.OK(c, resp)
}

func (h *Handler) fail(c *gin.Context, err error, message string) {
	var gwErr *index.GatewayError
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "project or document not found", nil)
	case errors.Is(err, catalog.ErrConflict):
		respond.Error(c, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.As(err, &gwErr):
		respond.Error(c, http.StatusBadGateway, "gateway_error", gwErr.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", message, nil)
	}
}

func toProjectResponse(p catalog.Project) gin.H {
	return gin.H{
		"project_id":      p.ID,
		"project_name":    p.Name,
		"vector_store_id": p.VectorStoreID,
		"status":          string(p.Status),
		"created_at":      p.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":      p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toReportResponse(r reconcile.Report) gin.H {
	pending := make([]gin.H, 0, len(r.StalePending))
	for _, p := range r.StalePending {
		pending = append(pending, gin.H{
			"upload_id":  p.ID,
			"filename":   p.Filename,
			"started_at": p.StartedAt,
		})
	}
	return gin.H{
		"project_id":    r.ProjectID,
		"only_local":    r.OnlyLocal,
		"only_remote":   r.OnlyRemote,
		"stale_pending": pending,
	}
}
