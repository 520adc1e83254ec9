package chat

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rag-backend/internal/catalog"
	"rag-backend/internal/index"
	"rag-backend/internal/shared/server/respond"
)

// Handler exposes the public answering endpoint.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the chat route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.chat)
}

type chatRequest struct {
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	c.Set("projectId", req.ProjectID)

	answer, err := h.Svc.Ask(c.Request.Context(), req.ProjectID, req.Message)
	if err != nil {
		var gwErr *index.GatewayError
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "project not found or inactive: "+req.ProjectID, nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.As(err, &gwErr):
			respond.Error(c, http.StatusBadGateway, "gateway_error", gwErr.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to answer", nil)
		}
		return
	}

	respond.OK(c, answer)
}
