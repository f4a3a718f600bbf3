package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	pkgerr "github.com/dvega/docuvec/internal/pkg/errors"
	"github.com/dvega/docuvec/internal/pkg/response"
	"github.com/dvega/docuvec/internal/service"
)

type DocumentHandler struct {
	service        *service.VectorizeService
	requestTimeout time.Duration
	production     bool
}

type vectorizeRequest struct {
	FilePath string `json:"filePath"`
}

type vectorizeResponse struct {
	Success     bool `json:"success"`
	ChunksCount int  `json:"chunksCount"`
}

type checkVectorizedResponse struct {
	IsVectorized bool `json:"isVectorized"`
	ChunksCount  int  `json:"chunksCount"`
}

func NewDocumentHandler(svc *service.VectorizeService, requestTimeout time.Duration, production bool) *DocumentHandler {
	return &DocumentHandler{service: svc, requestTimeout: requestTimeout, production: production}
}

func (h *DocumentHandler) Vectorize(c *gin.Context) {
	var req vectorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.FilePath == "" {
		response.Error(c, http.StatusBadRequest, "filePath is required and must be a string")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	count, err := h.service.Vectorize(ctx, identityFromContext(c), req.FilePath)
	if err != nil {
		handleVectorizeError(c, err, h.production)
		return
	}
	response.Success(c, vectorizeResponse{Success: true, ChunksCount: count})
}

func (h *DocumentHandler) CheckVectorized(c *gin.Context) {
	filePath := c.Query("filePath")
	if filePath == "" {
		response.Error(c, http.StatusBadRequest, "filePath is required and must be a string")
		return
	}
	vectorized, count, err := h.service.CheckVectorized(c.Request.Context(), identityFromContext(c), filePath)
	if err != nil {
		if err == pkgerr.ErrUnauthorized {
			response.Error(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		handleVectorizeError(c, err, h.production)
		return
	}
	response.Success(c, checkVectorizedResponse{IsVectorized: vectorized, ChunksCount: count})
}
