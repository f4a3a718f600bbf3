package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerr "github.com/dvega/docuvec/internal/pkg/errors"
	"github.com/dvega/docuvec/internal/pkg/response"
	"github.com/dvega/docuvec/internal/service"
)

type FileHandler struct {
	service *service.FileService
}

type uploadResponse struct {
	Success  bool   `json:"success"`
	FilePath string `json:"filePath"`
	FileName string `json:"fileName"`
}

type deleteFileRequest struct {
	FilePath string `json:"filePath"`
}

func NewFileHandler(svc *service.FileService) *FileHandler {
	return &FileHandler{service: svc}
}

func (h *FileHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Se requiere un archivo")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "No se pudo leer el archivo")
		return
	}
	defer opened.Close()

	contentType := file.Header.Get("Content-Type")
	key, err := h.service.Upload(c.Request.Context(), identityFromContext(c), file.Filename, opened, file.Size, contentType)
	if err != nil {
		if errors.Is(err, pkgerr.ErrUnauthorized) {
			response.Error(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Error al subir el archivo")
		return
	}
	response.Success(c, uploadResponse{Success: true, FilePath: key, FileName: file.Filename})
}

func (h *FileHandler) Delete(c *gin.Context) {
	var req deleteFileRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FilePath == "" {
		response.Error(c, http.StatusBadRequest, "filePath is required and must be a string")
		return
	}
	if err := h.service.Delete(c.Request.Context(), identityFromContext(c), req.FilePath); err != nil {
		if errors.Is(err, pkgerr.ErrUnauthorized) {
			response.Error(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		response.Error(c, http.StatusInternalServerError, "Error al eliminar el archivo")
		return
	}
	response.Success(c, gin.H{"success": true})
}
