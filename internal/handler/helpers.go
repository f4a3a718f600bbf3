package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dvega/docuvec/internal/middleware"
	pkgerr "github.com/dvega/docuvec/internal/pkg/errors"
	"github.com/dvega/docuvec/internal/pkg/response"
	"github.com/dvega/docuvec/internal/service"
)

func identityFromContext(c *gin.Context) service.Identity {
	var id service.Identity
	if v, ok := c.Get(middleware.ContextUserIDKey); ok {
		id.UserID, _ = v.(string)
	}
	if v, ok := c.Get(middleware.ContextOrgIDKey); ok {
		id.OrgID, _ = v.(string)
	}
	return id
}

// handleVectorizeError maps pipeline failures onto the status codes and
// Spanish-language messages the dashboard expects. Raw diagnostics go
// into a details field outside production only.
func handleVectorizeError(c *gin.Context, err error, production bool) {
	logutil.GetLogger(c.Request.Context()).Error("vectorize request failed",
		zap.String("path", c.Request.URL.Path), zap.Error(err))

	details := ""
	if !production {
		details = err.Error()
	}

	switch {
	case errors.Is(err, pkgerr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, pkgerr.ErrInvalidRequest):
		response.Error(c, http.StatusBadRequest, "filePath is required and must be a string")
	case errors.Is(err, pkgerr.ErrFileNotFound):
		response.Error(c, http.StatusNotFound, "No se pudo obtener URL del archivo")
	case errors.Is(err, pkgerr.ErrConfigMissing):
		response.ErrorWithDetails(c, http.StatusInternalServerError,
			configMissingMessage(err), details)
	case errors.Is(err, pkgerr.ErrDownloadFailed):
		response.ErrorWithDetails(c, http.StatusInternalServerError,
			"Error al descargar el archivo desde el almacenamiento", details)
	case errors.Is(err, pkgerr.ErrEmptyDocument), errors.Is(err, pkgerr.ErrNoChunksCreated):
		response.ErrorWithDetails(c, http.StatusInternalServerError,
			"El documento no contiene texto que pueda ser procesado", details)
	case errors.Is(err, pkgerr.ErrUnsupportedType):
		response.ErrorWithDetails(c, http.StatusInternalServerError,
			"Tipo de archivo no soportado", details)
	case errors.Is(err, pkgerr.ErrTimeout):
		response.ErrorWithDetails(c, http.StatusInternalServerError,
			"El procesamiento del documento excedió el tiempo máximo", details)
	case errors.Is(err, pkgerr.ErrEmbedCountMism), errors.Is(err, pkgerr.ErrInvalidEmbedding):
		response.ErrorWithDetails(c, http.StatusInternalServerError,
			"Error al generar embeddings del documento", details)
	case errors.Is(err, pkgerr.ErrStoreUnavailable), errors.Is(err, pkgerr.ErrStoreRejected):
		response.ErrorWithDetails(c, http.StatusInternalServerError,
			storeErrorMessage(err), details)
	default:
		response.ErrorWithDetails(c, http.StatusInternalServerError,
			classifyUnknown(err), details)
	}
}

func configMissingMessage(err error) string {
	msg := err.Error()
	for _, key := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY"} {
		if strings.Contains(msg, key) {
			return key + " no está configurada. Esta variable es requerida para generar embeddings."
		}
	}
	return "Falta configuración requerida para generar embeddings."
}

func storeErrorMessage(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "vector") || strings.Contains(msg, "pgvector"):
		return "Error con la extensión pgvector. Verifica que esté instalada en la base de datos."
	case strings.Contains(msg, "connection") || strings.Contains(msg, "DATABASE"):
		return "Error de conexión con la base de datos. Verifica DATABASE_URL."
	default:
		return "Error al insertar chunks en la base de datos"
	}
}

// classifyUnknown keeps the legacy substring heuristics for errors that
// escaped the sentinel taxonomy.
func classifyUnknown(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "GEMINI_API_KEY") || strings.Contains(msg, "OPENAI_API_KEY"):
		return configMissingMessage(err)
	case strings.Contains(msg, "descargar") || strings.Contains(strings.ToLower(msg), "download"):
		return "Error al descargar el archivo desde el almacenamiento"
	case strings.Contains(msg, "texto extraíble"):
		return "El documento no contiene texto que pueda ser procesado"
	case strings.Contains(msg, "vector") || strings.Contains(msg, "pgvector"):
		return "Error con la extensión pgvector. Verifica que esté instalada en la base de datos."
	case strings.Contains(msg, "connection") || strings.Contains(msg, "DATABASE"):
		return "Error de conexión con la base de datos. Verifica DATABASE_URL."
	default:
		return "Error al procesar el documento"
	}
}
