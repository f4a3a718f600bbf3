package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/dvega/docuvec/internal/middleware"
)

type RouterDeps struct {
	Documents *DocumentHandler
	Files     *FileHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/documents/vectorize", deps.Documents.Vectorize)
	authGroup.GET("/documents/vectorized", deps.Documents.CheckVectorized)

	authGroup.POST("/files/upload", deps.Files.Upload)
	authGroup.DELETE("/files", deps.Files.Delete)
}
