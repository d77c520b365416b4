package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/awbdesk/internal/middleware"
)

const AnalyzePath = "/analyze"

type RouterDeps struct {
	Analyze          *AnalyzeHandler
	Sessions         *SessionHandler
	Export           *ExportHandler
	AnalyzeRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.BearerAuth())
	authGroup.POST(AnalyzePath, middleware.RateLimit(deps.AnalyzeRateLimit), deps.Analyze.Analyze)

	authGroup.GET("/sessions/:id", deps.Sessions.Get)
	authGroup.DELETE("/sessions/:id", deps.Sessions.Delete)
	authGroup.PUT("/sessions/:id/documents/:doc/title", deps.Sessions.Rename)
	authGroup.PUT("/sessions/:id/documents/:doc/fields/:field", deps.Sessions.SetField)
	authGroup.DELETE("/sessions/:id/documents/:doc/fields/:field", deps.Sessions.DeleteField)
	authGroup.POST("/sessions/:id/documents/:doc/encrypt", deps.Sessions.Encrypt)
	authGroup.POST("/sessions/:id/documents/:doc/decrypt", deps.Sessions.Decrypt)
	authGroup.POST("/sessions/:id/encryption", deps.Sessions.Toggle)
	authGroup.POST("/sessions/:id/save", deps.Sessions.Save)
	authGroup.GET("/sessions/:id/export", deps.Export.Export)
}
