package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/awbdesk/internal/export"
	"github.com/xxxsen/awbdesk/internal/pkg/response"
	"github.com/xxxsen/awbdesk/internal/service"
)

type ExportHandler struct {
	analysis *service.AnalysisService
	export   *service.ExportService
}

func NewExportHandler(analysis *service.AnalysisService, export *service.ExportService) *ExportHandler {
	return &ExportHandler{analysis: analysis, export: export}
}

// Export downloads the session documents, or stores them when store=1.
func (h *ExportHandler) Export(c *gin.Context) {
	sess, err := h.analysis.Get(getCallerID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		handleError(c, err)
		return
	}
	docs := sess.Vault.Documents()
	if c.Query("store") == "1" {
		stored, err := h.export.Store(c.Request.Context(), docs, format)
		if err != nil {
			handleError(c, err)
			return
		}
		response.Success(c, stored)
		return
	}
	artifact, err := h.export.Render(docs, format)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Attachment(c, artifact.FileName, artifact.ContentType, artifact.Data)
}
