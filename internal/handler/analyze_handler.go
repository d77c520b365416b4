package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/awbdesk/internal/pkg/errcode"
	"github.com/xxxsen/awbdesk/internal/pkg/response"
	"github.com/xxxsen/awbdesk/internal/service"
)

const (
	eventThinking = "thinking"
	eventResult   = "result"
	eventError    = "error"
)

type AnalyzeHandler struct {
	analysis       *service.AnalysisService
	maxUploadBytes int64
}

func NewAnalyzeHandler(analysis *service.AnalysisService, maxUploadBytes int64) *AnalyzeHandler {
	return &AnalyzeHandler{analysis: analysis, maxUploadBytes: maxUploadBytes}
}

// Analyze forwards the uploaded files upstream and relays the analysis as
// server-sent events: thinking updates, then one result or error event.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, errcode.ErrInvalidFile, "upload exceeds "+formatUploadLimit(h.maxUploadBytes))
			return
		}
		response.Error(c, errcode.ErrInvalidFile, "files are required")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		response.Error(c, errcode.ErrInvalidFile, "files are required")
		return
	}
	files, err := readUploads(headers)
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, err.Error())
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	sess, err := h.analysis.Analyze(c.Request.Context(), getCallerID(c), files, func(text string) {
		c.SSEvent(eventThinking, gin.H{"text": text})
		c.Writer.Flush()
	})
	if err != nil {
		code, msg := errorCode(err)
		logError(c, err, code)
		c.SSEvent(eventError, gin.H{"code": code, "message": msg})
		c.Writer.Flush()
		return
	}
	logutil.GetLogger(c.Request.Context()).Info("analysis relayed", zap.Int("documents", sess.Vault.Len()))
	c.SSEvent(eventResult, gin.H{"session_id": sess.ID, "documents": sess.Vault.Documents()})
	c.Writer.Flush()
}
