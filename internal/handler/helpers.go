package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/awbdesk/internal/middleware"
	"github.com/xxxsen/awbdesk/internal/pkg/errcode"
	appErr "github.com/xxxsen/awbdesk/internal/pkg/errors"
	"github.com/xxxsen/awbdesk/internal/pkg/response"
)

// errorCode maps a service error to its API code and a message safe to show.
func errorCode(err error) (int, string) {
	var httpErr *appErr.HTTPError
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		return errcode.ErrUnauthorized, "unauthorized"
	case appErr.IsNotFound(err):
		return errcode.ErrNotFound, "not found"
	case errors.Is(err, appErr.ErrWrongPassword):
		return errcode.ErrWrongPassword, "wrong password"
	case errors.Is(err, appErr.ErrCipherFailure):
		return errcode.ErrCipherFailure, "encryption failed"
	case errors.Is(err, appErr.ErrSaveInProgress):
		return errcode.ErrSaveInProgress, "save already in progress"
	case errors.Is(err, appErr.ErrNoResults):
		return errcode.ErrNoResults, "analysis returned no results"
	case errors.Is(err, appErr.ErrTimeout):
		return errcode.ErrTimeout, "analysis timed out"
	case errors.Is(err, appErr.ErrCanceled):
		return errcode.ErrCanceled, "request canceled"
	case errors.As(err, &httpErr):
		return errcode.ErrUpstream, "upstream returned " + httpErr.Status
	case errors.Is(err, appErr.ErrNetwork):
		return errcode.ErrUpstream, "upstream unreachable"
	case errors.Is(err, appErr.ErrInvalid):
		return errcode.ErrInvalid, err.Error()
	case errors.Is(err, appErr.ErrConflict):
		return errcode.ErrConflict, "conflict"
	case errors.Is(err, appErr.ErrTooMany):
		return errcode.ErrTooMany, "too many requests"
	}
	return errcode.ErrInternal, "internal error"
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	code, msg := errorCode(err)
	logError(c, err, code)
	response.Error(c, code, msg)
}

func logError(c *gin.Context, err error, code int) {
	requestID, _ := c.Get(middleware.ContextRequestIDKey)
	userID, _ := c.Get(middleware.ContextUserIDKey)
	logger := logutil.GetLogger(c.Request.Context()).With(
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Any("user_id", userID),
		zap.Int("code", code),
		zap.Error(err),
	)
	switch code {
	case errcode.ErrInternal, errcode.ErrCipherFailure:
		logger.Error("request failed")
		return
	case errcode.ErrCanceled:
		logger.Info("request canceled by client")
		return
	}
	logger.Warn("request failed")
}

// getCallerID returns the session owner identity set by BearerAuth.
func getCallerID(c *gin.Context) string {
	return c.GetString(middleware.ContextCallerKey)
}

func indexParam(c *gin.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v < 0 {
		return 0, appErr.ErrInvalid
	}
	return v, nil
}
