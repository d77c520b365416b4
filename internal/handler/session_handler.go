package handler

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/awbdesk/internal/model"
	appErr "github.com/xxxsen/awbdesk/internal/pkg/errors"
	"github.com/xxxsen/awbdesk/internal/pkg/jsonvalue"
	"github.com/xxxsen/awbdesk/internal/pkg/response"
	"github.com/xxxsen/awbdesk/internal/service"
	"github.com/xxxsen/awbdesk/internal/session"
	"github.com/xxxsen/awbdesk/internal/vault"
)

type SessionHandler struct {
	analysis *service.AnalysisService
}

func NewSessionHandler(analysis *service.AnalysisService) *SessionHandler {
	return &SessionHandler{analysis: analysis}
}

type SessionResponse struct {
	SessionID  string                   `json:"session_id"`
	SaveStatus vault.SaveStatus         `json:"save_status"`
	Dirty      bool                     `json:"dirty"`
	Documents  []model.EditableDocument `json:"documents"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type toggleRequest struct {
	Password  string `json:"password"`
	Encrypted bool   `json:"encrypted"`
}

func (h *SessionHandler) session(c *gin.Context) (*session.Session, bool) {
	sess, err := h.analysis.Get(getCallerID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return nil, false
	}
	return sess, true
}

func (h *SessionHandler) respond(c *gin.Context, sess *session.Session) {
	response.Success(c, SessionResponse{
		SessionID:  sess.ID,
		SaveStatus: sess.Vault.Status(),
		Dirty:      sess.Vault.Dirty(),
		Documents:  sess.Vault.Documents(),
	})
}

func (h *SessionHandler) Get(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	h.respond(c, sess)
}

func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.analysis.Reset(c.Request.Context(), getCallerID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{})
}

func (h *SessionHandler) Rename(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	doc, err := indexParam(c, "doc")
	if err != nil {
		handleError(c, err)
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		handleError(c, appErr.ErrInvalid)
		return
	}
	if err := sess.Vault.RenameDocument(doc, strings.TrimSpace(req.Name)); err != nil {
		handleError(c, err)
		return
	}
	h.respond(c, sess)
}

// SetField replaces a field value. The body is {"value": <any JSON>}; object
// keys keep their order.
func (h *SessionHandler) SetField(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	doc, err := indexParam(c, "doc")
	if err != nil {
		handleError(c, err)
		return
	}
	field, err := indexParam(c, "field")
	if err != nil {
		handleError(c, err)
		return
	}
	value, err := decodeValueBody(c.Request.Body)
	if err != nil {
		handleError(c, err)
		return
	}
	if err := sess.Vault.SetFieldValue(doc, field, value); err != nil {
		handleError(c, err)
		return
	}
	h.respond(c, sess)
}

func decodeValueBody(r io.Reader) (any, error) {
	var req struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r).Decode(&req); err != nil || len(req.Value) == 0 {
		return nil, appErr.ErrInvalid
	}
	value, err := jsonvalue.Decode(req.Value)
	if err != nil {
		return nil, appErr.ErrInvalid
	}
	return value, nil
}

func (h *SessionHandler) DeleteField(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	doc, err := indexParam(c, "doc")
	if err != nil {
		handleError(c, err)
		return
	}
	field, err := indexParam(c, "field")
	if err != nil {
		handleError(c, err)
		return
	}
	if err := sess.Vault.DeleteField(doc, field); err != nil {
		handleError(c, err)
		return
	}
	h.respond(c, sess)
}

func (h *SessionHandler) Encrypt(c *gin.Context) {
	h.crypt(c, true)
}

func (h *SessionHandler) Decrypt(c *gin.Context) {
	h.crypt(c, false)
}

func (h *SessionHandler) crypt(c *gin.Context, encrypt bool) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	doc, err := indexParam(c, "doc")
	if err != nil {
		handleError(c, err)
		return
	}
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, appErr.ErrInvalid)
		return
	}
	if encrypt {
		err = sess.Vault.EncryptDocument(c.Request.Context(), doc, req.Password)
	} else {
		err = sess.Vault.DecryptDocument(c.Request.Context(), doc, req.Password)
	}
	if err != nil {
		handleError(c, err)
		return
	}
	h.respond(c, sess)
}

func (h *SessionHandler) Toggle(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, appErr.ErrInvalid)
		return
	}
	if err := sess.Vault.GlobalToggle(c.Request.Context(), req.Password, req.Encrypted); err != nil {
		handleError(c, err)
		return
	}
	h.respond(c, sess)
}

func (h *SessionHandler) Save(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	res := sess.Vault.Save(c.Request.Context())
	if res.Err != nil {
		handleError(c, res.Err)
		return
	}
	h.respond(c, sess)
}
