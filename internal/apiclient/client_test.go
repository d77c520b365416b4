package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/awbdesk/internal/credential"
	"github.com/xxxsen/awbdesk/internal/model"
	appErr "github.com/xxxsen/awbdesk/internal/pkg/errors"
)

func TestOpenAnalysisStreamSendsFilesAndToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/analyze", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2)
		require.Equal(t, "a.pdf", files[0].Filename)
		require.Equal(t, "b.png", files[1].Filename)
		_, _ = io.WriteString(w, "data: {\"thinking\":\"x\"}\n")
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, AnalyzePath: "/analyze"}, credential.Static("tok"), srv.Client())
	body, err := c.OpenAnalysisStream(context.Background(), []UploadFile{
		{Name: "a.pdf", Data: []byte("%PDF")},
		{Name: "dir/b.png", Data: []byte("png")},
	})
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "data: {\"thinking\":\"x\"}\n", string(data))
}

func TestOpenAnalysisStreamHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, credential.Static("tok"), nil)
	_, err := c.OpenAnalysisStream(context.Background(), []UploadFile{{Name: "a.pdf"}})
	require.ErrorIs(t, err, appErr.ErrHTTP)
	var httpErr *appErr.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	require.Contains(t, err.Error(), "502")
}

func TestOpenAnalysisStreamValidation(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1"}, credential.Static("tok"), nil)
	_, err := c.OpenAnalysisStream(context.Background(), nil)
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = New(Config{BaseURL: "http://x"}, credential.Static(""), nil).
		OpenAnalysisStream(context.Background(), []UploadFile{{Name: "a"}})
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
}

func TestOpenAnalysisStreamNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url}, credential.Static("tok"), nil)
	_, err := c.OpenAnalysisStream(context.Background(), []UploadFile{{Name: "a.pdf"}})
	require.ErrorIs(t, err, appErr.ErrNetwork)
}

func TestSaveDocuments(t *testing.T) {
	var got []model.EditableDocument
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/save", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	docs := []model.EditableDocument{model.NewEditableDocument(model.AnalysisResult{
		FileName: "a.pdf",
		Fields:   []model.Field{{Label: "Total", Value: "1"}},
	})}
	c := New(Config{BaseURL: srv.URL, SavePath: "/save"}, credential.Static("tok"), nil)
	require.NoError(t, c.SaveDocuments(context.Background(), docs))
	require.Equal(t, docs, got)
}

func TestSaveDocumentsSwallowsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, SavePath: "/save"}, credential.Static("tok"), nil)
	require.NoError(t, c.SaveDocuments(context.Background(), nil))
}

func TestClassifyError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, ClassifyError(ctx, context.Canceled), appErr.ErrCanceled)
	require.ErrorIs(t, ClassifyError(context.Background(), context.DeadlineExceeded), appErr.ErrTimeout)
	require.ErrorIs(t, ClassifyError(context.Background(), io.ErrUnexpectedEOF), appErr.ErrNetwork)
}
