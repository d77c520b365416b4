package ingest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/awbdesk/internal/apiclient"
	"github.com/xxxsen/awbdesk/internal/credential"
	"github.com/xxxsen/awbdesk/internal/model"
	appErr "github.com/xxxsen/awbdesk/internal/pkg/errors"
)

func newUpstream(t *testing.T, handler http.HandlerFunc) *Ingestor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := apiclient.New(apiclient.Config{BaseURL: srv.URL, AnalyzePath: "/analyze"}, credential.Static("tok"), srv.Client())
	return New(client)
}

func twoFiles() []apiclient.UploadFile {
	return []apiclient.UploadFile{{Name: "a.pdf", Data: []byte("a")}, {Name: "b.pdf", Data: []byte("b")}}
}

func TestIngestStreamsThinkingAndNormalizes(t *testing.T) {
	release := make(chan struct{})
	ing := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		_, _ = io.WriteString(w, "data: {\"thinking\":\"step1 \"}\n\n")
		flusher.Flush()
		_, _ = io.WriteString(w, "data: {\"thinking\":\"step2\"}\n\n")
		flusher.Flush()
		<-release
		_, _ = io.WriteString(w, "data: {\"response\":{\"documents\":[{\"document_name\":\"a.pdf\",\"fields\":{\"total\":\"100\"}}]}}\n\n")
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	})

	var (
		mu   sync.Mutex
		seen []string
	)
	onThinking := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
		if s == "step1 step2" {
			close(release)
		}
	}
	res, err := ing.Ingest(context.Background(), twoFiles(), onThinking)
	require.NoError(t, err)
	require.Equal(t, []string{"step1 ", "step1 step2"}, seen)
	require.Equal(t, []model.AnalysisResult{{
		FileName:     "a.pdf",
		DetectedType: "unknown",
		Confidence:   0.8,
		Fields:       []model.Field{{Label: "Total", Value: "100"}},
	}}, res)
}

func TestIngestNoResults(t *testing.T) {
	ing := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "data: [DONE]\n")
	})
	_, err := ing.Ingest(context.Background(), twoFiles(), nil)
	require.ErrorIs(t, err, appErr.ErrNoResults)
}

func TestIngestMarkdownFallback(t *testing.T) {
	ing := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "data: # Section\ndata: \n")
		_, _ = io.WriteString(w, "data: {\"response\":\"\\n- **Total**: 100\\n- **Name**: Doc A\"}\n")
	})
	res, err := ing.Ingest(context.Background(), []apiclient.UploadFile{{Name: "scan.pdf"}}, nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Equal(t, "scan.pdf", res[0].FileName)
	require.Equal(t, []model.Field{
		{Label: "Total", Value: "100", Section: "Section"},
		{Label: "Name", Value: "Doc A", Section: "Section"},
	}, res[0].Fields)
}

func TestIngestHTTPError(t *testing.T) {
	ing := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})
	_, err := ing.Ingest(context.Background(), twoFiles(), nil)
	require.ErrorIs(t, err, appErr.ErrHTTP)
	require.Contains(t, err.Error(), "503")
}

func TestIngestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "data: {\"thinking\":\"slow\"}\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()
	client := apiclient.New(apiclient.Config{BaseURL: srv.URL}, credential.Static("tok"), srv.Client())
	ing := New(client, WithTimeout(100*time.Millisecond))

	start := time.Now()
	_, err := ing.Ingest(context.Background(), twoFiles(), nil)
	require.ErrorIs(t, err, appErr.ErrTimeout)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestIngestCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "data: {\"thinking\":\"wait\"}\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()
	client := apiclient.New(apiclient.Config{BaseURL: srv.URL}, credential.Static("tok"), srv.Client())
	ing := New(client)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := ing.Ingest(ctx, twoFiles(), func(string) { cancel() })
	require.ErrorIs(t, err, appErr.ErrCanceled)
}

func TestIngestRequiresFiles(t *testing.T) {
	_, err := New(nil).Ingest(context.Background(), nil, nil)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}
