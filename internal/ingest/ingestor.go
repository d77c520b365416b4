// Package ingest turns an analysis upload into normalized documents.
package ingest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/awbdesk/internal/analysis"
	"github.com/xxxsen/awbdesk/internal/apiclient"
	"github.com/xxxsen/awbdesk/internal/model"
	appErr "github.com/xxxsen/awbdesk/internal/pkg/errors"
)

const DefaultTimeout = 120 * time.Second

// Streamer opens the upstream analysis stream.
type Streamer interface {
	OpenAnalysisStream(ctx context.Context, files []apiclient.UploadFile) (io.ReadCloser, error)
}

type Ingestor struct {
	streamer Streamer
	timeout  time.Duration
}

type Option func(*Ingestor)

func WithTimeout(d time.Duration) Option {
	return func(i *Ingestor) {
		if d > 0 {
			i.timeout = d
		}
	}
}

func New(streamer Streamer, opts ...Option) *Ingestor {
	i := &Ingestor{streamer: streamer, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Ingest uploads files and returns one AnalysisResult per recognized document.
// onThinking receives the accumulated thinking text while the stream is read.
// Cancelling ctx aborts the read the same way the timeout does.
func (i *Ingestor) Ingest(ctx context.Context, files []apiclient.UploadFile, onThinking func(string)) ([]model.AnalysisResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files selected", appErr.ErrInvalid)
	}
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, filepath.Base(f.Name))
	}
	logger := logutil.GetLogger(ctx).With(zap.Strings("files", names))
	start := time.Now()
	logger.Info("analysis upload started")

	body, err := i.streamer.OpenAnalysisStream(ctx, files)
	if err != nil {
		logger.Error("open analysis stream failed", zap.Error(err))
		return nil, err
	}
	defer body.Close()

	dec := NewDecoder(onThinking)
	if _, err := io.Copy(dec, body); err != nil {
		err = apiclient.ClassifyError(ctx, err)
		logger.Error("read analysis stream failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, err
	}
	dec.Finish()

	results, err := analysis.Normalize(ctx, dec.Response(), names)
	if err != nil {
		logger.Warn("analysis produced no results", zap.Error(err), zap.Int("thinking_len", len(dec.Thinking())))
		return nil, err
	}
	logger.Info("analysis finished", zap.Int("documents", len(results)), zap.Duration("elapsed", time.Since(start)))
	return results, nil
}
