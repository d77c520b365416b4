package service

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/awbdesk/internal/export"
	"github.com/xxxsen/awbdesk/internal/filestore"
	"github.com/xxxsen/awbdesk/internal/model"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type StoredExport struct {
	Key      string `json:"key"`
	FileName string `json:"file_name"`
	Size     int    `json:"size"`
}

type ExportService struct {
	store filestore.Store
	now   func() time.Time
}

func NewExportService(store filestore.Store) *ExportService {
	return &ExportService{store: store, now: time.Now}
}

func (s *ExportService) Render(docs []model.EditableDocument, format export.Format) (export.Artifact, error) {
	return export.Render(docs, format, s.now())
}

// Store renders docs and keeps the artifact in the export store under a
// unique key.
func (s *ExportService) Store(ctx context.Context, docs []model.EditableDocument, format export.Format) (*StoredExport, error) {
	artifact, err := s.Render(docs, format)
	if err != nil {
		return nil, err
	}
	ext := filepath.Ext(artifact.FileName)
	key := strings.TrimSuffix(artifact.FileName, ext) + "_" + uuid.NewString()[:8] + ext
	if err := s.store.Save(ctx, key, bytes.NewReader(artifact.Data), int64(len(artifact.Data)), artifact.ContentType); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("export stored",
		zap.String("key", key),
		zap.String("format", string(format)),
		zap.String("store", s.store.Type()),
		zap.Int("size", len(artifact.Data)),
	)
	return &StoredExport{Key: key, FileName: artifact.FileName, Size: len(artifact.Data)}, nil
}
