package job

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/awbdesk/internal/filestore"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const exportPrefix = "analysis_export_"

// ExportCleanupJob removes stored export artifacts older than maxAge.
type ExportCleanupJob struct {
	store  filestore.Store
	maxAge time.Duration
	now    func() time.Time
}

func NewExportCleanupJob(store filestore.Store, maxAge time.Duration) *ExportCleanupJob {
	return &ExportCleanupJob{store: store, maxAge: maxAge, now: time.Now}
}

func (j *ExportCleanupJob) Name() string {
	return "export_cleanup"
}

func (j *ExportCleanupJob) Run(ctx context.Context) error {
	if j.store == nil {
		return nil
	}
	maxAge := j.maxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	cutoff := j.now().Add(-maxAge)
	objects, err := j.store.List(ctx)
	if err != nil {
		return err
	}
	removed := 0
	for _, obj := range objects {
		if !strings.HasPrefix(obj.Key, exportPrefix) || !obj.ModTime.Before(cutoff) {
			continue
		}
		if err := j.store.Delete(ctx, obj.Key); err != nil {
			return err
		}
		removed++
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("expired exports removed", zap.Int("count", removed), zap.String("store", j.store.Type()))
	}
	return nil
}
