package service

import (
	"context"

	"github.com/xxxsen/awbdesk/internal/apiclient"
	"github.com/xxxsen/awbdesk/internal/model"
	"github.com/xxxsen/awbdesk/internal/session"
	"github.com/xxxsen/awbdesk/internal/vault"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Ingestor runs one streamed analysis.
type Ingestor interface {
	Ingest(ctx context.Context, files []apiclient.UploadFile, onThinking func(string)) ([]model.AnalysisResult, error)
}

type AnalysisService struct {
	ingestor  Ingestor
	sessions  *session.Store
	vaultOpts []vault.Option
}

func NewAnalysisService(ingestor Ingestor, sessions *session.Store, vaultOpts ...vault.Option) *AnalysisService {
	return &AnalysisService{ingestor: ingestor, sessions: sessions, vaultOpts: vaultOpts}
}

// Analyze ingests files and opens a new session for owner holding the results.
func (s *AnalysisService) Analyze(ctx context.Context, owner string, files []apiclient.UploadFile, onThinking func(string)) (*session.Session, error) {
	results, err := s.ingestor.Ingest(ctx, files, onThinking)
	if err != nil {
		return nil, err
	}
	sess := s.sessions.Create(ctx, owner, vault.New(results, s.vaultOpts...))
	logutil.GetLogger(ctx).Info("analysis session opened",
		zap.String("owner", owner),
		zap.Int("files", len(files)),
		zap.Int("documents", len(results)),
	)
	logutil.GetLogger(ctx).Debug("analysis session id", zap.String("session_id", sess.ID))
	return sess, nil
}

func (s *AnalysisService) Get(owner, id string) (*session.Session, error) {
	return s.sessions.Get(owner, id)
}

// Reset drops the session and its vault.
func (s *AnalysisService) Reset(ctx context.Context, owner, id string) error {
	if err := s.sessions.Delete(owner, id); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("analysis session reset", zap.String("owner", owner))
	return nil
}
