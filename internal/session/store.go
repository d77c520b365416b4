// Package session keeps one vault per analysis run, addressed by a random id.
package session

import (
	"context"
	"time"

	appErr "github.com/xxxsen/awbdesk/internal/pkg/errors"
	"github.com/xxxsen/awbdesk/internal/vault"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	DefaultSize = 256
	DefaultTTL  = 2 * time.Hour
)

type Session struct {
	ID        string
	Owner     string
	CreatedAt time.Time
	Vault     *vault.Vault
}

type Store struct {
	cache *expirable.LRU[string, *Session]
}

func NewStore(size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{cache: expirable.NewLRU[string, *Session](size, nil, ttl)}
}

// Create opens a session owned by owner. Only the same owner can read or
// delete it afterwards.
func (s *Store) Create(ctx context.Context, owner string, v *vault.Vault) *Session {
	sess := &Session{
		ID:        uuid.NewString(),
		Owner:     owner,
		CreatedAt: time.Now(),
		Vault:     v,
	}
	if evicted := s.cache.Add(sess.ID, sess); evicted {
		logutil.GetLogger(ctx).Info("session store full, oldest session evicted")
	}
	logutil.GetLogger(ctx).Debug("session created", zap.String("session_id", sess.ID), zap.Int("documents", v.Len()))
	return sess
}

// Get returns the session when it exists and belongs to owner. A foreign
// session is reported as not found.
func (s *Store) Get(owner, id string) (*Session, error) {
	sess, ok := s.cache.Get(id)
	if !ok || sess.Owner != owner {
		return nil, appErr.ErrNotFound
	}
	return sess, nil
}

func (s *Store) Delete(owner, id string) error {
	if _, err := s.Get(owner, id); err != nil {
		return err
	}
	if !s.cache.Remove(id) {
		return appErr.ErrNotFound
	}
	return nil
}

func (s *Store) Len() int {
	return s.cache.Len()
}
