// Package vault holds the editable analysis documents of one session and
// owns their field encryption and save state.
package vault

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/awbdesk/internal/model"
	"github.com/xxxsen/awbdesk/internal/pkg/cow"
	appErr "github.com/xxxsen/awbdesk/internal/pkg/errors"
	"github.com/xxxsen/awbdesk/internal/pkg/fieldcrypt"
	"github.com/xxxsen/awbdesk/internal/pkg/jsonvalue"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	DefaultSuccessDisplay = 2 * time.Second
	DefaultErrorDisplay   = 4 * time.Second
)

type SaveStatus string

const (
	StatusIdle    SaveStatus = "idle"
	StatusSaving  SaveStatus = "saving"
	StatusSuccess SaveStatus = "success"
	StatusError   SaveStatus = "error"
)

// Saver persists the current documents remotely.
type Saver interface {
	SaveDocuments(ctx context.Context, docs []model.EditableDocument) error
}

type SaveResult struct {
	OK  bool
	Err error
}

type Option func(*Vault)

func WithSaver(s Saver) Option {
	return func(v *Vault) {
		v.saver = s
	}
}

func WithCipher(c *fieldcrypt.Cipher) Option {
	return func(v *Vault) {
		if c != nil {
			v.cipher = c
		}
	}
}

// WithDisplayDelays sets how long a save outcome stays visible before the
// status returns to idle.
func WithDisplayDelays(success, failure time.Duration) Option {
	return func(v *Vault) {
		if success >= 0 {
			v.successDisplay = success
		}
		if failure >= 0 {
			v.errorDisplay = failure
		}
	}
}

type Vault struct {
	mu             sync.Mutex
	docs           []model.EditableDocument
	dirty          bool
	edits          uint64
	status         SaveStatus
	statusGen      uint64
	saver          Saver
	cipher         *fieldcrypt.Cipher
	successDisplay time.Duration
	errorDisplay   time.Duration
}

func New(results []model.AnalysisResult, opts ...Option) *Vault {
	docs := make([]model.EditableDocument, 0, len(results))
	for _, r := range results {
		docs = append(docs, model.NewEditableDocument(r))
	}
	return newVault(docs, opts...)
}

// FromDocuments restores a vault from previously exported editable documents,
// keeping their encryption state.
func FromDocuments(docs []model.EditableDocument, opts ...Option) *Vault {
	return newVault(model.CloneDocuments(docs), opts...)
}

func newVault(docs []model.EditableDocument, opts ...Option) *Vault {
	v := &Vault{
		docs:           docs,
		status:         StatusIdle,
		cipher:         fieldcrypt.Default(),
		successDisplay: DefaultSuccessDisplay,
		errorDisplay:   DefaultErrorDisplay,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Documents returns a deep copy of the current documents.
func (v *Vault) Documents() []model.EditableDocument {
	v.mu.Lock()
	defer v.mu.Unlock()
	return model.CloneDocuments(v.docs)
}

func (v *Vault) Document(doc int) (model.EditableDocument, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !cow.InRange(v.docs, doc) {
		return model.EditableDocument{}, fmt.Errorf("%w: document %d out of range", appErr.ErrInvalid, doc)
	}
	return v.docs[doc].Clone(), nil
}

func (v *Vault) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.docs)
}

func (v *Vault) Dirty() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dirty
}

func (v *Vault) Status() SaveStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

func (v *Vault) markDirty() {
	v.dirty = true
	v.edits++
}

// SetFieldValue replaces one field value. Encrypted documents are left as is.
func (v *Vault) SetFieldValue(doc, field int, value any) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.checkField(doc, field); err != nil {
		return err
	}
	if v.docs[doc].IsEncrypted {
		return nil
	}
	value = jsonvalue.Clone(value)
	v.docs = cow.Update(v.docs, doc, func(d model.EditableDocument) model.EditableDocument {
		fields := make([]model.Field, len(d.Fields))
		copy(fields, d.Fields)
		fields[field].Value = value
		d.Fields = fields
		return d
	})
	v.markDirty()
	return nil
}

func (v *Vault) DeleteField(doc, field int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.checkField(doc, field); err != nil {
		return err
	}
	if v.docs[doc].IsEncrypted {
		return nil
	}
	v.docs = cow.Update(v.docs, doc, func(d model.EditableDocument) model.EditableDocument {
		d.Fields = cow.Remove(d.Fields, field)
		return d
	})
	v.markDirty()
	return nil
}

// RenameDocument sets the display name. Allowed in either encryption state.
func (v *Vault) RenameDocument(doc int, name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !cow.InRange(v.docs, doc) {
		return fmt.Errorf("%w: document %d out of range", appErr.ErrInvalid, doc)
	}
	v.docs = cow.Update(v.docs, doc, func(d model.EditableDocument) model.EditableDocument {
		d.FileName = name
		d.DocumentName = name
		return d
	})
	v.markDirty()
	return nil
}

func (v *Vault) checkField(doc, field int) error {
	if !cow.InRange(v.docs, doc) {
		return fmt.Errorf("%w: document %d out of range", appErr.ErrInvalid, doc)
	}
	if !cow.InRange(v.docs[doc].Fields, field) {
		return fmt.Errorf("%w: field %d out of range", appErr.ErrInvalid, field)
	}
	return nil
}

func checkPassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: password required", appErr.ErrInvalid)
	}
	return nil
}

func (v *Vault) EncryptDocument(ctx context.Context, doc int, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if !cow.InRange(v.docs, doc) {
		return fmt.Errorf("%w: document %d out of range", appErr.ErrInvalid, doc)
	}
	if v.docs[doc].IsEncrypted {
		return nil
	}
	sealer, err := v.cipher.NewSealer(password)
	if err != nil {
		return err
	}
	sealed, err := sealDocument(sealer, v.docs[doc])
	if err != nil {
		logutil.GetLogger(ctx).Error("encrypt document failed", zap.Int("doc", doc), zap.Error(err))
		return err
	}
	v.docs = cow.Replace(v.docs, doc, sealed)
	logutil.GetLogger(ctx).Info("document encrypted", zap.Int("doc", doc), zap.Int("fields", len(sealed.Fields)))
	return nil
}

func (v *Vault) DecryptDocument(ctx context.Context, doc int, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if !cow.InRange(v.docs, doc) {
		return fmt.Errorf("%w: document %d out of range", appErr.ErrInvalid, doc)
	}
	if !v.docs[doc].IsEncrypted {
		return nil
	}
	opened, err := openDocument(v.cipher.NewOpener(password), v.docs[doc])
	if err != nil {
		logDecryptFailure(ctx, doc, err)
		return err
	}
	v.docs = cow.Replace(v.docs, doc, opened)
	logutil.GetLogger(ctx).Info("document decrypted", zap.Int("doc", doc))
	return nil
}

// GlobalToggle moves every document into the requested state. Nothing is
// committed unless every document converts.
func (v *Vault) GlobalToggle(ctx context.Context, password string, encrypt bool) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	var convert func(model.EditableDocument) (model.EditableDocument, error)
	if encrypt {
		sealer, err := v.cipher.NewSealer(password)
		if err != nil {
			return err
		}
		convert = func(d model.EditableDocument) (model.EditableDocument, error) {
			return sealDocument(sealer, d)
		}
	} else {
		opener := v.cipher.NewOpener(password)
		convert = func(d model.EditableDocument) (model.EditableDocument, error) {
			return openDocument(opener, d)
		}
	}

	next := make([]model.EditableDocument, len(v.docs))
	changed := 0
	for i, d := range v.docs {
		if d.IsEncrypted == encrypt {
			next[i] = d
			continue
		}
		out, err := convert(d)
		if err != nil {
			if encrypt {
				logutil.GetLogger(ctx).Error("encrypt all failed", zap.Int("doc", i), zap.Error(err))
			} else {
				logDecryptFailure(ctx, i, err)
			}
			return err
		}
		next[i] = out
		changed++
	}
	v.docs = next
	logutil.GetLogger(ctx).Info("encryption toggled", zap.Bool("encrypted", encrypt), zap.Int("changed", changed))
	return nil
}

func logDecryptFailure(ctx context.Context, doc int, err error) {
	if appErr.IsWrongPassword(err) {
		logutil.GetLogger(ctx).Warn("decrypt rejected", zap.Int("doc", doc))
		return
	}
	logutil.GetLogger(ctx).Error("decrypt document failed", zap.Int("doc", doc), zap.Error(err))
}

// Save sends a snapshot of the documents to the saver. Edits made while the
// save runs are kept and leave the vault dirty.
func (v *Vault) Save(ctx context.Context) SaveResult {
	v.mu.Lock()
	if v.status == StatusSaving {
		v.mu.Unlock()
		return SaveResult{Err: appErr.ErrSaveInProgress}
	}
	if v.saver == nil {
		v.mu.Unlock()
		return SaveResult{Err: fmt.Errorf("%w: no saver configured", appErr.ErrInvalid)}
	}
	v.status = StatusSaving
	v.statusGen++
	docs := model.CloneDocuments(v.docs)
	edits := v.edits
	saver := v.saver
	v.mu.Unlock()

	err := saver.SaveDocuments(ctx, docs)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		logutil.GetLogger(ctx).Error("save documents failed", zap.Int("count", len(docs)), zap.Error(err))
		v.setStatusLocked(StatusError, v.errorDisplay)
		return SaveResult{Err: err}
	}
	if v.edits == edits {
		v.dirty = false
	}
	logutil.GetLogger(ctx).Info("documents saved", zap.Int("count", len(docs)))
	v.setStatusLocked(StatusSuccess, v.successDisplay)
	return SaveResult{OK: true}
}

func (v *Vault) setStatusLocked(status SaveStatus, display time.Duration) {
	v.statusGen++
	if display <= 0 {
		v.status = StatusIdle
		return
	}
	v.status = status
	gen := v.statusGen
	time.AfterFunc(display, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.statusGen == gen {
			v.status = StatusIdle
		}
	})
}
