package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xxxsen/awbdesk/internal/model"
	appErr "github.com/xxxsen/awbdesk/internal/pkg/errors"
	"github.com/xxxsen/awbdesk/internal/pkg/jsonvalue"

	"github.com/vmihailenco/msgpack/v5"
)

const snapshotVersion = 1

// Field values are stored as JSON text so object key order survives.
type snapshotField struct {
	Label   string `msgpack:"label"`
	Section string `msgpack:"section,omitempty"`
	Value   []byte `msgpack:"value"`
}

type snapshotDocument struct {
	FileName     string          `msgpack:"file_name"`
	DetectedType string          `msgpack:"detected_type"`
	Confidence   float64         `msgpack:"confidence"`
	DocumentName string          `msgpack:"document_name"`
	IsEncrypted  bool            `msgpack:"is_encrypted"`
	IsAnonymized bool            `msgpack:"is_anonymized"`
	Fields       []snapshotField `msgpack:"fields"`
}

type snapshot struct {
	Version   int                `msgpack:"version"`
	SavedAt   time.Time          `msgpack:"saved_at"`
	Documents []snapshotDocument `msgpack:"documents"`
}

func Encode(docs []model.EditableDocument) ([]byte, error) {
	snap := snapshot{Version: snapshotVersion, SavedAt: time.Now().UTC(), Documents: make([]snapshotDocument, 0, len(docs))}
	for _, doc := range docs {
		sd := snapshotDocument{
			FileName:     doc.FileName,
			DetectedType: doc.DetectedType,
			Confidence:   doc.Confidence,
			DocumentName: doc.DocumentName,
			IsEncrypted:  doc.IsEncrypted,
			IsAnonymized: doc.IsAnonymized,
			Fields:       make([]snapshotField, 0, len(doc.Fields)),
		}
		for _, f := range doc.Fields {
			value, err := json.Marshal(f.Value)
			if err != nil {
				return nil, fmt.Errorf("encode field %q: %w", f.Label, err)
			}
			sd.Fields = append(sd.Fields, snapshotField{Label: f.Label, Section: f.Section, Value: value})
		}
		snap.Documents = append(snap.Documents, sd)
	}
	return msgpack.Marshal(&snap)
}

func Decode(data []byte) ([]model.EditableDocument, error) {
	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", appErr.ErrInvalid, err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported snapshot version %d", appErr.ErrInvalid, snap.Version)
	}
	docs := make([]model.EditableDocument, 0, len(snap.Documents))
	for _, sd := range snap.Documents {
		doc := model.EditableDocument{
			AnalysisResult: model.AnalysisResult{
				FileName:     sd.FileName,
				DetectedType: sd.DetectedType,
				Confidence:   sd.Confidence,
				Fields:       make([]model.Field, 0, len(sd.Fields)),
			},
			DocumentName: sd.DocumentName,
			IsEncrypted:  sd.IsEncrypted,
			IsAnonymized: sd.IsAnonymized,
		}
		for _, sf := range sd.Fields {
			value, err := jsonvalue.Decode(sf.Value)
			if err != nil {
				return nil, fmt.Errorf("%w: field %q: %v", appErr.ErrInvalid, sf.Label, err)
			}
			doc.Fields = append(doc.Fields, model.Field{Label: sf.Label, Section: sf.Section, Value: value})
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// SaveFile writes docs to path, replacing any previous snapshot atomically.
func SaveFile(path string, docs []model.EditableDocument) error {
	data, err := Encode(docs)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func LoadFile(path string) ([]model.EditableDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
