package model

import (
	"encoding/json"

	"github.com/xxxsen/awbdesk/internal/pkg/jsonvalue"
)

// Field is one labeled extracted value. Value holds a jsonvalue: a string,
// json.Number, bool, nil, []any or *jsonvalue.Object.
type Field struct {
	Label   string `json:"label"`
	Value   any    `json:"value"`
	Section string `json:"section,omitempty"`
}

func (f *Field) UnmarshalJSON(data []byte) error {
	var raw struct {
		Label   string          `json:"label"`
		Value   json.RawMessage `json:"value"`
		Section string          `json:"section"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Label = raw.Label
	f.Section = raw.Section
	f.Value = nil
	if len(raw.Value) > 0 {
		v, err := jsonvalue.Decode(raw.Value)
		if err != nil {
			return err
		}
		f.Value = v
	}
	return nil
}

func (f Field) Clone() Field {
	f.Value = jsonvalue.Clone(f.Value)
	return f
}

// AnalysisResult is one normalized document of an analysis stream.
type AnalysisResult struct {
	FileName     string  `json:"fileName"`
	DetectedType string  `json:"detectedType"`
	Confidence   float64 `json:"confidence"`
	Fields       []Field `json:"fields"`
}

func (r AnalysisResult) Clone() AnalysisResult {
	fields := make([]Field, len(r.Fields))
	for i, f := range r.Fields {
		fields[i] = f.Clone()
	}
	r.Fields = fields
	return r
}

// EditableDocument is the vault's working copy of an AnalysisResult.
type EditableDocument struct {
	AnalysisResult
	DocumentName string `json:"document_name"`
	IsEncrypted  bool   `json:"isEncrypted"`
	IsAnonymized bool   `json:"isAnonymized"`
}

func NewEditableDocument(r AnalysisResult) EditableDocument {
	r = r.Clone()
	return EditableDocument{AnalysisResult: r, DocumentName: r.FileName}
}

func (d EditableDocument) Clone() EditableDocument {
	d.AnalysisResult = d.AnalysisResult.Clone()
	return d
}

func CloneDocuments(docs []EditableDocument) []EditableDocument {
	out := make([]EditableDocument, len(docs))
	for i, d := range docs {
		out[i] = d.Clone()
	}
	return out
}
