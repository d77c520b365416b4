package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/awbdesk/internal/model"
	appErr "github.com/xxxsen/awbdesk/internal/pkg/errors"
	"github.com/xxxsen/awbdesk/internal/pkg/jsonvalue"
)

const (
	DefaultConfidence = 0.95
	ValidConfidence   = 1.0
	PendingConfidence = 0.8
	UnknownType       = "unknown"
)

var (
	fileNameKeys   = []string{"fileName", "file_name", "filename", "document_name", "name"}
	typeKeys       = []string{"detectedType", "detected_type", "document_type", "type"}
	confidenceKeys = []string{"confidence"}
	metadataKeys   = map[string]struct{}{
		"confidence":        {},
		"validation_status": {},
	}
)

func init() {
	for _, k := range fileNameKeys {
		metadataKeys[k] = struct{}{}
	}
	for _, k := range typeKeys {
		metadataKeys[k] = struct{}{}
	}
}

// Normalize converts an accumulated response into one AnalysisResult per
// recognized document. Text that is not JSON degrades to markdown parsing and
// finally to a single Summary field. fallbackNames name documents whose payload
// carries no file name, by position.
func Normalize(ctx context.Context, text string, fallbackNames []string) ([]model.AnalysisResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, appErr.ErrNoResults
	}
	logger := logutil.GetLogger(ctx)
	p, err := decodePayload(text)
	if err != nil {
		logger.Debug("response is not json, using text fallback",
			zap.Error(fmt.Errorf("%w: %v", appErr.ErrParse, err)))
	}
	n := normalizer{names: fallbackNames}
	var results []model.AnalysisResult
	switch v := p.(type) {
	case listPayload:
		results = n.fromItems(v.items, func(*jsonvalue.Object) float64 { return DefaultConfidence })
	case documentsPayload:
		results = n.fromItems(v.items, documentsConfidence)
	case singlePayload:
		results = []model.AnalysisResult{n.fromObject(0, v.obj, DefaultConfidence)}
	case unstructuredPayload:
		results = []model.AnalysisResult{{
			FileName:     n.name(0, "Analysis"),
			DetectedType: UnknownType,
			Confidence:   DefaultConfidence,
			Fields:       unstructuredFields(v.text),
		}}
	default:
		return nil, fmt.Errorf("unhandled payload kind %s", p.payloadKind())
	}
	if len(results) == 0 {
		return nil, appErr.ErrNoResults
	}
	logger.Debug("response normalized", zap.String("kind", p.payloadKind()), zap.Int("documents", len(results)))
	return results, nil
}

func documentsConfidence(obj *jsonvalue.Object) float64 {
	if strings.EqualFold(jsonvalue.LookupString(obj, "validation_status"), "valid") {
		return ValidConfidence
	}
	return PendingConfidence
}

type normalizer struct {
	names []string
}

func (n normalizer) name(index int, def string) string {
	if index < len(n.names) && strings.TrimSpace(n.names[index]) != "" {
		return n.names[index]
	}
	return def
}

func (n normalizer) fromItems(items []any, confidence func(*jsonvalue.Object) float64) []model.AnalysisResult {
	results := make([]model.AnalysisResult, 0, len(items))
	for _, item := range items {
		index := len(results)
		switch v := item.(type) {
		case nil:
			continue
		case *jsonvalue.Object:
			results = append(results, n.fromObject(index, v, confidence(v)))
		default:
			results = append(results, model.AnalysisResult{
				FileName:     n.name(index, fmt.Sprintf("Document %d", index+1)),
				DetectedType: UnknownType,
				Confidence:   DefaultConfidence,
				Fields:       []model.Field{{Label: summaryLabel, Value: jsonvalue.Clone(v)}},
			})
		}
	}
	return results
}

func (n normalizer) fromObject(index int, obj *jsonvalue.Object, defConfidence float64) model.AnalysisResult {
	res := model.AnalysisResult{
		FileName:     jsonvalue.LookupString(obj, fileNameKeys...),
		DetectedType: jsonvalue.LookupString(obj, typeKeys...),
		Confidence:   defConfidence,
	}
	if res.FileName == "" {
		res.FileName = n.name(index, fmt.Sprintf("Document %d", index+1))
	}
	if res.DetectedType == "" {
		res.DetectedType = UnknownType
	}
	if v, ok := jsonvalue.Lookup(obj, confidenceKeys...); ok {
		if f, ok := jsonvalue.Float(v); ok {
			res.Confidence = f
		}
	}
	fields, ok := obj.Get("fields")
	if !ok {
		res.Fields = fieldsFromProperties(obj)
		return res
	}
	switch v := fields.(type) {
	case []any:
		res.Fields = fieldsFromList(v)
	case *jsonvalue.Object:
		res.Fields = fieldsFromObject(v)
	default:
		res.Fields = []model.Field{{Label: "Fields", Value: jsonvalue.Clone(v)}}
	}
	return res
}

func fieldsFromObject(obj *jsonvalue.Object) []model.Field {
	fields := make([]model.Field, 0, obj.Len())
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		fields = append(fields, model.Field{Label: FormatLabel(pair.Key), Value: jsonvalue.Clone(pair.Value)})
	}
	return fields
}

func fieldsFromProperties(obj *jsonvalue.Object) []model.Field {
	fields := make([]model.Field, 0, obj.Len())
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		if _, skip := metadataKeys[pair.Key]; skip {
			continue
		}
		fields = append(fields, model.Field{Label: FormatLabel(pair.Key), Value: jsonvalue.Clone(pair.Value)})
	}
	return fields
}

// fieldsFromList accepts an already-sequenced field list ({label, value, section}).
func fieldsFromList(items []any) []model.Field {
	fields := make([]model.Field, 0, len(items))
	for i, item := range items {
		obj, ok := item.(*jsonvalue.Object)
		if !ok {
			fields = append(fields, model.Field{Label: fmt.Sprintf("Item %d", i+1), Value: jsonvalue.Clone(item)})
			continue
		}
		label := jsonvalue.LookupString(obj, "label", "name", "key")
		if label == "" {
			label = fmt.Sprintf("Item %d", i+1)
		}
		value, _ := obj.Get("value")
		fields = append(fields, model.Field{
			Label:   label,
			Value:   jsonvalue.Clone(value),
			Section: jsonvalue.LookupString(obj, "section"),
		})
	}
	return fields
}
