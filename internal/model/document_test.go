package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/awbdesk/internal/pkg/jsonvalue"
)

func TestFieldUnmarshalKeepsOrder(t *testing.T) {
	var f Field
	require.NoError(t, json.Unmarshal([]byte(`{"label":"Items","value":{"z":1,"a":2},"section":"Cargo"}`), &f))
	require.Equal(t, "Items", f.Label)
	require.Equal(t, "Cargo", f.Section)
	require.Equal(t, `{"z":1,"a":2}`, jsonvalue.Text(f.Value))
}

func TestEditableDocumentJSON(t *testing.T) {
	doc := NewEditableDocument(AnalysisResult{
		FileName:     "a.pdf",
		DetectedType: "awb",
		Confidence:   0.8,
		Fields:       []Field{{Label: "Total", Value: "100"}},
	})
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.JSONEq(t, `{"fileName":"a.pdf","detectedType":"awb","confidence":0.8,
		"fields":[{"label":"Total","value":"100"}],
		"document_name":"a.pdf","isEncrypted":false,"isAnonymized":false}`, string(data))

	var back EditableDocument
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, doc, back)
}

func TestCloneDoesNotAlias(t *testing.T) {
	v, err := jsonvalue.DecodeString(`{"a":"1"}`)
	require.NoError(t, err)
	src := AnalysisResult{Fields: []Field{{Label: "X", Value: v}}}
	doc := NewEditableDocument(src)
	doc.Fields[0].Value.(*jsonvalue.Object).Set("a", "2")
	doc.Fields[0].Label = "Y"
	require.Equal(t, "X", src.Fields[0].Label)
	require.Equal(t, `{"a":"1"}`, jsonvalue.Text(src.Fields[0].Value))
}
