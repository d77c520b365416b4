package export

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/xxxsen/awbdesk/internal/model"
	appErr "github.com/xxxsen/awbdesk/internal/pkg/errors"
	"github.com/xxxsen/awbdesk/internal/pkg/jsonvalue"
)

var exportTime = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func decode(t *testing.T, s string) any {
	t.Helper()
	v, err := jsonvalue.DecodeString(s)
	require.NoError(t, err)
	return v
}

func doc(name string, fields ...model.Field) model.EditableDocument {
	return model.NewEditableDocument(model.AnalysisResult{FileName: name, DetectedType: "AWB", Confidence: 0.95, Fields: fields})
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "TXT": FormatTXT, "docx": FormatDoc, "word": FormatDoc, "xlsx": FormatXLSX} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestFileName(t *testing.T) {
	require.Equal(t, "analysis_export_20240309140507.doc", FileName(FormatDoc, exportTime))
	require.Equal(t, "analysis_export_20240309140507.json", FileName(FormatJSON, exportTime))
}

func TestRenderTextPrettyPrintsStructures(t *testing.T) {
	docs := []model.EditableDocument{doc("a.pdf", model.Field{Label: "Total", Value: decode(t, `{"a":1,"b":2}`)})}
	artifact, err := Render(docs, FormatTXT, exportTime)
	require.NoError(t, err)
	require.Equal(t, "analysis_export_20240309140507.txt", artifact.FileName)

	out := string(artifact.Data)
	require.Contains(t, out, "Document: a.pdf\n")
	require.Contains(t, out, "Total:\n{\n  \"a\": 1,\n  \"b\": 2\n}\n")
}

func TestRenderTextSeparatesDocuments(t *testing.T) {
	docs := []model.EditableDocument{
		doc("a.pdf", model.Field{Label: "Total", Value: json.Number("100")}),
		doc("b.pdf", model.Field{Label: "Name", Value: "Doc B"}),
	}
	artifact, err := Render(docs, FormatTXT, exportTime)
	require.NoError(t, err)
	require.Equal(t, "Document: a.pdf\nTotal:\n100\n\nDocument: b.pdf\nName:\nDoc B\n", string(artifact.Data))
}

func TestRenderJSONKeepsFieldOrder(t *testing.T) {
	docs := []model.EditableDocument{doc("a.pdf", model.Field{Label: "Shipper", Value: decode(t, `{"zeta":1,"alpha":2}`)})}
	artifact, err := Render(docs, FormatJSON, exportTime)
	require.NoError(t, err)
	require.Equal(t, "application/json", artifact.ContentType)

	out := string(artifact.Data)
	require.Less(t, strings.Index(out, `"zeta"`), strings.Index(out, `"alpha"`))
	require.Contains(t, out, `"document_name": "a.pdf"`)
	require.Contains(t, out, `"isEncrypted": false`)

	var back []model.EditableDocument
	require.NoError(t, json.Unmarshal(artifact.Data, &back))
	require.Len(t, back, 1)
	require.True(t, jsonvalue.Equal(docs[0].Fields[0].Value, back[0].Fields[0].Value))
}

func TestRenderJSONEmpty(t *testing.T) {
	artifact, err := Render(nil, FormatJSON, exportTime)
	require.NoError(t, err)
	require.Equal(t, "[]", string(artifact.Data))
}

func TestRenderWord(t *testing.T) {
	docs := []model.EditableDocument{doc("a<b>.pdf",
		model.Field{Label: "Items", Value: decode(t, `[{"sku":"A1","qty":2},{"qty":1,"note":"fragile"}]`)},
		model.Field{Label: "Shipper", Value: decode(t, `{"name":"ACME"}`)},
		model.Field{Label: "Total", Value: json.Number("100")},
		model.Field{Label: "Notes", Value: "line **one**\nline two"},
	)}
	artifact, err := Render(docs, FormatDoc, exportTime)
	require.NoError(t, err)
	require.Equal(t, "application/msword", artifact.ContentType)
	require.True(t, strings.HasSuffix(artifact.FileName, ".doc"))

	out := string(artifact.Data)
	require.Contains(t, out, `xmlns:w="urn:schemas-microsoft-com:office:word"`)
	require.Contains(t, out, "<h1>a&lt;b&gt;.pdf</h1>")
	require.Contains(t, out, "<h3>Items</h3>")
	require.Contains(t, out, "<tr><th>sku</th><th>qty</th><th>note</th></tr>")
	require.Contains(t, out, "<tr><td>A1</td><td>2</td><td></td></tr>")
	require.Contains(t, out, "<tr><td></td><td>1</td><td>fragile</td></tr>")
	require.Contains(t, out, "<pre>{\n  &#34;name&#34;: &#34;ACME&#34;\n}</pre>")
	require.Contains(t, out, "<p>100</p>")
	require.Contains(t, out, "<strong>one</strong>")
}

func TestRenderXLSX(t *testing.T) {
	docs := []model.EditableDocument{
		doc("awb/1.pdf", model.Field{Label: "Total", Value: json.Number("100.5"), Section: "Charges"}),
		doc("awb/1.pdf", model.Field{Label: "Name", Value: "Doc B"}),
	}
	artifact, err := Render(docs, FormatXLSX, exportTime)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(artifact.Data))
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{"awb_1.pdf", "awb_1.pdf (2)"}, f.GetSheetList())

	rows, err := f.GetRows("awb_1.pdf")
	require.NoError(t, err)
	require.Equal(t, []string{"Section", "Label", "Value"}, rows[0])
	require.Equal(t, []string{"Charges", "Total", "100.5"}, rows[1])
}

func TestRenderAll(t *testing.T) {
	docs := []model.EditableDocument{doc("a.pdf", model.Field{Label: "Total", Value: "100"})}
	artifacts, err := RenderAll(context.Background(), docs, Formats, exportTime)
	require.NoError(t, err)
	require.Len(t, artifacts, len(Formats))
	for i, format := range Formats {
		require.Equal(t, FileName(format, exportTime), artifacts[i].FileName)
		require.NotEmpty(t, artifacts[i].Data)
	}

	_, err = RenderAll(context.Background(), docs, []Format{FormatJSON, "pdf"}, exportTime)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}
