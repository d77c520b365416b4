package export

import (
	"bytes"
	stdhtml "html"
	"strings"

	"github.com/xxxsen/awbdesk/internal/model"
	"github.com/xxxsen/awbdesk/internal/pkg/jsonvalue"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const wordHeader = `<html xmlns:o="urn:schemas-microsoft-com:office:office" xmlns:w="urn:schemas-microsoft-com:office:word" xmlns="http://www.w3.org/TR/REC-html40">
<head>
<meta charset="utf-8">
<title>Analysis Export</title>
<style>
body { font-family: Calibri, Arial, sans-serif; font-size: 11pt; }
h1 { font-size: 16pt; color: #1f3864; border-bottom: 1px solid #1f3864; }
h3 { font-size: 12pt; color: #2f5496; margin-bottom: 2pt; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999999; padding: 4pt; text-align: left; vertical-align: top; }
th { background: #d9e2f3; }
pre { font-family: Consolas, monospace; font-size: 9pt; background: #f2f2f2; padding: 6pt; }
</style>
</head>
<body>
`

const wordFooter = "</body>\n</html>\n"

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func renderWord(docs []model.EditableDocument) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(wordHeader)
	for _, doc := range docs {
		buf.WriteString("<h1>")
		buf.WriteString(stdhtml.EscapeString(doc.FileName))
		buf.WriteString("</h1>\n")
		for _, f := range doc.Fields {
			buf.WriteString("<h3>")
			buf.WriteString(stdhtml.EscapeString(f.Label))
			buf.WriteString("</h3>\n")
			if err := writeWordValue(&buf, f.Value); err != nil {
				return nil, err
			}
		}
	}
	buf.WriteString(wordFooter)
	return buf.Bytes(), nil
}

func writeWordValue(buf *bytes.Buffer, value any) error {
	if rows, ok := objectRows(value); ok {
		writeTable(buf, rows)
		return nil
	}
	if jsonvalue.IsStructured(value) {
		buf.WriteString("<pre>")
		buf.WriteString(stdhtml.EscapeString(jsonvalue.Pretty(value)))
		buf.WriteString("</pre>\n")
		return nil
	}
	text := jsonvalue.Text(value)
	if strings.Contains(strings.TrimSpace(text), "\n") {
		return markdown.Convert([]byte(text), buf)
	}
	buf.WriteString("<p>")
	buf.WriteString(stdhtml.EscapeString(text))
	buf.WriteString("</p>\n")
	return nil
}

// objectRows reports whether value is a non-empty array made only of objects.
func objectRows(value any) ([]*jsonvalue.Object, bool) {
	items, ok := value.([]any)
	if !ok || len(items) == 0 {
		return nil, false
	}
	rows := make([]*jsonvalue.Object, 0, len(items))
	for _, item := range items {
		obj, ok := item.(*jsonvalue.Object)
		if !ok || obj == nil {
			return nil, false
		}
		rows = append(rows, obj)
	}
	return rows, true
}

// tableColumns is the union of row keys in first-seen order.
func tableColumns(rows []*jsonvalue.Object) []string {
	seen := make(map[string]struct{})
	cols := make([]string, 0)
	for _, row := range rows {
		for pair := row.Oldest(); pair != nil; pair = pair.Next() {
			if _, ok := seen[pair.Key]; ok {
				continue
			}
			seen[pair.Key] = struct{}{}
			cols = append(cols, pair.Key)
		}
	}
	return cols
}

func writeTable(buf *bytes.Buffer, rows []*jsonvalue.Object) {
	cols := tableColumns(rows)
	buf.WriteString("<table>\n<tr>")
	for _, col := range cols {
		buf.WriteString("<th>")
		buf.WriteString(stdhtml.EscapeString(col))
		buf.WriteString("</th>")
	}
	buf.WriteString("</tr>\n")
	for _, row := range rows {
		buf.WriteString("<tr>")
		for _, col := range cols {
			buf.WriteString("<td>")
			if v, ok := row.Get(col); ok {
				buf.WriteString(stdhtml.EscapeString(jsonvalue.Text(v)))
			}
			buf.WriteString("</td>")
		}
		buf.WriteString("</tr>\n")
	}
	buf.WriteString("</table>\n")
}
