package export

import (
	"strings"

	"github.com/xxxsen/awbdesk/internal/model"
	"github.com/xxxsen/awbdesk/internal/pkg/jsonvalue"
)

func renderText(docs []model.EditableDocument) ([]byte, error) {
	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Document: ")
		sb.WriteString(doc.FileName)
		sb.WriteString("\n")
		for _, f := range doc.Fields {
			sb.WriteString(f.Label)
			sb.WriteString(":\n")
			sb.WriteString(jsonvalue.Pretty(f.Value))
			sb.WriteString("\n")
		}
	}
	return []byte(sb.String()), nil
}
