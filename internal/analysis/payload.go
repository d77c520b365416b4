package analysis

import (
	"strings"

	"github.com/xxxsen/awbdesk/internal/pkg/jsonvalue"
)

// payload is the decoded shape of an accumulated response. Exactly one of the
// variants below is produced by decodePayload.
type payload interface {
	payloadKind() string
}

// listPayload is a top-level JSON array, one element per document.
type listPayload struct {
	items []any
}

// documentsPayload is an object carrying a "documents" array.
type documentsPayload struct {
	items []any
}

// singlePayload is any other object, treated as one document.
type singlePayload struct {
	obj *jsonvalue.Object
}

// unstructuredPayload is text that is not a JSON object or array.
type unstructuredPayload struct {
	text string
}

func (listPayload) payloadKind() string         { return "list" }
func (documentsPayload) payloadKind() string    { return "documents" }
func (singlePayload) payloadKind() string       { return "single" }
func (unstructuredPayload) payloadKind() string { return "unstructured" }

func decodePayload(text string) (payload, error) {
	v, err := jsonvalue.DecodeString(stripCodeFence(text))
	if err != nil {
		return unstructuredPayload{text: text}, err
	}
	switch t := v.(type) {
	case []any:
		return listPayload{items: t}, nil
	case *jsonvalue.Object:
		if docs, ok := t.Get("documents"); ok {
			if items, ok := docs.([]any); ok {
				return documentsPayload{items: items}, nil
			}
		}
		return singlePayload{obj: t}, nil
	}
	return unstructuredPayload{text: text}, nil
}

func stripCodeFence(text string) string {
	clean := strings.TrimSpace(text)
	if !strings.HasPrefix(clean, "```") {
		return clean
	}
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```JSON")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
