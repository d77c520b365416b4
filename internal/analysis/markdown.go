package analysis

import (
	"regexp"
	"strings"

	"github.com/xxxsen/awbdesk/internal/model"
)

const summaryLabel = "Summary"

var (
	mdFieldRegex      = regexp.MustCompile(`^[-*]\s+\*\*([^*]+?)\*\*\s*:\s*(.*)$`)
	mdFieldInnerRegex = regexp.MustCompile(`^[-*]\s+\*\*([^*]+?):\*\*\s*(.*)$`)
)

// parseMarkdownFields recovers "- **Key**: value" pairs, tagging each with the
// most recent "#" heading.
func parseMarkdownFields(text string) []model.Field {
	var (
		section string
		fields  []model.Field
	)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			section = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			continue
		}
		m := mdFieldRegex.FindStringSubmatch(trimmed)
		if m == nil {
			m = mdFieldInnerRegex.FindStringSubmatch(trimmed)
		}
		if m == nil {
			continue
		}
		fields = append(fields, model.Field{
			Label:   strings.TrimSpace(m[1]),
			Value:   strings.TrimSpace(m[2]),
			Section: section,
		})
	}
	return fields
}

func unstructuredFields(text string) []model.Field {
	if fields := parseMarkdownFields(text); len(fields) > 0 {
		return fields
	}
	return []model.Field{{Label: summaryLabel, Value: text}}
}
