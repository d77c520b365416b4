package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xxxsen/awbdesk/internal/model"
	"github.com/xxxsen/awbdesk/internal/pkg/jsonvalue"

	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

var sheetHeaders = []string{"Section", "Label", "Value"}

func renderXLSX(docs []model.EditableDocument) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	first := f.GetSheetName(0)
	if len(docs) == 0 {
		writeSheetHeader(f, first)
	}
	used := make(map[string]struct{})
	for i, doc := range docs {
		sheet := uniqueSheetName(doc.FileName, i, used)
		if i == 0 {
			if err := f.SetSheetName(first, sheet); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("new sheet: %w", err)
		}
		writeSheetHeader(f, sheet)
		for r, field := range doc.Fields {
			row := r + 2
			write := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				_ = f.SetCellValue(sheet, cell, v)
			}
			write(1, field.Section)
			write(2, field.Label)
			write(3, cellValue(field.Value))
		}
		_ = f.SetColWidth(sheet, "A", "A", 18)
		_ = f.SetColWidth(sheet, "B", "B", 28)
		_ = f.SetColWidth(sheet, "C", "C", 60)
	}
	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheetHeader(f *excelize.File, sheet string) {
	for i, h := range sheetHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
}

func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case string, bool:
		return t
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	}
	return jsonvalue.Pretty(v)
}

func uniqueSheetName(name string, index int, used map[string]struct{}) string {
	base := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	base = strings.Trim(base, "'")
	if base == "" {
		base = fmt.Sprintf("Document %d", index+1)
	}
	candidate := truncateRunes(base, maxSheetName)
	for n := 2; ; n++ {
		key := strings.ToLower(candidate)
		if _, ok := used[key]; !ok {
			used[key] = struct{}{}
			return candidate
		}
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
