// Package export renders editable documents into downloadable artifacts.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/awbdesk/internal/model"
	appErr "github.com/xxxsen/awbdesk/internal/pkg/errors"

	"golang.org/x/sync/errgroup"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatTXT  Format = "txt"
	FormatDoc  Format = "doc"
	FormatXLSX Format = "xlsx"
)

const fileNamePrefix = "analysis_export_"

var Formats = []Format{FormatJSON, FormatTXT, FormatDoc, FormatXLSX}

type Artifact struct {
	FileName    string
	ContentType string
	Data        []byte
}

type renderer struct {
	contentType string
	render      func(docs []model.EditableDocument) ([]byte, error)
}

var renderers = map[Format]renderer{
	FormatJSON: {contentType: "application/json", render: renderJSON},
	FormatTXT:  {contentType: "text/plain; charset=utf-8", render: renderText},
	FormatDoc:  {contentType: "application/msword", render: renderWord},
	FormatXLSX: {contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", render: renderXLSX},
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "txt", "text":
		return FormatTXT, nil
	case "doc", "docx", "word":
		return FormatDoc, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: unsupported export format %q", appErr.ErrInvalid, s)
}

// FileName builds the timestamped artifact name for format.
func FileName(format Format, now time.Time) string {
	return fileNamePrefix + now.Format("20060102150405") + "." + string(format)
}

func Render(docs []model.EditableDocument, format Format, now time.Time) (Artifact, error) {
	r, ok := renderers[format]
	if !ok {
		return Artifact{}, fmt.Errorf("%w: unsupported export format %q", appErr.ErrInvalid, format)
	}
	data, err := r.render(docs)
	if err != nil {
		return Artifact{}, fmt.Errorf("render %s: %w", format, err)
	}
	return Artifact{
		FileName:    FileName(format, now),
		ContentType: r.contentType,
		Data:        data,
	}, nil
}

// RenderAll renders every format concurrently. Artifacts are returned in
// the order of formats.
func RenderAll(ctx context.Context, docs []model.EditableDocument, formats []Format, now time.Time) ([]Artifact, error) {
	out := make([]Artifact, len(formats))
	eg, ctx := errgroup.WithContext(ctx)
	for i, format := range formats {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			artifact, err := Render(docs, format, now)
			if err != nil {
				return err
			}
			out[i] = artifact
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func renderJSON(docs []model.EditableDocument) ([]byte, error) {
	if docs == nil {
		docs = []model.EditableDocument{}
	}
	return json.MarshalIndent(docs, "", "  ")
}
