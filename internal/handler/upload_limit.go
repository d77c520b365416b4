package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strconv"

	"github.com/xxxsen/awbdesk/internal/apiclient"
	appErr "github.com/xxxsen/awbdesk/internal/pkg/errors"
)

func formatUploadLimit(bytes int64) string {
	const mb = 1024 * 1024
	if bytes <= 0 {
		return "0MB"
	}
	value := bytes / mb
	if value <= 0 {
		value = 1
	}
	return strconv.FormatInt(value, 10) + "MB"
}

// readUploads loads every part into memory; the total is bounded by the
// request size limit.
func readUploads(headers []*multipart.FileHeader) ([]apiclient.UploadFile, error) {
	files := make([]apiclient.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", appErr.ErrInvalid, fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", appErr.ErrInvalid, fh.Filename, err)
		}
		files = append(files, apiclient.UploadFile{Name: filepath.Base(fh.Filename), Data: data})
	}
	return files, nil
}
