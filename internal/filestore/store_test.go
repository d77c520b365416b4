package filestore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xxxsen/awbdesk/internal/config"
	appErr "github.com/xxxsen/awbdesk/internal/pkg/errors"
)

func TestLocalStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := New(config.FileStoreConfig{Type: "Local", Data: map[string]interface{}{"dir": dir}})
	require.NoError(t, err)
	require.Equal(t, "local", store.Type())

	objects, err := store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, objects)

	data := []byte("hello export")
	require.NoError(t, store.Save(ctx, "analysis_export_1.txt", bytes.NewReader(data), int64(len(data)), "text/plain"))
	require.NoError(t, store.Save(ctx, "analysis_export_0.json", bytes.NewReader([]byte("[]")), 2, "application/json"))

	rc, err := store.Open(ctx, "analysis_export_1.txt")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	require.Equal(t, data, got)

	objects, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	require.Equal(t, "analysis_export_0.json", objects[0].Key)
	require.Equal(t, int64(len(data)), objects[1].Size)
	require.False(t, objects[1].ModTime.IsZero())

	require.NoError(t, store.Delete(ctx, "analysis_export_1.txt"))
	require.NoError(t, store.Delete(ctx, "analysis_export_1.txt"))
	_, err = store.Open(ctx, "analysis_export_1.txt")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestLocalStoreRejectsPathKeys(t *testing.T) {
	ctx := context.Background()
	store, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": t.TempDir()}})
	require.NoError(t, err)

	for _, key := range []string{"", "..", "../escape.txt", `a\b`} {
		err := store.Save(ctx, key, bytes.NewReader(nil), 0, "")
		require.ErrorIs(t, err, appErr.ErrInvalid, key)
		_, err = store.Open(ctx, key)
		require.ErrorIs(t, err, appErr.ErrInvalid, key)
	}
}

func TestNewStoreConfigErrors(t *testing.T) {
	_, err := New(config.FileStoreConfig{})
	require.Error(t, err)
	_, err = New(config.FileStoreConfig{Type: "ftp", Data: map[string]interface{}{}})
	require.Error(t, err)
	_, err = New(config.FileStoreConfig{Type: "local"})
	require.Error(t, err)
	_, err = New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": ""}})
	require.Error(t, err)
	_, err = New(config.FileStoreConfig{Type: "s3", Data: map[string]interface{}{"bucket": "exports"}})
	require.Error(t, err)
}

func TestS3StoreKeys(t *testing.T) {
	store, err := New(config.FileStoreConfig{Type: "s3", Data: map[string]interface{}{
		"endpoint":   "minio.local:9000",
		"bucket":     "exports",
		"secret_id":  "id",
		"secret_key": "key",
		"prefix":     "/awb/",
	}})
	require.NoError(t, err)
	require.Equal(t, "s3", store.Type())
	s3s := store.(*s3Store)
	require.Equal(t, "awb/a.json", s3s.objectKey("a.json"))
	require.Equal(t, "http://minio.local:9000", buildEndpoint("minio.local:9000", false))
	require.Equal(t, "https://minio.local", buildEndpoint("https://minio.local/", true))
}
