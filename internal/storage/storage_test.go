package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/woodcraft-crm/leadflow-api/internal/config"
	"github.com/woodcraft-crm/leadflow-api/internal/storage"
)

func newLocal(t *testing.T) *storage.LocalStorage {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestLeadPrefix(t *testing.T) {
	vendor := uuid.MustParse("7f1b2c3d-0000-4000-8000-000000000001")
	assert.Equal(t, vendor.String()+"/42", storage.LeadPrefix(vendor, 42, "", ""))
	assert.Equal(t, vendor.String()+"/42/production/production-files",
		storage.LeadPrefix(vendor, 42, "production", "production-files"))
}

func TestLocalStorage_UploadDownloadDelete(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	path, size, err := s.Upload(ctx, "v/1/production", "Cut List.PDF", "application/pdf", strings.NewReader("panel sizes"))
	require.NoError(t, err)
	assert.Equal(t, int64(len("panel sizes")), size)
	assert.True(t, strings.HasPrefix(path, "v/1/production/"))
	assert.True(t, strings.HasSuffix(path, ".pdf"))

	rc, err := s.Download(ctx, path)
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "panel sizes", string(body))

	require.NoError(t, s.Delete(ctx, path))
	require.NoError(t, s.Delete(ctx, path), "deleting twice is not an error")
	_, err = s.Download(ctx, path)
	assert.Error(t, err)
}

func TestLocalStorage_ListAndHasAny(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	has, err := s.HasAny(ctx, "v/1/production")
	require.NoError(t, err)
	assert.False(t, has, "missing folder means no files")

	for _, name := range []string{"a.dwg", "b.dwg"} {
		_, _, err := s.Upload(ctx, "v/1/production", name, "application/octet-stream", strings.NewReader(name))
		require.NoError(t, err)
	}
	_, _, err = s.Upload(ctx, "v/2/production", "c.dwg", "application/octet-stream", strings.NewReader("c"))
	require.NoError(t, err)

	has, err = s.HasAny(ctx, "v/1/production")
	require.NoError(t, err)
	assert.True(t, has)

	objects, err := s.List(ctx, "v/1")
	require.NoError(t, err)
	assert.Len(t, objects, 2)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s := newLocal(t)

	_, _, err := s.Upload(ctx, "../outside", "x.txt", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, storage.ErrInvalidPath)

	_, err = s.HasAny(ctx, "v/../../etc")
	assert.ErrorIs(t, err, storage.ErrInvalidPath)
}

func TestNewStorage(t *testing.T) {
	s, err := storage.NewStorage(&config.StorageConfig{Mode: "local", LocalBasePath: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalStorage{}, s)

	_, err = storage.NewStorage(&config.StorageConfig{Mode: "azure"}, zap.NewNop())
	assert.Error(t, err)

	_, err = storage.NewStorage(&config.StorageConfig{Mode: "ftp"}, zap.NewNop())
	assert.Error(t, err)
}
