package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/storage"
)

func TestLocalStorage_PutGet(t *testing.T) {
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "cdr/biz-1/inv-1.zip", []byte("PK-data"), "application/zip"))
	got, err := s.Get(ctx, "cdr/biz-1/inv-1.zip")
	require.NoError(t, err)
	assert.Equal(t, []byte("PK-data"), got)

	_, err = s.Get(ctx, "cdr/biz-1/otra.zip")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocalStorage_ClaveNoSaleDelDirectorio(t *testing.T) {
	dir := t.TempDir()
	s, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "../../escape.zip", []byte("x"), "application/zip"))
	got, err := s.Get(ctx, "escape.zip")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
}
