package lock_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/infrastructure/lock"
)

func TestLocalLocker_ClaveOcupada(t *testing.T) {
	l := lock.NewLocalLocker()
	ctx := context.Background()

	release, err := l.TryLock(ctx, "emission:inv-1")
	require.NoError(t, err)

	_, err = l.TryLock(ctx, "emission:inv-1")
	assert.ErrorIs(t, err, domain.ErrEmissionInProgress)

	other, err := l.TryLock(ctx, "emission:inv-2")
	require.NoError(t, err)
	other()

	release()
	release() // idempotente

	again, err := l.TryLock(ctx, "emission:inv-1")
	require.NoError(t, err)
	again()
}
