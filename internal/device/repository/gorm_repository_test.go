package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	devicedomain "jobtrack-backend/internal/device/domain"
	"jobtrack-backend/pkg/database"
)

func newTestRepository(t *testing.T) DeviceRepository {
	t.Helper()
	db, err := database.Open("sqlite://"+filepath.Join(t.TempDir(), "devices.db"), nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, &devicedomain.Device{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewDeviceRepository(db)
}

func TestDeviceRepository(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveToken(ctx, "tok-1", "Chrome", "extension"))
	require.NoError(t, repo.SaveToken(ctx, "tok-2", "Firefox", "extension"))
	require.NoError(t, repo.SaveToken(ctx, "tok-1", "Chrome 120", "extension"))

	tokens, err := repo.ListTokens(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tok-1", "tok-2"}, tokens)

	deleted, err := repo.DeleteToken(ctx, "tok-2")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteToken(ctx, "tok-2")
	require.NoError(t, err)
	assert.False(t, deleted)

	require.NoError(t, repo.DeleteTokens(ctx, []string{"tok-1", "tok-unknown"}))
	require.NoError(t, repo.DeleteTokens(ctx, nil))

	tokens, err = repo.ListTokens(ctx)
	require.NoError(t, err)
	assert.Empty(t, tokens)
}
