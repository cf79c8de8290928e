package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/clandphoto/internal/domain"
	"github.com/vbonduro/clandphoto/internal/logging"
)

const testPassword = "open-sesame"

func TestAdminUnlock(t *testing.T) {
	admin := NewAdminService(newTestRecords(t), testPassword, logging.Discard())

	assert.NoError(t, admin.Unlock(testPassword))
	assert.ErrorIs(t, admin.Unlock("wrong"), ErrWrongPassword)
	assert.ErrorIs(t, admin.Unlock(""), ErrWrongPassword)
}

func TestAdminEmptyPasswordNeverUnlocks(t *testing.T) {
	admin := NewAdminService(newTestRecords(t), "", logging.Discard())
	assert.ErrorIs(t, admin.Unlock(""), ErrWrongPassword)
}

func TestAdminCreateAdmin(t *testing.T) {
	records := newTestRecords(t)
	admin := NewAdminService(records, testPassword, logging.Discard())
	ctx := context.Background()

	_, err := admin.CreateAdmin(ctx, "wrong", "Root", "root@fotoflow.ai")
	assert.ErrorIs(t, err, ErrWrongPassword)

	u, err := admin.CreateAdmin(ctx, testPassword, "Root", "root@fotoflow.ai")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
	assert.Equal(t, domain.StatusActive, u.Status)

	users, err := records.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestAdminClearData(t *testing.T) {
	records := newSeededRecords(t)
	admin := NewAdminService(records, testPassword, logging.Discard())
	ctx := context.Background()

	assert.ErrorIs(t, admin.ClearData(ctx, "wrong"), ErrWrongPassword)
	photos, err := records.ListPhotos(ctx)
	require.NoError(t, err)
	assert.Len(t, photos, 3)

	require.NoError(t, admin.ClearData(ctx, testPassword))
	photos, err = records.ListPhotos(ctx)
	require.NoError(t, err)
	assert.Empty(t, photos)
}
