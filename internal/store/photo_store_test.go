package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/clandphoto/internal/domain"
)

func newPhoto(id, userID string) domain.PhotoEntry {
	return domain.PhotoEntry{
		ID:           id,
		ImageURL:     "data:image/jpeg;base64,/9j/",
		Timestamp:    time.UnixMilli(1_700_000_000_000),
		UserID:       userID,
		Description:  "Light scratch on the rear bumper.",
		Tags:         []string{"sedan", "silver", "inspection"},
		VehicleModel: "Toyota Corolla",
		LicensePlate: "ABC-1234",
	}
}

func TestPhotoStoreAppendAndGet(t *testing.T) {
	photos := NewPhotoStore(openTestDB(t))
	ctx := context.Background()

	p := newPhoto("p1", "u1")
	p.Location = "Lot B"
	require.NoError(t, photos.Append(ctx, p))

	got, err := photos.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, p.ImageURL, got.ImageURL)
	assert.Equal(t, p.Timestamp.UnixMilli(), got.Timestamp.UnixMilli())
	assert.Equal(t, []string{"sedan", "silver", "inspection"}, got.Tags)
	assert.Equal(t, "Toyota Corolla", got.VehicleModel)
	assert.Equal(t, "ABC-1234", got.LicensePlate)
	assert.Equal(t, "Lot B", got.Location)
}

func TestPhotoStoreAppendNilTags(t *testing.T) {
	photos := NewPhotoStore(openTestDB(t))
	ctx := context.Background()

	p := newPhoto("p1", "u1")
	p.Tags = nil
	require.NoError(t, photos.Append(ctx, p))

	got, err := photos.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
}

func TestPhotoStoreAppendDuplicateID(t *testing.T) {
	photos := NewPhotoStore(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, photos.Append(ctx, newPhoto("p1", "u1")))
	assert.Error(t, photos.Append(ctx, newPhoto("p1", "u1")))
}

func TestPhotoStoreGetByID_NotFound(t *testing.T) {
	photos := NewPhotoStore(openTestDB(t))

	got, err := photos.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPhotoStoreListInAppendOrder(t *testing.T) {
	photos := NewPhotoStore(openTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"z", "a", "m"} {
		require.NoError(t, photos.Append(ctx, newPhoto(id, "u1")))
	}

	list, err := photos.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "z", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
	assert.Equal(t, "m", list[2].ID)
}

func TestPhotoStoreKeepsDanglingUserID(t *testing.T) {
	d := openTestDB(t)
	users := NewUserStore(d)
	photos := NewPhotoStore(d)
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, newUser("u1", "Carlos", domain.StatusActive)))
	require.NoError(t, photos.Append(ctx, newPhoto("p1", "u1")))
	require.NoError(t, users.Delete(ctx, "u1"))

	got, err := photos.GetByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
}

func TestPhotoStoreDelete(t *testing.T) {
	photos := NewPhotoStore(openTestDB(t))
	ctx := context.Background()
	require.NoError(t, photos.Append(ctx, newPhoto("p1", "u1")))

	require.NoError(t, photos.Delete(ctx, "p1"))

	got, err := photos.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, photos.Delete(ctx, "p1"), ErrPhotoNotFound)
}

func TestPhotoStoreDeleteAll(t *testing.T) {
	photos := NewPhotoStore(openTestDB(t))
	ctx := context.Background()
	require.NoError(t, photos.Append(ctx, newPhoto("p1", "u1")))
	require.NoError(t, photos.Append(ctx, newPhoto("p2", "u1")))

	require.NoError(t, photos.DeleteAll(ctx))

	list, err := photos.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
