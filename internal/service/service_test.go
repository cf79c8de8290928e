package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vbonduro/clandphoto/internal/db"
	"github.com/vbonduro/clandphoto/internal/logging"
	"github.com/vbonduro/clandphoto/internal/seed"
	"github.com/vbonduro/clandphoto/internal/store"
)

var testNow = time.Date(2026, 6, 10, 15, 0, 0, 0, time.Local)

func newTestRecords(t *testing.T) *RecordService {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	svc := NewRecordService(store.NewUserStore(d), store.NewPhotoStore(d), logging.Discard())
	svc.now = func() time.Time { return testNow }
	return svc
}

func newSeededRecords(t *testing.T) *RecordService {
	t.Helper()
	svc := newTestRecords(t)
	fixtures, err := seed.Load("")
	require.NoError(t, err)
	require.NoError(t, svc.Seed(context.Background(), fixtures))
	return svc
}
