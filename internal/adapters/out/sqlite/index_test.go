package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/gatekeeper/internal/domain"
	"github.com/bnema/gatekeeper/internal/logging"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(filepath.Join(t.TempDir(), "data", "index.db"), logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func record(id string, state domain.OnboardingState, uploaded time.Time) domain.PackageRecord {
	return domain.PackageRecord{
		ServiceUUID: id,
		SHA1:        "da39a3ee5e6b4b0d3255bfef95601890afd80709",
		Digest:      "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Size:        10,
		State:       state,
		UploadedAt:  uploaded,
		UpdatedAt:   uploaded,
	}
}

func TestIndex_RecordAndList(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, idx.Record(ctx, record("b", domain.StateUploaded, base.Add(time.Second))))
	require.NoError(t, idx.Record(ctx, record("a", domain.StateUploaded, base)))

	got, err := idx.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ServiceUUID)
	assert.Equal(t, "b", got[1].ServiceUUID)
	assert.True(t, base.Equal(got[0].UploadedAt))
	assert.Equal(t, int64(10), got[0].Size)
}

func TestIndex_RecordUpdatesState(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, idx.Record(ctx, record("a", domain.StateUploaded, now)))

	rec := record("a", domain.StateManifestLoaded, now)
	rec.PackageName = "sonata-demo"
	require.NoError(t, idx.Record(ctx, rec))

	// a later record without a name keeps the one already known
	failed := record("a", domain.StateManifestLoaded, now)
	failed.Error = "invalid service descriptor"
	require.NoError(t, idx.Record(ctx, failed))

	got, err := idx.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.StateManifestLoaded, got[0].State)
	assert.Equal(t, "sonata-demo", got[0].PackageName)
	assert.Equal(t, "invalid service descriptor", got[0].Error)
}

func TestIndex_EmptyList(t *testing.T) {
	got, err := openTestIndex(t).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestIndex_RejectsRecordWithoutID(t *testing.T) {
	assert.Error(t, openTestIndex(t).Record(context.Background(), domain.PackageRecord{}))
}

func TestIndex_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := Open(path, logging.Nop())
	require.NoError(t, err)
	require.NoError(t, idx.Record(context.Background(), record("a", domain.StateOnboarded, time.Now())))
	require.NoError(t, idx.Close())

	idx, err = Open(path, logging.Nop())
	require.NoError(t, err)
	defer idx.Close()

	got, err := idx.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.StateOnboarded, got[0].State)
}

func TestIndex_HandlesPackageEvents(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	assert.True(t, idx.CanHandle(domain.EventPackageStateChanged))
	assert.True(t, idx.CanHandle(domain.EventPackageOnboardingFailed))
	assert.False(t, idx.CanHandle(domain.EventType("other")))

	ev := domain.Event{
		Type: domain.EventPackageStateChanged,
		Data: domain.PackageEventPayload{Record: record("a", domain.StateUnpacked, time.Now())},
	}
	require.NoError(t, idx.Handle(ctx, ev))

	got, err := idx.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.StateUnpacked, got[0].State)

	assert.Error(t, idx.Handle(ctx, domain.Event{Type: domain.EventPackageStateChanged, Data: "bogus"}))
}
