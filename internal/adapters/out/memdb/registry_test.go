package memdb

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/gatekeeper/internal/domain"
	"github.com/bnema/gatekeeper/internal/logging"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(logging.Nop())
	require.NoError(t, err)
	return r
}

func TestRegistry_RegisterThenList(t *testing.T) {
	r := newTestRegistry(t)

	svc := domain.NewService(domain.Package{UUID: "b-id"})
	require.NoError(t, r.Register(svc))
	require.NoError(t, r.Register(domain.NewService(domain.Package{UUID: "a-id"})))

	// registering an updated snapshot replaces, never duplicates
	svc.State = domain.StateUnpacked
	require.NoError(t, r.Register(svc))

	ids, err := r.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a-id", "b-id"}, ids)
	assert.Equal(t, 2, r.Len())

	got, err := r.Get("b-id")
	require.NoError(t, err)
	assert.Equal(t, domain.StateUnpacked, got.State)
}

func TestRegistry_EmptyList(t *testing.T) {
	ids, err := newTestRegistry(t).List()
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestRegistry_GetUnknown(t *testing.T) {
	_, err := newTestRegistry(t).Get("nope")
	assert.ErrorIs(t, err, domain.ErrServiceNotFound)
}

func TestRegistry_IDsArePrefixSafe(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(domain.NewService(domain.Package{UUID: "ab"})))

	_, err := r.Get("a")
	assert.ErrorIs(t, err, domain.ErrServiceNotFound)
}

func TestRegistry_SnapshotsAreIsolated(t *testing.T) {
	r := newTestRegistry(t)
	svc := domain.NewService(domain.Package{UUID: "id"})
	require.NoError(t, r.Register(svc))

	// mutating the caller's copy after Register must not leak in
	svc.LocalDockerFiles["img"] = "/x"
	got, err := r.Get("id")
	require.NoError(t, err)
	assert.Empty(t, got.LocalDockerFiles)

	// nor may mutating what Get returned
	got.LocalDockerFiles["other"] = "/y"
	again, err := r.Get("id")
	require.NoError(t, err)
	assert.Empty(t, again.LocalDockerFiles)
}

func TestRegistry_RejectsMissingID(t *testing.T) {
	r := newTestRegistry(t)
	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(domain.NewService(domain.Package{})))
}

func TestRegistry_ConcurrentRegistrations(t *testing.T) {
	r := newTestRegistry(t)

	const n = 50
	var wg sync.WaitGroup
	want := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("svc-%03d", i)
		want = append(want, id)
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Register(domain.NewService(domain.Package{UUID: id})))
		}()
	}
	wg.Wait()

	ids, err := r.List()
	require.NoError(t, err)
	sort.Strings(want)
	assert.Equal(t, want, ids)
}
