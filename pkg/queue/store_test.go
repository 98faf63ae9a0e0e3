package queue

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	return store
}

func TestEnqueueDedupes(t *testing.T) {
	store := newTestStore(t)

	added, err := store.Enqueue(0, []string{"garden hoses", "usb hubs"})
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	// Re-enqueueing the same keywords is a no-op for this site.
	added, err = store.Enqueue(0, []string{"garden hoses", "dog beds"})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	// The same keyword for a different site is a new article.
	added, err = store.Enqueue(1, []string{"garden hoses"})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
}

func TestNextPendingOrderAndDrain(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Enqueue(0, []string{"first", "second"})
	require.NoError(t, err)

	a, err := store.NextPending(0)
	require.NoError(t, err)
	assert.Equal(t, "first", a.Keyword)

	require.NoError(t, store.MarkPosted(a.ID, 11, "https://site/first"))

	a, err = store.NextPending(0)
	require.NoError(t, err)
	assert.Equal(t, "second", a.Keyword)

	require.NoError(t, store.MarkFailed(a.ID, errors.New("both providers failed")))

	_, err = store.NextPending(0)
	assert.ErrorIs(t, err, ErrNoPending)
}

func TestNextPendingEmptySite(t *testing.T) {
	store := newTestStore(t)
	_, err := store.NextPending(3)
	assert.ErrorIs(t, err, ErrNoPending)
}

func TestMarkPostedRecordsResult(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Enqueue(0, []string{"kw"})
	require.NoError(t, err)

	a, err := store.NextPending(0)
	require.NoError(t, err)
	require.NoError(t, store.MarkPosted(a.ID, 99, "https://site/kw"))

	pending, posted, failed, err := store.Counts(0)
	require.NoError(t, err)
	assert.Zero(t, pending)
	assert.Equal(t, int64(1), posted)
	assert.Zero(t, failed)
}

func TestMarkFailedKeepsError(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Enqueue(0, []string{"kw"})
	require.NoError(t, err)

	a, err := store.NextPending(0)
	require.NoError(t, err)
	require.NoError(t, store.MarkFailed(a.ID, errors.New("catalog empty")))

	// A failed article is not retried automatically.
	_, err = store.NextPending(0)
	assert.ErrorIs(t, err, ErrNoPending)

	_, _, failed, err := store.Counts(0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), failed)
}

func TestMarkUnknownArticle(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.MarkPosted(12345, 1, "u"))
}

func TestPausedFlag(t *testing.T) {
	store := newTestStore(t)

	paused, err := store.Paused()
	require.NoError(t, err)
	assert.False(t, paused)

	require.NoError(t, store.SetPaused(true))
	paused, err = store.Paused()
	require.NoError(t, err)
	assert.True(t, paused)

	require.NoError(t, store.SetPaused(false))
	paused, err = store.Paused()
	require.NoError(t, err)
	assert.False(t, paused)
}

func TestSiteRotationWraps(t *testing.T) {
	store := newTestStore(t)

	cur, err := store.CurrentSite()
	require.NoError(t, err)
	assert.Equal(t, 0, cur)

	next, err := store.AdvanceSite(3)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	_, err = store.AdvanceSite(3)
	require.NoError(t, err)
	next, err = store.AdvanceSite(3)
	require.NoError(t, err)
	assert.Equal(t, 0, next, "pointer wraps modulo site count")
}

func TestAdvanceSiteNoSites(t *testing.T) {
	store := newTestStore(t)
	_, err := store.AdvanceSite(0)
	assert.Error(t, err)
}

func TestControlPersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "queue.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SetPaused(true))
	_, err = store.AdvanceSite(2)
	require.NoError(t, err)

	reopened, err := Open(path)
	require.NoError(t, err)

	paused, err := reopened.Paused()
	require.NoError(t, err)
	assert.True(t, paused)

	cur, err := reopened.CurrentSite()
	require.NoError(t, err)
	assert.Equal(t, 1, cur)
}
