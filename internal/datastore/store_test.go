package datastore

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penshort/usermcp/internal/metrics"
)

func newLoadedStore(t *testing.T, rows int) (*Store, string) {
	t.Helper()
	path := newSourcePath(t)
	writeSource(t, path, usersCSV(rows), 0)
	return New(path), path
}

func ids(t *testing.T, page *Page) []int64 {
	t.Helper()
	out := make([]int64, 0, len(page.Users))
	for _, u := range page.Users {
		out = append(out, u.ID)
	}
	return out
}

func TestStore_Paginate_Scenario(t *testing.T) {
	t.Parallel()
	store, _ := newLoadedStore(t, 25)
	ctx := context.Background()

	page, err := store.Paginate(ctx, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, []int64{21, 22, 23, 24, 25}, ids(t, page))

	page, err = store.Paginate(ctx, 4, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, page.Total)
	assert.Empty(t, page.Users)
	assert.NotNil(t, page.Users)
}

func TestStore_Paginate_Property(t *testing.T) {
	t.Parallel()
	store, _ := newLoadedStore(t, 37)
	ctx := context.Background()

	for size := 1; size <= 40; size += 3 {
		for p := 1; p <= 40; p++ {
			page, err := store.Paginate(ctx, p, size)
			require.NoError(t, err)
			require.Equal(t, 37, page.Total, "total must not depend on page")

			want := min(size, max(0, page.Total-(p-1)*size))
			require.Len(t, page.Users, want, "page=%d size=%d", p, size)
			if want > 0 {
				assert.Equal(t, int64((p-1)*size+1), page.Users[0].ID)
			}
		}
	}
}

func TestStore_Paginate_HugePageDoesNotOverflow(t *testing.T) {
	t.Parallel()
	store, _ := newLoadedStore(t, 5)

	page, err := store.Paginate(context.Background(), int(^uint(0)>>1), 100)
	require.NoError(t, err)
	assert.Empty(t, page.Users)
	assert.Equal(t, 5, page.Total)
}

func TestStore_Paginate_InvalidArguments(t *testing.T) {
	t.Parallel()
	store, _ := newLoadedStore(t, 5)

	_, err := store.Paginate(context.Background(), 0, 10)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = store.Paginate(context.Background(), 1, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStore_GetByID(t *testing.T) {
	t.Parallel()
	store, _ := newLoadedStore(t, 10)
	ctx := context.Background()

	user, found, err := store.GetByID(ctx, 7)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "First7", user.FirstName)

	for _, id := range []int64{0, -1, 11, 1 << 40} {
		user, found, err = store.GetByID(ctx, id)
		require.NoError(t, err, "id %d", id)
		assert.False(t, found)
		assert.Nil(t, user)
	}
}

func TestStore_GetByID_DuplicateReturnsFirst(t *testing.T) {
	t.Parallel()
	path := newSourcePath(t)
	writeSource(t, path, csvHeader+
		"1,First,One,a@example.com,F,1.1.1.1\n"+
		"1,Second,One,b@example.com,F,1.1.1.2\n", 0)

	user, found, err := New(path).GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "First", user.FirstName)
}

func TestStore_Search(t *testing.T) {
	t.Parallel()
	path := newSourcePath(t)
	writeSource(t, path, csvHeader+
		"1,Alice,Smith,alice@example.com,F,1.1.1.1\n"+
		"2,Bob,ALISON,bob@example.com,M,1.1.1.2\n"+
		"3,Carol,Jones,carol@alipay.example,F,1.1.1.3\n"+
		"4,Dave,Brown,dave@example.com,M,1.1.1.4\n", 0)
	store := New(path)
	ctx := context.Background()

	users, err := store.Search(ctx, "ALI", 10)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, int64(1), users[0].ID)
	assert.Equal(t, int64(2), users[1].ID)
	assert.Equal(t, int64(3), users[2].ID)

	users, err = store.Search(ctx, "ali", 2)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(2), users[1].ID)

	users, err = store.Search(ctx, "nomatch", 5)
	require.NoError(t, err)
	assert.Empty(t, users)

	// Gender and IP are not searched.
	users, err = store.Search(ctx, "1.1.1", 5)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestStore_Search_InjectionIsLiteral(t *testing.T) {
	t.Parallel()
	store, _ := newLoadedStore(t, 25)
	ctx := context.Background()

	for _, q := range []string{"' OR '1'='1", "%", "_", ".*", "%' --"} {
		users, err := store.Search(ctx, q, 20)
		require.NoError(t, err)
		assert.Empty(t, users, "query %q must match literally", q)
	}
}

func TestStore_Search_InvalidLimit(t *testing.T) {
	t.Parallel()
	store, _ := newLoadedStore(t, 2)

	_, err := store.Search(context.Background(), "first", 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStore_MissingFile(t *testing.T) {
	t.Parallel()
	store := New(newSourcePath(t))
	ctx := context.Background()

	_, err := store.Paginate(ctx, 1, 10)
	require.ErrorIs(t, err, ErrDataUnavailable)

	_, _, err = store.GetByID(ctx, 1)
	require.ErrorIs(t, err, ErrDataUnavailable)

	require.ErrorIs(t, store.Ping(ctx), ErrDataUnavailable)
}

func TestStore_EnsureFresh_Idempotent(t *testing.T) {
	t.Parallel()
	rec := metrics.NewInMemory()
	path := newSourcePath(t)
	writeSource(t, path, usersCSV(3), 0)
	store := New(path, WithRecorder(rec))
	ctx := context.Background()

	require.NoError(t, store.EnsureFresh(ctx))
	first := store.Stats()
	require.NoError(t, store.EnsureFresh(ctx))
	second := store.Stats()

	assert.Equal(t, uint64(1), second.Reloads)
	assert.Equal(t, first.SnapshotID, second.SnapshotID)
	assert.Equal(t, 3, second.Rows)
	assert.Equal(t, uint64(1), rec.Snapshot().DataReloads[metrics.StatusSuccess])
}

func TestStore_ReloadsOnModTimeChange(t *testing.T) {
	t.Parallel()
	store, path := newLoadedStore(t, 3)
	ctx := context.Background()

	page, err := store.Paginate(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	firstID := store.Stats().SnapshotID

	writeSource(t, path, usersCSV(8), time.Minute)

	page, err = store.Paginate(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 8, page.Total)

	st := store.Stats()
	assert.Equal(t, uint64(2), st.Reloads)
	assert.NotEqual(t, firstID, st.SnapshotID)
	assert.True(t, st.ModTime.Equal(baseModTime.Add(time.Minute)))
}

func TestStore_FailedReloadKeepsPreviousSnapshot(t *testing.T) {
	t.Parallel()
	rec := metrics.NewInMemory()
	path := newSourcePath(t)
	writeSource(t, path, usersCSV(4), 0)
	store := New(path, WithRecorder(rec))
	ctx := context.Background()

	require.NoError(t, store.EnsureFresh(ctx))

	// A broken write: the call that observes it fails.
	writeSource(t, path, "id,first_name\n1,x\n", time.Minute)
	_, err := store.Paginate(ctx, 1, 10)
	require.ErrorIs(t, err, ErrDataLoadFailure)
	require.ErrorIs(t, err, ErrMissingColumn)

	// Later calls keep serving the last good snapshot.
	page, err := store.Paginate(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	user, found, err := store.GetByID(ctx, 2)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "First2", user.FirstName)

	// A fixed file is picked up.
	writeSource(t, path, usersCSV(6), 2*time.Minute)
	page, err = store.Paginate(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 6, page.Total)

	snap := rec.Snapshot()
	assert.Equal(t, uint64(2), snap.DataReloads[metrics.StatusSuccess])
	assert.Equal(t, uint64(1), snap.DataReloads[metrics.StatusError])
}

func TestStore_FailedInitialLoadRetriesEveryCall(t *testing.T) {
	t.Parallel()
	path := newSourcePath(t)
	writeSource(t, path, "id\nnot-a-number\n", 0)
	store := New(path)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := store.Paginate(ctx, 1, 10)
		require.ErrorIs(t, err, ErrDataLoadFailure)
	}
	assert.Equal(t, uint64(0), store.Stats().Reloads)
}

func TestStore_CancelledContext(t *testing.T) {
	t.Parallel()
	store, _ := newLoadedStore(t, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Paginate(ctx, 1, 10)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(0), store.Stats().Reloads)
}

func TestStore_ConcurrentQueries(t *testing.T) {
	t.Parallel()
	store, path := newLoadedStore(t, 50)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := store.Paginate(ctx, j%6+1, 10); err != nil {
					errs <- err
					return
				}
				if _, err := store.Search(ctx, fmt.Sprintf("first%d", j), 5); err != nil {
					errs <- err
					return
				}
				if _, _, err := store.GetByID(ctx, int64(i*j)); err != nil {
					errs <- err
					return
				}
			}
		}(i)
	}

	// Swap the file underneath the readers.
	writeSource(t, path, usersCSV(60), time.Hour)

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent query failed: %v", err)
	}

	page, err := store.Paginate(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 60, page.Total)
}

func TestStore_DeletedFileIsUnavailable(t *testing.T) {
	t.Parallel()
	store, path := newLoadedStore(t, 3)
	ctx := context.Background()

	require.NoError(t, store.EnsureFresh(ctx))
	require.NoError(t, os.Remove(path))

	_, err := store.Paginate(ctx, 1, 10)
	require.ErrorIs(t, err, ErrDataUnavailable)
}
