package dbstore

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yiblet/haste/internal/store"
)

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	st, err := NewSQLiteStore(dbPath, nil)
	require.NoError(t, err)

	cleanup := func() {
		assert.NoError(t, st.Close())
	}

	return st, cleanup
}

func textItem(content string, createdAt int64) *store.NewItem {
	return &store.NewItem{Kind: store.KindText, ContentRef: content, CreatedAt: createdAt}
}

func mustInsert(t *testing.T, repo store.ItemRepository, item *store.NewItem) int64 {
	t.Helper()
	id, err := repo.Insert(item)
	require.NoError(t, err)
	return id
}

func ftsRows(t *testing.T, st *SQLiteStore, id int64) int {
	t.Helper()
	var n int
	require.NoError(t, st.db.Raw("SELECT COUNT(*) FROM items_fts WHERE rowid = ?", id).Scan(&n).Error)
	return n
}

func TestNewSQLiteStore(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()

	version, err := st.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, version)
	assert.Equal(t, []int{1, 2}, st.Applied)

	var journal string
	require.NoError(t, st.db.Raw("PRAGMA journal_mode").Scan(&journal).Error)
	assert.Equal(t, "wal", journal)
}

func TestItems_InsertGetRoundTrip(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()
	repo := st.Items()

	tests := []struct {
		name string
		item store.NewItem
	}{
		{
			name: "text with source and tags",
			item: store.NewItem{
				Kind:       store.KindText,
				ContentRef: "test content",
				SourceApp:  store.StringPtr("terminal"),
				CreatedAt:  1000,
				Tags:       []string{"work", "important"},
			},
		},
		{
			name: "rtf without source",
			item: store.NewItem{Kind: store.KindRTF, ContentRef: `{\rtf1 Rich text}`, CreatedAt: 2000},
		},
		{
			name: "image reference",
			item: store.NewItem{Kind: store.KindImage, ContentRef: "/path/to/image.png", CreatedAt: 3000, Tags: []string{"photo"}},
		},
		{
			name: "file reference",
			item: store.NewItem{Kind: store.KindFile, ContentRef: "/path/to/file.pdf", SourceApp: store.StringPtr("Finder"), CreatedAt: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := mustInsert(t, repo, &tt.item)
			assert.Greater(t, id, int64(0))

			got, err := repo.Get(id)
			require.NoError(t, err)

			assert.Equal(t, id, got.ID)
			assert.Equal(t, tt.item.Kind, got.Kind)
			assert.Equal(t, tt.item.ContentRef, got.ContentRef)
			assert.Equal(t, tt.item.SourceApp, got.SourceApp)
			assert.Equal(t, tt.item.CreatedAt, got.CreatedAt)
			assert.ElementsMatch(t, tt.item.Tags, got.Tags)
			assert.False(t, got.Pinned)

			wantFTS := 0
			if tt.item.Kind.Indexed() {
				wantFTS = 1
			}
			assert.Equal(t, wantFTS, ftsRows(t, st, id))
		})
	}
}

func TestItems_InsertAssignsIncreasingIDs(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()
	repo := st.Items()

	first := mustInsert(t, repo, textItem("one", 1))
	second := mustInsert(t, repo, textItem("two", 2))
	require.NoError(t, repo.Delete(second))
	third := mustInsert(t, repo, textItem("three", 3))

	assert.Less(t, first, second)
	assert.Less(t, second, third, "ids of deleted items are not reused")
}

func TestItems_InsertValidation(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()
	repo := st.Items()

	tests := []struct {
		name string
		item store.NewItem
	}{
		{"unknown kind", store.NewItem{Kind: "video", ContentRef: "x"}},
		{"empty content", store.NewItem{Kind: store.KindText}},
		{"invalid utf8 content", store.NewItem{Kind: store.KindText, ContentRef: "\xff\xfe"}},
		{"invalid utf8 source", store.NewItem{Kind: store.KindText, ContentRef: "x", SourceApp: store.StringPtr("\xc3")}},
		{"negative timestamp", store.NewItem{Kind: store.KindText, ContentRef: "x", CreatedAt: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Insert(&tt.item)
			assert.ErrorIs(t, err, store.ErrInvalid)
		})
	}

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestItems_GetNotFound(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := st.Items().Get(999)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.EqualError(t, err, "get item 999: item not found")
}

func TestItems_Delete(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()
	repo := st.Items()

	id := mustInsert(t, repo, textItem("delete me", 1000))
	require.Equal(t, 1, ftsRows(t, st, id))

	require.NoError(t, repo.Delete(id))

	_, err := repo.Get(id)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Zero(t, ftsRows(t, st, id))

	results, err := repo.Search("delete", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = repo.Search("de", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	err = repo.Delete(id)
	assert.ErrorIs(t, err, store.ErrNotFound, "second delete is not a silent no-op")
}

func TestItems_DeleteImageHasNoIndexEntry(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()
	repo := st.Items()

	id := mustInsert(t, repo, &store.NewItem{Kind: store.KindImage, ContentRef: "/tmp/shot.png", CreatedAt: 1})
	require.NoError(t, repo.Delete(id))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestItems_SetPinned(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()
	repo := st.Items()

	id := mustInsert(t, repo, textItem("test", 1000))

	require.NoError(t, repo.SetPinned(id, true))
	item, err := repo.Get(id)
	require.NoError(t, err)
	assert.True(t, item.Pinned)

	// pinning twice is not an error
	require.NoError(t, repo.SetPinned(id, true))

	require.NoError(t, repo.SetPinned(id, false))
	item, err = repo.Get(id)
	require.NoError(t, err)
	assert.False(t, item.Pinned)

	assert.ErrorIs(t, repo.SetPinned(id+100, true), store.ErrNotFound)
}

func TestItems_SetTags(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()
	repo := st.Items()

	id := mustInsert(t, repo, &store.NewItem{
		Kind: store.KindText, ContentRef: "tagged content", CreatedAt: 1, Tags: []string{"old"},
	})

	require.NoError(t, repo.SetTags(id, []string{"work", "", "work", "later"}))
	item, err := repo.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"work", "later"}, item.Tags)

	require.NoError(t, repo.SetTags(id, nil))
	item, err = repo.Get(id)
	require.NoError(t, err)
	assert.Empty(t, item.Tags)

	assert.ErrorIs(t, repo.SetTags(404, []string{"x"}), store.ErrNotFound)
}

func TestItems_UpdateTimestamp(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()
	repo := st.Items()

	id := mustInsert(t, repo, textItem("bump me", 1000))
	require.NoError(t, repo.UpdateTimestamp(id, 5000))

	item, err := repo.Get(id)
	require.NoError(t, err)
	assert.EqualValues(t, 5000, item.CreatedAt)

	assert.ErrorIs(t, repo.UpdateTimestamp(id+1, 1), store.ErrNotFound)
}

func TestItems_FindDuplicate(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()
	repo := st.Items()

	textID := mustInsert(t, repo, textItem("  hello \n  world ", 1000))
	imageID := mustInsert(t, repo, &store.NewItem{Kind: store.KindImage, ContentRef: "/a.png", CreatedAt: 1000})

	id, found, err := repo.FindDuplicate(store.KindText, "hello world")
	require.NoError(t, err)
	assert.True(t, found, "stored text is normalized before comparison")
	assert.Equal(t, textID, id)

	_, found, err = repo.FindDuplicate(store.KindRTF, "hello world")
	require.NoError(t, err)
	assert.False(t, found)

	id, found, err = repo.FindDuplicate(store.KindImage, "/a.png")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, imageID, id)

	_, found, err = repo.FindDuplicate(store.KindImage, "/a.PNG")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestItems_FindDuplicateMostRecentWins(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()
	repo := st.Items()

	mustInsert(t, repo, textItem("same", 1000))
	newer := mustInsert(t, repo, textItem("same", 3000))
	mustInsert(t, repo, textItem(" same ", 2000))

	id, found, err := repo.FindDuplicate(store.KindText, "same")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, newer, id)
}

func TestItems_ListAndCount(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()
	repo := st.Items()

	a := mustInsert(t, repo, textItem("a", 1000))
	b := mustInsert(t, repo, textItem("b", 3000))
	c := mustInsert(t, repo, textItem("c", 2000))
	require.NoError(t, repo.SetPinned(a, true))

	items, err := repo.List(0)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []int64{a, b, c}, []int64{items[0].ID, items[1].ID, items[2].ID})

	items, err = repo.List(2)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = repo.List(-1)
	assert.ErrorIs(t, err, store.ErrInvalid)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	unpinned, err := repo.CountUnpinned()
	require.NoError(t, err)
	assert.Equal(t, 2, unpinned)
}

func TestItems_DeleteOldestSkipsPinned(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()
	repo := st.Items()

	oldest := mustInsert(t, repo, textItem("oldest pinned", 1))
	old := mustInsert(t, repo, textItem("old", 2))
	middle := mustInsert(t, repo, &store.NewItem{Kind: store.KindFile, ContentRef: "/f", CreatedAt: 3})
	newest := mustInsert(t, repo, textItem("newest", 4))
	require.NoError(t, repo.SetPinned(oldest, true))

	deleted, err := repo.DeleteOldest(2)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	for _, id := range []int64{old, middle} {
		_, err := repo.Get(id)
		assert.ErrorIs(t, err, store.ErrNotFound)
	}
	assert.Zero(t, ftsRows(t, st, old))

	for _, id := range []int64{oldest, newest} {
		_, err := repo.Get(id)
		assert.NoError(t, err)
	}

	deleted, err = repo.DeleteOldest(10)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	deleted, err = repo.DeleteOldest(0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestAtomically_RollsBackOnError(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()

	boom := errors.New("boom")
	err := st.Atomically(func(repo store.ItemRepository) error {
		if _, err := repo.Insert(textItem("never committed", 1)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	count, err := st.Items().Count()
	require.NoError(t, err)
	assert.Zero(t, count)

	results, err := st.Items().Search("committed", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAtomically_NestedWrites(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()

	var id int64
	err := st.Atomically(func(repo store.ItemRepository) error {
		var err error
		id, err = repo.Insert(textItem("inside", 1))
		if err != nil {
			return err
		}
		return repo.SetPinned(id, true)
	})
	require.NoError(t, err)

	item, err := st.Items().Get(id)
	require.NoError(t, err)
	assert.True(t, item.Pinned)
}

func TestItems_ConcurrentInserts(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()
	repo := st.Items()

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := repo.Insert(textItem(fmt.Sprintf("worker %d item %d", w, i), int64(w*1000+i)))
				errs <- err
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, workers*perWorker, count)

	var indexed int
	require.NoError(t, st.db.Raw("SELECT COUNT(*) FROM items_fts").Scan(&indexed).Error)
	assert.Equal(t, workers*perWorker, indexed)
}

func TestItems_CorruptTagsSurfaceAsStorageFailure(t *testing.T) {
	st, cleanup := setupTestDB(t)
	defer cleanup()
	repo := st.Items()

	id := mustInsert(t, repo, textItem("x", 1))
	require.NoError(t, st.db.Exec("UPDATE items SET tags = '{not json' WHERE id = ?", id).Error)

	_, err := repo.Get(id)
	assert.ErrorIs(t, err, store.ErrStorage)
}
