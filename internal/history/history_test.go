package history

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jetgrab/internal/domain"
	"jetgrab/internal/storage"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeClock returns increasing timestamps one minute apart.
func fakeClock() func() time.Time {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newTabs(t *testing.T, store storage.Store, limit int) *Tabs {
	t.Helper()
	h := NewTabs(store, limit, quietLogger())
	h.now = fakeClock()
	require.NoError(t, h.Load(context.Background()))
	return h
}

func TestRemember_ReuseIncrementsCount(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	h := newTabs(t, store, 0)

	first, err := h.Remember(ctx, "shop.example.com/item/1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.UseCount)
	assert.Equal(t, "https://shop.example.com/item/1", first.URL)

	second, err := h.Remember(ctx, "https://shop.example.com/item/1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.UseCount)
	assert.True(t, second.LastUsedAt.After(first.LastUsedAt))
	assert.Len(t, h.List(), 1)

	// The persisted snapshot reflects the same state.
	reloaded := newTabs(t, store, 0)
	require.Len(t, reloaded.List(), 1)
	assert.Equal(t, 2, reloaded.List()[0].UseCount)
}

func TestRemember_RejectsInvalid(t *testing.T) {
	h := newTabs(t, storage.NewMemoryStore(), 0)
	_, err := h.Remember(context.Background(), "ftp://files.example.com")
	assert.Error(t, err)
	assert.Empty(t, h.List())
}

func TestPersist_CapAndPinnedFirst(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	h := newTabs(t, store, DefaultLimit)

	first, err := h.Remember(ctx, "https://pinned.example.com/oldest")
	require.NoError(t, err)
	_, err = h.SetPinned(ctx, first.ID, true)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		_, err := h.Remember(ctx, fmt.Sprintf("https://shop.example.com/item/%d", i))
		require.NoError(t, err)
	}

	reloaded := newTabs(t, store, DefaultLimit)
	tabs := reloaded.List()
	require.Len(t, tabs, DefaultLimit)
	assert.Equal(t, first.ID, tabs[0].ID, "pinned tab is first regardless of recency")
	assert.Equal(t, "https://shop.example.com/item/99", tabs[1].URL, "then most recent")
	for i := 2; i < len(tabs); i++ {
		assert.False(t, tabs[i].LastUsedAt.After(tabs[i-1].LastUsedAt))
	}
}

func TestLoad_CorruptRecordIsEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, storage.RecordHistoryTabs, []byte("{not json")))

	h := newTabs(t, store, 0)
	assert.Empty(t, h.List())

	_, err := h.Remember(ctx, "https://a.example.com")
	require.NoError(t, err)
	assert.Len(t, h.List(), 1)
}

func TestLabelNoteDeleteClear(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	h := newTabs(t, store, 0)

	a, _ := h.Remember(ctx, "https://a.example.com")
	b, _ := h.Remember(ctx, "https://b.example.com")

	got, err := h.SetLabel(ctx, a.ID, "Sunglasses")
	require.NoError(t, err)
	assert.Equal(t, "Sunglasses", got.Label)

	got, err = h.SetNote(ctx, a.ID, "has 3 clips")
	require.NoError(t, err)
	assert.Equal(t, "has 3 clips", got.Note)

	_, err = h.SetLabel(ctx, "missing", "x")
	assert.ErrorIs(t, err, ErrTabNotFound)

	resolved, ok := h.Resolve("a.example.com")
	require.True(t, ok)
	assert.Equal(t, a.ID, resolved.ID)

	require.NoError(t, h.Delete(ctx, b.ID))
	assert.ErrorIs(t, h.Delete(ctx, b.ID), ErrTabNotFound)
	assert.Len(t, h.List(), 1)

	require.NoError(t, h.Clear(ctx))
	assert.Empty(t, h.List())
	raw, err := store.Get(ctx, storage.RecordHistoryTabs)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestExportImport_ImportedWins(t *testing.T) {
	ctx := context.Background()
	src := newTabs(t, storage.NewMemoryStore(), 0)
	a, _ := src.Remember(ctx, "https://a.example.com")
	_, _ = src.SetLabel(ctx, a.ID, "from export")
	_, _ = src.Remember(ctx, "https://b.example.com")
	data, err := src.Export()
	require.NoError(t, err)

	dst := newTabs(t, storage.NewMemoryStore(), 0)
	existing, _ := dst.Remember(ctx, "https://a.example.com")
	_, _ = dst.SetLabel(ctx, existing.ID, "local")
	_, _ = dst.Remember(ctx, "https://c.example.com")

	n, err := dst.Import(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tabs := dst.List()
	require.Len(t, tabs, 3)
	got, ok := dst.Resolve("https://a.example.com")
	require.True(t, ok)
	assert.Equal(t, "from export", got.Label)

	_, err = dst.Import(ctx, []byte("nope"))
	assert.Error(t, err)
}

func TestImport_SkipsInvalidAndFillsDefaults(t *testing.T) {
	ctx := context.Background()
	h := newTabs(t, storage.NewMemoryStore(), 0)

	n, err := h.Import(ctx, []byte(`[{"url":"javascript:alert(1)"},{"url":"d.example.com","label":"bare"}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tabs := h.List()
	require.Len(t, tabs, 1)
	assert.Equal(t, "https://d.example.com", tabs[0].URL)
	assert.NotEmpty(t, tabs[0].ID)
	assert.False(t, tabs[0].CreatedAt.IsZero())
}

func TestImport_RegeneratesCollidingID(t *testing.T) {
	ctx := context.Background()
	h := newTabs(t, storage.NewMemoryStore(), 0)
	a, err := h.Remember(ctx, "https://a.example.com")
	require.NoError(t, err)

	data := fmt.Sprintf(`[{"id":%q,"url":"https://z.example.com"},{"id":%q,"url":"https://a.example.com","label":"same url"}]`, a.ID, a.ID)
	n, err := h.Import(ctx, []byte(data))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, ok := h.Get(a.ID)
	require.True(t, ok)
	assert.Equal(t, "https://a.example.com", got.URL)
	assert.Equal(t, "same url", got.Label)

	z, ok := h.Resolve("https://z.example.com")
	require.True(t, ok)
	assert.NotEqual(t, a.ID, z.ID)
	assert.NotEmpty(t, z.ID)
}

type removeFailStore struct {
	*storage.MemoryStore
}

func (removeFailStore) Remove(context.Context, string) error {
	return fmt.Errorf("disk full")
}

func TestClear_KeepsTabsWhenRemoveFails(t *testing.T) {
	ctx := context.Background()
	h := newTabs(t, removeFailStore{storage.NewMemoryStore()}, 0)
	_, err := h.Remember(ctx, "https://a.example.com")
	require.NoError(t, err)

	assert.Error(t, h.Clear(ctx))
	assert.Len(t, h.List(), 1)
}

func TestRecent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	log := quietLogger()

	for i := 0; i < 12; i++ {
		_, err := AddRecent(ctx, store, log, fmt.Sprintf("https://e.example.com/%d", i))
		require.NoError(t, err)
	}
	list, err := AddRecent(ctx, store, log, "https://e.example.com/3")
	require.NoError(t, err)

	require.Len(t, list, RecentLimit)
	assert.Equal(t, "https://e.example.com/3", list[0])
	assert.Equal(t, "https://e.example.com/11", list[1])

	require.NoError(t, store.Set(ctx, storage.RecordRecentURLs, []byte("[1,2")))
	list, err = LoadRecent(ctx, store, log)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	log := quietLogger()

	prefs, err := LoadPreferences(ctx, store, log)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPreferences(), prefs)

	prefs.SelectedOnly = true
	prefs.Domain = "alicdn"
	prefs.Types[domain.TypeImage] = false
	prefs.Theme = "dark"
	require.NoError(t, SavePreferences(ctx, store, prefs))

	back, err := LoadPreferences(ctx, store, log)
	require.NoError(t, err)
	assert.True(t, back.SelectedOnly)
	assert.Equal(t, "alicdn", back.Domain)
	assert.False(t, back.Types[domain.TypeImage])
	assert.True(t, back.Types[domain.TypeVideo])
	assert.Equal(t, "dark", back.Theme)

	theme, err := LoadTheme(ctx, store, log)
	require.NoError(t, err)
	assert.Equal(t, "dark", theme)
	assert.Error(t, SaveTheme(ctx, store, "neon"))

	require.NoError(t, store.Set(ctx, storage.RecordPreferences, []byte("garbage")))
	back, err = LoadPreferences(ctx, store, log)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPreferences(), back)
}

func TestPreferences_PartialTypeMapFilled(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, storage.RecordPreferences, []byte(`{"dedupe":false,"types":{"video":false}}`)))

	prefs, err := LoadPreferences(ctx, store, quietLogger())
	require.NoError(t, err)
	assert.False(t, prefs.Dedupe)
	assert.False(t, prefs.Types[domain.TypeVideo])
	assert.True(t, prefs.Types[domain.TypeFolder])
	assert.Equal(t, "light", prefs.Theme)
}
