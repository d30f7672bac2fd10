package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docx_templater/internal/domain"
)

func setupTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, dir
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	store, dir := setupTestStore(t)

	assert.Equal(t, filepath.Join(dir, "state.db"), store.Path())
	_, err := os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_NestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(filepath.Join(dir, "state.db"))
	assert.NoError(t, err)
}

func TestLoadState_Empty(t *testing.T) {
	store, _ := setupTestStore(t)

	state, err := store.LoadState(context.Background())

	require.NoError(t, err)
	assert.Empty(t, state.TemplatePath)
	assert.NotNil(t, state.Tags)
	assert.Empty(t, state.Tags)
}

func TestSaveState_RoundTrip(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveState(ctx, &domain.SessionState{
		TemplatePath: "/docs/form.docx",
		Tags:         map[string]string{"last_name": "Smith", "first_name": "John"},
	}))

	state, err := store.LoadState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/docs/form.docx", state.TemplatePath)
	assert.Equal(t, map[string]string{"last_name": "Smith", "first_name": "John"}, state.Tags)
}

func TestSaveState_ReplacesPreviousTags(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveState(ctx, &domain.SessionState{
		TemplatePath: "a.docx",
		Tags:         map[string]string{"a": "1", "b": "2"},
	}))
	require.NoError(t, store.SaveState(ctx, &domain.SessionState{
		Tags: map[string]string{"c": "3"},
	}))

	state, err := store.LoadState(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.TemplatePath)
	assert.Equal(t, map[string]string{"c": "3"}, state.Tags)
}

func TestSaveState_Nil(t *testing.T) {
	store, _ := setupTestStore(t)

	assert.Error(t, store.SaveState(context.Background(), nil))
}

func TestState_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SaveState(ctx, &domain.SessionState{
		TemplatePath: "form.docx",
		Tags:         map[string]string{"name": "Smith"},
	}))
	require.NoError(t, store.AppendLog(ctx, domain.LogEntry{Message: "Loading template..."}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	state, err := reopened.LoadState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "form.docx", state.TemplatePath)
	assert.Equal(t, "Smith", state.Tags["name"])

	entries, err := reopened.RecentLog(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Loading template...", entries[0].Message)
}

func TestAppendLog_FillsDefaults(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	require.NoError(t, store.AppendLog(ctx, domain.LogEntry{Message: "Clearing state..."}))

	entries, err := store.RecentLog(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.True(t, entries[0].CreatedAt.After(before))
}

func TestAppendLog_KeepsGivenValues(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	require.NoError(t, store.AppendLog(ctx, domain.LogEntry{ID: "fixed", Message: "m", CreatedAt: at}))

	entries, err := store.RecentLog(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fixed", entries[0].ID)
	assert.True(t, at.Equal(entries[0].CreatedAt))
}

func TestRecentLog_OrderAndLimit(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	for _, msg := range []string{"one", "two", "three", "four"} {
		require.NoError(t, store.AppendLog(ctx, domain.LogEntry{Message: msg}))
	}

	all, err := store.RecentLog(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three", "four"}, messages(all))

	last, err := store.RecentLog(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"three", "four"}, messages(last))
}

func messages(entries []domain.LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}
