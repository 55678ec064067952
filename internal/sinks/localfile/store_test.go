package localfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formvcm/postulaciones/internal/core"
)

func newSubmission(t *testing.T, id string, body string) *core.Submission {
	t.Helper()
	p, err := core.DecodePayload([]byte(body))
	require.NoError(t, err)
	at := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	return core.NewSubmission(p, []byte(body), id, at, &core.Origin{IP: "127.0.0.1"})
}

func TestStore_SaveAndList(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	store := New(dir)
	ctx := context.Background()

	sub := newSubmission(t, "POST-1790000000001",
		`{"inst_nombre":"Universidad X","inst_rut":"76.123.456-7","obj_desc_1":"Mejorar","selector_cantidad":"2"}`)

	ack, err := store.Save(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, core.SinkLocal, ack.Sink)
	assert.Equal(t, filepath.Join(dir, "POST-1790000000001.json"), ack.Location)
	assert.FileExists(t, ack.Location)

	got, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.JSONEq(t, string(sub.Raw), string(got[0].Raw))
	got[0].Raw, sub.Raw = nil, nil
	if diff := cmp.Diff(*sub, got[0]); diff != "" {
		t.Errorf("listed record mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_DoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	ctx := context.Background()

	first := newSubmission(t, "POST-1790000000002", `{"inst_nombre":"Primera","inst_rut":"1-9"}`)
	second := newSubmission(t, "POST-1790000000002", `{"inst_nombre":"Segunda","inst_rut":"1-9"}`)

	_, err := store.Save(ctx, first)
	require.NoError(t, err)

	_, err = store.Save(ctx, second)
	assert.ErrorIs(t, err, core.ErrRecordExists)

	got, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Primera", got[0].Institution.Name)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "POST-1790000000002.json", entries[0].Name())
}

func TestStore_RejectsBadID(t *testing.T) {
	store := New(t.TempDir())
	sub := newSubmission(t, "../escape", `{"inst_nombre":"X","inst_rut":"1-9"}`)

	_, err := store.Save(context.Background(), sub)
	assert.Error(t, err)
}

func TestStore_ListSkipsCorruptAndForeignFiles(t *testing.T) {
	dir := t.TempDir()
	var skipped []string
	store := New(dir, WithSkipHook(func(name string, _ error) { skipped = append(skipped, name) }))
	ctx := context.Background()

	for _, id := range []string{"POST-1790000000005", "POST-1790000000003"} {
		_, err := store.Save(ctx, newSubmission(t, id, `{"inst_nombre":"X","inst_rut":"1-9"}`))
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "POST-1790000000004.json"), []byte(`{"id":`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hola"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".POST-1.abc.tmp"), []byte("{}"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	got, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "POST-1790000000003", got[0].ID)
	assert.Equal(t, "POST-1790000000005", got[1].ID)
	assert.Equal(t, []string{"POST-1790000000004.json"}, skipped)

	again, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestStore_ListMissingDir(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "nope"))

	got, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStore_ConcurrentFirstWrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	store := New(dir)
	ids := core.NewIDAssigner()

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _ := ids.Assign()
			_, errs[i] = store.Save(context.Background(), newSubmission(t, id, `{"inst_nombre":"X","inst_rut":"1-9"}`))
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, n)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "temp file left behind: %s", e.Name())
	}
}

func TestStore_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Save(ctx, newSubmission(t, "POST-1790000000009", `{"inst_nombre":"X","inst_rut":"1-9"}`))
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
