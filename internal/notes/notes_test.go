package notes

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/carlofelipe-hub/coolifytest/internal/errs"
	"github.com/carlofelipe-hub/coolifytest/internal/testdb"
)

// createInMemoryService creates a Service with a fresh in-memory database.
// The returned func closes the store; rapid.T has no Cleanup so callers defer it.
func createInMemoryService(t interface {
	Fatalf(format string, args ...interface{})
}) (*Service, func()) {
	store, err := testdb.NewInMemory()
	if err != nil {
		t.Fatalf("failed to create in-memory database: %v", err)
	}
	return NewService(store), func() { store.Close() }
}

func setupNotesService(t *testing.T) *Service {
	t.Helper()
	svc, closeFn := createInMemoryService(t)
	t.Cleanup(closeFn)
	return svc
}

// =============================================================================
// Generators for property-based testing
// =============================================================================

// contentGenerator produces arbitrary note content, including the empty string,
// quotes, and multi-byte text.
func contentGenerator() *rapid.Generator[string] {
	return rapid.OneOf(
		rapid.String(),
		rapid.StringMatching(`[A-Za-z0-9 '"%_\\\n]{0,200}`),
		rapid.Just(""),
		rapid.Just("Robert'); DROP TABLE notes;--"),
	)
}

// =============================================================================
// Property: Create then List returns the note with the same content
// =============================================================================

func testNoteRoundTrip_Properties(t *rapid.T) {
	svc, closeFn := createInMemoryService(t)
	defer closeFn()
	ctx := context.Background()

	contents := rapid.SliceOfN(contentGenerator(), 1, 10).Draw(t, "contents")
	created := make([]Note, 0, len(contents))
	for _, c := range contents {
		n, err := svc.Create(ctx, c)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if n.Content != c {
			t.Fatalf("Create returned content %q, want %q", n.Content, c)
		}
		created = append(created, *n)
	}

	listed, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != len(created) {
		t.Fatalf("List returned %d notes, want %d", len(listed), len(created))
	}
	for i := range created {
		if listed[i] != created[i] {
			t.Fatalf("List[%d] = %+v, want %+v", i, listed[i], created[i])
		}
		if i > 0 && listed[i].ID <= listed[i-1].ID {
			t.Fatalf("ids not increasing: %d after %d", listed[i].ID, listed[i-1].ID)
		}
	}
}

func TestNoteRoundTrip_Properties(t *testing.T) {
	rapid.Check(t, testNoteRoundTrip_Properties)
}

func FuzzNoteRoundTrip_Properties(f *testing.F) {
	f.Add([]byte{0x00})
	f.Fuzz(rapid.MakeFuzz(testNoteRoundTrip_Properties))
}

// =============================================================================
// Property: Update preserves identity and replaces content
// =============================================================================

func testUpdatePreservesIdentity_Properties(t *rapid.T) {
	svc, closeFn := createInMemoryService(t)
	defer closeFn()
	ctx := context.Background()

	orig, err := svc.Create(ctx, contentGenerator().Draw(t, "original"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	other, err := svc.Create(ctx, contentGenerator().Draw(t, "other"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	replacement := contentGenerator().Draw(t, "replacement")
	updated, err := svc.Update(ctx, orig.ID, replacement)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.ID != orig.ID || updated.Content != replacement {
		t.Fatalf("Update returned %+v, want id %d content %q", updated, orig.ID, replacement)
	}

	listed, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []Note{{ID: orig.ID, Content: replacement}, *other}
	if len(listed) != 2 || listed[0] != want[0] || listed[1] != want[1] {
		t.Fatalf("List after update = %+v, want %+v", listed, want)
	}
}

func TestUpdatePreservesIdentity_Properties(t *testing.T) {
	rapid.Check(t, testUpdatePreservesIdentity_Properties)
}

// =============================================================================
// Property: Delete is idempotent and only removes the target
// =============================================================================

func testDeleteIdempotent_Properties(t *rapid.T) {
	svc, closeFn := createInMemoryService(t)
	defer closeFn()
	ctx := context.Background()

	n := rapid.IntRange(1, 8).Draw(t, "n")
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		note, err := svc.Create(ctx, "note")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		ids = append(ids, note.ID)
	}

	target := rapid.SampledFrom(ids).Draw(t, "target")
	times := rapid.IntRange(1, 3).Draw(t, "times")
	for i := 0; i < times; i++ {
		if err := svc.Delete(ctx, target); err != nil {
			t.Fatalf("Delete #%d failed: %v", i+1, err)
		}
	}

	listed, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != n-1 {
		t.Fatalf("List has %d notes after deleting one of %d", len(listed), n)
	}
	for _, note := range listed {
		if note.ID == target {
			t.Fatalf("deleted note %d still listed", target)
		}
	}
}

func TestDeleteIdempotent_Properties(t *testing.T) {
	rapid.Check(t, testDeleteIdempotent_Properties)
}

// =============================================================================
// Scenarios
// =============================================================================

func TestList_EmptyIsNonNil(t *testing.T) {
	svc := setupNotesService(t)
	listed, err := svc.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, listed)
	require.Empty(t, listed)
}

func TestUpdate_MissingNote(t *testing.T) {
	svc := setupNotesService(t)
	_, err := svc.Update(context.Background(), 999, "x")
	require.True(t, errors.Is(err, ErrNotFound))
	require.Equal(t, errs.NotFound, errs.CodeOf(err))
}

func TestUpdate_SameContentIsNotMissing(t *testing.T) {
	svc := setupNotesService(t)
	ctx := context.Background()
	n, err := svc.Create(ctx, "same")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, n.ID, "same")
	require.NoError(t, err)
	require.Equal(t, *n, *updated)
}

func TestDelete_MissingNote(t *testing.T) {
	svc := setupNotesService(t)
	require.NoError(t, svc.Delete(context.Background(), 12345))
}

func TestIDsNeverReused(t *testing.T) {
	svc := setupNotesService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, first.ID))

	second, err := svc.Create(ctx, "b")
	require.NoError(t, err)
	require.Greater(t, second.ID, first.ID)
}

func TestConcurrentCreates_DistinctIDs(t *testing.T) {
	svc := setupNotesService(t)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	ids := make(chan int64, n)
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			note, err := svc.Create(ctx, "concurrent")
			if err != nil {
				errCh <- err
				return
			}
			ids <- note.ID
		}()
	}
	wg.Wait()
	close(ids)
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}
	seen := make(map[int64]bool, n)
	for id := range ids {
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	require.Len(t, seen, n)

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, n)
}

func TestSetup_Idempotent(t *testing.T) {
	svc := setupNotesService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "survives")
	require.NoError(t, err)

	require.NoError(t, svc.Setup(ctx))
	require.NoError(t, svc.Setup(ctx))

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestStoreFailure_IsInternalWithDriverMessage(t *testing.T) {
	store, err := testdb.NewInMemory()
	require.NoError(t, err)
	svc := NewService(store)
	require.NoError(t, store.Close())

	ctx := context.Background()
	_, listErr := svc.List(ctx)
	_, createErr := svc.Create(ctx, "x")
	_, updateErr := svc.Update(ctx, 1, "x")
	deleteErr := svc.Delete(ctx, 1)
	setupErr := svc.Setup(ctx)

	for _, err := range []error{listErr, createErr, updateErr, deleteErr, setupErr} {
		require.Error(t, err)
		require.Equal(t, errs.Internal, errs.CodeOf(err))
		require.Contains(t, errs.MessageOf(err), "database is closed")
	}
}

// =============================================================================
// Input decoding
// =============================================================================

func TestDecodeInput(t *testing.T) {
	cases := []struct {
		body    string
		want    string
		wantErr error
	}{
		{`{"content":"Buy milk"}`, "Buy milk", nil},
		{`{"content":""}`, "", nil},
		{`{"content":"x","extra":1}`, "x", nil},
		{`{}`, "", ErrContentRequired},
		{`{"content":null}`, "", ErrContentRequired},
		{`{"content":42}`, "", ErrContentRequired},
		{`{"content":["a"]}`, "", ErrContentRequired},
	}
	for _, tc := range cases {
		got, err := DecodeInput([]byte(tc.body))
		if tc.wantErr != nil {
			require.ErrorIs(t, err, tc.wantErr, tc.body)
			continue
		}
		require.NoError(t, err, tc.body)
		require.Equal(t, tc.want, got, tc.body)
	}
}

func TestDecodeInput_MalformedJSON(t *testing.T) {
	for _, body := range []string{``, `{`, `not json`, `[]`} {
		_, err := DecodeInput([]byte(body))
		require.Error(t, err, body)
		require.Equal(t, errs.InvalidArgument, errs.CodeOf(err), body)
	}
}

func testParseID_Properties(t *rapid.T) {
	id := rapid.Int64().Draw(t, "id")
	got, err := ParseID(strconv.FormatInt(id, 10))
	if err != nil || got != id {
		t.Fatalf("ParseID(%d) = %d, %v", id, got, err)
	}
}

func TestParseID_Properties(t *testing.T) {
	rapid.Check(t, testParseID_Properties)
}

func TestParseID_Rejects(t *testing.T) {
	for _, raw := range []string{"", "abc", "1.5", "1e3", "99999999999999999999"} {
		_, err := ParseID(raw)
		require.ErrorIs(t, err, ErrInvalidID, raw)
	}
}
