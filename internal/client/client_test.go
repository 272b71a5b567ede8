package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/carlofelipe-hub/coolifytest/internal/notes"
	"github.com/carlofelipe-hub/coolifytest/internal/server"
	"github.com/carlofelipe-hub/coolifytest/internal/testdb"
)

func newLiveServer(t *testing.T) *httptest.Server {
	t.Helper()
	handler, err := server.NewHandler(server.Deps{DB: testdb.MustInMemory(t)})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

// newFailingServer serves the real handlers over a closed store, so every
// data operation fails with a 500.
func newFailingServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := testdb.NewInMemory()
	require.NoError(t, err)
	handler, err := server.NewHandler(server.Deps{DB: store})
	require.NoError(t, err)
	require.NoError(t, store.Close())
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func cannedServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_CRUD(t *testing.T) {
	ctx := context.Background()
	c := New(newLiveServer(t).URL + "/")

	msg, err := c.Setup(ctx)
	require.NoError(t, err)
	require.Equal(t, notes.SetupMessage, msg)

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)

	note, err := c.Create(ctx, "hello")
	require.NoError(t, err)
	require.Equal(t, "hello", note.Content)

	updated, err := c.Update(ctx, note.ID, "new")
	require.NoError(t, err)
	require.Equal(t, notes.Note{ID: note.ID, Content: "new"}, updated)

	list, err = c.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []notes.Note{updated}, list)

	require.NoError(t, c.Delete(ctx, note.ID))
	require.NoError(t, c.Delete(ctx, 999999))

	list, err = c.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestClient_UpdateMissingIsAPIError(t *testing.T) {
	c := New(newLiveServer(t).URL)
	_, err := c.Update(context.Background(), 42, "x")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
	require.Equal(t, "note not found", apiErr.Message)
}

func TestClient_Render(t *testing.T) {
	c := New(newLiveServer(t).URL)
	html, err := c.Render(context.Background(), "**bold**")
	require.NoError(t, err)
	require.Contains(t, html, "<strong>bold</strong>")
}

func TestClient_StoreFailure(t *testing.T) {
	ctx := context.Background()
	c := New(newFailingServer(t).URL)

	_, err := c.List(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.Status)
	require.NotEmpty(t, apiErr.Message)

	_, err = c.Create(ctx, "x")
	require.ErrorAs(t, err, &apiErr)
	require.Error(t, c.Delete(ctx, 1))
}

func TestClient_NonArrayListIsInvalid(t *testing.T) {
	for _, body := range []string{`{"notes":[]}`, `null`, `"x"`, `not json`} {
		c := New(cannedServer(t, http.StatusOK, body).URL)
		_, err := c.List(context.Background())
		require.ErrorIs(t, err, ErrInvalidData, body)
	}
}

func TestClient_CreateWithoutIDIsInvalid(t *testing.T) {
	c := New(cannedServer(t, http.StatusOK, `{"content":"x"}`).URL)
	_, err := c.Create(context.Background(), "x")
	require.ErrorIs(t, err, ErrInvalidData)
}

func TestClient_ErrorWithoutBodyUsesStatusText(t *testing.T) {
	c := New(cannedServer(t, http.StatusBadGateway, ``).URL)
	_, err := c.List(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).List(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	require.False(t, errors.As(err, &apiErr))
}

func testClient_RoundTrip_Properties(t *rapid.T, c *Client) {
	ctx := context.Background()
	content := rapid.String().Draw(t, "content")

	note, err := c.Create(ctx, content)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if note.Content != content {
		t.Fatalf("create returned %q, want %q", note.Content, content)
	}
	if err := c.Delete(ctx, note.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestClient_RoundTrip_Properties(t *testing.T) {
	c := New(newLiveServer(t).URL)
	rapid.Check(t, func(t *rapid.T) { testClient_RoundTrip_Properties(t, c) })
}
