package objstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Client {
	t.Helper()
	objects := map[string][]byte{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/")
		switch r.Method {
		case http.MethodHead:
			if _, ok := objects[key]; !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
		case http.MethodPut:
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			objects[key] = body
			w.WriteHeader(http.StatusCreated)
		case http.MethodDelete:
			if _, ok := objects[key]; !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			delete(objects, key)
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestClient_PutExistsDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ok, err := store.Exists(ctx, "proposals/c-1.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	err = store.Put(ctx, "proposals/c-1.pdf", strings.NewReader("%PDF-fake"), "application/pdf")
	require.NoError(t, err)

	ok, err = store.Exists(ctx, "proposals/c-1.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, "proposals/c-1.pdf"))

	ok, err = store.Exists(ctx, "proposals/c-1.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_DeleteMissingIsNoop(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Delete(context.Background(), "nope.txt"))
}
