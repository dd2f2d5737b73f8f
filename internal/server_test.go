package internal

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandlerRoutes(t *testing.T) {
	store, err := OpenStore("", true)
	require.NoError(t, err)
	handler, h := NewHandler(Options{Debug: true, AuthSecret: "s", AuthIssuer: "ricecall"}, store, zerolog.Nop())
	t.Cleanup(h.Close)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/up", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOpenStoreSQLite(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "nested", "ricecall.sqlite"), false)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestCreateAndListenNeedsSecret(t *testing.T) {
	err := CreateAndListen(Options{Memory: true}, zerolog.Nop())
	assert.ErrorContains(t, err, "auth.secret")
}
