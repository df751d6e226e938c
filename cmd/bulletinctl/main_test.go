package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-bulletin/internal/client"
	"ms-bulletin/internal/models"
)

func newApp(t *testing.T, deleted *[]string) *app {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/api/admin/events", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]models.Event{
			{ID: "a", Title: "Rally", Approved: true},
			{ID: "b", Title: "Potluck"},
		})
	})
	r.Delete("/api/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		*deleted = append(*deleted, chi.URLParam(r, "id"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "message": "Deleted"})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL, 5*time.Second)
	require.NoError(t, err)
	return &app{client: c, tokenFile: filepath.Join(t.TempDir(), "token"), yes: true}
}

func TestDeleteWithYes(t *testing.T) {
	var deleted []string
	a := newApp(t, &deleted)

	require.NoError(t, a.run(context.Background(), "delete", []string{"b"}))
	assert.Equal(t, []string{"b"}, deleted)
}

func TestDeleteNeedsOneID(t *testing.T) {
	var deleted []string
	a := newApp(t, &deleted)

	assert.Error(t, a.run(context.Background(), "delete", nil))
	assert.Error(t, a.run(context.Background(), "delete", []string{"a", "b"}))
	assert.Empty(t, deleted)
}

func TestPendingAndUnknownCommand(t *testing.T) {
	a := newApp(t, new([]string))

	assert.NoError(t, a.run(context.Background(), "pending", nil))
	assert.EqualError(t, a.run(context.Background(), "frobnicate", nil), `unknown command "frobnicate"`)
}

func TestLogoutRemovesTokenFile(t *testing.T) {
	a := newApp(t, new([]string))
	require.NoError(t, os.WriteFile(a.tokenFile, []byte("tok"), 0600))

	// No logout route on the test server; the file is still removed.
	err := a.logout(context.Background())
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.NoFileExists(t, a.tokenFile)
}
