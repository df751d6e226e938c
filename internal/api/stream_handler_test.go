package api

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-bulletin/internal/models"
	"ms-bulletin/internal/sse"
)

func TestModerationStreamRequiresAdmin(t *testing.T) {
	env := newTestEnv(t, true)
	env.server.Stream = sse.NewBroadcaster()
	env.router = env.server.Routes()

	rec := env.do(t, http.MethodGet, "/api/admin/stream", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestModerationStreamDeliversSubmissions(t *testing.T) {
	env := newTestEnv(t, true)
	stream := sse.NewBroadcaster()
	env.server.Stream = stream
	env.server.Events.Notifier = stream
	env.router = env.server.Routes()
	cookie := env.login(t)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/admin/stream", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: connected", lines.Text())

	require.Eventually(t, func() bool { return stream.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	rec := env.do(t, http.MethodPost, "/api/add", models.SubmitEventRequest{
		Title: "Block party",
		Date:  "2025-06-14",
		Time:  "12:00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got []string
	for lines.Scan() {
		line := lines.Text()
		if strings.HasPrefix(line, "event: event.") {
			got = append(got, line)
			require.True(t, lines.Scan())
			assert.Contains(t, lines.Text(), `"title":"Block party"`)
			break
		}
	}
	assert.Equal(t, []string{"event: event.submitted"}, got)
}
