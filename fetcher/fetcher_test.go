package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const workshopHTML = `<html><body>
<div class="tabber__panel" id="tabber-Gunsmith"><table class="wikitable"><tr><th>Level</th></tr></table></div>
</body></html>`

func TestCollyFetcher_Fetch(t *testing.T) {
	var userAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.UserAgent()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, workshopHTML)
	}))
	defer srv.Close()

	f := NewCollyFetcher("arcdata-test", 5*time.Second, zap.NewNop())
	defer f.Close()

	html, err := f.Fetch(context.Background(), srv.URL, ".tabber__panel")
	require.NoError(t, err)
	assert.Contains(t, html, "tabber-Gunsmith")
	assert.Equal(t, "arcdata-test", userAgent)

	// Same URL again must not be rejected as already visited
	_, err = f.Fetch(context.Background(), srv.URL, "")
	require.NoError(t, err)
}

func TestCollyFetcher_MissingSelector(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>Maintenance</p></body></html>")
	}))
	defer srv.Close()

	f := NewCollyFetcher("arcdata-test", 5*time.Second, zap.NewNop())
	_, err := f.Fetch(context.Background(), srv.URL, ".tabber__panel")
	assert.ErrorIs(t, err, ErrSelectorNotFound)
}

func TestCollyFetcher_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewCollyFetcher("arcdata-test", 5*time.Second, zap.NewNop())
	_, err := f.Fetch(context.Background(), srv.URL, "")
	assert.Error(t, err)
}

func TestCollyFetcher_LogsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	core, logs := observer.New(zap.WarnLevel)
	f := NewCollyFetcher("arcdata-test", 5*time.Second, zap.New(core))

	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), srv.URL, "")
		require.Error(t, err)
	}

	entries := logs.FilterMessage("Error fetching page").All()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(http.StatusGone), entries[0].ContextMap()["status"])
}

func TestCollyFetcher_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewCollyFetcher("arcdata-test", time.Second, zap.NewNop())
	_, err := f.Fetch(ctx, "http://127.0.0.1:0/", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConnectOrKill(t *testing.T) {
	killed := false
	kill := func() { killed = true }

	err := connectOrKill(func() error { return errors.New("websocket: bad handshake") }, kill)
	assert.ErrorContains(t, err, "bad handshake")
	assert.True(t, killed)

	killed = false
	require.NoError(t, connectOrKill(func() error { return nil }, kill))
	assert.False(t, killed)
}

func TestWaitTimeoutOrDefault(t *testing.T) {
	assert.Equal(t, DefaultWaitTimeout, waitTimeoutOrDefault(0))
	assert.Equal(t, DefaultWaitTimeout, waitTimeoutOrDefault(-time.Second))
	assert.Equal(t, 5*time.Second, waitTimeoutOrDefault(5*time.Second))
}

func TestFindBrowserBin(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "chromium")
	require.NoError(t, os.WriteFile(present, nil, 0755))
	missing := filepath.Join(dir, "google-chrome")

	assert.Equal(t, "/opt/chrome", findBrowserBin("/opt/chrome", []string{present}))
	assert.Equal(t, present, findBrowserBin("", []string{missing, present}))
	assert.Equal(t, "", findBrowserBin("", []string{missing}))
}

func TestResolveUserDataDir(t *testing.T) {
	t.Setenv("BOT_DATA_DIR", "")
	assert.Equal(t, "", resolveUserDataDir("", zap.NewNop()))

	configured := filepath.Join(t.TempDir(), "profile")
	assert.Equal(t, configured, resolveUserDataDir(configured, zap.NewNop()))
	assert.DirExists(t, configured)

	fromEnv := filepath.Join(t.TempDir(), "env-profile")
	t.Setenv("BOT_DATA_DIR", fromEnv)
	assert.Equal(t, fromEnv, resolveUserDataDir("", zap.NewNop()))
}
