package collyfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcherSendsIdentityHeaders(t *testing.T) {
	t.Parallel()

	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>listing</body></html>"))
	}))
	defer srv.Close()

	f := New(Config{
		UserAgent:      "Mozilla/5.0 (compatible; VisasQWatcher/1.0)",
		AcceptLanguage: "ja-JP,ja;q=0.9",
		Timeout:        5 * time.Second,
	})

	page, err := f.Fetch(context.Background(), srv.URL+"/issue/?is_started_only=true")

	require.NoError(t, err)
	assert.Equal(t, "Mozilla/5.0 (compatible; VisasQWatcher/1.0)", gotUA)
	assert.Equal(t, "ja-JP,ja;q=0.9", gotLang)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, string(page.Body), "listing")
	assert.Equal(t, "text/html; charset=utf-8", page.Headers.Get("Content-Type"))
	assert.Equal(t, srv.URL+"/issue/?is_started_only=true", page.URL)
}

func TestFetcherReturnsNon200Pages(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("not here"))
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})

	page, err := f.Fetch(context.Background(), srv.URL+"/issue/999/")

	require.NoError(t, err, "non-2xx is a page, not a fetch error")
	assert.Equal(t, http.StatusNotFound, page.StatusCode)
	assert.Equal(t, []byte("not here"), page.Body)
}

func TestFetcherFollowsRedirects(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>moved</html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})

	page, err := f.Fetch(context.Background(), srv.URL+"/old")

	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/old", page.URL)
	assert.Equal(t, srv.URL+"/new", page.FinalURL)
	assert.Equal(t, []byte("<html>moved</html>"), page.Body)
}

func TestFetcherAllowsRevisits(t *testing.T) {
	t.Parallel()

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		_, _ = w.Write([]byte("<html>tick</html>"))
	}))
	defer srv.Close()

	f := New(Config{Timeout: 5 * time.Second})

	_, err := f.Fetch(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), srv.URL+"/")
	require.NoError(t, err)

	assert.Equal(t, 2, hits, "the same URL is fetched again on the next run")
}

func TestFetcherCanceledContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()
	defer close(release)

	f := New(Config{Timeout: 30 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := f.Fetch(ctx, srv.URL+"/slow")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
