package httpds

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey/internal/datasource"
)

// noWait replaces the backoff sleep so tests run instantly.
func noWait(c *Client) *Client {
	c.wait = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return c
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{InsecureSkipVerify: true, MaxRetries: -1})

	assert.Equal(t, 60*time.Second, c.httpClient.Timeout)
	assert.Equal(t, 0, c.maxRetries)
	assert.Equal(t, 200*time.Millisecond, c.initialBackoff)
	assert.Equal(t, 5*time.Second, c.maxBackoff)

	tr, ok := c.httpClient.Transport.(*http.Transport)
	require.True(t, ok)
	assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)
}

func TestGet_RetryOn5xxThenSuccess(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "survey-etl", r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, "Country\nPeru\n")
	}))
	defer srv.Close()

	c := noWait(NewClient(Config{MaxRetries: 3, Headers: http.Header{"User-Agent": {"survey-etl"}}}))
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestGet_GivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := noWait(NewClient(Config{MaxRetries: 2})).Get(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "retryable status 429")
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestGet_NonRetryableReturnedAsIs(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	resp, err := noWait(NewClient(Config{MaxRetries: 5})).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestBackoffDuration(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, backoffDuration(100*time.Millisecond, 0, time.Second))
	assert.Equal(t, 400*time.Millisecond, backoffDuration(100*time.Millisecond, 2, time.Second))
	assert.Equal(t, time.Second, backoffDuration(100*time.Millisecond, 10, time.Second))
}

func TestWaitContext_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, waitContext(ctx, time.Hour), context.Canceled)
}

func TestSource_Open(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, "Country\nPeru\n")
	}))
	defer srv.Close()

	c := noWait(NewClient(Config{}))

	rc, err := NewSource(c, srv.URL+"/survey.csv").Open(context.Background())
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "Country\nPeru\n", string(b))

	src := NewSource(c, srv.URL+"/missing")
	_, err = datasource.Open(context.Background(), src)
	var ae *datasource.AcquisitionError
	require.True(t, errors.As(err, &ae))
	assert.Contains(t, err.Error(), "404")
}

func TestFetchFirstBytes(t *testing.T) {
	t.Parallel()

	var gotRange atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange.Store(r.Header.Get("Range"))
		if r.URL.Path == "/gone" {
			http.Error(w, "gone", http.StatusGone)
			return
		}
		// Ignores Range on purpose; the client must still cap the read.
		_, _ = io.WriteString(w, "Country,Age\nPeru,21\nChile,29.5\n")
	}))
	defer srv.Close()

	c := noWait(NewClient(Config{}))
	b, err := c.FetchFirstBytes(context.Background(), srv.URL+"/survey.csv", 16)
	require.NoError(t, err)
	assert.Equal(t, "Country,Age\nPeru", string(b))
	assert.Equal(t, "bytes=0-15", gotRange.Load())

	_, err = c.FetchFirstBytes(context.Background(), srv.URL+"/gone", 16)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "410")

	_, err = c.FetchFirstBytes(context.Background(), srv.URL, 0)
	require.Error(t, err)
}
