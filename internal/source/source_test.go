package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/claimflow/internal/model"
)

func testConfig() model.SourceConfig {
	cfg := model.DefaultConfig().Source
	cfg.Timeout = 5 * time.Second
	cfg.UserAgent = "claimflow-test"
	return cfg
}

func noSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	orig := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) { slept = append(slept, d) }
	t.Cleanup(func() { fetchSleepFunc = orig })
	return &slept
}

func TestFetchWithRetry_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "claimflow-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprint(w, "POLICY NUMBER: PA-1")
	}))
	defer server.Close()

	doc, err := NewFetcher(testConfig(), nil).FetchWithRetry(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "POLICY NUMBER: PA-1", doc.Text)
	assert.Equal(t, "text/plain", doc.ContentType)
	assert.False(t, doc.Truncated)
}

func TestFetchWithRetry_TransientThenSuccess(t *testing.T) {
	slept := noSleep(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch attempts.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = fmt.Fprint(w, "OK")
		}
	}))
	defer server.Close()

	doc, err := NewFetcher(testConfig(), nil).FetchWithRetry(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "OK", doc.Text)
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestFetchWithRetry_PermanentFailure(t *testing.T) {
	noSleep(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFetcher(testConfig(), nil).FetchWithRetry(context.Background(), server.URL)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, "unexpected status: 404 Not Found", err.Error())
	assert.Equal(t, int32(1), attempts.Load())
}

func TestFetchWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	slept := noSleep(t)

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewFetcher(testConfig(), nil).FetchWithRetry(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, int32(3), attempts.Load())
	assert.Len(t, *slept, 2)
}

func TestFetch_Truncates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, strings.Repeat("x", 100))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.MaxBytes = 10
	doc, err := NewFetcher(cfg, nil).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, doc.Text, 10)
	assert.True(t, doc.Truncated)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(&StatusError{Code: 500}))
	assert.True(t, isRetryable(&StatusError{Code: 429}))
	assert.False(t, isRetryable(&StatusError{Code: 403}))
	assert.True(t, isRetryable(errors.New("dial tcp: connection refused")))
	assert.True(t, isRetryable(fmt.Errorf("fetch: %w", errors.New("read: connection reset by peer"))))
	assert.False(t, isRetryable(errors.New("no such host")))
}

func TestLoader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notice.txt")
	require.NoError(t, os.WriteFile(path, []byte("POLICY NUMBER: PA-9\r\nLINE OF BUSINESS: Auto\r\n"), 0o644))

	doc, err := NewLoader(testConfig(), nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Name)
	assert.Equal(t, "POLICY NUMBER: PA-9\nLINE OF BUSINESS: Auto\n", doc.Text)
	assert.Contains(t, doc.ContentType, "text/plain")
}

func TestLoader_Stdin(t *testing.T) {
	l := NewLoader(testConfig(), nil).WithStdin(strings.NewReader("DATE OF LOSS: 01/02/2024"))

	doc, err := l.Load(context.Background(), StdinRef)
	require.NoError(t, err)
	assert.Equal(t, "stdin", doc.Name)
	assert.Equal(t, "DATE OF LOSS: 01/02/2024", doc.Text)
}

func TestLoader_HTMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notice.html")
	markup := `<html><head><title>Notice</title><style>p{}</style></head><body>
<p>POLICY NUMBER: PA-5</p>
<div>NAME OF INSURED</div><div>Jane   Roe</div>
<script>var x = "POLICY NUMBER: WRONG";</script>
<table><tr><td>MAKE:</td><td>Ford</td></tr></table>
</body></html>`
	require.NoError(t, os.WriteFile(path, []byte(markup), 0o644))

	doc, err := NewLoader(testConfig(), nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "POLICY NUMBER: PA-5\nNAME OF INSURED\nJane Roe\nMAKE: Ford", doc.Text)
}

func TestLoader_HTTPHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, "<p>REPORT NUMBER: R-1</p><p>STREET: 1 Elm</p>")
	}))
	defer server.Close()

	doc, err := NewLoader(testConfig(), nil).Load(context.Background(), server.URL+"/notice")
	require.NoError(t, err)
	assert.Equal(t, "REPORT NUMBER: R-1\nSTREET: 1 Elm", doc.Text)
}

func TestLoader_Unsupported(t *testing.T) {
	l := NewLoader(testConfig(), nil)
	ctx := context.Background()

	_, err := l.Load(ctx, "")
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = l.Load(ctx, "ftp://example.com/notice.txt")
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = l.Load(ctx, t.TempDir())
	assert.ErrorIs(t, err, ErrUnsupported)

	pdf := filepath.Join(t.TempDir(), "notice.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4\n%binary"), 0o644))
	_, err = l.Load(ctx, pdf)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader(testConfig(), nil).Load(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader(testConfig(), nil).Load(ctx, "whatever.txt")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewProxyFunc(t *testing.T) {
	pf := NewProxyFunc("http://proxy.local:3128", "http://secure.local:3128", "internal.example")

	req := &http.Request{URL: &url.URL{Scheme: "https", Host: "claims.example.com"}}
	u, err := pf(req)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "secure.local:3128", u.Host)

	req = &http.Request{URL: &url.URL{Scheme: "http", Host: "claims.example.com"}}
	u, err = pf(req)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "proxy.local:3128", u.Host)

	req = &http.Request{URL: &url.URL{Scheme: "http", Host: "internal.example"}}
	u, err = pf(req)
	require.NoError(t, err)
	assert.Nil(t, u)
}
