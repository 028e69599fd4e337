package collector

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"PriceSentinel/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, h http.HandlerFunc) *PriceAPIFetcher {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewPriceAPIFetcher(srv.URL+"/", DefaultTimeouts(), "")
}

func TestFetchPrice_Success(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/get_price", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://shop.example/p/1", req["url"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"Kettle","price":"24.99","currency":"EUR"}`))
	})

	q, err := f.FetchPrice(context.Background(), "https://shop.example/p/1")
	require.NoError(t, err)
	assert.Equal(t, model.Quote{Name: "Kettle", Price: "24.99", Currency: "EUR"}, *q)
}

func TestFetchPrice_NumericPrice(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Kettle","price":24.5,"currency":"EUR"}`))
	})
	q, err := f.FetchPrice(context.Background(), "https://shop.example/p/1")
	require.NoError(t, err)
	assert.Equal(t, "24.5", q.Price)
}

func TestFetchPrice_Non2xxIsNetworkError(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "scraper blocked", http.StatusBadGateway)
	})
	_, err := f.FetchPrice(context.Background(), "https://shop.example/p/1")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNetwork)
	assert.Contains(t, err.Error(), "502")
}

func TestFetchPrice_MalformedBodyIsParseError(t *testing.T) {
	bodies := []string{
		`<html>oops</html>`,
		`{"name":"Kettle","currency":"EUR"}`,
		`{"name":"Kettle","price":null}`,
		`{"name":"Kettle","price":{"amount":1}}`,
	}
	for _, body := range bodies {
		f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
		_, err := f.FetchPrice(context.Background(), "https://shop.example/p/1")
		require.Error(t, err, body)
		assert.ErrorIs(t, err, model.ErrParse, body)
	}
}

func TestFetchPrice_ReadTimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	f := NewPriceAPIFetcher(srv.URL, Timeouts{Connect: time.Second, Read: 50 * time.Millisecond, Write: time.Second}, "")
	_, err := f.FetchPrice(context.Background(), "https://shop.example/p/1")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNetwork)
	assert.NotErrorIs(t, err, model.ErrHostResolution)
}

func TestFetchPrice_ReadTimeoutCountsFromRequestOnReusedConn(t *testing.T) {
	var calls atomic.Int32
	var conns atomic.Int32
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) > 1 {
			time.Sleep(1500 * time.Millisecond)
		}
		_, _ = w.Write([]byte(`{"name":"Kettle","price":"24.99","currency":"EUR"}`))
	}))
	srv.Config.ConnState = func(_ net.Conn, st http.ConnState) {
		if st == http.StateNew {
			conns.Add(1)
		}
	}
	srv.Start()
	t.Cleanup(srv.Close)

	f := NewPriceAPIFetcher(srv.URL, Timeouts{Connect: time.Second, Read: 2 * time.Second, Write: time.Second}, "")
	_, err := f.FetchPrice(context.Background(), "https://shop.example/p/1")
	require.NoError(t, err)

	// The pooled connection sits idle for a while before it is reused.
	time.Sleep(time.Second)
	q, err := f.FetchPrice(context.Background(), "https://shop.example/p/1")
	require.NoError(t, err)
	assert.Equal(t, "24.99", q.Price)
	assert.Equal(t, int32(1), conns.Load(), "second request should reuse the connection")
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestFetchPrice_DNSFailureIsHostResolutionError(t *testing.T) {
	f := &PriceAPIFetcher{
		BaseURL: "https://price-api.invalid",
		Client: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, &net.DNSError{Err: "no such host", Name: r.URL.Host, IsNotFound: true}
		})},
	}
	_, err := f.FetchPrice(context.Background(), "https://shop.example/p/1")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrHostResolution)

	var urlErr *url.Error
	assert.ErrorAs(t, err, &urlErr)
}

func TestClassify(t *testing.T) {
	assert.ErrorIs(t, classify(&net.DNSError{Err: "timeout", IsTimeout: true}), model.ErrHostResolution)
	assert.ErrorIs(t, classify(&net.OpError{Op: "dial", Err: &net.AddrError{Err: "refused"}}), model.ErrNetwork)
	assert.ErrorIs(t, classify(context.DeadlineExceeded), model.ErrNetwork)
}
