package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/trialscope-ai/trialsync/pkg/common/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func newTestClient(baseURL string, maxRetries int) *Client {
	return NewClient(Options{
		BaseURL:    baseURL,
		Sort:       "LastUpdatePostDate",
		PageSize:   1000,
		MaxRetries: maxRetries,
		RetryDelay: time.Millisecond,
		Timeout:    time.Second,
	})
}

func TestFetchPageQueryParameters(t *testing.T) {
	var gotQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		w.Write([]byte(`{"studies":[],"nextPageToken":"tok2"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)

	page, err := client.FetchPage(context.Background(), TokenStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.NextPageToken != "tok2" {
		t.Fatalf("unexpected token: %q", page.NextPageToken)
	}

	q := gotQuery.Load().(url.Values)
	if q["sort"][0] != "LastUpdatePostDate" || q["pageSize"][0] != "1000" {
		t.Errorf("unexpected base query: %v", q)
	}
	if _, ok := q["pageToken"]; ok {
		t.Errorf("START must not send a pageToken, got %v", q)
	}

	if _, err := client.FetchPage(context.Background(), "tok2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q = gotQuery.Load().(url.Values)
	if q["pageToken"][0] != "tok2" {
		t.Errorf("expected pageToken=tok2, got %v", q)
	}
}

func TestFetchPageEndTokenShortCircuits(t *testing.T) {
	calls := int32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	_, err := client.FetchPage(context.Background(), TokenEnd)
	if !errors.Is(err, ErrNoMorePages) {
		t.Fatalf("expected ErrNoMorePages, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("end token must not reach the network, got %d calls", calls)
	}
}

func TestFetchPageRetriesThenSucceeds(t *testing.T) {
	calls := int32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"studies":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5)
	if _, err := client.FetchPage(context.Background(), TokenStart); err != nil {
		t.Fatalf("expected recovery within retry budget, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestFetchPageExhaustsRetries(t *testing.T) {
	calls := int32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)
	_, err := client.FetchPage(context.Background(), TokenStart)
	if !errors.Is(err, ErrPageUnavailable) {
		t.Fatalf("expected ErrPageUnavailable, got %v", err)
	}
	// Initial attempt plus the configured number of retries.
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}
