package overpass

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ride-routing-service/internal/domain"
	"ride-routing-service/internal/platform/retry"
)

const fixturePayload = `{
	"version": 0.6,
	"elements": [
		{"type": "node", "id": 1, "lat": 13.6195, "lon": 123.1814},
		{"type": "node", "id": 2, "lat": 13.6300, "lon": 123.1900},
		{"type": "way", "id": 10, "nodes": [1, 2], "tags": {"highway": "primary", "maxspeed": "60"}}
	]
}`

func testClient(t *testing.T, endpoint string, attempts int) *Client {
	t.Helper()
	c, err := NewClient(endpoint, 2*time.Second, retry.NewPolicy(attempts, time.Millisecond))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestFetchRoadNetworkDecodesPayload(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotQuery = r.PostFormValue("data")
		w.Write([]byte(fixturePayload))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 1)

	data, err := c.FetchRoadNetwork(context.Background(), domain.Point{Lat: 13.6195, Lon: 123.1814}, 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(data.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(data.Nodes))
	}
	if len(data.Ways) != 1 {
		t.Fatalf("ways = %d, want 1", len(data.Ways))
	}
	if data.Ways[0].Tags["highway"] != "primary" {
		t.Fatalf("way tags not decoded: %v", data.Ways[0].Tags)
	}

	if !strings.Contains(gotQuery, `way["highway"]`) || !strings.Contains(gotQuery, "around:2000") {
		t.Fatalf("unexpected query: %q", gotQuery)
	}
}

func TestFetchRoadNetworkRetriesThenFails(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 3)

	_, err := c.FetchRoadNetwork(context.Background(), domain.Point{Lat: 13.6, Lon: 123.2}, 1000)
	if !errors.Is(err, domain.ErrNetworkUnavailable) {
		t.Fatalf("err = %v, want ErrNetworkUnavailable", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("calls = %d, want 3 (bounded attempts)", n)
	}
}

func TestFetchRoadNetworkMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 2)

	_, err := c.FetchRoadNetwork(context.Background(), domain.Point{Lat: 13.6, Lon: 123.2}, 1000)
	if !errors.Is(err, domain.ErrMalformedPayload) {
		t.Fatalf("err = %v, want ErrMalformedPayload", err)
	}
	if errors.Is(err, domain.ErrNetworkUnavailable) {
		t.Fatal("malformed payload must be distinguishable from network failure")
	}
}

func TestFetchRoadNetworkClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad query", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 4)

	_, err := c.FetchRoadNetwork(context.Background(), domain.Point{Lat: 13.6, Lon: 123.2}, 1000)
	if err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("calls = %d, want 1 (4xx is permanent)", n)
	}
}
