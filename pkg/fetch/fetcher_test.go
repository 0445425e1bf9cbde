package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>hymn page</html>"))
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, 0, nil)
	page, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if page != "<html>hymn page</html>" {
		t.Errorf("Unexpected body: %q", page)
	}
}

func TestClientGetNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(5*time.Second, 0, nil)
	_, err := c.Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("Expected FetchError for 404")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected *FetchError, got %T", err)
	}
	if fe.Status != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", fe.Status)
	}
}

func TestClientGetTransportError(t *testing.T) {
	c := NewClient(time.Second, 0, nil)
	_, err := c.Get(context.Background(), "http://127.0.0.1:1/nothing-here")
	if err == nil {
		t.Fatal("Expected FetchError for refused connection")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Errorf("Expected *FetchError, got %T", err)
	}
}

func TestClientDelayBetweenRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	delay := 50 * time.Millisecond
	c := NewClient(5*time.Second, delay, nil)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.Get(context.Background(), srv.URL); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}
	elapsed := time.Since(start)
	if elapsed < 2*delay {
		t.Errorf("Three sequential fetches finished in %v, expected at least %v", elapsed, 2*delay)
	}
}

func TestClientServesFromCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("cached page"))
	}))
	defer srv.Close()

	tempDir, err := os.MkdirTemp("", "fetch_cache_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	c := NewClient(5*time.Second, 0, NewPageCache(tempDir, 1<<20))
	for i := 0; i < 3; i++ {
		page, err := c.Get(context.Background(), srv.URL+"/page")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if page != "cached page" {
			t.Errorf("Unexpected body: %q", page)
		}
	}
	if hits != 1 {
		t.Errorf("Expected 1 origin hit, got %d", hits)
	}
}
