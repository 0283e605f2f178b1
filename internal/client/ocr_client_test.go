package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"gate-service/internal/config"
)

func testImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plate.jpg")
	if err := os.WriteFile(path, []byte("not really a jpeg"), 0o644); err != nil {
		t.Fatalf("write test image: %v", err)
	}
	return path
}

func newTestClient(url string) *OCRClient {
	cfg := &config.Config{}
	cfg.OCR.APIURL = url
	cfg.OCR.APIKey = "test-key"
	cfg.OCR.Timeout = 2 * time.Second
	return NewOCRClient(cfg, zerolog.Nop())
}

func TestExtractPlateTextSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("OCREngine"); got != "2" {
			t.Errorf("OCREngine = %q, want \"2\"", got)
		}
		if got := r.FormValue("apikey"); got != "test-key" {
			t.Errorf("apikey = %q", got)
		}
		w.Write([]byte(`{"ParsedResults":[{"ParsedText":"DL 4C\r\n1234"}]}`))
	}))
	defer server.Close()

	got := newTestClient(server.URL).ExtractPlateText(context.Background(), testImage(t))
	if !got.Available {
		t.Fatalf("expected available extraction")
	}
	if got.Text != "DL4C1234" {
		t.Fatalf("Text = %q, want \"DL4C1234\"", got.Text)
	}
}

func TestExtractPlateTextNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ParsedResults":[]}`))
	}))
	defer server.Close()

	if got := newTestClient(server.URL).ExtractPlateText(context.Background(), testImage(t)); got.Available {
		t.Fatalf("expected unavailable extraction, got %+v", got)
	}
}

func TestExtractPlateTextEmptyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ParsedResults":[{"ParsedText":"---"}]}`))
	}))
	defer server.Close()

	if got := newTestClient(server.URL).ExtractPlateText(context.Background(), testImage(t)); got.Available {
		t.Fatalf("expected unavailable extraction for empty cleaned text, got %+v", got)
	}
}

func TestExtractPlateTextServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	if got := newTestClient(server.URL).ExtractPlateText(context.Background(), testImage(t)); got.Available {
		t.Fatalf("expected unavailable extraction on upstream error, got %+v", got)
	}
}

func TestExtractPlateTextNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing is listening anymore

	if got := newTestClient(server.URL).ExtractPlateText(context.Background(), testImage(t)); got.Available {
		t.Fatalf("expected unavailable extraction on network error, got %+v", got)
	}
}

func TestExtractPlateTextStopsRetryingOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // force a network error on every attempt

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	image := testImage(t)
	start := time.Now()
	if got := newTestClient(server.URL).ExtractPlateText(ctx, image); got.Available {
		t.Fatalf("expected unavailable extraction, got %+v", got)
	}
	// with the context already cancelled the retry backoff must not run
	// its full 1.5s of sleeps
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("extraction held the request for %v after cancellation", elapsed)
	}
}

func TestExtractPlateTextMissingFile(t *testing.T) {
	if got := newTestClient("http://example.invalid").ExtractPlateText(context.Background(), "/no/such/file.jpg"); got.Available {
		t.Fatalf("expected unavailable extraction for missing file, got %+v", got)
	}
}
