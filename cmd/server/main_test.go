package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRunReturnsListenError(t *testing.T) {
	origListen := listenAndServe
	origExit := exitFunc
	t.Cleanup(func() {
		listenAndServe = origListen
		exitFunc = origExit
	})

	listenAndServe = func(addr string, handler http.Handler) error {
		if handler == nil {
			t.Fatalf("expected handler")
		}
		if addr != ":9090" {
			t.Fatalf("expected addr :9090, got %s", addr)
		}
		return errors.New("boom")
	}
	exitFunc = func(error) {}

	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ADDR", "localhost:0")

	if err := run(context.TODO()); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom error, got %v", err)
	}
}

func TestMainCompletes(t *testing.T) {
	origListen := listenAndServe
	origExit := exitFunc
	t.Cleanup(func() {
		listenAndServe = origListen
		exitFunc = origExit
	})

	listenAndServe = func(string, http.Handler) error { return nil }
	exitFunc = func(error) { t.Fatal("exitFunc should not be called") }

	t.Setenv("PORT", "9091")
	t.Setenv("REDIS_ADDR", "localhost:0")
	t.Setenv("ALLOWED_ORIGIN", "http://localhost:5173")
	t.Setenv("MAX_MESSAGE_BYTES", "65536")

	main()
}

func TestHealthEndpointServed(t *testing.T) {
	origListen := listenAndServe
	t.Cleanup(func() { listenAndServe = origListen })

	var captured http.Handler
	listenAndServe = func(_ string, handler http.Handler) error {
		captured = handler
		return nil
	}

	t.Setenv("REDIS_ADDR", "localhost:0")
	if err := run(context.TODO()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	rec := httptest.NewRecorder()
	captured.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /healthz, got %d", rec.Code)
	}
}
