package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/time/rate"
	_ "modernc.org/sqlite"
)

// Fixed reference instant for deterministic tests:
// Thursday 2024-03-14 15:30:00 UTC+8.
var testNow = time.Date(2024, 3, 14, 15, 30, 0, 0, appZone)

func init() {
	InfoLog = log.New(io.Discard, "", 0)
	ErrorLog = log.New(io.Discard, "", 0)
}

// newTestStore opens an isolated on-disk store under t.TempDir using
// the pure-Go driver, so tests run without cgo.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := openStore("sqlite", filepath.Join(t.TempDir(), "playbase.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	app := newApp(Config{
		Addr:          ":0",
		CacheDir:      t.TempDir(),
		SourceURL:     "http://source.invalid/apps",
		SourceKey:     "test-key",
		BackupKeyHash: hashSHA256([]byte("letmein")),
		SyncInterval:  time.Hour,
	}, newTestStore(t))
	app.now = func() time.Time { return testNow }

	// httptest requests all come from 192.0.2.1; don't let the
	// limiter starve later tests.
	ipLock.Lock()
	ipLimiters["192.0.2.1"] = rate.NewLimiter(rate.Inf, 0)
	ipLock.Unlock()
	return app
}

// executeRequest drives a request through the full middleware chain
// and router.
func executeRequest(app *App, method, path string, payload interface{}, mutate func(*http.Request)) *httptest.ResponseRecorder {
	var body []byte
	if payload != nil {
		body, _ = json.Marshal(payload)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(req)
	}

	rr := httptest.NewRecorder()
	app.router().ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}
