package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/steveyegge/todoq/internal/todoist"
)

func tokenServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"user": {"id": "u1", "full_name": "Ada", "email": "ada@example.com"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTokenCheckerPrompt(t *testing.T) {
	var hits atomic.Int32
	srv := tokenServer(t, &hits)
	c := newTokenChecker(todoist.NewTokenValidator(srv.URL, 20*time.Millisecond))
	ctx := context.Background()

	if err := c.check(ctx, "  "); err == nil {
		t.Error("blank token accepted")
	}

	// Typing quickly: only the last token reaches the API.
	for _, partial := range []string{"b", "ba", "bad"} {
		if err := c.check(ctx, partial); err != nil {
			t.Fatalf("check(%q) blocked on an unchecked token: %v", partial, err)
		}
	}
	deadline := time.Now().Add(2 * time.Second)
	for c.check(ctx, "bad") == nil {
		if time.Now().After(deadline) {
			t.Fatal("rejection of 'bad' never reported")
		}
		time.Sleep(5 * time.Millisecond)
	}
	// One call for the burst, plus a recheck of 'bad' if its goroutine
	// happened to start before an older keystroke's and went stale.
	if got := hits.Load(); got > 2 {
		t.Errorf("API calls = %d, want at most 2 (superseded checks are skipped)", got)
	}
}

func TestTokenCheckerFinal(t *testing.T) {
	var hits atomic.Int32
	srv := tokenServer(t, &hits)
	c := newTokenChecker(todoist.NewTokenValidator(srv.URL, 0))

	user, err := c.final(context.Background(), "good-token")
	if err != nil {
		t.Fatalf("final(good) failed: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Errorf("user = %+v", user)
	}
	if _, err := c.final(context.Background(), "nope"); !isRejected(err) {
		t.Errorf("final(nope) err = %v, want a rejection", err)
	}
}
