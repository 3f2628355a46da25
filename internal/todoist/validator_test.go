package todoist

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestTokenValidator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"user": {"id": "u1", "full_name": "Ada"}}`))
	}))
	defer server.Close()

	v := NewTokenValidator(server.URL, 0)

	user, err := v.Validate(context.Background(), "good")
	if err != nil {
		t.Fatalf("Validate(good) failed: %v", err)
	}
	if user.ID != "u1" {
		t.Errorf("user.ID = %q, want u1", user.ID)
	}

	if _, err := v.Validate(context.Background(), "bad"); StatusCode(err) != http.StatusUnauthorized {
		t.Errorf("Validate(bad) err = %v, want 401", err)
	}
}

func TestTokenValidatorSupersede(t *testing.T) {
	var mu sync.Mutex
	var checked []string
	v := &TokenValidator{
		delay: 50 * time.Millisecond,
		check: func(ctx context.Context, token string) (*User, error) {
			mu.Lock()
			checked = append(checked, token)
			mu.Unlock()
			return &User{ID: token}, nil
		},
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	users := make([]*User, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		users[0], errs[0] = v.Validate(context.Background(), "first")
	}()
	time.Sleep(10 * time.Millisecond)
	users[1], errs[1] = v.Validate(context.Background(), "second")
	wg.Wait()

	if !errors.Is(errs[0], ErrStale) {
		t.Errorf("first Validate err = %v, want ErrStale", errs[0])
	}
	if errs[1] != nil || users[1].ID != "second" {
		t.Errorf("second Validate = %v, %v; want user second", users[1], errs[1])
	}
	mu.Lock()
	defer mu.Unlock()
	if len(checked) != 1 || checked[0] != "second" {
		t.Errorf("checked = %v, want only the latest token", checked)
	}
}

func TestTokenValidatorCanceled(t *testing.T) {
	v := &TokenValidator{
		delay: time.Hour,
		check: func(ctx context.Context, token string) (*User, error) {
			t.Error("check should not run after cancellation")
			return nil, nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := v.Validate(ctx, "tok"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
