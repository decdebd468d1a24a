package resilience

import (
	"context"
	"errors"
	"testing"
)

func TestNewLimiter_Defaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   int
		want int
	}{
		{name: "explicit", in: 2, want: 2},
		{name: "zero uses default", in: 0, want: 4},
		{name: "negative uses default", in: -3, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NewLimiter[int](tt.in).MaxConcurrent(); got != tt.want {
				t.Errorf("MaxConcurrent() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLimiter_Execute(t *testing.T) {
	t.Parallel()

	l := NewLimiter[string](1)
	got, err := l.Execute(context.Background(), func(context.Context) (string, error) {
		return "done", nil
	})
	if err != nil || got != "done" {
		t.Fatalf("Execute() = %q, %v", got, err)
	}

	wantErr := errors.New("boom")
	_, err = l.Execute(context.Background(), func(context.Context) (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Execute() error = %v, want %v", err, wantErr)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	t.Parallel()

	r := NewRateLimiter(Config{})
	if r != nil {
		t.Fatal("NewRateLimiter() with zero rate should be nil")
	}
	for i := 0; i < 100; i++ {
		if err := r.Allow(context.Background(), "global"); err != nil {
			t.Fatalf("nil limiter refused call: %v", err)
		}
	}
}

func TestRateLimiter_Exhausts(t *testing.T) {
	t.Parallel()

	r := NewRateLimiter(Config{Rate: 1, Burst: 2})
	ctx := context.Background()

	var refused int
	for i := 0; i < 10; i++ {
		if err := r.Allow(ctx, "global"); errors.Is(err, ErrRateLimited) {
			refused++
		}
	}
	if refused == 0 {
		t.Error("expected some calls to be refused")
	}
}
