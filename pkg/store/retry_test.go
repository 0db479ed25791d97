package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIsTransientSQLiteErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"constraint", errors.New("UNIQUE constraint failed: inventory.id"), false},
		{"busy", errors.New("SQLITE_BUSY"), true},
		{"locked", errors.New("SQLITE_LOCKED"), true},
		{"short read", errors.New("IOERR_SHORT_READ"), true},
		{"database is locked", errors.New("database is locked"), true},
		{"table is locked", errors.New("database table is locked"), true},
		{"code 5", errors.New("sqlite: (5) database is busy"), true},
		{"code 522", errors.New("sqlite: (522) short read"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransientSQLiteErr(tt.err); got != tt.want {
				t.Errorf("isTransientSQLiteErr(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

var fastRetry = retryConfig{maxRetries: 3, baseDelay: time.Millisecond, maxDelay: 5 * time.Millisecond}

func TestRetryOp(t *testing.T) {
	tests := []struct {
		name      string
		cfg       retryConfig
		failUntil int
		failWith  error
		wantCalls int
		wantErr   bool
	}{
		{"succeeds immediately", fastRetry, 0, nil, 1, false},
		{"recovers from busy", fastRetry, 2, errors.New("SQLITE_BUSY"), 3, false},
		{"permanent error", fastRetry, 10, errors.New("no such table: sales"), 1, true},
		{"exhausts retries", retryConfig{maxRetries: 2, baseDelay: time.Millisecond, maxDelay: time.Millisecond}, 10, errors.New("database is locked"), 3, true},
		{"zero retries", retryConfig{baseDelay: time.Millisecond, maxDelay: time.Millisecond}, 10, errors.New("SQLITE_BUSY"), 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := retryOp(context.Background(), tt.cfg, func() error {
				calls++
				if calls <= tt.failUntil {
					return tt.failWith
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryOpStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	cfg := retryConfig{maxRetries: 5, baseDelay: time.Second, maxDelay: time.Second}
	err := retryOp(ctx, cfg, func() error {
		calls++
		return errors.New("SQLITE_BUSY")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestBackoffDelay(t *testing.T) {
	cfg := retryConfig{baseDelay: 50 * time.Millisecond, maxDelay: 500 * time.Millisecond}
	for attempt, lo := range []time.Duration{50, 100, 200} {
		lo *= time.Millisecond
		d := backoffDelay(cfg, attempt)
		if d < lo || d >= lo+cfg.baseDelay {
			t.Errorf("attempt %d delay %v not in [%v, %v)", attempt, d, lo, lo+cfg.baseDelay)
		}
	}

	capped := retryConfig{baseDelay: 100 * time.Millisecond, maxDelay: 200 * time.Millisecond}
	if d := backoffDelay(capped, 5); d >= 300*time.Millisecond {
		t.Errorf("attempt 5 delay %v not capped", d)
	}
}
