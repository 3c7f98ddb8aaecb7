package replay

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicyRetriesUntilSuccess(t *testing.T) {
	calls := 0
	policy := newRetryPolicy(3, time.Millisecond, nil)
	err := policy.do(context.Background(), SeqRange{From: 1, To: 4}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("err = %v after %d calls", err, calls)
	}
}

func TestRetryPolicyGivesUp(t *testing.T) {
	calls := 0
	failure := errors.New("disk full")
	policy := newRetryPolicy(2, time.Millisecond, nil)
	err := policy.do(context.Background(), SeqRange{From: 1, To: 1}, func(context.Context) error {
		calls++
		return failure
	})
	if !errors.Is(err, failure) || calls != 3 {
		t.Fatalf("err = %v after %d calls", err, calls)
	}
}

func TestRetryPolicyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	policy := newRetryPolicy(5, time.Hour, nil)
	err := policy.do(ctx, SeqRange{From: 1, To: 1}, func(context.Context) error {
		calls++
		cancel()
		return errors.New("connection reset")
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Fatalf("err = %v after %d calls", err, calls)
	}
}
