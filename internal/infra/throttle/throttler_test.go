package throttle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-number-checker/internal/infra/throttle"
)

// stopErr реализует StopRetryer: троттлер обязан вернуть её без повторных попыток.
type stopErr struct{}

func (stopErr) Error() string   { return "permanent failure" }
func (stopErr) StopRetry() bool { return true }

func TestDoBeforeStart(t *testing.T) {
	t.Parallel()

	tr := throttle.New(10)
	err := tr.Do(context.Background(), func() error { return nil })
	if !errors.Is(err, throttle.ErrNotStarted) {
		t.Fatalf("Do() error = %v, want ErrNotStarted", err)
	}
}

func TestDoSuccess(t *testing.T) {
	t.Parallel()

	tr := throttle.New(100)
	tr.Start(context.Background())
	defer tr.Stop()

	calls := 0
	if err := tr.Do(context.Background(), func() error {
		calls++
		return nil
	}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 1 {
		t.Fatalf("fn called %d times, want 1", calls)
	}
}

func TestDoStopRetryer(t *testing.T) {
	t.Parallel()

	tr := throttle.New(100)
	tr.Start(context.Background())
	defer tr.Stop()

	calls := 0
	err := tr.Do(context.Background(), func() error {
		calls++
		return stopErr{}
	})
	var s stopErr
	if !errors.As(err, &s) {
		t.Fatalf("Do() error = %v, want stopErr", err)
	}
	if calls != 1 {
		t.Fatalf("fn called %d times, want 1 (no retries)", calls)
	}
}

func TestDoMaxRetries(t *testing.T) {
	t.Parallel()

	tr := throttle.New(1000,
		throttle.WithMaxRetries(2),
		// Нулевой джиттер при нулевой базе не даёт заметных пауз в тесте.
		throttle.WithRandom(func() float64 { return 0 }),
	)
	tr.Start(context.Background())
	defer tr.Stop()

	calls := 0
	failure := errors.New("transient")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := tr.Do(ctx, func() error {
		calls++
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("Do() error = %v, want wrapped %v", err, failure)
	}
	// Первая попытка + 2 ретрая.
	if calls != 3 {
		t.Fatalf("fn called %d times, want 3", calls)
	}
}

func TestDoWaitExtractor(t *testing.T) {
	t.Parallel()

	failure := errors.New("rate limited")
	extracted := 0
	tr := throttle.New(1000,
		throttle.WithWaitExtractors(func(err error) (time.Duration, bool) {
			if errors.Is(err, failure) {
				extracted++
				return time.Millisecond, true
			}
			return 0, false
		}),
	)
	tr.Start(context.Background())
	defer tr.Stop()

	calls := 0
	err := tr.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return failure
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if extracted != 2 {
		t.Fatalf("extractor matched %d times, want 2", extracted)
	}
}
