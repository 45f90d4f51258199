// Package retry runs an operation again with backoff until it succeeds, the
// error is not retryable, or the attempts run out.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Backoff interface {
	Next(attempt int) time.Duration
}

// ExpoJitter doubles Base per attempt up to Max, then scales by a random
// factor in [1-Jitter, 1+Jitter].
type ExpoJitter struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

func (b ExpoJitter) Next(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(b.Base) * math.Pow(2, float64(attempt))
	if b.Max > 0 && d > float64(b.Max) {
		d = float64(b.Max)
	}
	if b.Jitter > 0 {
		d *= 1 + (rand.Float64()*2-1)*b.Jitter
	}
	return time.Duration(d)
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err so Do gives up on it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

// Retryable is the default classifier: everything except permanent errors
// and context cancellation.
func Retryable(err error) bool {
	if err == nil || IsPermanent(err) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

type Policy struct {
	Name      string
	Attempts  int
	Backoff   Backoff
	Retryable func(error) bool
	OnAttempt func(attempt int, err error)
	OnExhaust func(lastErr error)
}

var defaultBackoff = ExpoJitter{Base: 100 * time.Millisecond, Max: 5 * time.Second, Jitter: 0.2}

var (
	retryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "apiwatch",
		Name:      "retry_attempts_total",
		Help:      "Attempts made inside retry.Do, including the final one.",
	}, []string{"name"})
	retryExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "apiwatch",
		Name:      "retry_exhausted_total",
		Help:      "Operations that gave up, either out of attempts or on a non-retryable error.",
	}, []string{"name"})
	retryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "apiwatch",
		Name:      "retry_duration_seconds",
		Help:      "Total time spent inside retry.Do.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"name"})
)

// Do calls fn until it returns nil or the policy gives up, and returns the
// last error. A cancelled ctx stops the wait between attempts.
func Do(ctx context.Context, fn func(context.Context) error, p Policy) (err error) {
	name := p.Name
	if name == "" {
		name = "default"
	}
	attempts := max(p.Attempts, 1)
	isRetryable := p.Retryable
	if isRetryable == nil {
		isRetryable = Retryable
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = defaultBackoff
	}

	start := time.Now()
	defer func() { retryLatency.WithLabelValues(name).Observe(time.Since(start).Seconds()) }()
	span := trace.SpanFromContext(ctx)

	for i := 0; i < attempts; i++ {
		err = fn(ctx)
		retryAttempts.WithLabelValues(name).Inc()
		if err == nil {
			return nil
		}
		if p.OnAttempt != nil {
			p.OnAttempt(i, err)
		}
		span.AddEvent("retry.attempt", trace.WithAttributes(
			attribute.String("retry.name", name),
			attribute.Int("retry.attempt", i+1),
		))
		if !isRetryable(err) || i == attempts-1 {
			break
		}

		t := time.NewTimer(backoff.Next(i))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	retryExhausted.WithLabelValues(name).Inc()
	if p.OnExhaust != nil {
		p.OnExhaust(err)
	}
	return err
}
