package summarize

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"

	"multimodal-rag/pkg/circuitbreaker"
)

// Policy controls retry behavior for transient generation failures. Delays
// double between attempts up to MaxDelay; once MaxElapsed has passed since the
// first attempt, the last error is returned.
type Policy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxElapsed   time.Duration
}

// DefaultPolicy waits 60s, 120s, 180s, 180s... and gives up after ten minutes.
func DefaultPolicy() Policy {
	return Policy{
		InitialDelay: 60 * time.Second,
		MaxDelay:     180 * time.Second,
		MaxElapsed:   600 * time.Second,
	}
}

// IsTransient reports whether err is worth retrying: service-side throttling
// and availability errors, network timeouts, and an open circuit breaker.
// Anything else (bad request, auth, canceled context) fails immediately.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusRequestTimeout,
			http.StatusInternalServerError,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// Do runs fn, retrying transient failures under the policy. The context
// cancels both the sleeps and the overall operation.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	start := time.Now()
	delay := p.InitialDelay

	for {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		if time.Since(start)+delay > p.MaxElapsed {
			return fmt.Errorf("retries exhausted after %s: %w", time.Since(start).Round(time.Second), err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
}
