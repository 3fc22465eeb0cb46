package usecase

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

const (
	defaultRetryAttempts = 3
	defaultInitialDelay  = time.Second
)

// RetryPolicy controls how generation is retried on timeouts and rate
// limiting. Delays double from InitialDelay.
type RetryPolicy struct {
	Attempts     uint
	InitialDelay time.Duration
}

// DefaultRetryPolicy is three attempts with 1s and 2s backoff in between.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: defaultRetryAttempts, InitialDelay: defaultInitialDelay}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Attempts == 0 {
		p.Attempts = defaultRetryAttempts
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = defaultInitialDelay
	}
	return p
}

// Backoff returns the wait after the n-th failed attempt (0-based).
func (p RetryPolicy) Backoff(n uint) time.Duration {
	if n > 30 {
		n = 30
	}
	return p.InitialDelay << n
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

type malformedResponder interface {
	Malformed() bool
}

// do runs op until it succeeds, fails with a non-retryable error, or the
// attempts are used up. It returns the last error and the attempt count.
func (p RetryPolicy) do(ctx context.Context, logger *zap.Logger, op func(context.Context) error) (uint, error) {
	var attempts uint
	err := retry.Do(
		func() error {
			attempts++
			return op(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(p.Attempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.DelayType(func(n uint, err error, _ *retry.Config) time.Duration {
			d := p.Backoff(n)
			logger.Warn("retrying generation",
				zap.Uint("attempt", n+1),
				zap.Uint("max_attempts", p.Attempts),
				zap.Duration("backoff", d),
				zap.Error(err),
			)
			return d
		}),
	)
	return attempts, err
}

func isRetryable(err error) bool {
	return isTimeout(err) || isRateLimited(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isRateLimited(err error) bool {
	status, ok := upstreamStatusCode(err)
	return ok && status == http.StatusTooManyRequests
}

func isMalformed(err error) bool {
	var m malformedResponder
	return errors.As(err, &m) && m.Malformed()
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
