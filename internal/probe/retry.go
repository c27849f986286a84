package probe

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Strategy selects how inter-attempt delays are computed.
type Strategy string

const (
	StrategyExponential Strategy = "exponential"
	StrategyLinear      Strategy = "linear"
	StrategyFixed       Strategy = "fixed"
	StrategyAdaptive    Strategy = "adaptive"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(s)) {
	case StrategyExponential, StrategyLinear, StrategyFixed, StrategyAdaptive:
		return Strategy(strings.ToLower(s)), nil
	default:
		return "", fmt.Errorf("unknown retry strategy: %s", s)
	}
}

// maxRetryDelay is the absolute cap applied to every strategy.
const maxRetryDelay = 30 * time.Second

// RetryPolicy decides whether a failed attempt is worth retrying and how
// long to back off before the next one.
type RetryPolicy struct {
	strategy  Strategy
	baseDelay time.Duration

	// randFloat feeds the exponential strategy's jitter; overridable in tests.
	randFloat func() float64
}

func NewRetryPolicy(strategy Strategy, baseDelay time.Duration) *RetryPolicy {
	return &RetryPolicy{
		strategy:  strategy,
		baseDelay: baseDelay,
		randFloat: rand.Float64,
	}
}

// ShouldRetry applies the per-outcome eligibility rules. Attempt numbers are
// 1-based. Success never reaches this decision; the probe loop handles it.
func (rp *RetryPolicy) ShouldRetry(last ResultKind, attempt, retryCount int) bool {
	switch last {
	case ResultNetworkUnreachable:
		// Unreachable networks rarely heal within a probe; one retry only.
		return attempt == 1
	case ResultDNSFailed:
		return attempt <= 2
	case ResultConnectionRefused:
		return true
	case ResultTimeout:
		return attempt <= retryCount-1
	case ResultUnknownError:
		return true
	default:
		return false
	}
}

// Delay computes the backoff before the attempt following attempt number
// `attempt`, whose outcome was `last`. The result never exceeds maxRetryDelay.
func (rp *RetryPolicy) Delay(attempt int, last ResultKind) time.Duration {
	base := float64(rp.baseDelay)
	var delay float64

	switch rp.strategy {
	case StrategyFixed:
		delay = base

	case StrategyLinear:
		delay = base * float64(attempt)

	case StrategyExponential:
		delay = base * math.Pow(2, float64(attempt-1))
		switch last {
		case ResultConnectionRefused:
			// A listening-but-refusing peer often recovers quickly.
			delay *= 0.5
		case ResultNetworkUnreachable:
			delay *= 2.0
		}
		delay *= 0.5 + rp.randFloat()

	case StrategyAdaptive:
		switch last {
		case ResultSuccess:
			delay = base * 0.5
		case ResultTimeout:
			delay = base * 2.0
		case ResultConnectionRefused:
			delay = base * 1.5
		default:
			delay = base * float64(attempt)
		}

	default:
		delay = base
	}

	d := time.Duration(delay)
	if d > maxRetryDelay {
		d = maxRetryDelay
	}
	return d
}
