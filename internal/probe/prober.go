package probe

import (
	"context"
	"fmt"
	"time"
)

// fastResponseMs is the latency under which a successful attempt is accepted
// immediately without stability probing.
const fastResponseMs = 200.0

// ProbeEndpoint drives the sequential attempt loop for one endpoint and
// always produces a result, even when every attempt failed. Attempts are
// never parallelized: each outcome feeds the next attempt's timeout and
// delay decisions.
func (e *Engine) ProbeEndpoint(ctx context.Context, ep Endpoint) EndpointResult {
	key := ep.Key()
	started := time.Now()
	timeout := e.timeouts.InitialTimeout(key, e.cfg.Timeout())

	e.log.Debug("probing endpoint",
		"endpoint", key,
		"timeout", timeout,
		"retry_count", e.cfg.RetryCount,
	)

	var attempts []Attempt
	succeeded := false

	for n := 1; n <= e.cfg.RetryCount; n++ {
		att := e.runAttempt(ctx, ep, n, timeout)
		attempts = append(attempts, att)
		e.metrics.RecordAttempt(att.Result, att.ResponseTimeMs)

		if att.Result == ResultSuccess {
			succeeded = true
			// A first-attempt or fast success is accepted as-is. A slow
			// success on a later attempt keeps probing up to the retry
			// budget to gauge stability.
			if n == 1 || att.ResponseTimeMs < fastResponseMs {
				break
			}
			if n == e.cfg.RetryCount {
				break
			}
			if !e.waitBeforeRetry(ctx, n, att.Result) {
				break
			}
			timeout = e.timeouts.NextTimeout(timeout, att.Result)
			continue
		}

		e.log.Debug("attempt failed",
			"endpoint", key,
			"attempt", n,
			"result", att.Result.String(),
			"error", att.ErrorMessage,
		)

		if n == e.cfg.RetryCount || !e.policy.ShouldRetry(att.Result, n, e.cfg.RetryCount) {
			break
		}
		if !e.waitBeforeRetry(ctx, n, att.Result) {
			break
		}
		timeout = e.timeouts.NextTimeout(timeout, att.Result)
	}

	result := e.buildResult(ep, attempts, succeeded)

	rate := e.timeouts.RecordProbe(key, result.SuccessfulAttempts, result.TotalAttempts)
	e.history.Record(key, attempts)
	e.metrics.RecordProbe(result.FinalResult, time.Since(started))

	e.log.Info("probe finished",
		"endpoint", key,
		"result", result.FinalResult.String(),
		"attempts", result.TotalAttempts,
		"success_rate", rate,
		"action", result.RecommendedAction,
	)

	return result
}

// runAttempt executes one classified connection attempt. Any panic inside
// the transport layer is captured as an UnknownError attempt so a single
// endpoint fault can never take down the probe loop.
func (e *Engine) runAttempt(ctx context.Context, ep Endpoint, number int, timeout time.Duration) (att Attempt) {
	att = Attempt{Number: number, StartTime: time.Now()}

	defer func() {
		if r := recover(); r != nil {
			att.EndTime = time.Now()
			att.ResponseTimeMs = msSince(att.StartTime, att.EndTime)
			att.Result = ResultUnknownError
			att.ErrorMessage = fmt.Sprintf("internal fault: %v", r)
			e.log.Error("attempt aborted by internal fault",
				"endpoint", ep.Key(),
				"attempt", number,
				"fault", fmt.Sprint(r),
			)
		}
	}()

	conn, _, outcome := e.classifier.Attempt(ctx, ep, timeout)

	att.EndTime = time.Now()
	att.ResponseTimeMs = msSince(att.StartTime, att.EndTime)
	att.Result = outcome.Kind
	att.ErrorMessage = outcome.ErrorMessage
	att.ResolvedIP = outcome.ResolvedIP

	if conn != nil {
		e.pool.Return(ep.Host, ep.Port, conn, outcome.Kind == ResultSuccess)
	}
	return att
}

func (e *Engine) waitBeforeRetry(ctx context.Context, attempt int, last ResultKind) bool {
	delay := e.policy.Delay(attempt, last)
	if delay <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}

func (e *Engine) buildResult(ep Endpoint, attempts []Attempt, succeeded bool) EndpointResult {
	result := EndpointResult{
		Endpoint:      ep,
		Attempts:      attempts,
		TotalAttempts: len(attempts),
		Timestamp:     time.Now(),
	}

	var best, sum float64
	for _, a := range attempts {
		if a.Result != ResultSuccess {
			continue
		}
		result.SuccessfulAttempts++
		sum += a.ResponseTimeMs
		if best == 0 || a.ResponseTimeMs < best {
			best = a.ResponseTimeMs
		}
	}

	if succeeded {
		result.FinalResult = ResultSuccess
		result.Success = true
	} else if len(attempts) > 0 {
		result.FinalResult = attempts[len(attempts)-1].Result
	} else {
		result.FinalResult = ResultUnknownError
	}

	if result.SuccessfulAttempts > 0 {
		result.BestResponseTimeMs = best
		result.AverageResponseTimeMs = sum / float64(result.SuccessfulAttempts)
	}

	if result.TotalAttempts > 0 {
		result.FailureRate = float64(result.TotalAttempts-result.SuccessfulAttempts) / float64(result.TotalAttempts)
	} else {
		result.FailureRate = 1.0
	}

	result.ErrorPattern = AnalyzeErrorPattern(attempts)
	result.RecommendedAction = Recommend(result.FinalResult, result.FailureRate, result.AverageResponseTimeMs)

	return result
}

func msSince(start, end time.Time) float64 {
	return float64(end.Sub(start)) / float64(time.Millisecond)
}
