package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"connprobe/internal/probe"
	"connprobe/pkg/config"
	"connprobe/pkg/logger"
)

// Summary holds the aggregate statistics of one batch run. Response time
// figures are computed over successful endpoints only.
type Summary struct {
	Total             int            `json:"total"`
	Succeeded         int            `json:"succeeded"`
	Failed            int            `json:"failed"`
	CountsByResult    map[string]int `json:"counts_by_result"`
	MinResponseTimeMs float64        `json:"min_response_time_ms"`
	AvgResponseTimeMs float64        `json:"avg_response_time_ms"`
	MaxResponseTimeMs float64        `json:"max_response_time_ms"`
	PoolCreated       uint64         `json:"pool_created"`
	PoolReused        uint64         `json:"pool_reused"`
	PoolInvalidated   uint64         `json:"pool_invalidated"`
}

// Report is the outcome of one batch: every endpoint's result plus the
// aggregate summary. Results carry no ordering guarantee relative to the
// input endpoint list.
type Report struct {
	ID        string                 `json:"id"`
	StartedAt time.Time              `json:"started_at"`
	Duration  time.Duration          `json:"duration"`
	Results   []probe.EndpointResult `json:"results"`
	Summary   Summary                `json:"summary"`
}

// Scheduler fans endpoints out to a bounded pool of probe workers. Each
// worker runs one prober to completion before taking the next endpoint; a
// fault in one worker never affects its siblings.
type Scheduler struct {
	engine  *probe.Engine
	cfg     *config.ProbeConfig
	limiter *rate.Limiter
	log     *logger.Logger

	inFlight int64
}

func NewScheduler(engine *probe.Engine, cfg *config.ProbeConfig, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewNop()
	}

	var limiter *rate.Limiter
	if cfg.ProbesPerSecond > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.ProbesPerSecond), burst)
	}

	return &Scheduler{
		engine:  engine,
		cfg:     cfg,
		limiter: limiter,
		log:     log.WithComponent("scheduler"),
	}
}

// RunBatch probes every endpoint under the configured concurrency bound and
// returns one result per submitted endpoint. An empty endpoint list is the
// only fatal condition.
func (s *Scheduler) RunBatch(ctx context.Context, endpoints []probe.Endpoint) (*Report, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints to probe")
	}

	report := &Report{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}

	workers := s.cfg.MaxConcurrentProbes
	if workers > len(endpoints) {
		workers = len(endpoints)
	}

	s.log.Info("starting batch",
		"batch_id", report.ID,
		"endpoints", len(endpoints),
		"workers", workers,
		"strategy", s.cfg.Strategy,
	)

	jobs := make(chan probe.Endpoint)
	results := make(chan probe.EndpointResult, len(endpoints))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for ep := range jobs {
				results <- s.runOne(ctx, id, ep)
			}
		}(i)
	}

	for _, ep := range endpoints {
		jobs <- ep
	}
	close(jobs)
	wg.Wait()
	close(results)

	for res := range results {
		report.Results = append(report.Results, res)
	}

	report.Duration = time.Since(report.StartedAt)
	report.Summary = s.summarize(report)

	s.engine.ReportPoolTotals()

	s.log.Info("batch finished",
		"batch_id", report.ID,
		"duration", report.Duration,
		"succeeded", report.Summary.Succeeded,
		"failed", report.Summary.Failed,
	)

	return report, nil
}

// runOne executes a single prober with rate limiting and a last-resort panic
// guard so one endpoint cannot cancel its siblings.
func (s *Scheduler) runOne(ctx context.Context, worker int, ep probe.Endpoint) (result probe.EndpointResult) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("probe task panicked",
				"worker", worker,
				"endpoint", ep.Key(),
				"fault", fmt.Sprint(r),
			)
			result = probe.EndpointResult{
				Endpoint:          ep,
				FinalResult:       probe.ResultUnknownError,
				FailureRate:       1.0,
				RecommendedAction: probe.ActionInvestigate,
				Timestamp:         time.Now(),
			}
		}
	}()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return probe.EndpointResult{
				Endpoint:          ep,
				FinalResult:       probe.ResultUnknownError,
				FailureRate:       1.0,
				RecommendedAction: probe.ActionInvestigate,
				Timestamp:         time.Now(),
			}
		}
	}

	s.engine.RecordInFlight(int(atomic.AddInt64(&s.inFlight, 1)))
	defer func() {
		s.engine.RecordInFlight(int(atomic.AddInt64(&s.inFlight, -1)))
	}()

	return s.engine.ProbeEndpoint(ctx, ep)
}

// InFlight reports how many probes are currently executing.
func (s *Scheduler) InFlight() int {
	return int(atomic.LoadInt64(&s.inFlight))
}

func (s *Scheduler) summarize(report *Report) Summary {
	summary := Summary{
		Total:          len(report.Results),
		CountsByResult: make(map[string]int),
	}

	var sum float64
	var successful int
	for _, res := range report.Results {
		summary.CountsByResult[res.FinalResult.String()]++
		if !res.Success {
			summary.Failed++
			continue
		}
		summary.Succeeded++
		successful++
		rt := res.AverageResponseTimeMs
		sum += rt
		if summary.MinResponseTimeMs == 0 || rt < summary.MinResponseTimeMs {
			summary.MinResponseTimeMs = rt
		}
		if rt > summary.MaxResponseTimeMs {
			summary.MaxResponseTimeMs = rt
		}
	}
	if successful > 0 {
		summary.AvgResponseTimeMs = sum / float64(successful)
	}

	totals := s.engine.Pool().Totals()
	summary.PoolCreated = totals.Created
	summary.PoolReused = totals.Reused
	summary.PoolInvalidated = totals.Failed

	return summary
}
