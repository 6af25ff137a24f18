package crawler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rendis/storetap/internal/engine/geo"
	"github.com/rendis/storetap/internal/engine/oracle"
	"github.com/rendis/storetap/internal/model"
)

const progressEvery = 10 * time.Second

// Oracle answers "locations nearest (lat, lng)" queries.
type Oracle interface {
	Query(ctx context.Context, lat, lng float64, limit int) ([]model.RawRecord, error)
}

// Normalizer maps one raw oracle record to a Record. Implementations must be
// safe for concurrent use when Config.Workers > 1.
type Normalizer interface {
	Normalize(raw model.RawRecord) (model.Record, error)
}

// Query outcomes reported to an Observer.
const (
	OutcomeOK          = "ok"
	OutcomeTransport   = "transport_error"
	OutcomeParse       = "parse_error"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
)

// Observer receives crawl events, typically to export metrics.
type Observer interface {
	ObserveQuery(outcome string, elapsed time.Duration)
	ObserveAccepted(n int)
	ObserveFrontier(depth int)
}

// Config controls a single run. Zero values fall back to defaults.
type Config struct {
	CellSize    float64
	RingRadii   []float64
	Limit       int
	Delay       time.Duration
	Workers     int
	MaxCells    int
	Timeout     time.Duration
	CallTimeout time.Duration
	StrictRetry bool
	Region      geo.Region
}

// DefaultConfig mirrors a single polite client: one worker, 350ms apart.
func DefaultConfig() Config {
	return Config{
		CellSize:    geo.DefaultCellSize,
		RingRadii:   geo.DefaultRingRadii,
		Limit:       50,
		Delay:       350 * time.Millisecond,
		Workers:     1,
		CallTimeout: 25 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CellSize <= 0 {
		c.CellSize = d.CellSize
	}
	if c.RingRadii == nil {
		c.RingRadii = d.RingRadii
	}
	if c.Limit <= 0 {
		c.Limit = d.Limit
	}
	if c.Delay < 0 {
		c.Delay = 0
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = d.CallTimeout
	}
	return c
}

// Options provides optional hooks for a run.
type Options struct {
	// Stats allows passing an external Stats object for live progress tracking.
	// If nil, Run creates its own.
	Stats *Stats
	// OnProgress is called from the coordinator after every finished query.
	OnProgress func(*Stats)
	// OnRecords is called with each batch of newly accepted records.
	OnRecords func([]model.Record)
	Observer  Observer
	Logger    *zap.Logger
}

// Result is the outcome of a run. Records are in acceptance order.
type Result struct {
	Records []model.Record
	Stats   *Stats
}

type outcome struct {
	probe        Probe
	records      []model.Record
	found        int
	schemaErrors int
	attempts     int
	queried      bool
	elapsed      time.Duration
	err          error
}

// Run crawls outward from seeds until the frontier is exhausted, the budget
// is spent or ctx is done. Cancellation stops new queries; queries already
// in flight finish and their records are kept. Partial results come back
// with a nil error. An *AbortedError is returned, together with a Result,
// only when there are no seeds or every query failed.
func Run(ctx context.Context, seeds []model.GeoPoint, o Oracle, norm Normalizer, cfg Config, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	cfg = cfg.withDefaults()

	stats := opts.Stats
	if stats == nil {
		stats = &Stats{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.L()
	}
	logger = logger.With(zap.String("component", "crawler"))

	stats.start()
	sched := NewScheduler(seeds, cfg, stats)
	if stats.Seeds == 0 {
		stats.finish(StopAborted, true)
		logger.Error("no seeds to crawl", zap.Int("given", len(seeds)))
		return &Result{Stats: stats}, &AbortedError{Reason: "no seeds"}
	}

	runCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	limiter := rate.NewLimiter(rate.Every(cfg.Delay), 1)
	jobs := make(chan Probe)
	results := make(chan outcome, cfg.Workers)

	var g errgroup.Group
	for range cfg.Workers {
		g.Go(func() error {
			for p := range jobs {
				results <- query(runCtx, o, norm, limiter, p, cfg, logger)
			}
			return nil
		})
	}

	logger.Info("crawl started",
		zap.Int("seeds", stats.Seeds),
		zap.Int("workers", cfg.Workers),
		zap.Float64("cell_deg", cfg.CellSize),
		zap.Duration("delay", cfg.Delay),
		zap.Int("max_cells", cfg.MaxCells),
	)

	ticker := time.NewTicker(progressEvery)
	defer ticker.Stop()

	var (
		stop     StopReason
		pending  *Probe
		inflight int
		queried  int64
		failed   int64
	)
	done := runCtx.Done()

	for {
		if stop == "" && pending == nil && inflight < cfg.Workers {
			if p, ok := sched.Next(); ok {
				pending = &p
			} else if sched.BudgetExhausted() {
				stop = StopMaxCells
			}
		}
		if pending == nil && inflight == 0 {
			break
		}
		if pending == nil {
			stats.setState(StateDraining)
		} else {
			stats.setState(StateRunning)
		}
		if opts.Observer != nil {
			opts.Observer.ObserveFrontier(sched.Pending())
		}

		var send chan<- Probe
		var next Probe
		if pending != nil {
			send = jobs
			next = *pending
		}

		select {
		case send <- next:
			pending = nil
			inflight++

		case res := <-results:
			inflight--
			stats.OracleCalls.Add(int64(res.attempts))
			if !res.queried {
				// the limiter gave up: ctx ended or its deadline falls before the next token
				if stop == "" {
					stop = stopReason(ctx)
					pending = nil
					logger.Info("stopping, no time left for another query",
						zap.String("reason", string(stop)),
						zap.Int("inflight", inflight),
					)
				}
				break
			}
			queried++
			stats.CellsVisited.Add(1)
			if res.attempts > 1 {
				stats.Retries.Add(int64(res.attempts - 1))
			}

			if res.err != nil {
				failed++
				kind := recordFailure(stats, res.err)
				if opts.Observer != nil {
					opts.Observer.ObserveQuery(kind, res.elapsed)
				}
				logger.Warn("query failed",
					zap.Stringer("point", res.probe.Point),
					zap.Stringer("cell", res.probe.Cell),
					zap.String("kind", kind),
					zap.Error(res.err),
				)
				if opts.OnProgress != nil {
					opts.OnProgress(stats)
				}
				break
			}

			stats.RecordsFound.Add(int64(res.found))
			stats.SchemaErrors.Add(int64(res.schemaErrors))
			if opts.Observer != nil {
				opts.Observer.ObserveQuery(OutcomeOK, res.elapsed)
			}
			accepted := sched.Absorb(res.records)
			logger.Debug("query done",
				zap.Stringer("point", res.probe.Point),
				zap.Int("records", len(res.records)),
				zap.Int("accepted", len(accepted)),
				zap.Int("frontier", sched.Pending()),
			)
			if opts.Observer != nil && len(accepted) > 0 {
				opts.Observer.ObserveAccepted(len(accepted))
			}
			if opts.OnRecords != nil && len(accepted) > 0 {
				opts.OnRecords(accepted)
			}
			if opts.OnProgress != nil {
				opts.OnProgress(stats)
			}

		case <-done:
			done = nil
			pending = nil
			if stop != "" {
				break
			}
			stop = stopReason(ctx)
			logger.Info("stopping, waiting for in-flight queries",
				zap.String("reason", string(stop)),
				zap.Int("inflight", inflight),
			)

		case <-ticker.C:
			logger.Info("progress",
				zap.Int64("cells", stats.CellsVisited.Load()),
				zap.Int64("calls", stats.OracleCalls.Load()),
				zap.Int64("errors", stats.OracleErrors.Load()),
				zap.Int64("accepted", stats.RecordsAccepted.Load()),
				zap.Int("frontier", sched.Pending()),
				zap.Duration("elapsed", stats.Elapsed().Truncate(time.Second)),
			)
		}
	}

	close(jobs)
	_ = g.Wait()

	if stop == "" {
		stop = StopExhausted
	}
	res := &Result{Records: sched.Records(), Stats: stats}

	if queried > 0 && failed == queried {
		stats.finish(StopAborted, true)
		res.Records = nil
		logger.Error("every query failed", zap.Int64("failures", failed))
		return res, &AbortedError{Reason: "every oracle query failed", Failures: failed}
	}

	stats.finish(stop, false)
	logger.Info("crawl finished",
		zap.String("reason", string(stop)),
		zap.Int64("cells", stats.CellsVisited.Load()),
		zap.Int64("calls", stats.OracleCalls.Load()),
		zap.Int64("errors", stats.OracleErrors.Load()),
		zap.Int64("schema_errors", stats.SchemaErrors.Load()),
		zap.Int("records", len(res.Records)),
		zap.Duration("elapsed", stats.Elapsed().Truncate(time.Millisecond)),
	)
	return res, nil
}

// stopReason tells a caller cancellation apart from a deadline, ours or the
// caller's.
func stopReason(ctx context.Context) StopReason {
	if errors.Is(ctx.Err(), context.Canceled) {
		return StopCanceled
	}
	return StopTimeout
}

// query runs on a worker. The oracle call itself is detached from ctx so a
// cancellation never interrupts a query that already started.
func query(ctx context.Context, o Oracle, norm Normalizer, limiter *rate.Limiter, p Probe, cfg Config, logger *zap.Logger) outcome {
	out := outcome{probe: p}

	tries := 1
	if cfg.StrictRetry {
		tries = 2
	}

	var raws []model.RawRecord
	start := time.Now()
	for attempt := range tries {
		if err := limiter.Wait(ctx); err != nil {
			// no call issued for this attempt
			break
		}
		out.queried = true
		out.attempts++

		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.CallTimeout)
		raws, out.err = o.Query(callCtx, p.Point.Lat, p.Point.Lng, cfg.Limit)
		cancel()

		if out.err == nil {
			break
		}
		if attempt+1 < tries {
			logger.Debug("retrying query", zap.Stringer("point", p.Point), zap.Error(out.err))
		}
	}
	out.elapsed = time.Since(start)
	if !out.queried || out.err != nil {
		return out
	}

	out.found = len(raws)
	out.records = make([]model.Record, 0, len(raws))
	for _, raw := range raws {
		r, err := norm.Normalize(raw)
		if err != nil {
			out.schemaErrors++
			continue
		}
		out.records = append(out.records, r)
	}
	return out
}

// recordFailure updates the error counters and returns the failure kind.
func recordFailure(stats *Stats, err error) string {
	stats.OracleErrors.Add(1)

	var rl *oracle.RateLimitError
	var te *oracle.TransportError
	var pe *oracle.ParseError
	switch {
	case errors.As(err, &rl):
		stats.RateLimits.Add(1)
		stats.TransportErrors.Add(1)
		return OutcomeRateLimited
	case errors.As(err, &te):
		stats.TransportErrors.Add(1)
		return OutcomeTransport
	case errors.As(err, &pe):
		stats.ParseErrors.Add(1)
		return OutcomeParse
	default:
		return OutcomeError
	}
}
