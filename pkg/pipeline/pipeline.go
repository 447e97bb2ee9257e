// Package pipeline drives the crawl: it invokes each agency's extractor
// under a bounded worker pool and feeds every observation through
// normalization, identity resolution, and the record store, collecting
// one CrawlReport per agency. Agencies are fully isolated: one failing
// extractor never affects another's processing.
package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/opencivic/meetingfeed/pkg/errors"
	"github.com/opencivic/meetingfeed/pkg/extract"
	"github.com/opencivic/meetingfeed/pkg/identity"
	"github.com/opencivic/meetingfeed/pkg/logging"
	"github.com/opencivic/meetingfeed/pkg/merge"
	"github.com/opencivic/meetingfeed/pkg/normalize"
	"github.com/opencivic/meetingfeed/pkg/registry"
	"github.com/opencivic/meetingfeed/pkg/store"
)

// DefaultConcurrency bounds outbound concurrent requests to remote
// sites when no limit is configured. Politeness, not throughput.
const DefaultConcurrency = 5

// Orchestrator runs crawl passes.
type Orchestrator struct {
	registry    *registry.Registry
	extractor   extract.Extractor
	normalizer  *normalize.Normalizer
	store       store.Store
	concurrency int
	timeout     time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithConcurrency bounds the number of agencies crawled in parallel.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) error {
		if n < 1 {
			return errors.NewConfigError("pipeline", "concurrency must be at least 1", nil)
		}
		o.concurrency = n
		return nil
	}
}

// WithTimeout sets the run-level deadline. On expiry, in-flight
// extractors are abandoned and already-completed agency results are
// kept; there is no rollback.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) error {
		if d < 0 {
			return errors.NewConfigError("pipeline", "timeout cannot be negative", nil)
		}
		o.timeout = d
		return nil
	}
}

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(o *Orchestrator) error {
		if n == nil {
			return errors.NewConfigError("pipeline", "normalizer cannot be nil", nil)
		}
		o.normalizer = n
		return nil
	}
}

// New creates an Orchestrator over a registry, an extractor, and a store.
func New(reg *registry.Registry, extractor extract.Extractor, st store.Store, opts ...Option) (*Orchestrator, error) {
	if reg == nil {
		return nil, errors.NewConfigError("pipeline", "registry cannot be nil", nil)
	}
	if extractor == nil {
		return nil, errors.NewConfigError("pipeline", "extractor cannot be nil", nil)
	}
	if st == nil {
		return nil, errors.NewConfigError("pipeline", "store cannot be nil", nil)
	}

	normalizer, err := normalize.New()
	if err != nil {
		return nil, err
	}
	o := &Orchestrator{
		registry:    reg,
		extractor:   extractor,
		normalizer:  normalizer,
		store:       st,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Run executes one crawl pass over every agency in the registry.
// Per-agency failures are contained in the reports; only a record store
// fault aborts the run, since it breaks the durability guarantee the
// rest of the pipeline depends on.
func (o *Orchestrator) Run(ctx context.Context) (*RunReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var cancel context.CancelFunc = func() {}
	if o.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
	}
	defer cancel()

	agencies := o.registry.List()
	started := time.Now()

	logging.Ctx(ctx).Info().
		Int("agencies", len(agencies)).
		Int("concurrency", o.concurrency).
		Msg("Starting crawl run")

	type agencyResult struct {
		report CrawlReport
		fatal  error
	}
	// Buffered to capacity so an extractor finishing after the run has
	// moved on never blocks its goroutine.
	results := make(chan agencyResult, len(agencies))
	semaphore := make(chan struct{}, o.concurrency)

	for _, agency := range agencies {
		go func(agency registry.Agency) {
			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-semaphore }()

			report, fatal := o.processAgency(ctx, agency)
			results <- agencyResult{report: report, fatal: fatal}
		}(agency)
	}

	run := &RunReport{StartedAt: started}
	finished := make(map[string]bool, len(agencies))
	var fatal error
collect:
	for range agencies {
		select {
		case res := <-results:
			finished[res.report.AgencyID] = true
			run.Agencies = append(run.Agencies, res.report)
			if res.fatal != nil && fatal == nil {
				fatal = res.fatal
			}
		case <-ctx.Done():
			break collect
		}
	}

	// Deadline expired: abandon whatever is still in flight and report
	// every unfinished agency as timed out. Stuck extractors keep their
	// goroutines until they return on their own.
	if ctx.Err() != nil {
		for _, agency := range agencies {
			if finished[agency.ID] {
				continue
			}
			run.Agencies = append(run.Agencies, CrawlReport{
				AgencyID:     agency.ID,
				Failure:      FailureTimeout,
				FailureCause: errors.NewExtractorTimeout(agency.ID, ctx.Err()).Error(),
			})
		}
	}

	sort.Slice(run.Agencies, func(i, j int) bool {
		return run.Agencies[i].AgencyID < run.Agencies[j].AgencyID
	})
	run.Duration = time.Since(started)

	if fatal != nil {
		return run, fatal
	}

	observed, added, updated, unchanged, rejected := run.Totals()
	logging.Ctx(ctx).Info().
		Int("observed", observed).
		Int("new", added).
		Int("updated", updated).
		Int("unchanged", unchanged).
		Int("rejected", rejected).
		Int("failed_agencies", len(run.Failed())).
		Dur("duration", run.Duration).
		Msg("Crawl run finished")

	return run, nil
}

// processAgency crawls one agency end to end. The returned error is
// non-nil only for record store faults, which are fatal to the run;
// everything else lands in the report.
func (o *Orchestrator) processAgency(ctx context.Context, agency registry.Agency) (CrawlReport, error) {
	ctx = logging.WithAgency(ctx, agency.ID)
	log := logging.Ctx(ctx)
	started := time.Now()

	report := CrawlReport{AgencyID: agency.ID}
	defer func() { report.Duration = time.Since(started) }()

	observations, err := o.extractor.Extract(ctx, agency)
	if err != nil {
		if ctx.Err() != nil {
			report.Failure = FailureTimeout
			report.FailureCause = errors.NewExtractorTimeout(agency.ID, err).Error()
		} else {
			report.Failure = FailureExtractor
			report.FailureCause = errors.NewExtractorError(agency.ID, err).Error()
		}
		log.Warn().Str("cause", report.FailureCause).Msg("Extractor failed")
		return report, nil
	}
	report.Observed = len(observations)

	// Agencies publishing in a different zone than the regional default
	// get their override applied here.
	normalizer := o.normalizer.In(agency.Location())

	// Observations are processed in the order the extractor yielded
	// them: newest-wins precedence depends on observation timestamp
	// ordering within an agency.
	for i := range observations {
		obs := &observations[i]

		m, err := normalizer.Normalize(obs)
		if err != nil {
			reason, ok := errors.ReasonOf(err)
			if !ok {
				reason = errors.RejectMissingField
			}
			report.reject(reason)
			log.Debug().Str("reason", string(reason)).Str("title", obs.Title).Msg("Observation rejected")
			continue
		}
		report.Normalized++

		if _, err := identity.Resolve(m); err != nil {
			report.reject(errors.RejectMissingField)
			continue
		}

		outcome, err := o.store.Upsert(m)
		if err != nil {
			// A store that cannot persist invalidates every other
			// agency's results too.
			return report, errors.NewIOError("upsert", m.ID, err)
		}
		switch outcome {
		case merge.OutcomeNew:
			report.New++
		case merge.OutcomeUpdated:
			report.Updated++
		default:
			report.Unchanged++
		}
	}

	log.Debug().
		Int("observed", report.Observed).
		Int("new", report.New).
		Int("updated", report.Updated).
		Msg("Agency processed")
	return report, nil
}
