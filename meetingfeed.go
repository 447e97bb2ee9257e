// Package meetingfeed aggregates public-meeting announcements from
// government agency websites into a single normalized feed. A Client
// wires an agency registry, an extractor, and a record store into a
// crawl pipeline; each crawl pass observes upcoming meetings, folds
// them into versioned records, and reports per-agency outcomes.
package meetingfeed

import (
	"context"
	"fmt"
	"time"

	"github.com/opencivic/meetingfeed/pkg/errors"
	"github.com/opencivic/meetingfeed/pkg/extract"
	"github.com/opencivic/meetingfeed/pkg/identity"
	"github.com/opencivic/meetingfeed/pkg/meetings"
	"github.com/opencivic/meetingfeed/pkg/merge"
	"github.com/opencivic/meetingfeed/pkg/normalize"
	"github.com/opencivic/meetingfeed/pkg/pipeline"
	"github.com/opencivic/meetingfeed/pkg/registry"
	"github.com/opencivic/meetingfeed/pkg/store"
)

// Client coordinates crawling, normalization, and record storage for a
// set of registered agencies.
type Client struct {
	registry  *registry.Registry
	extractor extract.Extractor
	store     store.Store
	config    *config
}

// New creates a Client with the given options. Without options it uses
// the embedded agency registry, an in-memory store, and an HTML
// selector extractor backed by the default HTTP fetcher.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		config: defaultClientConfig(),
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}

	if c.registry == nil {
		reg, err := registry.NewEmbedded()
		if err != nil {
			return nil, fmt.Errorf("loading embedded registry: %w", err)
		}
		c.registry = reg
	}

	if c.store == nil {
		engine, err := merge.New(merge.WithRescheduleTolerance(c.config.rescheduleTolerance))
		if err != nil {
			return nil, fmt.Errorf("building merge engine: %w", err)
		}
		st, err := store.New(store.WithMergeEngine(engine))
		if err != nil {
			return nil, fmt.Errorf("building store: %w", err)
		}
		c.store = st
	}

	if c.extractor == nil {
		c.extractor = extract.NewHTML(extract.HTTPFetcher(nil))
	}

	return c, nil
}

// Crawl runs a single pipeline pass over every registered agency and
// returns the per-agency reports. Agency failures are recorded in the
// report, not returned; the error is non-nil only for fatal faults
// such as a store write failure.
func (c *Client) Crawl(ctx context.Context) (*pipeline.RunReport, error) {
	norm, err := c.normalizer()
	if err != nil {
		return nil, err
	}

	orch, err := pipeline.New(c.registry, c.extractor, c.store,
		pipeline.WithNormalizer(norm),
		pipeline.WithConcurrency(c.config.concurrency),
		pipeline.WithTimeout(c.config.timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("building pipeline: %w", err)
	}

	return orch.Run(ctx)
}

// Feed returns the current meeting of every record updated at or after
// since, sorted by identity key. A zero since returns the full feed.
func (c *Client) Feed(since time.Time) ([]FeedItem, error) {
	records, err := c.store.ListSince(since)
	if err != nil {
		return nil, err
	}

	items := make([]FeedItem, 0, len(records))
	for _, rec := range records {
		if len(rec.Revisions) == 0 {
			continue
		}
		items = append(items, FeedItem{
			Meeting:   rec.Current,
			UpdatedAt: rec.UpdatedAt,
			Revisions: len(rec.Revisions),
		})
	}
	return items, nil
}

// Record returns the full revision history for a single meeting
// identity key.
func (c *Client) Record(id string) (*meetings.MeetingRecord, error) {
	return c.store.Get(id)
}

// Observe pushes a single observation through normalization, identity
// resolution, and the store, bypassing the crawl pipeline. It is the
// same unit of work the pipeline applies per observation, exposed for
// callers that produce observations out of band.
func (c *Client) Observe(obs *meetings.RawObservation) (merge.Outcome, error) {
	norm, err := c.normalizer()
	if err != nil {
		return merge.OutcomeUnchanged, err
	}

	meeting, err := norm.Normalize(obs)
	if err != nil {
		return merge.OutcomeUnchanged, err
	}
	if _, err := identity.Resolve(meeting); err != nil {
		return merge.OutcomeUnchanged, err
	}

	return c.store.Upsert(meeting)
}

// Registry returns the agency registry the client crawls.
func (c *Client) Registry() *registry.Registry {
	return c.registry
}

// Store returns the record store backing the client.
func (c *Client) Store() store.Store {
	return c.store
}

// Save writes the store contents to a snapshot file at path.
func (c *Client) Save(path string) error {
	mem, ok := c.store.(*store.Memory)
	if !ok {
		return errors.NewValidationError("store", c.store, "snapshots require the in-memory store")
	}
	return mem.SaveTo(path)
}

// Load replaces the store contents with a previously saved snapshot.
// A missing snapshot file leaves the store empty and is not an error.
func (c *Client) Load(path string) error {
	mem, ok := c.store.(*store.Memory)
	if !ok {
		return errors.NewValidationError("store", c.store, "snapshots require the in-memory store")
	}
	return mem.LoadFrom(path)
}

func (c *Client) normalizer() (*normalize.Normalizer, error) {
	var opts []normalize.Option
	if c.config.location != nil {
		opts = append(opts, normalize.WithLocation(c.config.location))
	}
	norm, err := normalize.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("building normalizer: %w", err)
	}
	return norm, nil
}

// FeedItem is one entry of the output feed: the current state of a
// meeting record plus its update metadata.
type FeedItem struct {
	Meeting   meetings.Meeting `json:"meeting" yaml:"meeting"`
	UpdatedAt time.Time        `json:"updated_at" yaml:"updated_at"`
	Revisions int              `json:"revisions" yaml:"revisions"`
}
