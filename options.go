package meetingfeed

import (
	"fmt"
	"time"

	"github.com/opencivic/meetingfeed/pkg/extract"
	"github.com/opencivic/meetingfeed/pkg/merge"
	"github.com/opencivic/meetingfeed/pkg/pipeline"
	"github.com/opencivic/meetingfeed/pkg/registry"
	"github.com/opencivic/meetingfeed/pkg/store"
)

// Option is a function that configures a Client.
type Option func(*Client) error

// config holds the tunables a Client applies when assembling its
// pipeline.
type config struct {
	concurrency         int
	timeout             time.Duration
	location            *time.Location
	rescheduleTolerance time.Duration
}

func defaultClientConfig() *config {
	return &config{
		concurrency:         pipeline.DefaultConcurrency,
		rescheduleTolerance: merge.DefaultRescheduleTolerance,
	}
}

// WithRegistry configures the agency registry to crawl instead of the
// embedded default.
func WithRegistry(reg *registry.Registry) Option {
	return func(c *Client) error {
		if reg == nil {
			return fmt.Errorf("registry must not be nil")
		}
		c.registry = reg
		return nil
	}
}

// WithRegistryFile loads the agency registry from a YAML file.
func WithRegistryFile(path string) Option {
	return func(c *Client) error {
		reg, err := registry.Load(path)
		if err != nil {
			return err
		}
		c.registry = reg
		return nil
	}
}

// WithExtractor configures the extractor used to observe agency sites.
func WithExtractor(e extract.Extractor) Option {
	return func(c *Client) error {
		if e == nil {
			return fmt.Errorf("extractor must not be nil")
		}
		c.extractor = e
		return nil
	}
}

// WithStore configures the record store instead of the in-memory
// default.
func WithStore(st store.Store) Option {
	return func(c *Client) error {
		if st == nil {
			return fmt.Errorf("store must not be nil")
		}
		c.store = st
		return nil
	}
}

// WithConcurrency bounds how many agencies are crawled at once.
func WithConcurrency(n int) Option {
	return func(c *Client) error {
		if n < 1 {
			return fmt.Errorf("concurrency must be at least 1, got %d", n)
		}
		c.config.concurrency = n
		return nil
	}
}

// WithTimeout bounds the wall-clock duration of a crawl pass. Zero
// means no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d < 0 {
			return fmt.Errorf("timeout must not be negative")
		}
		c.config.timeout = d
		return nil
	}
}

// WithLocation sets the local time zone applied when observations
// carry no explicit zone. Defaults to the regional zone of the
// registered agencies.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) error {
		if loc == nil {
			return fmt.Errorf("location must not be nil")
		}
		c.config.location = loc
		return nil
	}
}

// WithTimezone is WithLocation by IANA zone name.
func WithTimezone(name string) Option {
	return func(c *Client) error {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return fmt.Errorf("loading timezone %q: %w", name, err)
		}
		c.config.location = loc
		return nil
	}
}

// WithRescheduleTolerance sets how far a meeting start may drift
// between crawls before the merge marks it rescheduled. Only applies
// to the default in-memory store; a store supplied via WithStore
// carries its own merge engine.
func WithRescheduleTolerance(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("reschedule tolerance must be positive")
		}
		c.config.rescheduleTolerance = d
		return nil
	}
}
