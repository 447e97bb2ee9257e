// Package extract defines the contract between the core pipeline and the
// per-agency extraction recipes, plus the shared helpers those recipes
// compose. The core imposes no constraint on how extraction happens
// internally, only on the RawObservation shape it must emit.
//
// Each agency's recipe is a one-off; shared parsing idioms live here as
// injected helper functions, never as a base type extractors inherit
// from.
package extract

import (
	"context"

	"github.com/opencivic/meetingfeed/pkg/meetings"
	"github.com/opencivic/meetingfeed/pkg/registry"
)

// Extractor produces zero or more raw meeting observations for one
// agency per crawl invocation. Implementations handle their own fetch
// mechanics, including transport-level retries; the pipeline only
// requires that Extract eventually returns a finite sequence or fails.
type Extractor interface {
	Extract(ctx context.Context, agency registry.Agency) ([]meetings.RawObservation, error)
}

// Func adapts a plain function to the Extractor interface.
type Func func(ctx context.Context, agency registry.Agency) ([]meetings.RawObservation, error)

// Extract implements Extractor.
func (f Func) Extract(ctx context.Context, agency registry.Agency) ([]meetings.RawObservation, error) {
	return f(ctx, agency)
}

// Mux routes each agency to its own extractor, with an optional
// fallback for agencies without a dedicated recipe.
type Mux struct {
	extractors map[string]Extractor
	fallback   Extractor
}

// NewMux creates an empty extractor mux.
func NewMux() *Mux {
	return &Mux{extractors: make(map[string]Extractor)}
}

// Handle registers an extractor for an agency ID.
func (m *Mux) Handle(agencyID string, e Extractor) *Mux {
	m.extractors[agencyID] = e
	return m
}

// Fallback sets the extractor used for agencies with no dedicated one.
func (m *Mux) Fallback(e Extractor) *Mux {
	m.fallback = e
	return m
}

// Extract implements Extractor. Agencies with neither a dedicated
// extractor nor a fallback yield no observations.
func (m *Mux) Extract(ctx context.Context, agency registry.Agency) ([]meetings.RawObservation, error) {
	if e, ok := m.extractors[agency.ID]; ok {
		return e.Extract(ctx, agency)
	}
	if m.fallback != nil {
		return m.fallback.Extract(ctx, agency)
	}
	return nil, nil
}
