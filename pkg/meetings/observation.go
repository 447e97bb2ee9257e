package meetings

import "time"

// RawLink is an unclassified document link as the extractor saw it.
type RawLink struct {
	URL  string `json:"url" yaml:"url"`
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
}

// RawObservation is the output of one extractor invocation for one
// meeting occurrence, in whatever shape the source site used. Immutable
// once produced; owned by the orchestrator until consumed.
//
// Extractors emit either raw date/time strings for the normalizer to
// parse, or a pre-parsed Start/End pair when the source format would
// round-trip lossily through a string.
type RawObservation struct {
	// AgencyID identifies the agency this observation came from.
	AgencyID string `json:"agency_id" yaml:"agency_id"`

	// Title is the raw title string.
	Title string `json:"title" yaml:"title"`

	// Classification is the optional body classification, if the
	// extractor knows it.
	Classification string `json:"classification,omitempty" yaml:"classification,omitempty"`

	// Description is the optional free-text meeting description.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// TimeNotes carries caveats the source attaches to the stated time
	// ("registration opens 30 minutes before", "times approximate").
	TimeNotes string `json:"time_notes,omitempty" yaml:"time_notes,omitempty"`

	// RawDate is the date string as published, possibly including a
	// time of day or a time range ("March 5, 2025 9:00am-11:00am").
	RawDate string `json:"raw_date,omitempty" yaml:"raw_date,omitempty"`

	// RawTime is a separately-stated time-of-day string, for sites that
	// publish date and time in different page elements.
	RawTime string `json:"raw_time,omitempty" yaml:"raw_time,omitempty"`

	// Start and End, when set, bypass string parsing entirely.
	Start *time.Time `json:"start,omitempty" yaml:"start,omitempty"`
	End   *time.Time `json:"end,omitempty" yaml:"end,omitempty"`

	// AllDay marks meetings published without a time of day.
	AllDay bool `json:"all_day,omitempty" yaml:"all_day,omitempty"`

	// RawLocation is the location string as published.
	RawLocation string `json:"raw_location,omitempty" yaml:"raw_location,omitempty"`

	// LocationName optionally splits a venue name out of the location,
	// for extractors that can tell the two apart.
	LocationName string `json:"location_name,omitempty" yaml:"location_name,omitempty"`

	// RawStatus is the free-text status token, or empty when the source
	// states none.
	RawStatus string `json:"raw_status,omitempty" yaml:"raw_status,omitempty"`

	// Links are the document links in source page order.
	Links []RawLink `json:"links,omitempty" yaml:"links,omitempty"`

	// SourceURL is the page URL the observation was extracted from.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// ObservedAt is when the crawl happened. The merge engine's
	// newest-wins precedence orders by this, not by arrival order.
	ObservedAt time.Time `json:"observed_at" yaml:"observed_at"`
}
