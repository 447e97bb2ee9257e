package registry

import (
	_ "embed"
)

//go:embed agencies.yaml
var embeddedRegistry []byte

// NewEmbedded returns the registry compiled into the binary. It covers
// the Columbia River Gorge agencies and is the default when no registry
// file is configured.
func NewEmbedded() (*Registry, error) {
	return Parse(embeddedRegistry)
}
