// Package cache stores rendered exports so repeated jobs skip the renderer.
//
// Two implementations are used by the CLI: [FileCache] persists entries under
// the user cache directory, [NullCache] disables caching (--no-cache). The
// HTTP server keeps recent responses in a bounded [MemoryCache].
//
// Keys are derived by a [Keyer] from the SVG's content hash and every option
// that changes the rendered bytes, so editing an input or a token produces a
// new key and stale entries simply age out.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional per-entry expiry.
// Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources held by the cache.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// ArtifactKey returns the key of a rendered image.
	ArtifactKey(svgHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts lists what, besides the SVG bytes, determines an export.
type ArtifactKeyOpts struct {
	Tokens []string `json:"tokens"`
	Ext    string   `json:"ext"`
	Engine string   `json:"engine"`
}

// DefaultKeyer produces "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey hashes the SVG hash together with opts. Token order matters:
// the resolver gives precedence by position.
func (DefaultKeyer) ArtifactKey(svgHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", svgHash, opts)
}
