package cache

// ScopedKeyer wraps a Keyer with a prefix so that several consumers can share
// one store without colliding, e.g. the CLI and a server pointed at the same
// cache directory.
//
//	serverKeyer := NewScopedKeyer(NewDefaultKeyer(), "serve:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(svgHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(svgHash, opts)
}
