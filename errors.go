package cinder

import "goflare.io/cinder/internal/cache/adaptive"

var (
	// ErrEmptyKey is returned when GetOrLoad is called with an empty key.
	ErrEmptyKey = adaptive.ErrEmptyKey

	// ErrNilLoader is returned when GetOrLoad is called without a loader.
	ErrNilLoader = adaptive.ErrNilLoader
)
