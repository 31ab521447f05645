// Package ratelimit guards the public share-link endpoints. Keys are
// caller-defined (the middleware uses client IP + path); implementations
// decide whether a request under that key may proceed.
package ratelimit

import "context"

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
