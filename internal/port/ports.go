// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the protocol and
// service layers from concrete implementations.
package port

import (
	"context"
	"net/url"
)

// Transport carries one serialized request to the authorization network
// and hands back the raw response text. It is a scoped resource: Open
// acquires it, Close releases it.
type Transport interface {
	Open(endpoint string) error
	Execute(ctx context.Context, fields url.Values, method string) (string, error)
	Close() error
}

// TransportFactory returns a fresh, unopened Transport.
type TransportFactory func() Transport

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
