package domino

import (
	"context"
	"sync"
)

type contextKey int

const clientKey contextKey = iota

var (
	globalClient *Client
	globalMu     sync.RWMutex
)

// SetGlobalClient sets the global Domino client. New does this
// automatically for the most recently created client.
func SetGlobalClient(c *Client) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalClient = c
}

// GetGlobalClient returns the global Domino client, or nil when none has
// been created.
func GetGlobalClient() *Client {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalClient
}

// WithClient returns a new context carrying the client.
func WithClient(ctx context.Context, c *Client) context.Context {
	return context.WithValue(ctx, clientKey, c)
}

// FromContext returns the client carried by the context, falling back to
// the global client.
func FromContext(ctx context.Context) *Client {
	if c, ok := ctx.Value(clientKey).(*Client); ok {
		return c
	}
	return GetGlobalClient()
}
