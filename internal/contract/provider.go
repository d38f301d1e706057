package contract

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/tghsx-backend/internal/logging"
)

// RPCProvider manages a primary RPC endpoint with an optional secondary
// fallback. Strategy: stick to the primary until a transport-level failure,
// then switch to the secondary and stay there until it fails in turn.
type RPCProvider struct {
	endpoints []string
	clients   []*ethclient.Client
	current   int
	mu        sync.RWMutex
}

// NewRPCProvider dials the primary endpoint eagerly and keeps the secondary
// lazy. secondary may be empty.
func NewRPCProvider(primary, secondary string) (*RPCProvider, error) {
	if primary == "" {
		return nil, fmt.Errorf("primary RPC endpoint is required")
	}

	endpoints := []string{primary}
	if secondary != "" {
		endpoints = append(endpoints, secondary)
	}

	p := &RPCProvider{
		endpoints: endpoints,
		clients:   make([]*ethclient.Client, len(endpoints)),
	}

	client, err := ethclient.Dial(primary)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to primary RPC endpoint: %w", err)
	}
	p.clients[0] = client

	return p, nil
}

// Client returns the currently active client.
func (p *RPCProvider) Client() *ethclient.Client {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clients[p.current]
}

// CurrentURL returns the URL of the currently active endpoint.
func (p *RPCProvider) CurrentURL() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.endpoints[p.current]
}

// Do invokes fn with the active client, failing over to the next endpoint
// and retrying once when the call fails at the transport level. Contract
// reverts are returned as-is; they would fail identically on any endpoint.
func (p *RPCProvider) Do(ctx context.Context, fn func(*ethclient.Client) error) error {
	err := fn(p.Client())
	if err == nil || !isTransportError(err) {
		return err
	}

	next, switchErr := p.failover(ctx, err)
	if switchErr != nil {
		return err
	}
	return fn(next)
}

// failover advances to the next endpoint, dialing it if needed.
func (p *RPCProvider) failover(ctx context.Context, cause error) (*ethclient.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.current + 1
	if next >= len(p.endpoints) {
		return nil, fmt.Errorf("no fallback RPC endpoint available: %w", cause)
	}

	if p.clients[next] == nil {
		client, err := ethclient.Dial(p.endpoints[next])
		if err != nil {
			return nil, fmt.Errorf("failed to connect to fallback RPC endpoint: %w", err)
		}
		p.clients[next] = client
	}

	logging.FromContext(ctx).WithError(cause).WithField("endpoint", p.endpoints[next]).
		Warn("RPC endpoint failed, switching to fallback")

	p.current = next
	return p.clients[next], nil
}

// Close releases every dialed client.
func (p *RPCProvider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.clients {
		if c != nil {
			c.Close()
		}
	}
}

// isTransportError reports whether err looks like a connectivity problem
// rather than a contract-level failure.
func isTransportError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"no such host",
		"eof",
		"429",
		"too many requests",
		"502",
		"503",
		"bad gateway",
		"service unavailable",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
