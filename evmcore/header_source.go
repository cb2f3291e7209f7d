// Package evmcore provides access to the headers of an EVM chain running
// Parlia consensus. The prover only depends on the HeaderSource interface;
// RPCSource serves it from a JSON-RPC node and MemorySource from memory.
//
// Key concepts:
//   - HeaderSource: lookup by number, by hash, and of the chain head
//   - ErrNotFound: the only error a source reports for an unknown header
//   - FakeChain: a deterministic Parlia chain used by tests and the fake network
//
// Sources never retry. Retrying is left to the caller, which sees a
// not-found header as a transient condition.

package evmcore

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	// ErrNotFound is returned when the source does not know the requested header.
	ErrNotFound = errors.New("header not found")
	// ErrHashMismatch is returned when a decoded header does not hash to the
	// requested hash, typically because the node serves fields this header
	// type does not know about.
	ErrHashMismatch = errors.New("header hash mismatch")
)

// HeaderSource resolves chain headers. Implementations must be safe for
// concurrent use.
type HeaderSource interface {
	HeaderByNumber(ctx context.Context, number uint64) (*types.Header, error)
	HeaderByHash(ctx context.Context, hash common.Hash) (*types.Header, error)
	LatestHeader(ctx context.Context) (*types.Header, error)
}

// RPCSource is a HeaderSource backed by an Ethereum JSON-RPC endpoint.
type RPCSource struct {
	client *ethclient.Client
}

// NewRPCSource wraps an already connected client.
func NewRPCSource(client *ethclient.Client) *RPCSource {
	return &RPCSource{client: client}
}

// DialRPC connects to the node at url.
func DialRPC(ctx context.Context, url string) (*RPCSource, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewRPCSource(client), nil
}

// HeaderByNumber implements HeaderSource.
func (s *RPCSource) HeaderByNumber(ctx context.Context, number uint64) (*types.Header, error) {
	h, err := s.client.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	return h, notFound(err, "block %d", number)
}

// HeaderByHash implements HeaderSource.
func (s *RPCSource) HeaderByHash(ctx context.Context, hash common.Hash) (*types.Header, error) {
	h, err := s.client.HeaderByHash(ctx, hash)
	if err != nil {
		return nil, notFound(err, "block %s", hash.Hex())
	}
	if got := h.Hash(); got != hash {
		return nil, fmt.Errorf("block %d: requested %s, decoded %s: %w", h.Number, hash.Hex(), got.Hex(), ErrHashMismatch)
	}
	return h, nil
}

// LatestHeader implements HeaderSource.
func (s *RPCSource) LatestHeader(ctx context.Context) (*types.Header, error) {
	h, err := s.client.HeaderByNumber(ctx, nil)
	return h, notFound(err, "latest block")
}

// Close releases the underlying connection.
func (s *RPCSource) Close() {
	s.client.Close()
}

func notFound(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ethereum.NotFound) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
	}
	return err
}

// MemorySource is a HeaderSource over headers held in memory.
type MemorySource struct {
	mu       sync.RWMutex
	byNumber map[uint64]*types.Header
	byHash   map[common.Hash]*types.Header
	head     *types.Header
}

// NewMemorySource returns a source holding the given headers.
func NewMemorySource(headers ...*types.Header) *MemorySource {
	s := &MemorySource{
		byNumber: make(map[uint64]*types.Header),
		byHash:   make(map[common.Hash]*types.Header),
	}
	for _, h := range headers {
		s.Add(h)
	}
	return s
}

// Add stores a header, replacing any header at the same height.
// The highest header added becomes the head.
func (s *MemorySource) Add(h *types.Header) {
	h = types.CopyHeader(h)
	n := h.Number.Uint64()

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.byNumber[n]; ok {
		delete(s.byHash, old.Hash())
	}
	s.byNumber[n] = h
	s.byHash[h.Hash()] = h
	if s.head == nil || n >= s.head.Number.Uint64() {
		s.head = h
	}
}

// Remove forgets the header at the given height.
func (s *MemorySource) Remove(number uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.byNumber[number]; ok {
		delete(s.byNumber, number)
		delete(s.byHash, h.Hash())
	}
}

// HeaderByNumber implements HeaderSource.
func (s *MemorySource) HeaderByNumber(ctx context.Context, number uint64) (*types.Header, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byNumber[number]
	if !ok {
		return nil, fmt.Errorf("block %d: %w", number, ErrNotFound)
	}
	return types.CopyHeader(h), nil
}

// HeaderByHash implements HeaderSource.
func (s *MemorySource) HeaderByHash(ctx context.Context, hash common.Hash) (*types.Header, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byHash[hash]
	if !ok {
		return nil, fmt.Errorf("block %s: %w", hash.Hex(), ErrNotFound)
	}
	return types.CopyHeader(h), nil
}

// LatestHeader implements HeaderSource.
func (s *MemorySource) LatestHeader(ctx context.Context) (*types.Header, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.head == nil {
		return nil, fmt.Errorf("latest block: %w", ErrNotFound)
	}
	return types.CopyHeader(s.head), nil
}
