package vrf

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"raffled/pkg/domain"
)

// wordBound is 2^256; random words are uniform in [0, 2^256).
var wordBound = new(big.Int).Lsh(big.NewInt(1), 256)

// LocalCoordinator is the development-mode oracle. It draws words from
// crypto/rand and fulfills asynchronously after a simulated confirmation
// delay, so the service exercises the same two-phase protocol it would
// against a remote coordinator.
type LocalCoordinator struct {
	fulfiller Fulfiller
	blockTime time.Duration
	logger    *slog.Logger

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// LocalOption configures a LocalCoordinator.
type LocalOption func(*LocalCoordinator)

// WithBlockTime sets the simulated per-confirmation delay.
func WithBlockTime(d time.Duration) LocalOption {
	return func(c *LocalCoordinator) {
		c.blockTime = d
	}
}

// WithLocalLogger sets the coordinator logger.
func WithLocalLogger(logger *slog.Logger) LocalOption {
	return func(c *LocalCoordinator) {
		c.logger = logger
	}
}

func NewLocalCoordinator(fulfiller Fulfiller, opts ...LocalOption) *LocalCoordinator {
	c := &LocalCoordinator{
		fulfiller: fulfiller,
		blockTime: 100 * time.Millisecond,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestRandomWords accepts the request and schedules its fulfillment.
// It returns the correlation id immediately.
func (c *LocalCoordinator) RequestRandomWords(_ context.Context, req RandomWordsRequest) (domain.RequestID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", fmt.Errorf("local coordinator is closed")
	}

	id := domain.NewRequestID()
	delay := time.Duration(req.RequestConfirmations) * c.blockTime

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		time.Sleep(delay)

		words, err := drawWords(int(req.NumWords))
		if err != nil {
			c.logger.Error("draw random words", "request_id", id, "error", err)
			return
		}
		if err := c.fulfiller.FulfillRandomWords(context.Background(), id, words); err != nil {
			c.logger.Error("fulfill random words", "request_id", id, "error", err)
		}
	}()

	return id, nil
}

// Close waits for in-flight fulfillments and rejects new requests.
func (c *LocalCoordinator) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wg.Wait()
}

func drawWords(n int) ([]*big.Int, error) {
	words := make([]*big.Int, 0, n)
	for range n {
		w, err := crand.Int(crand.Reader, wordBound)
		if err != nil {
			return nil, fmt.Errorf("read random word: %w", err)
		}
		words = append(words, w)
	}
	return words, nil
}
