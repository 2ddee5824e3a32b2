package capture

import (
	"context"
	"fmt"
	"image"

	"github.com/rs/zerolog"

	"github.com/AreteDriver/EVE-Overview/internal/logger"
	"github.com/AreteDriver/EVE-Overview/internal/window"
)

// Chain tries a fixed, ordered list of strategies until one produces an
// image. Order is set at construction and never changes at runtime.
type Chain struct {
	strategies []Strategy
	log        *zerolog.Logger
}

// NewChain builds the default chain: import first, xwd + convert second.
func NewChain(runner Runner) *Chain {
	return NewChainWith(NewImportStrategy(runner), NewXwdStrategy(runner))
}

// NewChainWith builds a chain over explicit strategies, in priority order.
func NewChainWith(strategies ...Strategy) *Chain {
	return &Chain{
		strategies: strategies,
		log:        logger.WithComponent("capture"),
	}
}

// Capture attempts each available strategy in order and returns the first
// image produced. When every strategy fails the error wraps ErrAllFailed.
func (c *Chain) Capture(ctx context.Context, id uint32) (image.Image, error) {
	var lastErr error
	for _, s := range c.strategies {
		if !s.Available() {
			continue
		}
		img, err := s.Capture(ctx, id)
		if err != nil {
			c.log.Debug().
				Str("strategy", s.Name()).
				Str("window", window.FormatHex(id)).
				Err(err).
				Msg("Capture attempt failed")
			lastErr = err
			continue
		}
		return img, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: last error: %v", ErrAllFailed, lastErr)
	}
	return nil, ErrAllFailed
}
