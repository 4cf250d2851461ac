package pattern

import (
	"context"
	"time"
)

// PhraseGenerator is the single contract an external (typically neural)
// phrase model has to satisfy. Implementations must respect ctx
// cancellation; the synthesizer falls back to its algorithmic
// generators on any error or timeout.
type PhraseGenerator interface {
	GeneratePhrase(ctx context.Context, instrument string, section SectionContext) ([]Event, error)
}

// StrategyOptions bounds a phrase-generator call
type StrategyOptions struct {
	Timeout time.Duration
}

// DefaultStrategyOptions allows a model half a second per phrase
func DefaultStrategyOptions() StrategyOptions {
	return StrategyOptions{Timeout: 500 * time.Millisecond}
}

// TryStrategy invokes an external phrase generator with a deadline and
// returns (events, true) only on success. Failures and timeouts are
// returned to the caller as a fallback signal, not swallowed.
func TryStrategy(ctx context.Context, gen PhraseGenerator, instrument string, section SectionContext, opts StrategyOptions) ([]Event, bool) {
	if gen == nil {
		return nil, false
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultStrategyOptions().Timeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	events, err := gen.GeneratePhrase(cctx, instrument, section)
	if err != nil || len(events) == 0 {
		return nil, false
	}
	return events, true
}
