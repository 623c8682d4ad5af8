package genai

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/metcalfc/simplyread/internal/errors"
	"github.com/metcalfc/simplyread/internal/logger"
)

// GuardConfig bounds traffic to a Generator.
type GuardConfig struct {
	Name string
	// PerMinute caps request starts; zero disables pacing.
	PerMinute int
	// Failures is the number of consecutive failures that open the breaker;
	// zero disables the breaker.
	Failures int
	// Cooldown is how long an open breaker rejects calls before probing.
	Cooldown time.Duration
	Logger   *zap.SugaredLogger
}

// Guard paces requests and stops calling a backend that keeps failing.
type Guard struct {
	next    Generator
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  *zap.SugaredLogger
}

// NewGuard wraps next.
func NewGuard(next Generator, cfg GuardConfig) *Guard {
	if cfg.Logger == nil {
		cfg.Logger = logger.Named("guard")
	}
	g := &Guard{next: next, logger: cfg.Logger}

	if cfg.PerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.PerMinute)), cfg.PerMinute)
	}
	if cfg.Failures > 0 {
		failures := uint32(cfg.Failures)
		g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: 1,
			Timeout:     cfg.Cooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= failures
			},
			IsSuccessful: func(err error) bool {
				// A caller giving up or a reply with no text is not a backend fault.
				return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrEmptyResponse)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				g.logger.Warnw("circuit breaker state change",
					logger.FieldBackend, name,
					"from", from.String(),
					"to", to.String())
			},
		})
	}
	return g
}

// Generate waits for a rate token, then calls the wrapped generator through
// the breaker.
func (g *Guard) Generate(ctx context.Context, instruction string) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", errors.Wrap(err, "rate limit wait")
		}
	}
	if g.breaker == nil {
		return g.next.Generate(ctx, instruction)
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.Generate(ctx, instruction)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// State reports the breaker state, or "disabled".
func (g *Guard) State() string {
	if g.breaker == nil {
		return "disabled"
	}
	return g.breaker.State().String()
}
