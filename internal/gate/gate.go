package gate

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/boshu2/promptorch/cli/internal/config"
	"github.com/boshu2/promptorch/cli/internal/state"
)

// Gate applies Decide against a persisted session record.
type Gate struct {
	repo   state.Repository
	cfg    *config.PluginConfig
	logger *zap.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the gate logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates a gate over repo using cfg for bypass rules and the prompt template.
func New(repo state.Repository, cfg *config.PluginConfig, opts ...Option) *Gate {
	g := &Gate{repo: repo, cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Handle loads the session record, decides the prompt's disposition and
// persists the transition. The load-decide-write cycle runs under the
// repository lock when the repository supports one. On error nothing has been
// written.
func (g *Gate) Handle(ctx context.Context, prompt string) (*Decision, error) {
	var dec Decision
	err := state.WithLock(ctx, g.repo, func() error {
		st, err := g.repo.Load()
		if err != nil {
			return fmt.Errorf("load session state: %w", err)
		}

		dec = Decide(prompt, st, g.cfg)

		switch {
		case dec.Reset:
			removed, err := g.repo.Delete()
			if err != nil {
				return fmt.Errorf("reset session state: %w", err)
			}
			g.logger.Debug("session state reset", zap.Bool("removed", removed))
		case dec.Persist:
			if err := g.repo.Save(dec.State); err != nil {
				return fmt.Errorf("save session state: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	g.logger.Debug("prompt classified",
		zap.Stringer("disposition", dec.Disposition),
		zap.Bool("orchestrate", dec.Response.Orchestrate),
		zap.Int("discovery_round", dec.State.DiscoveryRound),
	)
	return &dec, nil
}
