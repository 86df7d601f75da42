package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/diogo/compliancegen/internal/api"
	"github.com/diogo/compliancegen/internal/history"
	"github.com/diogo/compliancegen/internal/models"
	"github.com/diogo/compliancegen/internal/prompt"
	"github.com/diogo/compliancegen/internal/resolver"
)

// generator runs the product -> prompt -> resolver -> history pipeline
type generator struct {
	factory    api.ClientFactory
	options    []resolver.Option
	candidates []models.CandidateEndpoint
	safety     models.SafetyPolicy
	store      *history.Store // nil when history is disabled
	logger     *zap.Logger
}

// newGenerator validates the configuration and binds the client factory.
// The API key is checked before anything is sent.
func (a *app) newGenerator() (*generator, error) {
	if a.cfgErr != nil {
		return nil, a.cfgErr
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	key, err := a.deps.LoadAPIKey()
	if err != nil {
		return nil, err
	}

	factory, err := a.deps.NewFactory(api.FactoryOptionsFromConfig(a.cfg, key))
	if err != nil {
		return nil, err
	}

	g := &generator{
		factory: factory,
		options: []resolver.Option{
			resolver.WithLogger(a.logger),
			resolver.WithTimeout(a.cfg.RequestTimeout()),
			resolver.WithRetrieval(a.cfg.EnableRetrieval),
		},
		candidates: a.cfg.Candidates(),
		safety:     a.cfg.SafetyPolicy(),
		logger:     a.logger,
	}

	if a.cfg.SaveHistory {
		store, err := a.deps.OpenHistory()
		if err != nil {
			a.logger.Warn("history disabled", zap.Error(err))
		} else {
			g.store = store
		}
	}

	return g, nil
}

// Generate builds the prompt for p and resolves it against the candidates.
// Successful results are saved to history; a failed save is logged only.
func (g *generator) Generate(ctx context.Context, p prompt.Product) (*models.GenerationResult, error) {
	return g.generate(ctx, p, nil)
}

// generate is Generate with an optional per-attempt callback
func (g *generator) generate(ctx context.Context, p prompt.Product, onAttempt resolver.AttemptFunc) (*models.GenerationResult, error) {
	text, err := prompt.Build(p)
	if err != nil {
		return nil, err
	}

	req := models.NewGenerationRequest(text)
	req.Safety = g.safety

	opts := g.options
	if onAttempt != nil {
		opts = append(opts[:len(opts):len(opts)], resolver.WithAttemptHook(onAttempt))
	}

	result, err := resolver.New(g.factory, opts...).ResolveAndGenerate(ctx, req, g.candidates)
	if err != nil {
		return nil, err
	}

	if g.store != nil {
		rec := history.NewRecord(p.Normalize(), result)
		if err := g.store.Save(rec); err != nil {
			g.logger.Warn("failed to save history", zap.Error(err))
		} else {
			g.logger.Debug("saved history record", zap.String("id", rec.ID))
		}
	}

	return result, nil
}
