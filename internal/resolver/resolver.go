// Package resolver tries candidate model endpoints in priority order until one
// produces a response.
package resolver

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/diogo/compliancegen/internal/api"
	apierrors "github.com/diogo/compliancegen/internal/errors"
	"github.com/diogo/compliancegen/internal/models"
)

// Resolver tries candidate endpoints sequentially.
// It keeps no state between calls; every call starts from the first candidate.
type Resolver struct {
	factory   api.ClientFactory
	logger    *zap.Logger
	timeout   time.Duration
	retrieval bool
	onAttempt AttemptFunc
}

// AttemptFunc is told about each variant before it is tried.
// n is 1-based; total counts variants across all candidates.
type AttemptFunc func(cand models.CandidateEndpoint, retrieval bool, n, total int)

// Option configures a Resolver
type Option func(*Resolver)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTimeout bounds each attempt. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// WithRetrieval enables or disables capability negotiation for retrieval
func WithRetrieval(enabled bool) Option {
	return func(r *Resolver) {
		r.retrieval = enabled
	}
}

// WithAttemptHook registers fn to run before every attempt
func WithAttemptHook(fn AttemptFunc) Option {
	return func(r *Resolver) {
		r.onAttempt = fn
	}
}

// New creates a Resolver using factory to bind clients
func New(factory api.ClientFactory, opts ...Option) *Resolver {
	r := &Resolver{
		factory:   factory,
		logger:    zap.NewNop(),
		retrieval: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveAndGenerate submits req to each candidate in order and returns the first
// success. Failures of any kind move on to the next candidate. If every candidate
// fails the result is an *ExhaustedError holding all attempts.
func (r *Resolver) ResolveAndGenerate(ctx context.Context, req models.GenerationRequest, candidates []models.CandidateEndpoint) (*models.GenerationResult, error) {
	if len(candidates) == 0 {
		return nil, apierrors.ErrNoCandidates
	}

	start := time.Now()
	var attempts []models.Attempt

	plan := make([][]bool, len(candidates))
	total := 0
	for i, cand := range candidates {
		plan[i] = r.variants(cand)
		total += len(plan[i])
	}

	n := 0
	for i, cand := range candidates {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, models.Attempt{
				Stage: models.StageCanceled,
				Err:   err,
			})
			break
		}

		for _, retrieval := range plan[i] {
			n++
			if r.onAttempt != nil {
				r.onAttempt(cand, retrieval, n, total)
			}
			out, failed := r.attempt(ctx, cand, req, retrieval)
			if failed == nil {
				result := &models.GenerationResult{
					Text:             out.Text,
					Model:            cand.Identifier,
					Retrieval:        retrieval,
					GroundingSources: out.GroundingSources,
					Attempts:         attempts,
					Duration:         time.Since(start),
				}
				r.logger.Info("generation succeeded",
					zap.String("model", cand.Identifier),
					zap.Bool("retrieval", retrieval),
					zap.Int("failed_attempts", len(attempts)),
					zap.Duration("duration", result.Duration))
				return result, nil
			}
			attempts = append(attempts, *failed)
		}
	}

	exhausted := &ExhaustedError{Attempts: attempts}
	r.logger.Error("all candidate endpoints failed",
		zap.Int("attempts", len(attempts)),
		zap.Strings("models", exhausted.Identifiers()),
		zap.Error(exhausted.Unwrap()))
	return nil, exhausted
}

// variants lists the retrieval settings to try for cand, in order
func (r *Resolver) variants(cand models.CandidateEndpoint) []bool {
	if r.retrieval && cand.Has(models.CapabilityRetrieval) {
		// Retrieval first, then plain against the same identifier
		return []bool{true, false}
	}
	return []bool{false}
}

// attempt constructs a client for one candidate variant and submits req.
// It returns the recorded failure, or nil on success.
func (r *Resolver) attempt(ctx context.Context, cand models.CandidateEndpoint, req models.GenerationRequest, retrieval bool) (*models.ModelOutput, *models.Attempt) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	log := r.logger.With(
		zap.String("model", cand.Identifier),
		zap.Int("priority", cand.Priority),
		zap.Bool("retrieval", retrieval))
	log.Debug("attempting candidate")

	started := time.Now()
	fail := func(stage string, err error) *models.Attempt {
		a := &models.Attempt{
			Identifier: cand.Identifier,
			Retrieval:  retrieval,
			Stage:      stage,
			Err:        err,
			Duration:   time.Since(started),
		}
		log.Warn("candidate failed",
			zap.String("stage", stage),
			zap.Duration("duration", a.Duration),
			zap.Error(err))
		return a
	}

	client, err := r.factory.NewClient(ctx, cand.Identifier, api.ClientOptions{Retrieval: retrieval})
	if err != nil {
		return nil, fail(models.StageConstruct, err)
	}
	defer func() {
		_ = client.Close()
	}()

	out, err := client.Generate(ctx, req)
	if err != nil {
		return nil, fail(models.StageSubmit, err)
	}
	if out == nil {
		return nil, fail(models.StageSubmit, apierrors.ErrNoContent)
	}

	return out, nil
}
