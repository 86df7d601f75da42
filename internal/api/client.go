// Package api provides clients for the hosted text-generation service.
package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diogo/compliancegen/internal/config"
	apierrors "github.com/diogo/compliancegen/internal/errors"
	"github.com/diogo/compliancegen/internal/models"
)

// ClientOptions selects optional features for a client binding
type ClientOptions struct {
	// Retrieval enables search grounding for every request of the client
	Retrieval bool
}

// ModelClient is a client bound to one model identifier
type ModelClient interface {
	Generate(ctx context.Context, req models.GenerationRequest) (*models.ModelOutput, error)
	Model() string
	Retrieval() bool
	Close() error
}

// ClientFactory constructs clients bound to a model identifier.
// Construction failures are reported separately from submission failures.
type ClientFactory interface {
	NewClient(ctx context.Context, identifier string, opts ClientOptions) (ModelClient, error)
}

// FactoryOptions configures NewFactory
type FactoryOptions struct {
	Backend string
	APIKey  string
	BaseURL string
	// Timeout is the transport timeout. Zero keeps the backend default.
	Timeout time.Duration
}

// FactoryOptionsFromConfig builds factory options from the loaded configuration
func FactoryOptionsFromConfig(cfg config.Config, apiKey string) FactoryOptions {
	return FactoryOptions{
		Backend: cfg.Backend,
		APIKey:  apiKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.RequestTimeout(),
	}
}

// NewFactory returns the factory for the configured backend
func NewFactory(opts FactoryOptions) (ClientFactory, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, apierrors.ErrMissingAPIKey
	}

	switch opts.Backend {
	case config.BackendSDK, "":
		return NewSDKFactory(opts.APIKey, opts.BaseURL), nil
	case config.BackendREST:
		return NewRESTFactory(opts.APIKey, opts.BaseURL, opts.Timeout)
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}
}

// validateIdentifier rejects identifiers that cannot address a model
func validateIdentifier(identifier string) error {
	name := models.ModelName(identifier)
	if name == "" {
		return fmt.Errorf("empty model identifier")
	}
	if strings.ContainsAny(name, " /?#") {
		return fmt.Errorf("invalid model identifier %q", identifier)
	}
	return nil
}

// generateEndpoint returns the generateContent URL for a model
func generateEndpoint(baseURL, identifier string) string {
	if baseURL == "" {
		baseURL = models.EndpointBase
	}
	return fmt.Sprintf("%s/%s/models/%s:%s",
		strings.TrimRight(baseURL, "/"), models.APIVersion, models.ModelName(identifier), models.GenerateMethod)
}
