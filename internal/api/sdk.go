package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	apierrors "github.com/diogo/compliancegen/internal/errors"
	"github.com/diogo/compliancegen/internal/models"
)

// SDKFactory builds clients on top of the official genai SDK.
// The underlying genai.Client is created on first use and shared by every binding.
type SDKFactory struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	mu     sync.Mutex
	client *genai.Client
}

// SDKOption configures an SDKFactory
type SDKOption func(*SDKFactory)

// WithSDKHTTPClient sets the HTTP client used by the SDK
func WithSDKHTTPClient(c *http.Client) SDKOption {
	return func(f *SDKFactory) {
		f.httpClient = c
	}
}

// NewSDKFactory creates a factory for the genai backend
func NewSDKFactory(apiKey, baseURL string, opts ...SDKOption) *SDKFactory {
	f := &SDKFactory{
		apiKey:  apiKey,
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *SDKFactory) genaiClient(ctx context.Context) (*genai.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client != nil {
		return f.client, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     f.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: f.httpClient,
	}
	if f.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: f.baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	f.client = client
	return client, nil
}

// NewClient binds a genai client to the identifier
func (f *SDKFactory) NewClient(ctx context.Context, identifier string, opts ClientOptions) (ModelClient, error) {
	if err := validateIdentifier(identifier); err != nil {
		return nil, &apierrors.ConstructError{Model: identifier, Cause: err}
	}
	if strings.TrimSpace(f.apiKey) == "" {
		return nil, &apierrors.ConstructError{Model: identifier, Cause: apierrors.ErrMissingAPIKey}
	}

	client, err := f.genaiClient(ctx)
	if err != nil {
		return nil, &apierrors.ConstructError{Model: identifier, Cause: err}
	}

	return &SDKClient{
		client:    client,
		model:     identifier,
		retrieval: opts.Retrieval,
		endpoint:  generateEndpoint(f.baseURL, identifier),
	}, nil
}

// SDKClient is a genai client bound to one model
type SDKClient struct {
	client    *genai.Client
	model     string
	retrieval bool
	endpoint  string
}

// Model returns the bound identifier
func (c *SDKClient) Model() string { return c.model }

// Retrieval reports whether search grounding is enabled
func (c *SDKClient) Retrieval() bool { return c.retrieval }

// Close is a no-op; the shared genai client owns no per-binding resources
func (c *SDKClient) Close() error { return nil }

// Generate submits the request through the SDK
func (c *SDKClient) Generate(ctx context.Context, req models.GenerationRequest) (*models.ModelOutput, error) {
	if strings.TrimSpace(req.Payload) == "" {
		return nil, errors.New("prompt cannot be empty")
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Payload), c.buildConfig(req))
	if err != nil {
		return nil, c.mapError(ctx, err)
	}

	return sdkOutput(resp)
}

func (c *SDKClient) buildConfig(req models.GenerationRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	for _, cat := range req.Safety.Categories() {
		cfg.SafetySettings = append(cfg.SafetySettings, &genai.SafetySetting{
			Category:  genai.HarmCategory(cat),
			Threshold: genai.HarmBlockThreshold(req.Safety[cat]),
		})
	}

	if c.retrieval {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	return cfg
}

// mapError converts SDK errors into the package's typed errors
func (c *SDKClient) mapError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &apierrors.TimeoutError{Message: err.Error(), Endpoint: c.endpoint}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apierrors.FromHTTPStatus(apiErr.Code, apiErr.Status, c.endpoint, apiErr.Message, "")
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apierrors.FromHTTPStatus(apiErrPtr.Code, apiErrPtr.Status, c.endpoint, apiErrPtr.Message, "")
	}

	return apierrors.NewNetworkErrorWithEndpoint("generate content", c.endpoint, err)
}

// sdkOutput extracts text and grounding sources from an SDK response
func sdkOutput(resp *genai.GenerateContentResponse) (*models.ModelOutput, error) {
	if resp == nil {
		return nil, apierrors.NewParseError("empty response", "")
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, apierrors.NewBlockedError(string(resp.PromptFeedback.BlockReason))
		}
		return nil, apierrors.NewParseError("no candidates found", PathCandidates)
	}

	text := resp.Text()
	cand := resp.Candidates[0]
	if strings.TrimSpace(text) == "" {
		if cand.FinishReason == genai.FinishReasonSafety {
			return nil, apierrors.NewBlockedError(string(cand.FinishReason))
		}
		return nil, apierrors.ErrNoContent
	}

	out := &models.ModelOutput{
		Text:         text,
		FinishReason: string(cand.FinishReason),
		ModelVersion: resp.ModelVersion,
	}
	if gm := cand.GroundingMetadata; gm != nil {
		for _, chunk := range gm.GroundingChunks {
			if chunk != nil && chunk.Web != nil && chunk.Web.URI != "" {
				out.GroundingSources = append(out.GroundingSources, chunk.Web.URI)
			}
		}
	}

	return out, nil
}
