package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/compliancegen/internal/errors"
	"github.com/diogo/compliancegen/internal/models"
)

const (
	defaultRESTTimeout = 300 * time.Second
	maxErrorBody       = 4096
)

// RESTFactory builds clients that call generateContent directly
type RESTFactory struct {
	apiKey     string
	baseURL    string
	httpClient tls_client.HttpClient
}

// RESTOption configures a RESTFactory
type RESTOption func(*RESTFactory)

// WithHTTPClient replaces the tls-client transport
func WithHTTPClient(c tls_client.HttpClient) RESTOption {
	return func(f *RESTFactory) {
		f.httpClient = c
	}
}

// NewRESTFactory creates a factory for the REST backend
func NewRESTFactory(apiKey, baseURL string, timeout time.Duration, opts ...RESTOption) (*RESTFactory, error) {
	f := &RESTFactory{
		apiKey:  apiKey,
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.httpClient == nil {
		if timeout <= 0 {
			timeout = defaultRESTTimeout
		}
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(timeout / time.Second)),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}
		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		f.httpClient = httpClient
	}

	return f, nil
}

// NewClient binds a REST client to the identifier
func (f *RESTFactory) NewClient(ctx context.Context, identifier string, opts ClientOptions) (ModelClient, error) {
	if err := validateIdentifier(identifier); err != nil {
		return nil, &apierrors.ConstructError{Model: identifier, Cause: err}
	}
	if strings.TrimSpace(f.apiKey) == "" {
		return nil, &apierrors.ConstructError{Model: identifier, Cause: apierrors.ErrMissingAPIKey}
	}

	return &RESTClient{
		httpClient: f.httpClient,
		apiKey:     f.apiKey,
		model:      identifier,
		retrieval:  opts.Retrieval,
		endpoint:   generateEndpoint(f.baseURL, identifier),
	}, nil
}

// RESTClient is a REST client bound to one model
type RESTClient struct {
	httpClient tls_client.HttpClient
	apiKey     string
	model      string
	retrieval  bool
	endpoint   string
}

// Model returns the bound identifier
func (c *RESTClient) Model() string { return c.model }

// Retrieval reports whether search grounding is enabled
func (c *RESTClient) Retrieval() bool { return c.retrieval }

// Close is a no-op. The transport belongs to the factory and is shared by
// every client it binds, so closing it here would cut a concurrent request.
func (c *RESTClient) Close() error {
	return nil
}

// Generate posts the request to generateContent
func (c *RESTClient) Generate(ctx context.Context, req models.GenerationRequest) (*models.ModelOutput, error) {
	if strings.TrimSpace(req.Payload) == "" {
		return nil, errors.New("prompt cannot be empty")
	}

	payload, err := buildPayload(req, c.retrieval)
	if err != nil {
		return nil, fmt.Errorf("failed to build payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range models.DefaultHeaders() {
		httpReq.Header.Set(key, value)
	}
	httpReq.Header.Set(models.APIKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &apierrors.TimeoutError{Message: err.Error(), Endpoint: c.endpoint}
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, apierrors.NewNetworkErrorWithEndpoint("generate content", c.endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, parseErrorBody(resp.StatusCode, c.endpoint, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierrors.NewNetworkErrorWithEndpoint("read response", c.endpoint, err)
	}

	return parseResponse(body)
}

type restPart struct {
	Text string `json:"text"`
}

type restContent struct {
	Role  string     `json:"role"`
	Parts []restPart `json:"parts"`
}

type restSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type restRequest struct {
	Contents       []restContent       `json:"contents"`
	SafetySettings []restSafetySetting `json:"safetySettings,omitempty"`
	Tools          []map[string]any    `json:"tools,omitempty"`
}

// buildPayload creates the JSON body for a generateContent call
func buildPayload(req models.GenerationRequest, retrieval bool) ([]byte, error) {
	body := restRequest{
		Contents: []restContent{{
			Role:  "user",
			Parts: []restPart{{Text: req.Payload}},
		}},
	}

	for _, cat := range req.Safety.Categories() {
		body.SafetySettings = append(body.SafetySettings, restSafetySetting{
			Category:  string(cat),
			Threshold: string(req.Safety[cat]),
		})
	}

	if retrieval {
		body.Tools = []map[string]any{{"google_search": map[string]any{}}}
	}

	return json.Marshal(body)
}

// parseResponse extracts the generated text from a generateContent response
func parseResponse(body []byte) (*models.ModelOutput, error) {
	if !gjson.ValidBytes(body) {
		return nil, apierrors.NewParseError("response is not valid JSON", "")
	}

	parsed := gjson.ParseBytes(body)

	candidates := parsed.Get(PathCandidates)
	if !candidates.Exists() || len(candidates.Array()) == 0 {
		if reason := parsed.Get(PathBlockReason).String(); reason != "" {
			return nil, apierrors.NewBlockedError(reason)
		}
		return nil, apierrors.NewParseError("no candidates found", PathCandidates)
	}

	var text strings.Builder
	parsed.Get(PathCandText).ForEach(func(_, v gjson.Result) bool {
		text.WriteString(v.String())
		return true
	})

	finish := parsed.Get(PathFinishReason).String()
	if strings.TrimSpace(text.String()) == "" {
		if finish == "SAFETY" {
			return nil, apierrors.NewBlockedError(finish)
		}
		return nil, apierrors.ErrNoContent
	}

	out := &models.ModelOutput{
		Text:         text.String(),
		FinishReason: finish,
		ModelVersion: parsed.Get(PathModelVersion).String(),
	}
	parsed.Get(PathGroundingURI).ForEach(func(_, v gjson.Result) bool {
		if uri := v.String(); uri != "" {
			out.GroundingSources = append(out.GroundingSources, uri)
		}
		return true
	})

	return out, nil
}

// parseErrorBody converts an error envelope into a typed error
func parseErrorBody(statusCode int, endpoint string, body []byte) error {
	message := "generate content failed"
	status := ""
	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		if m := parsed.Get(PathErrorMessage).String(); m != "" {
			message = m
		}
		status = parsed.Get(PathErrorStatus).String()
		if code := parsed.Get(PathErrorCode).Int(); code > 0 && statusCode == 0 {
			statusCode = int(code)
		}
	}
	return apierrors.FromHTTPStatus(statusCode, status, endpoint, message, string(body))
}
