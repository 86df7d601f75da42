package api

import (
	"context"
	"sync"

	"github.com/diogo/compliancegen/internal/models"
)

// MockBehavior scripts how one identifier responds
type MockBehavior struct {
	ConstructErr error
	GenerateErr  error
	Text         string

	// Retrieval variants; used when the client is built with Retrieval
	RetrievalConstructErr error
	RetrievalGenerateErr  error
	RetrievalText         string
	GroundingSources      []string
}

// MockCall records one factory or client call
type MockCall struct {
	Identifier string
	Retrieval  bool
	Stage      string // models.StageConstruct or models.StageSubmit
}

// MockFactory is a scripted ClientFactory for testing.
// Identifiers without a behavior succeed with "ok:<identifier>".
type MockFactory struct {
	Behaviors map[string]MockBehavior

	mu    sync.Mutex
	calls []MockCall
	// LastRequest is the last request submitted to any client
	LastRequest models.GenerationRequest
}

// Ensure MockFactory implements ClientFactory
var _ ClientFactory = (*MockFactory)(nil)

// NewMockFactory creates a MockFactory with the given behaviors
func NewMockFactory(behaviors map[string]MockBehavior) *MockFactory {
	if behaviors == nil {
		behaviors = map[string]MockBehavior{}
	}
	return &MockFactory{Behaviors: behaviors}
}

// Calls returns a copy of the recorded calls
func (m *MockFactory) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Submitted returns the identifiers that received a submission, in order
func (m *MockFactory) Submitted() []string {
	var out []string
	for _, c := range m.Calls() {
		if c.Stage == models.StageSubmit {
			out = append(out, c.Identifier)
		}
	}
	return out
}

func (m *MockFactory) record(c MockCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

// NewClient implements ClientFactory
func (m *MockFactory) NewClient(ctx context.Context, identifier string, opts ClientOptions) (ModelClient, error) {
	m.record(MockCall{Identifier: identifier, Retrieval: opts.Retrieval, Stage: models.StageConstruct})

	b := m.Behaviors[identifier]
	if opts.Retrieval && b.RetrievalConstructErr != nil {
		return nil, b.RetrievalConstructErr
	}
	if b.ConstructErr != nil {
		return nil, b.ConstructErr
	}
	return &MockClient{factory: m, model: identifier, retrieval: opts.Retrieval, behavior: b}, nil
}

// MockClient is returned by MockFactory
type MockClient struct {
	factory   *MockFactory
	model     string
	retrieval bool
	behavior  MockBehavior
	Closed    bool
}

// Model implements ModelClient
func (c *MockClient) Model() string { return c.model }

// Retrieval implements ModelClient
func (c *MockClient) Retrieval() bool { return c.retrieval }

// Close implements ModelClient
func (c *MockClient) Close() error {
	c.Closed = true
	return nil
}

// Generate implements ModelClient
func (c *MockClient) Generate(ctx context.Context, req models.GenerationRequest) (*models.ModelOutput, error) {
	c.factory.record(MockCall{Identifier: c.model, Retrieval: c.retrieval, Stage: models.StageSubmit})
	c.factory.mu.Lock()
	c.factory.LastRequest = req
	c.factory.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := c.behavior
	if c.retrieval {
		if b.RetrievalGenerateErr != nil {
			return nil, b.RetrievalGenerateErr
		}
		if b.RetrievalText != "" {
			return &models.ModelOutput{Text: b.RetrievalText, GroundingSources: b.GroundingSources}, nil
		}
	}
	if b.GenerateErr != nil {
		return nil, b.GenerateErr
	}
	text := b.Text
	if text == "" {
		text = "ok:" + c.model
	}
	return &models.ModelOutput{Text: text}, nil
}
