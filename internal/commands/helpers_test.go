package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/diogo/compliancegen/internal/api"
	"github.com/diogo/compliancegen/internal/config"
	apierrors "github.com/diogo/compliancegen/internal/errors"
	"github.com/diogo/compliancegen/internal/history"
	"github.com/diogo/compliancegen/internal/models"
	"github.com/diogo/compliancegen/internal/tui"
)

// testEnv runs commands against an isolated home directory and a scripted factory
type testEnv struct {
	t       *testing.T
	home    string
	deps    *Dependencies
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	factory *api.MockFactory
	store   *history.Store

	factoryOpts  *api.FactoryOptions
	tuiOpts      *tui.Options
	clipboard    string
	keyRequested bool
	tty          bool
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv(config.HomeEnv, home)
	t.Setenv(config.APIKeyEnv, "")

	store, err := history.NewStore(home)
	if err != nil {
		t.Fatalf("NewStore() returned error: %v", err)
	}

	e := &testEnv{
		t:       t,
		home:    home,
		factory: api.NewMockFactory(nil),
		store:   store,
	}

	e.deps = &Dependencies{
		LoadConfig: config.LoadConfig,
		LoadAPIKey: func() (string, error) {
			e.keyRequested = true
			return "test-key-1234", nil
		},
		NewFactory: func(opts api.FactoryOptions) (api.ClientFactory, error) {
			e.factoryOpts = &opts
			return e.factory, nil
		},
		OpenHistory: func() (*history.Store, error) { return e.store, nil },
		NewLogger:   func(bool, bool) (*zap.Logger, error) { return zap.NewNop(), nil },
		RunTUI: func(o tui.Options) error {
			e.tuiOpts = &o
			return nil
		},
		Clipboard: func(s string) error {
			e.clipboard = s
			return nil
		},
		IsTTY:      func() bool { return e.tty },
		TermWidth:  func() int { return 100 },
		ReadSecret: func() (string, error) { return "tty-secret-9876", nil },
		Stdin:      strings.NewReader(""),
		Stdout:     &e.stdout,
		Stderr:     &e.stderr,
	}

	return e
}

func (e *testEnv) run(args ...string) error {
	e.t.Helper()
	cmd := NewRootCmd(e.deps)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	return cmd.Execute()
}

func (e *testEnv) withoutKey() {
	e.deps.LoadAPIKey = func() (string, error) {
		e.keyRequested = true
		return "", apierrors.ErrMissingAPIKey
	}
}

func (e *testEnv) records() []*history.Record {
	e.t.Helper()
	recs, err := e.store.List()
	if err != nil {
		e.t.Fatalf("List() returned error: %v", err)
	}
	return recs
}

// payloadFailFactory fails every submission whose payload contains marker
type payloadFailFactory struct {
	marker string
}

func (f *payloadFailFactory) NewClient(ctx context.Context, identifier string, opts api.ClientOptions) (api.ModelClient, error) {
	return &payloadFailClient{marker: f.marker, model: identifier, retrieval: opts.Retrieval}, nil
}

type payloadFailClient struct {
	marker    string
	model     string
	retrieval bool
}

func (c *payloadFailClient) Generate(ctx context.Context, req models.GenerationRequest) (*models.ModelOutput, error) {
	if strings.Contains(req.Payload, c.marker) {
		return nil, apierrors.NewNotFoundError(c.model, "not found")
	}
	return &models.ModelOutput{Text: "doc:" + c.model}, nil
}

func (c *payloadFailClient) Model() string   { return c.model }
func (c *payloadFailClient) Retrieval() bool { return c.retrieval }
func (c *payloadFailClient) Close() error    { return nil }
