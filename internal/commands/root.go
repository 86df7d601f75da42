// Package commands provides CLI commands for compliancegen.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/compliancegen/internal/config"
	"github.com/diogo/compliancegen/internal/models"
	"github.com/diogo/compliancegen/internal/render"
	"github.com/diogo/compliancegen/internal/tui"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	verbose     bool
	backend     string
	candidates  []string
	noRetrieval bool
	timeout     int
}

// app carries the state resolved in PersistentPreRunE
type app struct {
	deps   *Dependencies
	flags  globalFlags
	cfg    config.Config
	cfgErr error
	logger *zap.Logger
}

// rootCmd represents the base command
var rootCmd = NewRootCmd(NewDependencies())

// NewRootCmd builds the command tree around d
func NewRootCmd(d *Dependencies) *cobra.Command {
	a := &app{deps: d, logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:   "compliancegen",
		Short: "Generate EU compliance documents for export products",
		Long: `compliancegen prepares the delivery documentation an exporter needs to
place a product on the EU market: testing requirements, CE/GPSR labelling,
and user instructions in Italian.

Requests go to a list of candidate model endpoints tried in order; the first
one that answers wins.

Examples:
  compliancegen                          Start the interactive form
  compliancegen generate --name "Tritan water bottle" --hs 392410
  compliancegen batch products.yaml --out-dir docs/
  compliancegen candidates               Show the resolution order
  compliancegen history list`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(!cmd.HasParent())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(d.Stdout, "compliancegen %s (built %s)\n", Version, BuildTime)
				return nil
			}
			return a.runInteractive()
		},
	}
	cmd.SetOut(d.Stdout)
	cmd.SetErr(d.Stderr)

	pf := cmd.PersistentFlags()
	pf.BoolVar(&a.flags.verbose, "verbose", false, "Write debug logs (mirrored to stderr outside the TUI)")
	pf.StringVar(&a.flags.backend, "backend", "", "Client backend: sdk or rest")
	pf.StringArrayVarP(&a.flags.candidates, "candidate", "m", nil,
		"Candidate model, repeatable, tried in order (append +retrieval to allow search grounding)")
	pf.BoolVar(&a.flags.noRetrieval, "no-retrieval", false, "Never request search grounding")
	pf.IntVar(&a.flags.timeout, "timeout", -1, "Per-attempt timeout in seconds (0 disables)")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(newGenerateCmd(a))
	cmd.AddCommand(newBatchCmd(a))
	cmd.AddCommand(newCandidatesCmd(a))
	cmd.AddCommand(newHistoryCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	return cmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, tui.FormatError(err))
		os.Exit(1)
	}
}

// setup loads the configuration, applies flag overrides and builds the logger.
// A broken config file is kept as cfgErr so that 'config' subcommands can repair it.
func (a *app) setup(interactive bool) error {
	cfg, err := a.deps.LoadConfig()
	if err != nil {
		a.cfgErr = err
		cfg = config.DefaultConfig()
	}
	a.cfg = a.applyFlags(cfg)

	logger, err := a.deps.NewLogger(a.cfg.Verbose, interactive)
	if err != nil {
		return err
	}
	a.logger = logger
	if a.cfgErr != nil {
		a.logger.Warn("config could not be loaded, using defaults", zap.Error(a.cfgErr))
	}
	return nil
}

func (a *app) applyFlags(cfg config.Config) config.Config {
	if a.flags.verbose {
		cfg.Verbose = true
	}
	if a.flags.backend != "" {
		cfg.Backend = strings.ToLower(a.flags.backend)
	}
	if len(a.flags.candidates) > 0 {
		cfg.CandidateList = parseCandidateFlags(a.flags.candidates)
	}
	if a.flags.noRetrieval {
		cfg.EnableRetrieval = false
	}
	if a.flags.timeout >= 0 {
		cfg.TimeoutSeconds = a.flags.timeout
	}
	return cfg
}

// parseCandidateFlags turns "id+cap+cap" values into candidate entries
func parseCandidateFlags(values []string) []config.CandidateConfig {
	out := make([]config.CandidateConfig, 0, len(values))
	for _, v := range values {
		parts := strings.Split(strings.TrimSpace(v), "+")
		cc := config.CandidateConfig{ID: strings.TrimSpace(parts[0])}
		for _, c := range parts[1:] {
			if c = strings.TrimSpace(c); c != "" {
				cc.Capabilities = append(cc.Capabilities, c)
			}
		}
		out = append(out, cc)
	}
	return out
}

func (a *app) runInteractive() error {
	gen, err := a.newGenerator()
	if err != nil {
		return err
	}

	return a.deps.RunTUI(tui.Options{
		Generate:  gen.Generate,
		Render:    render.FromConfig(a.cfg.Markdown, 0),
		Clipboard: a.deps.Clipboard,
		AutoCopy:  a.cfg.CopyToClipboard,
		Subtitle:  candidateSubtitle(gen.candidates),
	})
}

func candidateSubtitle(candidates []models.CandidateEndpoint) string {
	switch len(candidates) {
	case 0:
		return ""
	case 1:
		return models.ModelName(candidates[0].Identifier)
	}
	return fmt.Sprintf("%s +%d fallback", models.ModelName(candidates[0].Identifier), len(candidates)-1)
}
