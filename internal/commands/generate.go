package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/diogo/compliancegen/internal/models"
	"github.com/diogo/compliancegen/internal/prompt"
	"github.com/diogo/compliancegen/internal/render"
	"github.com/diogo/compliancegen/internal/resolver"
)

// productFlags collects a product from the command line
type productFlags struct {
	name     string
	hsCode   string
	material string
	power    string
	target   string
}

func (f *productFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Product name (required)")
	cmd.Flags().StringVar(&f.hsCode, "hs", "", "HS code (required)")
	cmd.Flags().StringVar(&f.material, "material", "", "Main materials")
	cmd.Flags().StringVar(&f.power, "power", string(prompt.PowerNone), "Power supply: none, battery, mains")
	cmd.Flags().StringVar(&f.target, "target", string(prompt.TargetAdult), "Intended users: adult, child, infant")
}

func (f *productFlags) product() prompt.Product {
	return prompt.Product{
		Name:     f.name,
		HSCode:   f.hsCode,
		Material: f.material,
		Power:    prompt.Power(f.power),
		Target:   prompt.Target(f.target),
	}
}

type generateOptions struct {
	product productFlags
	output  string
	raw     bool
	copy    bool
	dryRun  bool
}

func newGenerateCmd(a *app) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the compliance document for one product",
		Long: `Generate the EU delivery documentation for a single product.

The document is printed rendered when stdout is a terminal and as raw
markdown otherwise.

Look up an HS code at ` + prompt.HSLookupURL + `

Examples:
  compliancegen generate --name "Tritan water bottle" --hs 392410 --material "Tritan, PP" --target child
  compliancegen generate -n "USB desk lamp" --hs 940520 --power mains -o lamp.md
  compliancegen generate -n "Cotton apron" --hs 621120 --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, opts)
		},
	}

	opts.product.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Save the document to file")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print raw markdown without decoration")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "Copy the document to the clipboard")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the prompt without sending it")

	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, opts generateOptions) error {
	p := opts.product.product()
	if err := p.Validate(); err != nil {
		return err
	}

	if opts.dryRun {
		text, err := prompt.Build(p)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(a.deps.Stdout, text)
		return err
	}

	gen, err := a.newGenerator()
	if err != nil {
		return err
	}

	raw := opts.raw || !a.deps.IsTTY()

	var line *progress
	var onAttempt resolver.AttemptFunc
	if !raw {
		line = newProgress(a.deps.Stderr, "Preparing delivery documents")
		onAttempt = line.attempt
		line.start()
	}

	result, err := gen.generate(cmd.Context(), p, onAttempt)
	if err != nil {
		if line != nil {
			line.stop()
		}
		return err
	}
	if line != nil {
		line.succeed(resultSummary(result))
	}

	return a.writeResult(result, opts.output, opts.copy || a.cfg.CopyToClipboard, raw)
}

// resultSummary describes which candidate answered
func resultSummary(r *models.GenerationResult) string {
	msg := fmt.Sprintf("Answered by %s", models.ModelName(r.Model))
	if r.Retrieval {
		msg += " with search grounding"
	}
	if n := len(r.Attempts); n > 0 {
		msg += fmt.Sprintf(" after %d failed attempt(s)", n)
	}
	return msg
}

func (a *app) writeResult(r *models.GenerationResult, output string, copyText, raw bool) error {
	text := r.Text
	doc := text + render.Sources(r.GroundingSources)

	if !raw {
		fmt.Fprintln(a.deps.Stderr)
	}

	if copyText {
		if err := a.deps.Clipboard(text); err != nil {
			fmt.Fprintln(a.deps.Stderr, warnStyle.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else if !raw {
			fmt.Fprintln(a.deps.Stderr, successStyle.Render("✓ Copied to clipboard"))
		}
	}

	if raw {
		if output != "" {
			return writeFile(output, doc)
		}
		_, err := fmt.Fprint(a.deps.Stdout, doc)
		return err
	}

	if output != "" {
		if err := writeFile(output, doc); err != nil {
			return err
		}
		fmt.Fprintln(a.deps.Stderr, successStyle.Render(fmt.Sprintf("✓ Document saved to %s", output)))
		return nil
	}

	width := a.deps.TermWidth() - 4
	if width < 40 {
		width = 40
	}
	if width > 120 {
		width = 120
	}

	fmt.Fprintln(a.deps.Stdout, labelStyle.Render("✦ "+models.ModelName(r.Model)))
	fmt.Fprintln(a.deps.Stdout, render.Document(doc, render.FromConfig(a.cfg.Markdown, width)))
	if a.cfg.Verbose {
		fmt.Fprintln(a.deps.Stderr, dimStyle.Render(fmt.Sprintf("[verbose] Resolution took %s", r.Duration.Round(time.Millisecond))))
	}
	return nil
}

func writeFile(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
