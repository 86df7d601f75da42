package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/diogo/compliancegen/internal/prompt"
	"github.com/diogo/compliancegen/internal/render"
	"github.com/diogo/compliancegen/internal/resolver"
)

type batchOptions struct {
	outDir   string
	failFast bool
}

// batchFile is the mapping form of a batch file
type batchFile struct {
	Products []prompt.Product `yaml:"products"`
}

func newBatchCmd(a *app) *cobra.Command {
	var opts batchOptions

	cmd := &cobra.Command{
		Use:   "batch <file.yaml>",
		Short: "Generate documents for every product in a YAML file",
		Long: `Generate one document per product listed in a YAML file.

The file is either a list of products or a mapping with a 'products' key:

  products:
    - name: Tritan water bottle
      hs_code: "392410"
      material: Tritan, PP
      target: child
    - name: USB desk lamp
      hs_code: "940520"
      power: mains

Each document is written to <out-dir>/<slug>.md. Products are processed in
order; a failed product is reported and the batch moves on.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "out-dir", "d", ".", "Directory for the generated documents")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "Stop at the first failed product")

	return cmd
}

// loadBatch reads products from a YAML file
func loadBatch(path string) ([]prompt.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("batch file %s is empty", path)
	}

	var products []prompt.Product
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		err = root.Decode(&products)
	case yaml.MappingNode:
		var bf batchFile
		err = root.Decode(&bf)
		products = bf.Products
	default:
		return nil, fmt.Errorf("batch file must hold a list of products")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("batch file %s lists no products", path)
	}
	return products, nil
}

// uniquePath returns dir/slug.md, adding a counter when the name is taken
// by this run or by a file already in dir
func uniquePath(dir, slug string, used map[string]bool) string {
	taken := func(name string) bool {
		if used[name] {
			return true
		}
		_, err := os.Lstat(filepath.Join(dir, name))
		return err == nil
	}
	name := slug + ".md"
	for i := 2; taken(name); i++ {
		name = fmt.Sprintf("%s-%d.md", slug, i)
	}
	used[name] = true
	return filepath.Join(dir, name)
}

func (a *app) runBatch(cmd *cobra.Command, path string, opts batchOptions) error {
	products, err := loadBatch(path)
	if err != nil {
		return err
	}

	// Reject the whole file before sending anything
	for i, p := range products {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("product %d: %w", i+1, err)
		}
	}

	gen, err := a.newGenerator()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tty := a.deps.IsTTY()
	used := make(map[string]bool)
	failed := 0

	for i, p := range products {
		p = p.Normalize()
		label := fmt.Sprintf("[%d/%d] %s", i+1, len(products), p.Name)

		var line *progress
		var onAttempt resolver.AttemptFunc
		if tty {
			line = newProgress(a.deps.Stderr, label)
			onAttempt = line.attempt
			line.start()
		}

		result, err := gen.generate(cmd.Context(), p, onAttempt)
		if err != nil {
			if line != nil {
				line.stop()
			}
			failed++
			a.logger.Warn("batch product failed", zap.String("product", p.Name), zap.Error(err))
			fmt.Fprintf(a.deps.Stderr, "%s %s\n", warnStyle.Render("✗ "+label), dimStyle.Render(err.Error()))
			if opts.failFast || cmd.Context().Err() != nil {
				break
			}
			continue
		}

		out := uniquePath(opts.outDir, p.Slug(), used)
		if err := writeFile(out, result.Text+render.Sources(result.GroundingSources)); err != nil {
			if line != nil {
				line.stop()
			}
			return err
		}

		msg := fmt.Sprintf("%s → %s (%s)", label, out, resultSummary(result))
		if line != nil {
			line.succeed(msg)
		} else {
			fmt.Fprintln(a.deps.Stderr, "✓ "+msg)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d products failed", failed, len(products))
	}
	return nil
}
