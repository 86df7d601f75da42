package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/compliancegen/internal/models"
)

func newCandidatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "candidates",
		Short: "Show the candidate endpoints in resolution order",
		Long: `Show the candidate model endpoints in the order they are tried,
after applying --candidate, --backend and --no-retrieval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCandidates()
		},
	}
}

func (a *app) runCandidates() error {
	if a.cfgErr != nil {
		return a.cfgErr
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	fmt.Fprintf(a.deps.Stdout, "Backend: %s\n", a.cfg.Backend)
	if t := a.cfg.RequestTimeout(); t > 0 {
		fmt.Fprintf(a.deps.Stdout, "Timeout: %s per attempt\n", t)
	}
	fmt.Fprintln(a.deps.Stdout)

	w := tabwriter.NewWriter(a.deps.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PRIORITY\tMODEL\tCAPABILITIES\tATTEMPTS")
	_, _ = fmt.Fprintln(w, "--------\t-----\t------------\t--------")

	for _, c := range a.cfg.Candidates() {
		caps := make([]string, 0, len(c.Capabilities()))
		for _, cp := range c.Capabilities() {
			caps = append(caps, string(cp))
		}
		capList := strings.Join(caps, ",")
		if capList == "" {
			capList = "-"
		}

		attempts := "plain"
		if a.cfg.EnableRetrieval && c.Has(models.CapabilityRetrieval) {
			attempts = "retrieval, plain"
		}

		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.Priority+1, c.Identifier, capList, attempts)
	}

	return w.Flush()
}
