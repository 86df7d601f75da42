package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/compliancegen/internal/history"
	"github.com/diogo/compliancegen/internal/models"
	"github.com/diogo/compliancegen/internal/render"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage generated documents",
		Long: `View and manage the documents saved after each successful generation.

` + history.ListAliases(),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all saved documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistoryList()
		},
	})

	var showRaw bool
	show := &cobra.Command{
		Use:   "show <ref>",
		Short: "Show a saved document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistoryShow(args[0], showRaw)
		},
	}
	show.Flags().BoolVar(&showRaw, "raw", false, "Print raw markdown without decoration")
	cmd.AddCommand(show)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <ref>",
		Short: "Delete a saved document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistoryDelete(args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all saved documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistoryClear()
		},
	})

	var exportOpts struct {
		format   string
		output   string
		attempts bool
	}
	export := &cobra.Command{
		Use:   "export <ref>",
		Short: "Export a saved document as markdown or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistoryExport(args[0], exportOpts.format, exportOpts.output, exportOpts.attempts)
		},
	}
	export.Flags().StringVarP(&exportOpts.format, "format", "f", "markdown", "Export format: markdown or json")
	export.Flags().StringVarP(&exportOpts.output, "output", "o", "", "Write to file instead of stdout")
	export.Flags().BoolVar(&exportOpts.attempts, "attempts", false, "Include candidates that failed before the answer")
	cmd.AddCommand(export)

	var searchContent bool
	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search saved documents by product name or HS code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistorySearch(args[0], searchContent)
		},
	}
	search.Flags().BoolVarP(&searchContent, "content", "c", false, "Also search document text")
	cmd.AddCommand(search)

	return cmd
}

func (a *app) openHistory() (*history.Store, error) {
	store, err := a.deps.OpenHistory()
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}

func (a *app) runHistoryList() error {
	store, err := a.openHistory()
	if err != nil {
		return err
	}

	records, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	return a.printRecords(records, "No documents found.")
}

func (a *app) printRecords(records []*history.Record, empty string) error {
	if len(records) == 0 {
		fmt.Fprintln(a.deps.Stdout, empty)
		return nil
	}

	w := tabwriter.NewWriter(a.deps.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tID\tPRODUCT\tHS\tMODEL\tCREATED")
	_, _ = fmt.Fprintln(w, "-\t--\t-------\t--\t-----\t-------")

	for i, rec := range records {
		name := rec.Product.Name
		if len([]rune(name)) > 40 {
			name = string([]rune(name)[:40]) + "..."
		}
		model := models.ModelName(rec.Model)
		if rec.Retrieval {
			model += "+retrieval"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1, rec.ID, name, rec.Product.HSCode, model, history.FormatRelativeTime(rec.CreatedAt))
	}

	return w.Flush()
}

func (a *app) runHistoryShow(ref string, raw bool) error {
	store, err := a.openHistory()
	if err != nil {
		return err
	}

	rec, err := history.NewRefResolver(store).ResolveRecord(ref)
	if err != nil {
		return err
	}

	doc := history.RecordMarkdown(rec, history.DefaultExportOptions())
	if raw || !a.deps.IsTTY() {
		_, err = fmt.Fprint(a.deps.Stdout, doc)
		return err
	}

	width := a.deps.TermWidth() - 4
	if width < 40 {
		width = 40
	}
	fmt.Fprintln(a.deps.Stdout, render.Document(doc, render.FromConfig(a.cfg.Markdown, width)))
	return nil
}

func (a *app) runHistoryDelete(ref string) error {
	store, err := a.openHistory()
	if err != nil {
		return err
	}

	id, err := history.NewRefResolver(store).Resolve(ref)
	if err != nil {
		return err
	}
	if err := store.Delete(id); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	fmt.Fprintf(a.deps.Stdout, "Deleted %s\n", id)
	return nil
}

func (a *app) runHistoryClear() error {
	store, err := a.openHistory()
	if err != nil {
		return err
	}

	if err := store.ClearAll(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	fmt.Fprintln(a.deps.Stdout, "History cleared.")
	return nil
}

func (a *app) runHistoryExport(ref, format, output string, attempts bool) error {
	f, err := history.ParseExportFormat(format)
	if err != nil {
		return err
	}

	store, err := a.openHistory()
	if err != nil {
		return err
	}

	id, err := history.NewRefResolver(store).Resolve(ref)
	if err != nil {
		return err
	}

	opts := history.DefaultExportOptions()
	opts.Format = f
	opts.IncludeAttempts = attempts

	data, err := store.Export(id, opts)
	if err != nil {
		return err
	}

	if output != "" {
		if err := writeFile(output, string(data)); err != nil {
			return err
		}
		fmt.Fprintf(a.deps.Stderr, "Exported %s to %s\n", id, output)
		return nil
	}

	_, err = a.deps.Stdout.Write(data)
	return err
}

func (a *app) runHistorySearch(query string, content bool) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("search query cannot be empty")
	}

	store, err := a.openHistory()
	if err != nil {
		return err
	}

	records, err := store.Search(query, content)
	if err != nil {
		return err
	}

	return a.printRecords(records, fmt.Sprintf("No documents match %q.", query))
}
