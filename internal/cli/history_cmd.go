// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/cliff/internal/export"
	"github.com/jeranaias/cliff/internal/storage"
)

type historyOptions struct {
	limit  int
	search string
	clear  bool
}

type historyExportOptions struct {
	format    string
	outputDir string
	limit     int
	search    string
	noMeta    bool
}

func newHistoryCmd(a *app) *cobra.Command {
	opts := &historyOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past ask, session and act interactions",
		Long: `Lists recent interactions, newest first. Only your questions and
instructions are stored, never the gathered context.`,
		Example: `  cliff history
  cliff history -n 50 --search makefile
  cliff history show 3f2a
  cliff history --clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistory(cmd, opts)
		},
	}
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().StringVar(&opts.search, "search", "", "Only show entries whose prompt or response contains this text")
	cmd.Flags().BoolVar(&opts.clear, "clear", false, "Delete all history")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one entry in full (a unique ID prefix is enough)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistoryShow(cmd, args[0])
		},
	})

	cmd.AddCommand(newHistoryExportCmd(a))

	return cmd
}

func newHistoryExportCmd(a *app) *cobra.Command {
	opts := &historyExportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export history as Markdown, JSON or YAML",
		Long: `Writes history entries, oldest first, to stdout or, with --output, to a
new file in that directory.`,
		Example: `  cliff history export > history.md
  cliff history export --format json -n 100 -o ~/notes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistoryExport(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "markdown", "Export format: markdown, json or yaml")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Directory to write the export file into")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Number of most recent entries to export (0 exports all)")
	cmd.Flags().StringVar(&opts.search, "search", "", "Only export entries whose prompt or response contains this text")
	cmd.Flags().BoolVar(&opts.noMeta, "no-metadata", false, "Leave out IDs, models and timestamps in Markdown")

	return cmd
}

func (a *app) runHistory(cmd *cobra.Command, opts *historyOptions) error {
	ctx := cmd.Context()

	store, err := a.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	if opts.clear {
		n, err := store.Clear(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted %d history entries.\n", n)
		return nil
	}

	var records []storage.Record
	if opts.search != "" {
		records, err = store.Search(ctx, opts.search, opts.limit)
	} else {
		records, err = store.Recent(ctx, opts.limit)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, strings.TrimRight(storage.FormatList(records), "\n"))
	return nil
}

func (a *app) runHistoryExport(cmd *cobra.Command, opts *historyExportOptions) error {
	ctx := cmd.Context()

	exportOpts := export.DefaultOptions()
	exportOpts.OutputDir = opts.outputDir
	exportOpts.IncludeMetadata = !opts.noMeta
	exporter, err := export.ForFormat(opts.format, exportOpts)
	if err != nil {
		return err
	}

	store, err := a.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	var records []storage.Record
	if opts.search != "" {
		records, err = store.Search(ctx, opts.search, opts.limit)
	} else {
		records, err = store.Recent(ctx, opts.limit)
	}
	if err != nil {
		return err
	}

	if opts.outputDir != "" {
		path, err := export.ExportToFile(records, exporter, exportOpts)
		if err != nil {
			return err
		}
		a.component("export").WithField("path", path).Debug("history exported")
		fmt.Fprintf(a.out, "Exported %d history entries to %s (%s)\n", len(records), path, exporter.MimeType())
		return nil
	}

	data, err := exporter.Export(records)
	if err != nil {
		return err
	}
	_, err = a.out.Write(data)
	return err
}

func (a *app) runHistoryShow(cmd *cobra.Command, id string) error {
	store, err := a.openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := store.Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	status := "ok"
	if !r.Success {
		status = "failed"
	}
	fmt.Fprintf(a.out, "ID:      %s\n", r.ID)
	fmt.Fprintf(a.out, "When:    %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(a.out, "Kind:    %s\n", r.Kind)
	fmt.Fprintf(a.out, "Model:   %s\n", r.Model)
	if r.Kind == storage.KindAct {
		fmt.Fprintf(a.out, "Steps:   %d (%d failed)\n", r.Steps, r.Failed)
	}
	fmt.Fprintf(a.out, "Result:  %s\n\n", status)
	fmt.Fprintf(a.out, "%s\n\n", r.Prompt)
	fmt.Fprintln(a.out, strings.TrimRight(r.Response, "\n"))
	return nil
}
