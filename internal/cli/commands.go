package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sigitm/internal/config"
	"sigitm/internal/exporter"
	"sigitm/internal/services"
)

func newProcessCmd(a *app) *cobra.Command {
	var (
		file        string
		outPath     string
		format      string
		limit       int
		bom         bool
		deleteAfter bool
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Load and normalize the latest export",
		Long: "Loads the newest export (or --file), normalizes its columns and writes the table " +
			"to stdout or --out.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := resolveFormat(cmd, format, outPath)
			if err != nil {
				return err
			}
			if f == exporter.FormatXLSX && outPath == "" {
				return errors.New("xlsx output requires --out")
			}

			return a.run(cmd, func(ctx context.Context) error {
				result := a.ingestor.ProcessLatest(ctx, file)
				if !result.Success {
					return errors.New(result.Message)
				}

				if err := writeResult(a, result, f, outPath, exporter.Options{
					BOMPrefix: bom,
					Limit:     limit,
				}); err != nil {
					return err
				}
				fmt.Fprintln(a.errOut, result.Message)

				if deleteAfter && !a.ingestor.DeleteLatest(ctx, result.SourceFile) {
					return fmt.Errorf("processed %s but could not delete it", result.SourceFile)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Process this workbook instead of the latest export")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the table to this file instead of stdout")
	cmd.Flags().StringVarP(&format, "format", "f", string(exporter.FormatTable),
		"Output format: "+formatNames()+" (inferred from --out when omitted)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Write at most this many rows (0 writes all)")
	cmd.Flags().BoolVar(&bom, "bom", false, "Prefix CSV output with a UTF-8 BOM")
	cmd.Flags().BoolVar(&deleteAfter, "delete", false, "Delete the export after it was processed")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the latest export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				if !a.ingestor.DeleteLatest(ctx, file) {
					return errors.New("no export was deleted")
				}
				fmt.Fprintln(a.out, "deleted")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Delete this file instead of the latest export")
	return cmd
}

func newLocateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Print the path of the latest export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				path, err := a.ingestor.LocateLatest(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, path)
				return nil
			})
		},
	}
}

func newTimestampCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "timestamp <path>",
		Short: "Print the load date and datetime encoded in an export file name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(_ context.Context) error {
				ts, err := a.ingestor.ExtractLoadTimestamp(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s\t%s\n", ts.Date, ts.DateTime)
				return nil
			})
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(a.out, "%s version %s\n", config.AppName, config.AppVersion)
			return err
		},
	}
}

// resolveFormat honours an explicit --format and otherwise infers it from
// the --out extension.
func resolveFormat(cmd *cobra.Command, format, outPath string) (exporter.Format, error) {
	if !cmd.Flags().Changed("format") && outPath != "" {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(outPath)), ".")
		if f, err := exporter.ParseFormat(ext); err == nil {
			return f, nil
		}
		return exporter.FormatCSV, nil
	}
	return exporter.ParseFormat(format)
}

func writeResult(a *app, result services.ProcessingResult, format exporter.Format, outPath string, opts exporter.Options) error {
	w := exporter.NewWriter(a.logger)
	if outPath == "" {
		return w.Write(a.out, format, result.Table, opts)
	}
	if err := w.WriteFile(outPath, format, result.Table, opts); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return nil
}

func formatNames() string {
	names := make([]string, len(exporter.Formats))
	for i, f := range exporter.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, "|")
}
