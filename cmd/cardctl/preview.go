package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cardadmin/internal/importer"
)

type previewOptions struct {
	rows int
}

func newPreviewCmd(root *rootOptions) *cobra.Command {
	opts := &previewOptions{}

	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Parse a card spreadsheet and show what an import would see",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(cmd, false)
			if err != nil {
				return err
			}
			if opts.rows <= 0 {
				opts.rows = cfg.Import.PreviewRows
			}

			session := importer.NewSession(importer.Options{
				PreviewRows: opts.rows,
				MaxFileSize: cfg.Import.MaxFileSize,
			})
			if err := selectFile(session, args[0]); err != nil {
				return err
			}
			printSnapshot(cmd.OutOrStdout(), session.Snapshot())
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.rows, "rows", 0, "number of rows to show (default IMPORT_PREVIEW_ROWS)")
	return cmd
}

func selectFile(session *importer.Session, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := session.SelectFile(filepath.Base(path), f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func printSnapshot(w io.Writer, snap importer.Snapshot) {
	fmt.Fprintf(w, "File: %s\n", snap.FileName)
	fmt.Fprintf(w, "%d data lines, %d rows parsed\n", snap.DataLines, snap.Rows)

	if len(snap.Missing) > 0 {
		fmt.Fprintf(w, "Missing required columns: %s\n", strings.Join(snap.Missing, ", "))
	}
	if len(snap.Dropped) > 0 {
		fmt.Fprintf(w, "Dropped %d rows:\n", len(snap.Dropped))
		for _, d := range snap.Dropped {
			fmt.Fprintf(w, "  line %d: expected %d fields, got %d\n", d.Line, d.Want, d.Got)
		}
	}
	if len(snap.Preview) == 0 {
		return
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(snap.Headers, "\t"))
	for _, row := range snap.Preview {
		cells := make([]string, len(snap.Headers))
		for i, h := range snap.Headers {
			cells[i] = row[h]
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()

	if snap.Rows > len(snap.Preview) {
		fmt.Fprintf(w, "... %d more rows\n", snap.Rows-len(snap.Preview))
	}
}
