package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
	"github.com/JonMunkholm/cardadmin/internal/core"
	"github.com/JonMunkholm/cardadmin/internal/importer"
	"github.com/JonMunkholm/cardadmin/internal/store"
)

type importOptions struct {
	setRaw    string
	setID     uuid.UUID
	batchSize int
	dryRun    bool
}

func newImportCmd(root *rootOptions) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a card spreadsheet into a set",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(strings.TrimSpace(opts.setRaw))
			if err != nil {
				return fmt.Errorf("invalid --set %q: %w", opts.setRaw, err)
			}
			opts.setID = id
			if opts.batchSize < 0 {
				return fmt.Errorf("--batch-size must be positive")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(cmd, true)
			if err != nil {
				return err
			}
			if opts.batchSize > 0 {
				cfg.Import.BatchSize = opts.batchSize
			}

			catalogStore, err := store.Open(cmd.Context(), cfg.Store)
			if err != nil {
				return err
			}
			defer catalogStore.Close()

			service := core.NewService(catalogStore, core.OptionsFromConfig(cfg.Import))
			return runImport(cmd.Context(), service, args[0], opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.setRaw, "set", "", "target set ID (required)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "cards per insert call (default IMPORT_BATCH_SIZE)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "validate the file and set without writing cards")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

func runImport(ctx context.Context, service *core.Service, path string, opts *importOptions, out, progress io.Writer) error {
	set, err := service.GetSet(ctx, opts.setID)
	if err != nil {
		return fmt.Errorf("set %s: %w", opts.setID, err)
	}

	id, err := service.NewImport(ctx)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	view, err := service.SelectImportFile(ctx, id, filepath.Base(path), f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if _, err := service.SelectImportSet(ctx, id, set.ID); err != nil {
		return err
	}

	if len(view.Missing) > 0 {
		printSnapshot(out, view.Snapshot)
		return fmt.Errorf("%w: %s", importer.ErrMissingHeaders, strings.Join(view.Missing, ", "))
	}

	if opts.dryRun {
		printSnapshot(out, view.Snapshot)
		batch := service.Options().BatchSize
		fmt.Fprintf(out, "\nWould import %d cards into %s in %d batches.\n",
			view.Rows, setLabel(set), (view.Rows+batch-1)/batch)
		return nil
	}

	if _, err := service.StartImport(ctx, id); err != nil {
		return err
	}

	updates, unsubscribe, err := service.SubscribeImport(id)
	if err != nil {
		return err
	}
	defer unsubscribe()

	for {
		select {
		case p, ok := <-updates:
			if !ok {
				return finishImport(ctx, service, id, out)
			}
			if p.Chunks > 0 && !p.Done() {
				fmt.Fprintf(progress, "batch %d/%d: %d imported, %d failed\n", p.Chunk, p.Chunks, p.Succeeded, p.Failed)
			}
		case <-ctx.Done():
			return fmt.Errorf("interrupted while importing: %w", ctx.Err())
		}
	}
}

// errImportFailed is returned when any card of a finished import failed.
var errImportFailed = errors.New("import finished with failures")

func finishImport(ctx context.Context, service *core.Service, id string, out io.Writer) error {
	view, err := service.WaitImport(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, view.Message)
	if view.Summary != nil && view.Summary.Outcome() != importer.Completed {
		return fmt.Errorf("%w: %d of %d cards", errImportFailed, view.Summary.Failed, view.Summary.Total)
	}
	return nil
}

func setLabel(s catalog.Set) string {
	if s.Series == "" {
		return s.Name
	}
	return s.Name + " (" + s.Series + ")"
}
