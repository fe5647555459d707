package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
	"github.com/JonMunkholm/cardadmin/internal/core"
	"github.com/JonMunkholm/cardadmin/internal/store"
)

type setsOptions struct {
	order string
}

func newSetsCmd(root *rootOptions) *cobra.Command {
	opts := &setsOptions{}

	cmd := &cobra.Command{
		Use:   "sets",
		Short: "List card sets and their IDs",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.order {
			case "newest", "name":
				return nil
			}
			return fmt.Errorf("invalid --order %q: want newest or name", opts.order)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(cmd, true)
			if err != nil {
				return err
			}

			catalogStore, err := store.Open(cmd.Context(), cfg.Store)
			if err != nil {
				return err
			}
			defer catalogStore.Close()

			order := catalog.SetsNewestFirst
			if opts.order == "name" {
				order = catalog.SetsByName
			}

			service := core.NewService(catalogStore, core.OptionsFromConfig(cfg.Import))
			sets, err := service.ListSets(cmd.Context(), order)
			if err != nil {
				return err
			}
			printSets(cmd.OutOrStdout(), sets)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.order, "order", "newest", "sort order: newest or name")
	return cmd
}

func printSets(w io.Writer, sets []catalog.Set) {
	if len(sets) == 0 {
		fmt.Fprintln(w, "No sets yet.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSET\tCARDS\tRELEASED")
	for _, s := range sets {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.ID, setLabel(s), s.CardAmount, s.ReleaseDate)
	}
	tw.Flush()
}
