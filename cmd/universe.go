package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fundbase/fundscan/internal/universe"
)

var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Manage the fund identifier universe",
}

// -- universe discover --

var universeDiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover fund identifiers from the upstream listing",
	Long:  "Walks the listing pages, folds duplicate share classes, and writes the universe file. Existing files are overwritten.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		path, _ := cmd.Flags().GetString("out")
		if path == "" {
			path = cfg.Universe.Path
		}
		maxFunds, _ := cmd.Flags().GetInt("max")
		if maxFunds == 0 {
			maxFunds = cfg.Universe.MaxFunds
		}

		pacer := newPacer()
		fetcher := newFetcher(pacer)
		defer fetcher.Close()

		funds, err := universe.Discover(ctx, fetcher, maxFunds)
		if err != nil {
			return eris.Wrap(err, "discover universe")
		}

		if err := universe.Save(path, funds); err != nil {
			return err
		}

		zap.L().Info("universe written", zap.String("path", path), zap.Int("funds", len(funds)))
		fmt.Fprintf(os.Stdout, "wrote %d funds to %s\n", len(funds), path)
		return nil
	},
}

// -- universe show --

var universeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current universe file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("path")
		if path == "" {
			path = cfg.Universe.Path
		}

		funds, err := universe.Load(path)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tNAME")
		for _, f := range funds {
			_, _ = fmt.Fprintf(w, "%s\t%s\n", f.ID, f.Name)
		}
		return w.Flush()
	},
}

func init() {
	universeDiscoverCmd.Flags().String("out", "", "universe file to write (default from config)")
	universeDiscoverCmd.Flags().Int("max", 0, "max funds to collect (default from config)")

	universeShowCmd.Flags().String("path", "", "universe file to read (default from config)")

	universeCmd.AddCommand(universeDiscoverCmd)
	universeCmd.AddCommand(universeShowCmd)
	rootCmd.AddCommand(universeCmd)
}
