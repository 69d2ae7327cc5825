package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xxxsen/griffin/internal/importer"
)

func newImportCmd() *cobra.Command {
	var (
		pattern  string
		notebook string
		dryRun   bool
	)
	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "import markdown files as notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := importer.ScanDir(args[0], pattern, notebook)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if dryRun {
				for _, doc := range docs {
					fmt.Fprintf(out, "%s -> %s / %s\n", doc.Path, doc.Notebook, doc.Title)
				}
				return nil
			}
			store, err := openState()
			if err != nil {
				return err
			}
			api, err := newAPIClient(store)
			if err != nil {
				return err
			}
			res, err := importer.Run(cmd.Context(), api, docs)
			if res != nil {
				fmt.Fprintf(out, "created %d notes, %d failed, %d new notebooks\n", res.Created, res.Failed, res.Notebooks)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", importer.DefaultPattern, "doublestar glob relative to <dir>")
	cmd.Flags().StringVar(&notebook, "notebook", "Imported", "notebook for files at the top of <dir>")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only print what would be imported")
	return cmd
}
