package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cherbst/devblog"
)

func newExportCmd(opts *globalOptions) *cobra.Command {
	var exportOpts devblog.ExportOptions
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render every page to a static directory",
		Long: `Render the home page, tag pages, posts, feed, sitemaps and 404 page
into --out. Use --profile static to get the Vercel output layout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.Prepare(cmd.Context()); err != nil {
				return err
			}
			res, err := app.Export(cmd.Context(), exportOpts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d pages and %d assets to %s (%s)\n",
				res.Pages, res.Assets, res.OutputDir, res.Adapter)
			return nil
		},
	}
	cmd.Flags().StringVarP(&exportOpts.Dir, "out", "o", "dist", "output directory")
	cmd.Flags().BoolVar(&exportOpts.Clean, "clean", false, "remove the output directory first")
	return cmd
}
