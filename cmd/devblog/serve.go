package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Serve the blog over HTTP",
		Long: `Serve the blog on SERVER_PORT (default 3000) until interrupted.

With --watch, edits under the content directory are synced into the
running server without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := app.Prepare(ctx); err != nil {
				return err
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return app.Start(ctx) })
			if watch {
				g.Go(func() error { return app.WatchContent(ctx) })
			}
			return g.Wait()
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "resync when content files change")
	return cmd
}
