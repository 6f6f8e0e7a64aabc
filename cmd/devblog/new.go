package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cherbst/devblog/scaffold"
)

func newNewCmd(opts *globalOptions) *cobra.Command {
	var post scaffold.Post
	cmd := &cobra.Command{
		Use:   "new <title>",
		Short: "Create a draft post in content/blog",
		Long: `Create content/blog/<slug>.md with front matter for the given title.
The post starts as a draft; remove "draft: true" to publish it.`,
		Example: `  devblog new "Building a blog in Go" --tags go,web`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			post.Title = strings.Join(args, " ")
			name, err := scaffold.NewPost(filepath.Join(cfg.Runtime.ContentDir, "blog"), post)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", name)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&post.Tags, "tags", "t", nil, "comma-separated tags")
	cmd.Flags().StringVar(&post.Date, "date", "", "publication date, YYYY-MM-DD (default today)")
	return cmd
}

func newInitCmd() *cobra.Command {
	var p scaffold.Project
	cmd := &cobra.Command{
		Use:   "init <dir>",
		Short: "Create a new blog project",
		Long: `Create a project directory with env/.env.prd, site.yaml, a first
post and the public/ assets.`,
		Example: `  devblog init my-blog --site https://blog.example.com`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := scaffold.NewProject(args[0], p)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Created %s\n", args[0])
			for _, f := range files {
				fmt.Fprintf(w, "  %s\n", f)
			}
			fmt.Fprintf(w, "\nNext: cd %s && devblog serve --watch\n", args[0])
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.SiteURL, "site", "http://localhost:3000", "public site URL")
	f.StringVar(&p.Title, "title", "", "site title (default derived from dir)")
	f.StringVar(&p.Description, "description", "", "site description")
	f.StringVar(&p.Author, "author", "", "author name")
	return cmd
}
