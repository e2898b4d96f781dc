package main

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/coreman2200/colorlab/internal/blog"
	"github.com/coreman2200/colorlab/internal/layout"
	"github.com/coreman2200/colorlab/internal/site"
)

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Print sitemap.xml for the configured posts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		posts, err := blog.NewStore(afero.NewOsFs(), cfg.Posts.Dir, blog.Options{
			Include:   cfg.Posts.Include,
			CacheSize: cfg.Posts.CacheSize,
		})
		if err != nil {
			return err
		}
		srv, err := site.NewServer(cfg.Site, layout.Bounds{Min: cfg.Canvas.MinSize, Max: cfg.Canvas.MaxSize}, posts, nil)
		if err != nil {
			return err
		}
		set, err := srv.Sitemap()
		if err != nil {
			return err
		}
		return site.WriteSitemap(cmd.OutOrStdout(), set)
	},
}
