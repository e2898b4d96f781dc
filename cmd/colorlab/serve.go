package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/coreman2200/colorlab/internal/blog"
	diag "github.com/coreman2200/colorlab/internal/diagnostics"
	"github.com/coreman2200/colorlab/internal/lamp"
	"github.com/coreman2200/colorlab/internal/layout"
	"github.com/coreman2200/colorlab/internal/site"
	"github.com/coreman2200/colorlab/internal/ws"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the mixer, the blog and the control sockets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides config)")
}

func serve(ctx context.Context) error {
	cfg := loadConfig()
	addr := cfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	// ---- State ----
	state, err := ws.NewState(ws.OptionsFrom(cfg.Canvas))
	if err != nil {
		return err
	}
	defer state.Close()
	state.ConfigPath = configPath
	state.Config = cfg

	// ---- Lamp ----
	l, fallback := lamp.Open(cfg.Lamp)
	if fallback != nil {
		log.Warn().Err(fallback).Msg("lamp running on the simulator")
		state.Report(diag.New(diag.Warn, diag.CodeLampFallback, "Lamp fell back to the simulator").
			With("error", fallback.Error()))
	}
	if l != nil {
		state.Lamp = l
		defer l.Close()
	}

	// ---- Site ----
	posts, err := blog.NewStore(afero.NewOsFs(), cfg.Posts.Dir, blog.Options{
		Include:   cfg.Posts.Include,
		CacheSize: cfg.Posts.CacheSize,
	})
	if err != nil {
		return err
	}
	bounds := layout.Bounds{Min: cfg.Canvas.MinSize, Max: cfg.Canvas.MaxSize}
	srv, err := site.NewServer(cfg.Site, bounds, posts, state)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:        addr,
		Handler:     srv.Router(),
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Str("posts", cfg.Posts.Dir).Str("compositor", cfg.Canvas.Compositor).Msg("HTTP server starting")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
