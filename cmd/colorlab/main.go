package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/colorlab/internal/config"
)

var (
	rootCmd = &cobra.Command{
		Use:           "colorlab",
		Short:         "Additive RGB color mixing renderer and site",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(logLevel)
		},
	}

	configPath string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config.yaml")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level (must be one of `debug`, `info`, `warn`, `error`)")

	rootCmd.AddCommand(serveCmd, renderCmd, sampleCmd, sitemapCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}

func setupLogger(level string) error {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if level == "" {
		return nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// loadConfig reads the config file; a missing file means defaults. The config
// log level applies unless --log-level was given.
func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info().Str("path", configPath).Msg("no config file; using defaults")
		} else {
			log.Warn().Err(err).Str("path", configPath).Msg("config load failed; using defaults")
		}
		cfg = config.Default()
	}
	if logLevel == "" && cfg.LogLevel != "" {
		if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			zerolog.SetGlobalLevel(lvl)
		} else {
			log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level in config")
		}
	}
	return cfg
}
