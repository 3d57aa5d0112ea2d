package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	cli "github.com/spf13/pflag"

	"mikecheck/internal/config"
	"mikecheck/internal/logging"
	"mikecheck/internal/stories"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "mikecheck-stories:", err)
		os.Exit(1)
	}

	addr := cli.StringP("addr", "a", cfg.Stories.Addr, "Listen address")
	file := cli.StringP("file", "f", cfg.Stories.File, "Stories JSON file")
	static := cli.StringP("static", "s", cfg.Stories.StaticDir, "Static assets directory")
	origins := cli.StringSlice("allow-origin", nil, "Allowed CORS origins (default any)")
	logLevel := cli.String("log-level", cfg.Log.Level, "Log level")
	cli.Parse()

	logger, closeLog, err := logging.New(logging.Config{
		Level:   *logLevel,
		Console: cfg.Log.Console,
		File:    cfg.Log.File,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "mikecheck-stories:", err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := stories.NewFileStore(*file)
	router := stories.NewRouter(store, stories.RouterConfig{
		StaticDir:    strings.TrimSpace(*static),
		AllowOrigins: *origins,
	}, logger)

	logger.Info().Str("file", store.Path()).Msg("booting up")
	if err := stories.Serve(ctx, *addr, router, logger); err != nil {
		logger.Error().Err(err).Msg("stories server failed")
		os.Exit(1)
	}
	logger.Info().Msg("stopped")
}
