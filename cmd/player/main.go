package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-player/internal/catalog"
	"github.com/stemsi/exstem-player/internal/config"
	"github.com/stemsi/exstem-player/internal/logger"
	"github.com/stemsi/exstem-player/internal/tui"
	"golang.org/x/term"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "player:", err)
		os.Exit(1)
	}
}

func run() error {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	// The terminal belongs to the UI, so logs go to LOG_FILE or nowhere.
	logOut, err := logger.OpenFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logOut.Close()

	zerolog.TimeFieldFormat = time.RFC3339
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, logOut)
	log.Info().
		Str("source", cfg.CatalogSource).
		Msg("Starting exam player")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	// ─── Open Catalog Backend ──────────────────────────────────────────
	backend, err := catalog.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer backend.Close()

	// ─── Terminal ──────────────────────────────────────────────────────
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("stdin is not a terminal")
	}

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer func() {
		if err := term.Restore(fd, state); err != nil {
			log.Error().Err(err).Msg("Failed to restore terminal")
		}
	}()

	// ─── Run Player ────────────────────────────────────────────────────
	player := tui.New(os.Stdout, tui.Options{
		Source:      backend.Source,
		LoadTimeout: cfg.LoadTimeout,
		Width:       width,
		Color:       os.Getenv("NO_COLOR") == "",
		Log:         log,
	})

	if err := player.Run(ctx, os.Stdin); err != nil {
		return err
	}

	log.Info().Msg("Player exited")
	return nil
}
