package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"notepin/notepin/client"
	"notepin/notepin/config"
	"notepin/notepin/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.LoadTUI()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// the terminal belongs to the UI, so logs go to a file or nowhere
	var out io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open log file:", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(out).Level(level).With().Timestamp().Str("service", "notepin-tui").Logger()

	api := client.New(cfg.ServerURL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	live, err := api.Live(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to %s: %v\n", cfg.ServerURL, err)
		os.Exit(1)
	}
	defer live.Close()

	program := tea.NewProgram(tui.New(api, live), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Error().Err(err).Msg("terminal ui exited")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
