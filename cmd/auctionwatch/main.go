// Command auctionwatch is the terminal dashboard for one auction's listing.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/billy398/auction-dashboard/internal/app"
	"github.com/billy398/auction-dashboard/internal/config"
	"github.com/billy398/auction-dashboard/internal/logging"
	"github.com/billy398/auction-dashboard/internal/otel"
	"github.com/billy398/auction-dashboard/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func main() {
	configPath := flag.String("config", config.ConfigPath(), "Config file")
	auctionID := flag.String("auction", "", "Auction id (overrides config)")
	noAuto := flag.Bool("no-auto", false, "Start with auto-refresh disabled")
	flag.Parse()

	if os.Getenv("AUCTIONWATCH_E2E") != "" {
		// Scripted terminals never answer the background color query.
		lipgloss.SetHasDarkBackground(true)
	}

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		fatal("Failed to load config: %v", err)
	}
	if *auctionID != "" {
		cfg.Upstream.AuctionID = *auctionID
	}
	if *noAuto {
		cfg.Refresh.Auto = false
	}

	// The TUI owns stdout, so the human log goes to a file.
	if err := logging.Init(filepath.Join(config.DataDir(), "logs"), cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Close()

	rt, err := app.New(cfg, app.Options{
		EventLogPath: app.EventLogPath(),
		RingSize:     otel.DefaultRingSize,
	})
	if err != nil {
		fatal("Failed to start: %v", err)
	}
	defer rt.Close()

	view, err := rt.View()
	if err != nil {
		fatal("Invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	coordinator := rt.Coordinator

	model := ui.NewApp(ui.AppConfig{
		Refresh: func() tea.Cmd {
			return func() tea.Msg {
				coordinator.Trigger(false)
				return nil
			}
		},
		ConfigureAuto: func(enabled bool, interval time.Duration) tea.Cmd {
			return func() tea.Msg {
				every := coordinator.Configure(enabled, interval)
				return ui.AutoConfigured{Enabled: enabled, Interval: every}
			}
		},
		View:         view,
		AutoEnabled:  cfg.Refresh.Auto,
		AutoInterval: cfg.Refresh.Interval(),
		Ring:         rt.Ring,
	})

	program := tea.NewProgram(model, tea.WithAltScreen())

	coordinator.SetListener(ui.NewProgramListener(program))
	coordinator.Start(ctx)

	logging.Info("dashboard starting", "auction", cfg.Upstream.AuctionID, "url", cfg.Upstream.ListingURL())

	// Run UI (blocks until quit)
	if _, err := program.Run(); err != nil {
		logging.Error("Application error", "error", err)
		cancel()
		coordinator.Wait()
		fatal("Error: %v", err)
	}

	// Graceful shutdown
	cancel()
	coordinator.Wait()
	logging.Info("dashboard exiting")
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
