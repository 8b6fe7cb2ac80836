package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/billy398/auction-dashboard/internal/app"
	"github.com/billy398/auction-dashboard/internal/logging"
	"github.com/billy398/auction-dashboard/internal/server"
	"golang.org/x/sync/errgroup"
)

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cf := addConfigFlags(fs)
	addr := fs.String("addr", "", "Listen address (overrides config)")
	noAuto := fs.Bool("no-auto", false, "Disable timed refreshes")
	fs.Parse(os.Args[1:])

	cfg := cf.load()
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *noAuto {
		cfg.Refresh.Auto = false
	}

	rt, err := app.New(cfg, app.Options{EventLogPath: app.EventLogPath()})
	if err != nil {
		fatal("%v", err)
	}
	defer rt.Close()

	view, err := rt.View()
	if err != nil {
		fatal("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := server.NewHub()
	srv, err := server.New(rt.Coordinator, hub, server.Options{
		Addr:      cfg.Server.Addr,
		RateLimit: cfg.Server.RateLimit,
		FeedLimit: cfg.Server.FeedLimit,
		SiteURL:   cfg.Upstream.SiteURL,
		AuctionID: cfg.Upstream.AuctionID,
		View:      view,
	}, rt.Events)
	if err != nil {
		fatal("%v", err)
	}
	if rt.Archive != nil {
		srv.SetHistory(rt.Archive)
	}

	coordinator := rt.Coordinator
	coordinator.SetListener(hub)
	coordinator.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})
	g.Go(func() error {
		// initial load, then the timer takes over
		coordinator.Trigger(false)
		every := coordinator.Configure(cfg.Refresh.Auto, cfg.Refresh.Interval())
		logging.Info("auto-refresh", "enabled", cfg.Refresh.Auto, "every", every)
		<-gctx.Done()
		return nil
	})

	err = g.Wait()
	stop()
	coordinator.Wait()
	if err != nil {
		fatal("serve: %v", err)
	}
	logging.Info("server stopped")
}
