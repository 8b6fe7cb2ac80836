package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/billy398/auction-dashboard/internal/app"
	"github.com/billy398/auction-dashboard/internal/auction"
	"github.com/billy398/auction-dashboard/internal/filter"
	"github.com/billy398/auction-dashboard/internal/render"
	"github.com/billy398/auction-dashboard/internal/stats"
)

type snapshotOutput struct {
	RefreshID string           `json:"refreshId"`
	UpdatedAt time.Time        `json:"updatedAt"`
	View      filter.ViewState `json:"view"`
	Stats     stats.Stats      `json:"stats"`
	Items     []auction.Item   `json:"items"`
}

func runSnapshot() {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	cf := addConfigFlags(fs)
	asJSON := fs.Bool("json", false, "Print JSON instead of a table")
	query := fs.String("q", "", "Search title, bidder and lot")
	bids := fs.Bool("bids", false, "Only items with bids")
	sortKey := fs.String("sort", "", "Sort column: title, lot, price, bids, bidder, ends, status")
	dir := fs.String("dir", "", "Sort direction: asc or desc")
	links := fs.Bool("links", false, "List item links under the table")
	fs.Parse(os.Args[1:])

	cfg := cf.load()
	if *sortKey != "" {
		cfg.View.Sort = *sortKey
		cfg.View.Dir = ""
	}
	if *dir != "" {
		cfg.View.Dir = *dir
	}
	if *bids {
		cfg.View.OnlyWithBids = true
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
	view.Search = *query

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res := rt.Coordinator.Refresh(ctx)
	if !res.OK() {
		fmt.Fprintln(os.Stderr, render.FailedText)
		fmt.Fprintln(os.Stderr, res.Err)
		if res.Hint != "" {
			fmt.Fprintln(os.Stderr, res.Hint)
		}
		rt.Close()
		os.Exit(1)
	}

	snap := res.Snapshot
	items := filter.View(snap.Items, view)

	if *asJSON {
		if items == nil {
			items = []auction.Item{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snapshotOutput{
			RefreshID: snap.RefreshID,
			UpdatedAt: snap.UpdatedAt,
			View:      view,
			Stats:     snap.Stats,
			Items:     items,
		}); err != nil {
			fatal("encode: %v", err)
		}
		return
	}

	fmt.Println(render.Summary(snap.Stats, snap.UpdatedAt, time.Now()))
	fmt.Println()
	fmt.Println(render.Table(items, view))
	if *links {
		fmt.Println()
		for _, item := range items {
			fmt.Printf("%-36s %s\n", render.Truncate(item.Title, 36), item.Link)
		}
	}
	fmt.Println(render.Loaded(len(snap.Items)))
}
