package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/billy398/auction-dashboard/internal/render"
	"github.com/billy398/auction-dashboard/internal/store"
)

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	cf := addConfigFlags(fs)
	limit := fs.Int("limit", 50, "Most recent observations to show")
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: aw history [flags] <item-id>")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	itemID := fs.Arg(0)

	cfg := cf.load()
	st := openArchive(cfg)
	defer st.Close()

	obs, err := st.History(itemID, *limit)
	if err != nil {
		fatal("history: %v", err)
	}

	if *asJSON {
		if obs == nil {
			obs = []store.Observation{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(obs); err != nil {
			fatal("encode: %v", err)
		}
		return
	}

	if len(obs) == 0 {
		fmt.Printf("No archived observations for item %s.\n", itemID)
		return
	}

	last := obs[len(obs)-1]
	fmt.Printf("%s", last.Title)
	if last.Lot != "" {
		fmt.Printf("  (lot %s)", last.Lot)
	}
	fmt.Printf("\n%d observations\n\n", len(obs))

	now := time.Now()
	fmt.Printf("%-14s %12s %5s  %-16s %-8s %s\n", "CAPTURED", "PRICE", "BIDS", "BIDDER", "STATUS", "ENDS")
	var prev *store.Observation
	for i := range obs {
		o := obs[i]
		captured := o.CapturedAt
		marker := " "
		if prev != nil && o.Price.GreaterThan(prev.Price) {
			marker = "↑"
		}
		fmt.Printf("%-14s %12s %5d%s %-16s %-8s %s\n",
			render.When(&captured),
			render.Money(o.Price),
			o.Bids,
			marker,
			render.Truncate(o.Bidder, 16),
			o.Status.Label(),
			render.Ends(o.EndsAt, now),
		)
		prev = &obs[i]
	}
}
