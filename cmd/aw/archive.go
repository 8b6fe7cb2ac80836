package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/billy398/auction-dashboard/internal/render"
)

func runArchive() {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	cf := addConfigFlags(fs)
	limit := fs.Int("limit", 20, "Refreshes to list")
	prune := fs.Bool("prune", false, "Delete refreshes older than archive.retention_days")
	days := fs.Int("days", 0, "Retention override for --prune")
	fs.Parse(os.Args[1:])

	cfg := cf.load()
	st := openArchive(cfg)
	defer st.Close()

	now := time.Now()

	if *prune {
		keep := cfg.Archive.RetentionDays
		if *days > 0 {
			keep = *days
		}
		if keep <= 0 {
			fmt.Println("Retention is 0; nothing pruned.")
		} else {
			n, err := st.Prune(now.AddDate(0, 0, -keep))
			if err != nil {
				fatal("prune: %v", err)
			}
			fmt.Printf("Pruned %d refreshes older than %d days.\n\n", n, keep)
		}
	}

	refreshes, err := st.Refreshes(*limit)
	if err != nil {
		fatal("list refreshes: %v", err)
	}
	if len(refreshes) == 0 {
		fmt.Printf("Archive %s is empty.\n", cfg.ArchivePath())
		return
	}

	fmt.Printf("%-36s %-14s %-16s %s\n", "REFRESH", "CAPTURED", "AGE", "ITEMS")
	for _, r := range refreshes {
		captured := r.CapturedAt
		fmt.Printf("%-36s %-14s %-16s %s\n",
			r.ID,
			render.When(&captured),
			render.Relative(&captured, now),
			render.Count(r.ItemCount),
		)
	}
}
