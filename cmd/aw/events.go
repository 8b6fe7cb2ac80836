package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/billy398/auction-dashboard/internal/app"
	"github.com/billy398/auction-dashboard/internal/otel"
)

func runEvents() {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	path := fs.String("file", app.EventLogPath(), "Event log")
	tail := fs.Int("tail", 50, "Show the last N matching events (0 = all)")
	follow := fs.Bool("f", false, "Keep printing new events")
	kind := fs.String("kind", "", "Kind prefix, e.g. refresh or page.error")
	level := fs.String("level", "", "Minimum level: debug, info, warn, error")
	comp := fs.String("comp", "", "Component: coord, fetch, server, main")
	rid := fs.String("rid", "", "Refresh id prefix")
	refreshes := fs.Bool("refreshes", false, "One line per refresh cycle: pages, records, items, duration, outcome")
	raw := fs.Bool("json", false, "Print the raw JSON lines")
	fs.Parse(os.Args[1:])

	filter := eventFilter{kind: *kind, comp: *comp, rid: *rid, minLevel: otel.Level(*level)}
	if _, ok := levelRank[filter.minLevel]; *level != "" && !ok {
		fatal("unknown level %q", *level)
	}

	f, err := os.Open(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprintln(os.Stderr, "  Run auctionwatch or aw serve first to record events.")
		os.Exit(1)
	}
	defer f.Close()

	if *refreshes {
		// Grouping needs every event of a cycle, so --tail counts cycles.
		lines, err := readEvents(f, filter, 0)
		if err != nil {
			fatal("read %s: %v", *path, err)
		}
		runs := groupRefreshes(lines)
		if *tail > 0 && len(runs) > *tail {
			runs = runs[len(runs)-*tail:]
		}
		for _, r := range runs {
			fmt.Println(formatRun(r))
		}
		return
	}

	show := func(l eventLine) {
		if *raw {
			fmt.Println(string(l.raw))
			return
		}
		fmt.Println(formatEvent(l.ev))
	}

	lines, err := readEvents(f, filter, *tail)
	if err != nil {
		fatal("read %s: %v", *path, err)
	}
	for _, l := range lines {
		show(l)
	}
	if !*follow {
		return
	}

	// readEvents left f at EOF; poll for appended lines.
	br := bufio.NewReader(f)
	var partial []byte
	poll := time.NewTicker(200 * time.Millisecond)
	defer poll.Stop()
	for {
		b, err := br.ReadBytes('\n')
		partial = append(partial, b...)
		if err == io.EOF {
			<-poll.C
			continue
		}
		if err != nil {
			fatal("read %s: %v", *path, err)
		}
		if l, ok := decodeLine(partial); ok && filter.match(l.ev) {
			show(l)
		}
		partial = partial[:0]
	}
}
