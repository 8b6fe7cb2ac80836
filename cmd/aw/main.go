// Command aw is the companion CLI for the auction dashboard.
//
// Usage:
//
//	aw                       Show help
//	aw snapshot [--json]     One refresh, printed as a table or JSON
//	aw serve                 Headless dashboard over HTTP
//	aw history <item-id>     Archived price trajectory of one item
//	aw archive [--prune]     Archived refreshes, optional retention prune
//	aw events                JSONL event log viewer
package main

import (
	"fmt"
	"os"
)

const usage = `aw - auction dashboard CLI

Usage:
  aw <command> [flags]

Commands:
  snapshot    Fetch the listing once and print it (table or --json)
  serve       Serve the dashboard over HTTP (JSON API, feeds, websocket)
  history     Show the archived price history of one item
  archive     List archived refreshes; --prune applies retention
  events      JSONL event log viewer

Environment:
  AUCTIONWATCH_BASE_URL         Listing API base URL
  AUCTIONWATCH_AUCTION_ID       Auction id
  AUCTIONWATCH_REFRESH_SECONDS  Auto-refresh period for serve
  AUCTIONWATCH_LOG_LEVEL        debug, info, warn or error
  AUCTIONWATCH_ADDR             Listen address for serve

Run 'aw <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "snapshot":
		runSnapshot()
	case "serve":
		runServe()
	case "history":
		runHistory()
	case "archive":
		runArchive()
	case "events":
		runEvents()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "aw: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
