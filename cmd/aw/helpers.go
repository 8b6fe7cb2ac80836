package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/billy398/auction-dashboard/internal/config"
	"github.com/billy398/auction-dashboard/internal/logging"
	"github.com/billy398/auction-dashboard/internal/store"
)

// configFlags registers the flags every subcommand shares.
type configFlags struct {
	path      *string
	auctionID *string
	baseURL   *string
}

func addConfigFlags(fs *flag.FlagSet) configFlags {
	return configFlags{
		path:      fs.String("config", config.ConfigPath(), "Config file"),
		auctionID: fs.String("auction", "", "Auction id (overrides config)"),
		baseURL:   fs.String("base-url", "", "Listing API base URL (overrides config)"),
	}
}

// load reads the config, applies flag overrides and starts stderr logging.
func (f configFlags) load() *config.Config {
	cfg, err := config.LoadFrom(*f.path)
	if err != nil {
		fatal("failed to load config: %v", err)
	}
	if *f.auctionID != "" {
		cfg.Upstream.AuctionID = *f.auctionID
	}
	if *f.baseURL != "" {
		cfg.Upstream.BaseURL = *f.baseURL
	}
	logging.InitWriter(os.Stderr, cfg.Log.Level)
	return cfg
}

// openArchive opens the snapshot archive or fatals. Reading works even when
// archiving is disabled, as long as the file exists.
func openArchive(cfg *config.Config) *store.Store {
	path := cfg.ArchivePath()
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(os.Stderr, "error: no archive at %s\n", path)
		fmt.Fprintln(os.Stderr, "  Set archive.enabled in the config and run the dashboard first.")
		os.Exit(1)
	}
	st, err := store.Open(path)
	if err != nil {
		fatal("failed to open archive: %v", err)
	}
	return st
}

func fatal(format string, args ...interface{}) {
	if logging.Logger != nil {
		logging.Error(fmt.Sprintf(format, args...))
	} else {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
	os.Exit(1)
}
