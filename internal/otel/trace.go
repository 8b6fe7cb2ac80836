package otel

import (
	"os"
	"sync/atomic"
)

// sampleRecords is read once from AUCTIONWATCH_DEBUG at startup.
var sampleRecords atomic.Bool

func init() {
	sampleRecords.Store(os.Getenv("AUCTIONWATCH_DEBUG") != "")
}

// SampleRecords reports whether each refresh should dump its first raw
// record as a record.sample event.
func SampleRecords() bool {
	return sampleRecords.Load()
}

// SetSampleRecords overrides the environment, e.g. from a --debug flag.
func SetSampleRecords(v bool) {
	sampleRecords.Store(v)
}
