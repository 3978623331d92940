// Package signal standardizes payloads shared between data ingestion and strategy layers.
package signal

import "time"

// Tick models one observed trade for a single instrument.
type Tick struct {
	Symbol string
	Price  float64
	Volume float64
	Ts     time.Time
}
