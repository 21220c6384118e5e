package config

import "time"

// LedgerConfig points the service at the restaurant contract.  A URL of
// "memory://" runs against an in-process contract for local development.
type LedgerConfig struct {
	URL              string        // JSON-RPC endpoint of the node
	Contract         string        // contract address (hex)
	PrivateKey       string        // signing key (hex); empty means read-only
	VenueID          uint64        // the one restaurant every view works against
	FetchConcurrency int           // parallel record lookups when listing bookings
	CallTimeout      time.Duration // budget for read calls
	TxTimeout        time.Duration // budget for a write including mining
}

// LoadLedgerConfig reads LEDGER_* variables.  The default endpoint is a
// local Ganache instance.
func LoadLedgerConfig() LedgerConfig {
	cfg := LedgerConfig{
		URL:              envStr("LEDGER_URL", "http://localhost:7545"),
		Contract:         envStr("LEDGER_CONTRACT", ""),
		PrivateKey:       envStr("LEDGER_PRIVATE_KEY", ""),
		VenueID:          envUint("VENUE_ID", 1),
		FetchConcurrency: envInt("LEDGER_FETCH_CONCURRENCY", 8),
		CallTimeout:      envDur("LEDGER_CALL_TIMEOUT", 15*time.Second),
		TxTimeout:        envDur("LEDGER_TX_TIMEOUT", 2*time.Minute),
	}
	if cfg.FetchConcurrency < 1 {
		cfg.FetchConcurrency = 1
	}
	if cfg.VenueID == 0 {
		cfg.VenueID = 1
	}
	return cfg
}

// InMemory reports whether the in-process contract should be used.
func (c LedgerConfig) InMemory() bool { return c.URL == "memory://" }
