package domain

// SealedRow holds the sensitive columns of one entity row as stored. A nil value is
// a NULL column.
type SealedRow struct {
	ID     string
	Owner  string // tenant column; only filled by owner-aware reads
	Fields map[string]*string
}

// RewrapResult summarizes a RewrapFields run over one entity table.
type RewrapResult struct {
	EntityType string
	Scanned    int // rows read
	Rewrapped  int // envelopes re-sealed under the active version
	Sealed     int // plaintext values sealed for the first time
	Failed     int // envelopes that could not be opened and were left untouched
}
