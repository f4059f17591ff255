package domain

import "time"

// HistoryEntry is a persisted first sighting of a symbol.
type HistoryEntry struct {
	SessionID string
	Signature string
	Format    Format
	Text      string
	SeenAt    time.Time
}
