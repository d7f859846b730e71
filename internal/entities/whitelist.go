package entities

import "time"

// WhitelistEntry marks an asset symbol as eligible for bridging. The symbol
// is stored in its normalized (lower-case) form.
type WhitelistEntry struct {
	Symbol    string    `json:"symbol" db:"symbol"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
