package domain

import "time"

// Company is one row of the JPX company master, keyed by the securities code
// (e.g. "7203.T"). Used to decorate positions and trades with display names.
type Company struct {
	Symbol      string    `json:"symbol"` // Primary Key
	Name        string    `json:"name"`
	Market      string    `json:"market"`   // e.g. Prime, Standard, Growth
	Industry    string    `json:"industry"` // 33-sector classification name
	LastUpdated time.Time `json:"lastUpdated"`
}
