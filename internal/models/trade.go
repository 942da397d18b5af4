package models

import "gorm.io/gorm"

// Trade represents a completed paper trade record in the database.
type Trade struct {
	gorm.Model
	Symbol    string  `json:"symbol"`
	Side      string  `json:"side"` // "BUY" or "SELL"
	AssetType string  `json:"assetType"`
	Price     float64 `json:"price"`
	Quantity  float64 `json:"quantity"`
	Total     float64 `json:"total"`
	Timestamp int64   `json:"timestamp"`
}
