package models

import "gorm.io/gorm"

// Alert mirrors an in-memory alert rule into the database.
// The engine's copy stays authoritative; rows here are best-effort.
type Alert struct {
	gorm.Model
	AlertID     string  `gorm:"uniqueIndex;not null" json:"id"`
	Symbol      string  `gorm:"index" json:"symbol"`
	TargetPrice float64 `gorm:"not null" json:"targetPrice"`
	Condition   string  `gorm:"not null" json:"condition"` // "above" or "below"
	Active      bool    `gorm:"default:true" json:"active"`
}
