package portfolio

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Daniyal2108/Stock-App/internal/models"
)

// GormRecorder persists trade history rows through gorm.
type GormRecorder struct {
	db *gorm.DB
}

var _ Recorder = (*GormRecorder)(nil)

// NewGormRecorder creates a Recorder backed by db.
func NewGormRecorder(db *gorm.DB) *GormRecorder {
	return &GormRecorder{db: db}
}

func (r *GormRecorder) Record(trade models.Trade) error {
	if err := r.db.Create(&trade).Error; err != nil {
		return fmt.Errorf("save trade record: %w", err)
	}
	return nil
}
