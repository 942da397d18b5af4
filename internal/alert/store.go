package alert

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Daniyal2108/Stock-App/internal/models"
)

// Store mirrors alert rules to a backend. All calls are best-effort from the
// engine's point of view; a failing store never blocks evaluation.
type Store interface {
	Load() ([]Rule, error)
	Save(rule Rule) error
	SetActive(id string, active bool) error
	Delete(id string) error
	Clear() error
}

// GormStore persists rules through gorm.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// NewGormStore creates a Store backed by db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Load() ([]Rule, error) {
	var rows []models.Alert
	if err := s.db.Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load alerts: %w", err)
	}

	rules := make([]Rule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, Rule{
			ID:          row.AlertID,
			Symbol:      row.Symbol,
			TargetPrice: row.TargetPrice,
			Condition:   Condition(row.Condition),
			Active:      row.Active,
		})
	}
	return rules, nil
}

func (s *GormStore) Save(rule Rule) error {
	row := models.Alert{
		AlertID:     rule.ID,
		Symbol:      rule.Symbol,
		TargetPrice: rule.TargetPrice,
		Condition:   string(rule.Condition),
		Active:      rule.Active,
	}
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("save alert %s: %w", rule.ID, err)
	}
	return nil
}

func (s *GormStore) SetActive(id string, active bool) error {
	err := s.db.Model(&models.Alert{}).
		Where("alert_id = ?", id).
		Update("active", active).Error
	if err != nil {
		return fmt.Errorf("update alert %s: %w", id, err)
	}
	return nil
}

func (s *GormStore) Delete(id string) error {
	if err := s.db.Where("alert_id = ?", id).Delete(&models.Alert{}).Error; err != nil {
		return fmt.Errorf("delete alert %s: %w", id, err)
	}
	return nil
}

func (s *GormStore) Clear() error {
	if err := s.db.Where("1 = 1").Delete(&models.Alert{}).Error; err != nil {
		return fmt.Errorf("clear alerts: %w", err)
	}
	return nil
}
