// Package catalog provides read-only access to the menu catalog and the
// singleton bot configuration. The conversation engine never writes catalog
// rows; editing happens elsewhere.
package catalog

import (
	"fmt"

	"github.com/zapfield/zapfield/internal/models"
	"gorm.io/gorm"
)

// Store reads catalog entities in menu order.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store.
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("catalog: db is required")
	}
	return &Store{db: db}, nil
}

// Categories returns all enabled categories ordered by position.
func (s *Store) Categories() ([]models.Category, error) {
	var cats []models.Category
	if err := s.db.Where("enabled = ?", true).Order("position asc").Find(&cats).Error; err != nil {
		return nil, fmt.Errorf("catalog: list categories: %w", err)
	}
	return cats, nil
}

// CategoryByID returns a category regardless of enabled state.
func (s *Store) CategoryByID(id uint) (*models.Category, error) {
	var cat models.Category
	if err := s.db.First(&cat, id).Error; err != nil {
		return nil, fmt.Errorf("catalog: category %d: %w", id, err)
	}
	return &cat, nil
}

// Subcategories returns the enabled subcategories of a category in order.
func (s *Store) Subcategories(categoryID uint) ([]models.Subcategory, error) {
	var subs []models.Subcategory
	err := s.db.Where("category_id = ? AND enabled = ?", categoryID, true).
		Order("position asc").Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("catalog: list subcategories of %d: %w", categoryID, err)
	}
	return subs, nil
}

// SubcategoryByID returns a subcategory regardless of enabled state.
func (s *Store) SubcategoryByID(id uint) (*models.Subcategory, error) {
	var sub models.Subcategory
	if err := s.db.First(&sub, id).Error; err != nil {
		return nil, fmt.Errorf("catalog: subcategory %d: %w", id, err)
	}
	return &sub, nil
}

// AllSubcategories returns every enabled subcategory across all categories,
// ordered by category position then subcategory position. Used by the
// cross-category name resolver.
func (s *Store) AllSubcategories() ([]models.Subcategory, error) {
	var subs []models.Subcategory
	err := s.db.
		Joins("JOIN categories ON categories.id = subcategories.category_id AND categories.enabled = ?", true).
		Where("subcategories.enabled = ?", true).
		Order("categories.position asc, subcategories.position asc").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("catalog: list all subcategories: %w", err)
	}
	return subs, nil
}

// Items returns the enabled items of a subcategory in order, with media
// preloaded in attachment order.
func (s *Store) Items(subcategoryID uint) ([]models.Item, error) {
	var items []models.Item
	err := s.db.Preload("Media", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).Where("subcategory_id = ? AND enabled = ?", subcategoryID, true).
		Order("position asc").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("catalog: list items of %d: %w", subcategoryID, err)
	}
	return items, nil
}

// AllItems returns every enabled item in catalog order with media preloaded.
func (s *Store) AllItems() ([]models.Item, error) {
	var items []models.Item
	err := s.db.Preload("Media", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).
		Joins("JOIN subcategories ON subcategories.id = items.subcategory_id AND subcategories.enabled = ?", true).
		Where("items.enabled = ?", true).
		Order("subcategories.position asc, items.position asc").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("catalog: list all items: %w", err)
	}
	return items, nil
}

// Config returns the singleton bot configuration row.
func (s *Store) Config() (*models.BotConfig, error) {
	var cfg models.BotConfig
	if err := s.db.First(&cfg).Error; err != nil {
		return nil, fmt.Errorf("catalog: bot config: %w", err)
	}
	return &cfg, nil
}

// Aliases returns all operator aliases with media preloaded.
func (s *Store) Aliases() ([]models.OperatorAlias, error) {
	var aliases []models.OperatorAlias
	err := s.db.Preload("Media", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).Find(&aliases).Error
	if err != nil {
		return nil, fmt.Errorf("catalog: list aliases: %w", err)
	}
	return aliases, nil
}
