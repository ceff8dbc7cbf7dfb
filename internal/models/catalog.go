package models

import "time"

// Category is a top-level catalog entry shown on the main menu. Position
// defines menu ordering; the engine reads categories but never writes them.
type Category struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	Name     string `gorm:"size:128;not null"`
	Emoji    string `gorm:"size:16"`
	Position int    `gorm:"not null;index"`
	Enabled  bool   `gorm:"default:true;index"`

	Subcategories []Subcategory `gorm:"foreignKey:CategoryID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Subcategory is a second-level catalog entry. Some subcategories are
// "special": their name maps selection to a form or canned response instead
// of an item listing (see catalog.Classify).
type Subcategory struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	CategoryID uint   `gorm:"not null;index"`
	Name       string `gorm:"size:128;not null"`
	Emoji      string `gorm:"size:16"`
	Position   int    `gorm:"not null"`
	Enabled    bool   `gorm:"default:true;index"`

	Items []Item `gorm:"foreignKey:SubcategoryID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Item is a leaf catalog entry (a property listing). Selecting one emits its
// full card: media attachments first, then the formatted text.
type Item struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	SubcategoryID uint   `gorm:"not null;index"`
	Name          string `gorm:"size:128;not null"`
	Emoji         string `gorm:"size:16"`
	Position      int    `gorm:"not null"`
	Enabled       bool   `gorm:"default:true;index"`
	Price         string `gorm:"size:64"`
	Description   string `gorm:"type:text"`

	Media []ItemMedia `gorm:"foreignKey:ItemID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ItemMedia is one attachment of an item card. Source is either a data URI
// or an http(s) URL; Kind is "image", "document" or "video".
type ItemMedia struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	ItemID   uint   `gorm:"not null;index"`
	Kind     string `gorm:"size:16;not null"`
	Source   string `gorm:"type:mediumtext;not null"`
	FileName string `gorm:"size:128"`
	Position int    `gorm:"not null"`

	CreatedAt time.Time
}
