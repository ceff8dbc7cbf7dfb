package models

import "time"

// FormSubmission is a completed wizard, tagged by form type. Fields holds
// the collected answers as a JSON object keyed by field name.
type FormSubmission struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	ContactID uint   `gorm:"not null;index"`
	FormType  string `gorm:"size:32;not null;index"`
	Fields    string `gorm:"type:json;not null"`

	CreatedAt time.Time
}

// Process is a sale/financing process record consulted by the process-lookup
// wizard. Document stores digits only; lookups normalize input the same way.
type Process struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	ClientName string `gorm:"size:128;not null"`
	Document   string `gorm:"size:32;not null;index"`
	Status     string `gorm:"size:64;not null"`
	Notes      string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
