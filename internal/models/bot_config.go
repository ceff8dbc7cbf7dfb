package models

import "time"

// BotConfig is the singleton configuration record the engine reads on every
// conversation turn: canned texts plus the runtime AI toggle. Exactly one
// row is expected; the operator pause/resume commands flip AIEnabled.
type BotConfig struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	WelcomeText  string `gorm:"type:text"`
	FAQText      string `gorm:"type:text"`
	HumanContact string `gorm:"type:text"`
	AIEnabled    bool   `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Operator alias actions. "text" and "files" send canned content; "item"
// and "subcategory" dispatch a linked catalog entry; the remaining actions
// are engine controls.
const (
	AliasActionText        = "text"
	AliasActionFiles       = "files"
	AliasActionItem        = "item"
	AliasActionSubcategory = "subcategory"
	AliasActionPauseAI     = "pause_ai"
	AliasActionResumeAI    = "resume_ai"
	AliasActionMenu        = "menu"
)

// OperatorAlias binds a trigger word typed from the bot's own channel
// identity to an action. Triggers are matched case-insensitively after
// trimming.
type OperatorAlias struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	Trigger       string `gorm:"size:64;not null;uniqueIndex"`
	Action        string `gorm:"size:16;not null"`
	ResponseText  string `gorm:"type:text"`
	ItemID        *uint
	SubcategoryID *uint

	Media []AliasMedia `gorm:"foreignKey:AliasID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AliasMedia is an attachment sent by a "files" alias.
type AliasMedia struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	AliasID  uint   `gorm:"not null;index"`
	Kind     string `gorm:"size:16;not null"`
	Source   string `gorm:"type:mediumtext;not null"`
	FileName string `gorm:"size:128"`
	Position int    `gorm:"not null"`

	CreatedAt time.Time
}
