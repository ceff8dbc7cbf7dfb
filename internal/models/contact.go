package models

import "time"

// Contact is an end user of the bot, keyed by the opaque channel identity
// the transport hands us. Upserted on first inbound message.
type Contact struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	Channel string `gorm:"size:128;not null;uniqueIndex"`
	Name    string `gorm:"size:128"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MessageLog is the append-only per-contact message log. Role is "user" or
// "assistant"; TransportMsgID is kept when the platform supplied one.
type MessageLog struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	ContactID      uint   `gorm:"not null;index"`
	Role           string `gorm:"size:16;not null"`
	Content        string `gorm:"type:mediumtext;not null"`
	TransportMsgID string `gorm:"size:128"`

	CreatedAt time.Time
}
