package models

import "time"

// Lead ticket kinds.
const (
	TicketKindLead      = "lead"
	TicketKindAttention = "attention"
)

// Lead ticket statuses. "closed" is the only terminal status; legacy rows
// written as "Finalizado" by an earlier dashboard are normalized to it at
// the storage boundary (see tickets.Manager).
const (
	TicketStatusPending  = "pending"
	TicketStatusAttended = "attended"
	TicketStatusClosed   = "closed"
)

// LeadTicket flags a conversation for human review. At most one open ticket
// exists per contact: new triggering events append to the open ticket's
// summary instead of creating another row.
type LeadTicket struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	ContactID  uint      `gorm:"not null;index"`
	Kind       string    `gorm:"size:32;not null"`
	Status     string    `gorm:"size:16;not null;default:pending;index"`
	Summary    string    `gorm:"type:text;not null"`
	NotifiedAt time.Time `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
