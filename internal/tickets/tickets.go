// Package tickets manages "a human should look at this conversation"
// records. The load-bearing rule is merge-not-duplicate: while a contact
// has an open ticket, new triggering events append to it instead of
// creating another row.
package tickets

import (
	"fmt"
	"time"

	"github.com/zapfield/zapfield/internal/models"
	"gorm.io/gorm"
)

// summaryDelimiter separates merged event summaries on one ticket.
const summaryDelimiter = " | "

// legacyClosedLabel is the terminal status an earlier dashboard wrote.
// Rows carrying it are normalized to the canonical "closed" on startup.
const legacyClosedLabel = "Finalizado"

// Manager creates and merges lead tickets.
type Manager struct {
	db  *gorm.DB
	now func() time.Time
}

// ManagerOpts holds parameters for creating a Manager.
type ManagerOpts struct {
	DB  *gorm.DB
	Now func() time.Time // test clock; defaults to time.Now
}

// NewManager creates a Manager and normalizes legacy terminal labels so the
// open-ticket check has a single canonical terminal status.
func NewManager(opts ManagerOpts) (*Manager, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("tickets: db is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	err := opts.DB.Model(&models.LeadTicket{}).
		Where("status = ?", legacyClosedLabel).
		Update("status", models.TicketStatusClosed).Error
	if err != nil {
		return nil, fmt.Errorf("tickets: normalize legacy statuses: %w", err)
	}

	return &Manager{db: opts.DB, now: now}, nil
}

// RecordLead records a human-attention event for a contact. If the contact
// already has an open ticket, the summary is appended to it and NotifiedAt
// refreshed; otherwise a new pending ticket is created. Returns the ticket.
func (m *Manager) RecordLead(contactID uint, kind, summary string) (*models.LeadTicket, error) {
	var ticket models.LeadTicket
	err := m.db.Where("contact_id = ? AND status <> ?", contactID, models.TicketStatusClosed).
		Order("id desc").First(&ticket).Error

	switch {
	case err == nil:
		ticket.Summary = ticket.Summary + summaryDelimiter + summary
		ticket.NotifiedAt = m.now()
		if saveErr := m.db.Save(&ticket).Error; saveErr != nil {
			return nil, fmt.Errorf("tickets: merge into ticket %d: %w", ticket.ID, saveErr)
		}
		return &ticket, nil

	case err == gorm.ErrRecordNotFound:
		ticket = models.LeadTicket{
			ContactID:  contactID,
			Kind:       kind,
			Status:     models.TicketStatusPending,
			Summary:    summary,
			NotifiedAt: m.now(),
		}
		if createErr := m.db.Create(&ticket).Error; createErr != nil {
			return nil, fmt.Errorf("tickets: create ticket: %w", createErr)
		}
		return &ticket, nil

	default:
		return nil, fmt.Errorf("tickets: lookup open ticket: %w", err)
	}
}

// OpenTicket returns the contact's open ticket, if any.
func (m *Manager) OpenTicket(contactID uint) (*models.LeadTicket, error) {
	var ticket models.LeadTicket
	err := m.db.Where("contact_id = ? AND status <> ?", contactID, models.TicketStatusClosed).
		Order("id desc").First(&ticket).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tickets: lookup open ticket: %w", err)
	}
	return &ticket, nil
}

// MarkAttended flags a ticket as being handled by a human. The ticket stays
// open for merging until closed.
func (m *Manager) MarkAttended(ticketID uint) error {
	return m.setStatus(ticketID, models.TicketStatusAttended)
}

// Close marks a ticket terminal. The contact's next attention event creates
// a fresh ticket.
func (m *Manager) Close(ticketID uint) error {
	return m.setStatus(ticketID, models.TicketStatusClosed)
}

func (m *Manager) setStatus(ticketID uint, status string) error {
	result := m.db.Model(&models.LeadTicket{}).
		Where("id = ?", ticketID).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("tickets: set status %s: %w", status, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("tickets: ticket %d not found", ticketID)
	}
	return nil
}
