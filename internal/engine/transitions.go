package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/zapfield/zapfield/internal/catalog"
	"github.com/zapfield/zapfield/internal/models"
	"github.com/zapfield/zapfield/internal/session"
)

// This file is the single home of the navigation state machine. Both entry
// points — numeric menu replies and AI tool calls — go through these
// transitions, so the two paths cannot drift apart.

// handleSelection resolves a numeric reply against the current navigation
// level. Out-of-range selections never change state.
func (e *Engine) handleSelection(ctx context.Context, st *session.State, contact *models.Contact, n int) {
	switch {
	case st.Context.ActiveSubcategoryID != nil:
		items, err := e.catalog.Items(*st.Context.ActiveSubcategoryID)
		if err != nil {
			log.Printf("engine: list items: %v", err)
			e.reply(ctx, st, contact, msgTransientFail)
			return
		}
		if n < 1 || n > len(items) {
			e.reply(ctx, st, contact, msgInvalidOption)
			return
		}
		e.showItem(ctx, st, contact, &items[n-1])

	case st.Context.ActiveCategoryID != nil:
		cat, err := e.catalog.CategoryByID(*st.Context.ActiveCategoryID)
		if err != nil {
			log.Printf("engine: load category: %v", err)
			e.reply(ctx, st, contact, msgTransientFail)
			return
		}
		subs, err := e.catalog.Subcategories(cat.ID)
		if err != nil {
			log.Printf("engine: list subcategories: %v", err)
			e.reply(ctx, st, contact, msgTransientFail)
			return
		}
		if n < 1 || n > len(subs) {
			e.reply(ctx, st, contact, msgInvalidOption)
			return
		}
		e.showSubcategory(ctx, st, contact, cat, &subs[n-1], n)

	default:
		cats, err := e.catalog.Categories()
		if err != nil {
			log.Printf("engine: list categories: %v", err)
			e.reply(ctx, st, contact, msgTransientFail)
			return
		}
		if n < 1 || n > len(cats) {
			e.reply(ctx, st, contact, msgInvalidOption)
			return
		}
		e.showCategory(ctx, st, contact, &cats[n-1])
	}
}

// showMainMenu resets navigation to the root and renders the main menu.
func (e *Engine) showMainMenu(ctx context.Context, st *session.State) {
	contact := e.contactFor(st.Channel)
	cats, err := e.catalog.Categories()
	if err != nil {
		log.Printf("engine: list categories: %v", err)
		e.reply(ctx, st, contact, msgTransientFail)
		return
	}
	st.ClearContext()
	e.reply(ctx, st, contact, renderMainMenu(cats))
}

// showCategory enters a category and renders its subcategory listing.
func (e *Engine) showCategory(ctx context.Context, st *session.State, contact *models.Contact, cat *models.Category) {
	subs, err := e.catalog.Subcategories(cat.ID)
	if err != nil {
		log.Printf("engine: list subcategories: %v", err)
		e.reply(ctx, st, contact, msgTransientFail)
		return
	}
	st.EnterCategory(cat.ID)
	e.reply(ctx, st, contact, renderSubcategoryMenu(cat, subs))
}

// showSubcategory enters a subcategory, or dispatches its special action
// and resets to the root when the subcategory is special. index is the
// 1-based menu position of the subcategory within its category.
func (e *Engine) showSubcategory(ctx context.Context, st *session.State, contact *models.Contact, cat *models.Category, sub *models.Subcategory, index int) {
	if kind := catalog.Classify(sub.Name); kind != catalog.SpecialNone {
		st.ClearContext()
		e.dispatchSpecial(ctx, st, contact, kind)
		return
	}

	items, err := e.catalog.Items(sub.ID)
	if err != nil {
		log.Printf("engine: list items: %v", err)
		e.reply(ctx, st, contact, msgTransientFail)
		return
	}
	st.EnterSubcategory(cat.ID, sub.ID, index)
	e.reply(ctx, st, contact, renderItemMenu(sub, items))
}

// goBack moves one level up: item listing → subcategory listing → main menu.
// At the root it re-renders the main menu.
func (e *Engine) goBack(ctx context.Context, st *session.State, contact *models.Contact) {
	switch {
	case st.Context.ActiveSubcategoryID != nil:
		cat, err := e.catalog.CategoryByID(*st.Context.ActiveCategoryID)
		if err != nil {
			log.Printf("engine: load category: %v", err)
			e.reply(ctx, st, contact, msgTransientFail)
			return
		}
		st.EnterCategory(cat.ID)
		subs, err := e.catalog.Subcategories(cat.ID)
		if err != nil {
			log.Printf("engine: list subcategories: %v", err)
			e.reply(ctx, st, contact, msgTransientFail)
			return
		}
		e.reply(ctx, st, contact, renderSubcategoryMenu(cat, subs))

	default:
		e.showMainMenu(ctx, st)
	}
}

// dispatchSpecial performs the non-catalog action of a special subcategory:
// a form wizard, the FAQ text, or the human-contact hand-off.
func (e *Engine) dispatchSpecial(ctx context.Context, st *session.State, contact *models.Contact, kind catalog.SpecialKind) {
	switch kind {
	case catalog.SpecialSimulation, catalog.SpecialBroker, catalog.SpecialProcessLookup, catalog.SpecialRental:
		e.startForm(ctx, st, contact, kind.String())

	case catalog.SpecialFAQ:
		cfg, err := e.catalog.Config()
		if err != nil {
			log.Printf("engine: load bot config: %v", err)
			e.reply(ctx, st, contact, msgTransientFail)
			return
		}
		e.reply(ctx, st, contact, cfg.FAQText)

	case catalog.SpecialHuman:
		cfg, err := e.catalog.Config()
		if err != nil {
			log.Printf("engine: load bot config: %v", err)
			e.reply(ctx, st, contact, msgTransientFail)
			return
		}
		e.reply(ctx, st, contact, cfg.HumanContact)
		e.recordTicket(contact, models.TicketKindAttention, "Pedido de atendimento humano")

	default:
		e.reply(ctx, st, contact, msgNotUnderstood)
	}
}

// recordTicket opens (or merges into) the contact's open ticket.
func (e *Engine) recordTicket(contact *models.Contact, kind string, summary string) {
	if contact == nil {
		return
	}
	stamped := fmt.Sprintf("%s em %s", summary, e.now().Format("02/01/2006 15:04"))
	if _, err := e.tickets.RecordLead(contact.ID, kind, stamped); err != nil {
		log.Printf("engine: record lead for contact %d: %v", contact.ID, err)
	}
}

// contactFor loads the Contact row for a channel, or nil when the lookup
// fails; callers treat a nil contact as "skip persistence".
func (e *Engine) contactFor(channel string) *models.Contact {
	var contact models.Contact
	if err := e.db.Where("channel = ?", channel).First(&contact).Error; err != nil {
		return nil
	}
	return &contact
}
