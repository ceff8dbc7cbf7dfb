package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/zapfield/zapfield/internal/catalog"
	"github.com/zapfield/zapfield/internal/models"
	"github.com/zapfield/zapfield/internal/session"
	"github.com/zapfield/zapfield/internal/transport"
)

const operatorHelpTrigger = "!comandos"

// handleOperator processes a message typed from the bot's own identity in a
// customer chat. A recognized alias trigger executes its action toward that
// chat; anything else is recorded as a manual operator reply so the AI path
// sees it in history.
func (e *Engine) handleOperator(ctx context.Context, msg transport.InboundMessage, text string) {
	channel := msg.SenderID
	normalized := catalog.Normalize(text)

	aliases, err := e.catalog.Aliases()
	if err != nil {
		log.Printf("engine: load aliases: %v", err)
		aliases = nil
	}

	// Aliases are checked first, so a configured alias may override the
	// built-in help trigger.
	for _, alias := range aliases {
		if catalog.Normalize(alias.Trigger) != normalized {
			continue
		}
		e.runAlias(ctx, channel, alias)
		return
	}

	if normalized == operatorHelpTrigger {
		e.sendText(ctx, channel, renderAliasHelp(aliases))
		return
	}

	// Manual operator reply: keep log and history coherent without
	// sending anything.
	st := e.sessions.GetOrCreate(channel)
	contact := e.contactFor(channel)
	e.logMessage(contact, "assistant", text, msg.MessageID)
	st.AppendHistory(e.historyLimit, "assistant", text)
}

// runAlias executes one alias action toward a customer chat.
func (e *Engine) runAlias(ctx context.Context, channel string, alias models.OperatorAlias) {
	st := e.sessions.GetOrCreate(channel)
	contact := e.contactFor(channel)

	switch alias.Action {
	case models.AliasActionText:
		e.reply(ctx, st, contact, alias.ResponseText)

	case models.AliasActionFiles:
		e.sendAliasFiles(ctx, st, contact, alias)

	case models.AliasActionItem:
		e.sendAliasItem(ctx, st, contact, alias)

	case models.AliasActionSubcategory:
		e.sendAliasSubcategory(ctx, st, contact, alias)

	case models.AliasActionMenu:
		e.showMainMenu(ctx, st)

	case models.AliasActionPauseAI:
		e.setAIEnabled(ctx, channel, false)

	case models.AliasActionResumeAI:
		e.setAIEnabled(ctx, channel, true)

	default:
		log.Printf("engine: alias %q has unknown action %q", alias.Trigger, alias.Action)
	}
}

// sendAliasFiles sends an alias's canned attachments, then its text if any.
func (e *Engine) sendAliasFiles(ctx context.Context, st *session.State, contact *models.Contact, alias models.OperatorAlias) {
	media := append([]models.AliasMedia(nil), alias.Media...)
	sort.SliceStable(media, func(i, j int) bool { return media[i].Position < media[j].Position })

	var atts []transport.Attachment
	for _, m := range media {
		att, err := transport.NewAttachment(m.Kind, m.Source, m.FileName)
		if err != nil {
			log.Printf("engine: alias %q media %d: %v", alias.Trigger, m.ID, err)
			continue
		}
		atts = append(atts, att)
	}
	atts = transport.CapAttachments(atts)

	if len(atts) > 0 {
		if err := e.adapter.Send(ctx, transport.OutboundMessage{Channel: st.Channel, Attachments: atts}); err != nil {
			log.Printf("engine: alias %q send media: %v", alias.Trigger, err)
		}
	}
	if alias.ResponseText != "" {
		e.reply(ctx, st, contact, alias.ResponseText)
	}
}

// sendAliasItem shows the linked item card as if the customer had navigated
// to it.
func (e *Engine) sendAliasItem(ctx context.Context, st *session.State, contact *models.Contact, alias models.OperatorAlias) {
	if alias.ItemID == nil {
		log.Printf("engine: alias %q has no linked item", alias.Trigger)
		return
	}
	items, err := e.catalog.AllItems()
	if err != nil {
		log.Printf("engine: alias %q: load items: %v", alias.Trigger, err)
		return
	}
	for i := range items {
		if items[i].ID == *alias.ItemID {
			e.showItem(ctx, st, contact, &items[i])
			return
		}
	}
	log.Printf("engine: alias %q links missing item %d", alias.Trigger, *alias.ItemID)
}

// sendAliasSubcategory enters the linked subcategory as if the customer had
// selected it from its category menu.
func (e *Engine) sendAliasSubcategory(ctx context.Context, st *session.State, contact *models.Contact, alias models.OperatorAlias) {
	if alias.SubcategoryID == nil {
		log.Printf("engine: alias %q has no linked subcategory", alias.Trigger)
		return
	}
	sub, err := e.catalog.SubcategoryByID(*alias.SubcategoryID)
	if err != nil {
		log.Printf("engine: alias %q: load subcategory %d: %v", alias.Trigger, *alias.SubcategoryID, err)
		return
	}
	cat, err := e.catalog.CategoryByID(sub.CategoryID)
	if err != nil {
		log.Printf("engine: alias %q: load category %d: %v", alias.Trigger, sub.CategoryID, err)
		return
	}
	siblings, err := e.catalog.Subcategories(cat.ID)
	if err != nil {
		log.Printf("engine: alias %q: load siblings: %v", alias.Trigger, err)
		return
	}
	index := 1
	for i, s := range siblings {
		if s.ID == sub.ID {
			index = i + 1
			break
		}
	}
	e.showSubcategory(ctx, st, contact, cat, sub, index)
}

// setAIEnabled flips the runtime AI toggle and confirms in the chat the
// command came from.
func (e *Engine) setAIEnabled(ctx context.Context, channel string, enabled bool) {
	cfg, err := e.catalog.Config()
	if err != nil {
		log.Printf("engine: load bot config: %v", err)
		return
	}
	if err := e.db.Model(cfg).Update("ai_enabled", enabled).Error; err != nil {
		log.Printf("engine: toggle ai: %v", err)
		e.sendText(ctx, channel, msgTransientFail)
		return
	}
	if enabled {
		e.sendText(ctx, channel, "✅ IA reativada.")
	} else {
		e.sendText(ctx, channel, "✅ IA pausada. As respostas automáticas estão desligadas.")
	}
}

// renderAliasHelp lists the configured operator triggers.
func renderAliasHelp(aliases []models.OperatorAlias) string {
	if len(aliases) == 0 {
		return "📋 Nenhum comando configurado."
	}
	var b strings.Builder
	b.WriteString("📋 *Comandos do operador*\n")
	for _, a := range aliases {
		fmt.Fprintf(&b, "\n• %s (%s)", a.Trigger, a.Action)
	}
	return b.String()
}
