package engine

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/zapfield/zapfield/internal/models"
	"github.com/zapfield/zapfield/internal/session"
	"github.com/zapfield/zapfield/internal/transport"
)

// showItem emits an item's full card: media first (images, then documents,
// then videos, each capped), then the formatted text. Viewing an item does
// not change navigation state, so the user can keep picking siblings.
func (e *Engine) showItem(ctx context.Context, st *session.State, contact *models.Contact, item *models.Item) {
	if atts := e.cardAttachments(item); len(atts) > 0 {
		err := e.adapter.Send(ctx, transport.OutboundMessage{
			Channel:     st.Channel,
			Attachments: atts,
		})
		if err != nil {
			log.Printf("engine: send media for item %d: %v", item.ID, err)
		}
	}
	e.reply(ctx, st, contact, renderItemCard(item))
}

// cardAttachments converts an item's stored media into capped, mime-typed
// attachments in kind order. Malformed media is skipped per-attachment.
func (e *Engine) cardAttachments(item *models.Item) []transport.Attachment {
	byKind := map[string][]transport.Attachment{}
	for _, m := range item.Media {
		att, err := transport.NewAttachment(m.Kind, m.Source, m.FileName)
		if err != nil {
			log.Printf("engine: item %d media %d: %v", item.ID, m.ID, err)
			continue
		}
		byKind[m.Kind] = append(byKind[m.Kind], att)
	}

	var ordered []transport.Attachment
	ordered = append(ordered, byKind[transport.KindImage]...)
	ordered = append(ordered, byKind[transport.KindDocument]...)
	ordered = append(ordered, byKind[transport.KindVideo]...)
	return transport.CapAttachments(ordered)
}

// renderItemCard renders the text portion of an item card.
func renderItemCard(item *models.Item) string {
	var b strings.Builder
	if item.Emoji != "" {
		fmt.Fprintf(&b, "*%s %s*\n", item.Emoji, item.Name)
	} else {
		fmt.Fprintf(&b, "*%s*\n", item.Name)
	}
	if item.Price != "" {
		fmt.Fprintf(&b, "💰 %s\n", item.Price)
	}
	if item.Description != "" {
		b.WriteByte('\n')
		b.WriteString(item.Description)
	}
	b.WriteString("\n\nDigite *VOLTAR* para a lista ou *MENU* para recomeçar.")
	return b.String()
}
