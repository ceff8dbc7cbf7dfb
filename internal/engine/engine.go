// Package engine implements the conversation orchestration core: it takes
// deduplicated inbound events and drives menu navigation, form wizards, the
// operator command channel and the AI tool-call path, producing outbound
// sends plus session and message-log updates.
package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zapfield/zapfield/internal/ai"
	"github.com/zapfield/zapfield/internal/catalog"
	"github.com/zapfield/zapfield/internal/dedup"
	"github.com/zapfield/zapfield/internal/models"
	"github.com/zapfield/zapfield/internal/session"
	"github.com/zapfield/zapfield/internal/tickets"
	"github.com/zapfield/zapfield/internal/transport"
	"gorm.io/gorm"
)

// Canned replies. User-facing strings are load-bearing: tests and operators
// rely on their exact text.
const (
	msgInvalidOption = "❌ Opção inválida. Digite um número do menu ou *MENU* para recomeçar."
	msgNotUnderstood = "Não entendi. 🤔 Digite *MENU* para ver as opções."
	msgTransientFail = "😕 Tivemos um problema por aqui. Digite *MENU* e tente novamente."
	msgAIFallback    = "😕 Desculpe, estou com dificuldades no momento. Digite *MENU* para ver as opções."
)

// DefaultWelcomeCooldown is how long before a returning contact is
// re-welcomed and their navigation context reset.
const DefaultWelcomeCooldown = 24 * time.Hour

// Engine is the conversation orchestrator. It processes one inbound event
// at a time to completion; the daemon's single inbound loop guarantees no
// two events for the same channel run concurrently.
type Engine struct {
	db       *gorm.DB
	catalog  *catalog.Store
	sessions session.Store
	gate     *dedup.Gate
	tickets  *tickets.Manager
	adapter  transport.Adapter
	ai       ai.Client // nil disables the AI path

	botName         string
	historyLimit    int
	welcomeCooldown time.Duration
	now             func() time.Time
	out             io.Writer
}

// EngineOpts holds parameters for creating an Engine.
type EngineOpts struct {
	DB       *gorm.DB
	Catalog  *catalog.Store
	Sessions session.Store
	Gate     *dedup.Gate
	Tickets  *tickets.Manager
	Adapter  transport.Adapter
	AI       ai.Client // optional

	BotName         string
	HistoryLimit    int           // defaults to session.DefaultHistoryLimit
	WelcomeCooldown time.Duration // defaults to DefaultWelcomeCooldown
	Now             func() time.Time
	Out             io.Writer // defaults to os.Stdout
}

// NewEngine creates an Engine.
func NewEngine(opts EngineOpts) (*Engine, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("engine: db is required")
	}
	if opts.Catalog == nil {
		return nil, fmt.Errorf("engine: catalog is required")
	}
	if opts.Sessions == nil {
		return nil, fmt.Errorf("engine: session store is required")
	}
	if opts.Gate == nil {
		return nil, fmt.Errorf("engine: dedup gate is required")
	}
	if opts.Tickets == nil {
		return nil, fmt.Errorf("engine: ticket manager is required")
	}
	if opts.Adapter == nil {
		return nil, fmt.Errorf("engine: adapter is required")
	}

	historyLimit := opts.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = session.DefaultHistoryLimit
	}
	cooldown := opts.WelcomeCooldown
	if cooldown <= 0 {
		cooldown = DefaultWelcomeCooldown
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	botName := opts.BotName
	if botName == "" {
		botName = "Zapfield"
	}

	return &Engine{
		db:              opts.DB,
		catalog:         opts.Catalog,
		sessions:        opts.Sessions,
		gate:            opts.Gate,
		tickets:         opts.Tickets,
		adapter:         opts.Adapter,
		ai:              opts.AI,
		botName:         botName,
		historyLimit:    historyLimit,
		welcomeCooldown: cooldown,
		now:             now,
		out:             out,
	}, nil
}

// Handle processes one inbound event to completion. Routing order:
//  1. Empty/non-text payload → ignore
//  2. Duplicate transport message id → drop silently
//  3. Message from the bot's own identity → operator interceptor
//  4. Duplicate (channel, text) within window → drop silently
//  5. MENU / VOLTAR commands
//  6. Active form → form engine
//  7. First contact or welcome cooldown expiry → welcome
//  8. Numeric selection → menu navigator
//  9. Greeting → welcome
//  10. Everything else → AI path
func (e *Engine) Handle(ctx context.Context, msg transport.InboundMessage) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	if e.gate.SeenID(msg.MessageID) {
		return
	}

	if msg.IsFromSelf {
		e.handleOperator(ctx, msg, text)
		return
	}

	if e.gate.SeenText(msg.SenderID, text) {
		return
	}

	fmt.Fprintf(e.out, "engine: recv [ch=%s] %q\n", msg.SenderID, truncate(text, 80))

	contact, err := e.upsertContact(msg.SenderID, msg.SenderName)
	if err != nil {
		log.Printf("engine: upsert contact %s: %v", msg.SenderID, err)
		e.sendText(ctx, msg.SenderID, msgTransientFail)
		return
	}

	st := e.sessions.GetOrCreate(msg.SenderID)
	e.logMessage(contact, "user", text, msg.MessageID)
	st.AppendHistory(e.historyLimit, "user", text)

	switch {
	case isMenuCommand(text):
		st.Form = nil
		e.showMainMenu(ctx, st)

	case isBackCommand(text) && st.Form == nil:
		e.goBack(ctx, st, contact)

	case st.Form != nil:
		e.advanceForm(ctx, st, contact, text)

	case e.welcomeDue(st):
		e.sendWelcome(ctx, st, contact)

	default:
		if n, ok := parseSelection(text); ok {
			e.handleSelection(ctx, st, contact, n)
			return
		}
		if isGreeting(text) {
			e.sendWelcome(ctx, st, contact)
			return
		}
		e.handleAI(ctx, st, contact, text)
	}
}

// welcomeDue reports whether the channel should be (re-)welcomed: first
// inbound message ever, or the cooldown has elapsed since the last welcome.
func (e *Engine) welcomeDue(st *session.State) bool {
	if st.Context.LastWelcomeAt.IsZero() {
		return true
	}
	return e.now().Sub(st.Context.LastWelcomeAt) > e.welcomeCooldown
}

// sendWelcome sends the configured welcome text plus the main menu and
// resets the navigation context.
func (e *Engine) sendWelcome(ctx context.Context, st *session.State, contact *models.Contact) {
	cfg, err := e.catalog.Config()
	if err != nil {
		log.Printf("engine: load bot config: %v", err)
		e.reply(ctx, st, contact, msgTransientFail)
		return
	}
	st.Form = nil
	st.ClearContext()
	st.Context.LastWelcomeAt = e.now()

	if cfg.WelcomeText != "" {
		e.reply(ctx, st, contact, cfg.WelcomeText)
	}
	e.showMainMenu(ctx, st)
}

// upsertContact finds or creates the Contact row for a channel identity.
func (e *Engine) upsertContact(channel, name string) (*models.Contact, error) {
	var contact models.Contact
	err := e.db.Where("channel = ?", channel).First(&contact).Error
	if err == gorm.ErrRecordNotFound {
		contact = models.Contact{Channel: channel, Name: name}
		if createErr := e.db.Create(&contact).Error; createErr != nil {
			return nil, createErr
		}
		return &contact, nil
	}
	if err != nil {
		return nil, err
	}
	if name != "" && contact.Name != name {
		contact.Name = name
		e.db.Model(&contact).Update("name", name)
	}
	return &contact, nil
}

// logMessage appends to the per-contact message log. Best-effort: a failed
// write is logged locally and never blocks the conversation.
func (e *Engine) logMessage(contact *models.Contact, role, content, transportMsgID string) {
	if contact == nil {
		return
	}
	entry := models.MessageLog{
		ContactID:      contact.ID,
		Role:           role,
		Content:        content,
		TransportMsgID: transportMsgID,
	}
	if err := e.db.Create(&entry).Error; err != nil {
		log.Printf("engine: log message for contact %d: %v", contact.ID, err)
	}
}

// sendText delivers a text message to a channel without touching history.
func (e *Engine) sendText(ctx context.Context, channel, text string) {
	if err := e.adapter.Send(ctx, transport.OutboundMessage{Channel: channel, Text: text}); err != nil {
		log.Printf("engine: send to %s: %v", channel, err)
	}
}

// reply sends a text message and records it as an assistant turn in both
// the message log and the rolling history.
func (e *Engine) reply(ctx context.Context, st *session.State, contact *models.Contact, text string) {
	e.sendText(ctx, st.Channel, text)
	e.logMessage(contact, "assistant", text, "")
	st.AppendHistory(e.historyLimit, "assistant", text)
}

// parseSelection parses a menu selection: a short, purely numeric reply.
func parseSelection(text string) (int, bool) {
	if len(text) == 0 || len(text) > 3 {
		return 0, false
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// isMenuCommand matches the unconditional reset commands.
func isMenuCommand(text string) bool {
	switch catalog.Normalize(text) {
	case "menu", "inicio", "comecar", "0":
		return true
	}
	return false
}

// isBackCommand matches the one-level-up command.
func isBackCommand(text string) bool {
	n := catalog.Normalize(text)
	return n == "voltar" || n == "back"
}

// greetings are the openers that trigger a welcome even within the cooldown.
var greetings = []string{
	"oi", "ola", "oie", "opa", "bom dia", "boa tarde", "boa noite", "hello", "hi",
}

// isGreeting matches common conversation openers.
func isGreeting(text string) bool {
	n := catalog.Normalize(text)
	for _, g := range greetings {
		if n == g || strings.HasPrefix(n, g+" ") || strings.HasPrefix(n, g+",") || strings.HasPrefix(n, g+"!") {
			return true
		}
	}
	return false
}

// truncate returns s truncated to maxLen with "..." appended if needed.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
