package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/zapfield/zapfield/internal/catalog"
	"github.com/zapfield/zapfield/internal/models"
	"github.com/zapfield/zapfield/internal/session"
)

// Form type tags, matching catalog.SpecialKind.String() for the form kinds.
const (
	FormSimulation    = "simulation"
	FormBroker        = "broker"
	FormProcessLookup = "process-lookup"
	FormRental        = "rental"
)

// formField is one wizard step.
type formField struct {
	Key    string
	Label  string
	Prompt string
}

// formDef is a fixed wizard definition. Field order is the order answers
// are collected and echoed in the confirmation.
type formDef struct {
	Type   string
	Intro  string
	Done   string
	Fields []formField
}

// brokerAgencyField is skipped when the preceding "has agency" answer is
// negative.
const (
	brokerHasAgencyKey = "tem_imobiliaria"
	brokerAgencyKey    = "imobiliaria"
)

var formDefs = map[string]formDef{
	FormSimulation: {
		Type:  FormSimulation,
		Intro: "🧮 *Simulação de financiamento*\nVou fazer algumas perguntas rápidas. Para desistir, digite *CANCELAR*.",
		Done:  "✅ *Simulação registrada!* Em breve um consultor envia o resultado.",
		Fields: []formField{
			{Key: "nome", Label: "Nome", Prompt: "Qual é o seu nome completo?"},
			{Key: "cpf", Label: "CPF", Prompt: "Qual é o seu CPF?"},
			{Key: "renda", Label: "Renda mensal", Prompt: "Qual é a sua renda mensal?"},
			{Key: "valor_imovel", Label: "Valor do imóvel", Prompt: "Qual é o valor do imóvel desejado?"},
			{Key: "entrada", Label: "Entrada", Prompt: "Quanto você tem de entrada?"},
		},
	},
	FormBroker: {
		Type:  FormBroker,
		Intro: "📋 *Cadastro de corretor*\nVou fazer algumas perguntas rápidas. Para desistir, digite *CANCELAR*.",
		Done:  "✅ *Cadastro recebido!* Nossa equipe entra em contato para concluir o credenciamento.",
		Fields: []formField{
			{Key: "nome", Label: "Nome", Prompt: "Qual é o seu nome completo?"},
			{Key: "creci", Label: "CRECI", Prompt: "Qual é o número do seu CRECI?"},
			{Key: "telefone", Label: "Telefone", Prompt: "Qual é o seu telefone de contato?"},
			{Key: brokerHasAgencyKey, Label: "Possui imobiliária", Prompt: "Você trabalha em alguma imobiliária? (sim/não)"},
			{Key: brokerAgencyKey, Label: "Imobiliária", Prompt: "Qual é o nome da imobiliária?"},
		},
	},
	FormProcessLookup: {
		Type:  FormProcessLookup,
		Intro: "🔎 *Acompanhar processo*\nPreciso confirmar dois dados. Para desistir, digite *CANCELAR*.",
		Fields: []formField{
			{Key: "documento", Label: "CPF/CNPJ", Prompt: "Qual é o CPF ou CNPJ do titular?"},
			{Key: "nome", Label: "Nome", Prompt: "Qual é o nome completo do titular?"},
		},
	},
	FormRental: {
		Type:  FormRental,
		Intro: "📢 *Anunciar imóvel*\nVou fazer algumas perguntas rápidas. Para desistir, digite *CANCELAR*.",
		Done:  "✅ *Anúncio registrado!* Um corretor entra em contato para agendar a avaliação.",
		Fields: []formField{
			{Key: "nome", Label: "Nome", Prompt: "Qual é o seu nome completo?"},
			{Key: "telefone", Label: "Telefone", Prompt: "Qual é o seu telefone de contato?"},
			{Key: "tipo", Label: "Tipo", Prompt: "O imóvel é para venda ou locação?"},
			{Key: "endereco", Label: "Endereço", Prompt: "Qual é o endereço do imóvel?"},
			{Key: "valor", Label: "Valor pretendido", Prompt: "Qual é o valor pretendido?"},
		},
	},
}

// cancelKeywords abort an in-progress form.
var cancelKeywords = map[string]bool{
	"cancelar": true,
	"voltar":   true,
	"menu":     true,
	"inicio":   true,
	"sair":     true,
}

// startForm seeds a wizard for the channel and sends the intro plus the
// first prompt.
func (e *Engine) startForm(ctx context.Context, st *session.State, contact *models.Contact, formType string) {
	def, ok := formDefs[formType]
	if !ok {
		e.reply(ctx, st, contact, msgNotUnderstood)
		return
	}
	st.Form = &session.FormState{
		Type:   formType,
		Step:   0,
		Fields: make(map[string]string),
	}
	e.reply(ctx, st, contact, def.Intro+"\n\n"+def.Fields[0].Prompt)
}

// advanceForm consumes one answer. Cancel keywords discard the form; the
// final answer completes it (persisting, or running the process lookup).
func (e *Engine) advanceForm(ctx context.Context, st *session.State, contact *models.Contact, text string) {
	if cancelKeywords[catalog.Normalize(text)] {
		st.Form = nil
		e.reply(ctx, st, contact, "❌ Formulário cancelado. Digite *MENU* para ver as opções.")
		return
	}

	def, ok := formDefs[st.Form.Type]
	if !ok || st.Form.Step >= len(def.Fields) {
		// Corrupted form state; drop it rather than loop.
		st.Form = nil
		e.reply(ctx, st, contact, msgTransientFail)
		return
	}

	field := def.Fields[st.Form.Step]
	st.Form.Fields[field.Key] = text
	advanced := 1
	st.Form.Step++

	if def.Type == FormBroker && field.Key == brokerHasAgencyKey && isNegative(text) {
		// No agency, so never ask its name.
		st.Form.Step++
		advanced = 2
	}

	if st.Form.Step < len(def.Fields) {
		e.reply(ctx, st, contact, def.Fields[st.Form.Step].Prompt)
		return
	}

	if def.Type == FormProcessLookup {
		fields := st.Form.Fields
		st.Form = nil
		e.reply(ctx, st, contact, e.lookupProcess(fields["documento"], fields["nome"]))
		return
	}

	if err := e.persistSubmission(contact, def, st.Form.Fields); err != nil {
		log.Printf("engine: persist %s form: %v", def.Type, err)
		// Rewind exactly as far as this answer advanced (two steps when
		// the agency skip fired) so resending it retries the save.
		st.Form.Step -= advanced
		delete(st.Form.Fields, field.Key)
		e.reply(ctx, st, contact, msgTransientFail)
		return
	}

	summary := renderConfirmation(def, st.Form.Fields)
	st.Form = nil
	e.reply(ctx, st, contact, summary)
	e.recordTicket(contact, models.TicketKindLead, fmt.Sprintf("Formulário %s enviado", def.Type))
}

// persistSubmission stores a completed wizard tagged by form type.
func (e *Engine) persistSubmission(contact *models.Contact, def formDef, fields map[string]string) error {
	if contact == nil {
		return fmt.Errorf("no contact")
	}
	blob, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return e.db.Create(&models.FormSubmission{
		ContactID: contact.ID,
		FormType:  def.Type,
		Fields:    string(blob),
	}).Error
}

// renderConfirmation echoes every collected field in declared order.
func renderConfirmation(def formDef, fields map[string]string) string {
	var b strings.Builder
	b.WriteString(def.Done)
	b.WriteString("\n")
	for _, f := range def.Fields {
		value, ok := fields[f.Key]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n• %s: %s", f.Label, value)
	}
	b.WriteString("\n\nDigite *MENU* para voltar ao início.")
	return b.String()
}

// lookupProcess finds a process by normalized document plus fuzzy name
// containment and renders its status report.
func (e *Engine) lookupProcess(document, name string) string {
	doc := digitsOnly(document)
	if doc == "" {
		return "🔎 Não consegui ler o CPF/CNPJ informado. Digite *MENU* e tente novamente."
	}

	var processes []models.Process
	if err := e.db.Where("document = ?", doc).Order("id asc").Find(&processes).Error; err != nil {
		log.Printf("engine: lookup process %s: %v", doc, err)
		return msgTransientFail
	}

	wanted := catalog.Normalize(name)
	for _, p := range processes {
		stored := catalog.Normalize(p.ClientName)
		if wanted == "" || strings.Contains(stored, wanted) || strings.Contains(wanted, stored) {
			report := fmt.Sprintf("🔎 *Status do processo*\n\n• Cliente: %s\n• Situação: %s\n• Atualizado em: %s",
				p.ClientName, p.Status, p.UpdatedAt.Format("02/01/2006"))
			if p.Notes != "" {
				report += "\n\n" + p.Notes
			}
			return report
		}
	}

	return "🔎 Não encontramos um processo com esses dados. Confira o CPF/CNPJ e o nome, ou digite *MENU*."
}

// isNegative matches the negative tokens of a sim/não answer.
func isNegative(text string) bool {
	switch catalog.Normalize(text) {
	case "n", "nao":
		return true
	}
	return false
}

// digitsOnly strips everything but ASCII digits.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
