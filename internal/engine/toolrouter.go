package engine

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/zapfield/zapfield/internal/ai"
	"github.com/zapfield/zapfield/internal/catalog"
	"github.com/zapfield/zapfield/internal/models"
	"github.com/zapfield/zapfield/internal/session"
)

const msgToolMiss = "Não encontrei essa opção. 🤔 Digite *MENU* para ver o que temos."

// navigationTools declares the actions the model may take instead of (or in
// addition to) replying with text. Matching is fuzzy on our side; the model
// only needs to echo the user's wording.
func navigationTools() []ai.ToolDef {
	return []ai.ToolDef{
		{
			Name:        "enviar_menu",
			Description: "Envia o menu principal de categorias para o cliente.",
		},
		{
			Name:        "mostrar_categoria",
			Description: "Mostra as opções de uma categoria do menu.",
			Params: []ai.Param{
				{Name: "nome_categoria", Description: "Nome (ou parte do nome) da categoria.", Required: true},
			},
		},
		{
			Name:        "mostrar_subcategoria",
			Description: "Mostra os itens de uma subcategoria.",
			Params: []ai.Param{
				{Name: "nome_subcategoria", Description: "Nome (ou parte do nome) da subcategoria.", Required: true},
			},
		},
		{
			Name:        "mostrar_item",
			Description: "Mostra a ficha completa de um item, com fotos e preço.",
			Params: []ai.Param{
				{Name: "nome_item", Description: "Nome (ou parte do nome) do item.", Required: true},
			},
		},
		{
			Name:        "iniciar_formulario",
			Description: "Inicia um formulário guiado: simulação de financiamento, cadastro de corretor, acompanhamento de processo ou anúncio de imóvel.",
			Params: []ai.Param{
				{Name: "tipo", Description: "Tipo do formulário: simulacao, corretor, processo ou anuncio.", Required: true},
			},
		},
		{
			Name:        "falar_com_humano",
			Description: "Encaminha o cliente para atendimento humano.",
		},
		{
			Name:        "enviar_faq",
			Description: "Envia o texto de perguntas frequentes.",
		},
	}
}

// systemPrompt frames the assistant for the model. It is intentionally
// short; the tools carry the real capabilities.
func (e *Engine) systemPrompt() string {
	return fmt.Sprintf("Você é %s, assistente virtual de uma imobiliária brasileira. "+
		"Responda sempre em português, de forma curta e cordial. "+
		"Quando o cliente pedir para ver imóveis, categorias ou iniciar um cadastro, "+
		"use as ferramentas disponíveis em vez de descrever o catálogo você mesmo. "+
		"Nunca invente preços ou disponibilidade.", e.botName)
}

// handleAI runs the free-text path: ask the provider, send its text, then
// execute its tool calls in order. Disabled (config flag off or no client
// wired) it degrades to the canned not-understood reply.
func (e *Engine) handleAI(ctx context.Context, st *session.State, contact *models.Contact, text string) {
	cfg, err := e.catalog.Config()
	if err != nil {
		log.Printf("engine: load bot config: %v", err)
		e.reply(ctx, st, contact, msgTransientFail)
		return
	}
	if e.ai == nil || !cfg.AIEnabled {
		e.reply(ctx, st, contact, msgNotUnderstood)
		return
	}

	req := ai.Request{
		System:   e.systemPrompt(),
		History:  e.aiHistory(st),
		UserText: text,
		Tools:    navigationTools(),
	}

	reply, err := e.ai.Respond(ctx, req)
	if err != nil {
		log.Printf("engine: ai respond: %v", err)
		// Retry once without tools; some providers reject tool schemas.
		req.Tools = nil
		reply, err = e.ai.Respond(ctx, req)
		if err != nil {
			log.Printf("engine: ai retry: %v", err)
			e.reply(ctx, st, contact, msgAIFallback)
			return
		}
	}

	if reply.Text == "" && len(reply.ToolCalls) == 0 {
		e.reply(ctx, st, contact, msgNotUnderstood)
		return
	}

	if reply.Text != "" {
		e.reply(ctx, st, contact, reply.Text)
	}
	for _, call := range reply.ToolCalls {
		e.dispatchToolCall(ctx, st, contact, call)
	}
}

// aiHistory converts the rolling session history into provider messages,
// excluding the in-flight user turn (the request carries it separately).
func (e *Engine) aiHistory(st *session.State) []ai.Message {
	history := st.History
	if n := len(history); n > 0 && history[n-1].Role == "user" {
		history = history[:n-1]
	}
	msgs := make([]ai.Message, 0, len(history))
	for _, h := range history {
		msgs = append(msgs, ai.Message{Role: h.Role, Content: h.Content})
	}
	return msgs
}

// dispatchToolCall executes one model-chosen action. Name arguments resolve
// fuzzily against the catalog; a miss is reported to the user, never
// silently dropped.
func (e *Engine) dispatchToolCall(ctx context.Context, st *session.State, contact *models.Contact, call ai.ToolCall) {
	switch call.Name {
	case "enviar_menu":
		e.showMainMenu(ctx, st)

	case "mostrar_categoria":
		cats, err := e.catalog.Categories()
		if err != nil {
			log.Printf("engine: tool %s: %v", call.Name, err)
			e.reply(ctx, st, contact, msgTransientFail)
			return
		}
		cat, ok := catalog.ResolveCategory(cats, call.Args["nome_categoria"])
		if !ok {
			e.reply(ctx, st, contact, msgToolMiss)
			return
		}
		e.showCategory(ctx, st, contact, cat)

	case "mostrar_subcategoria":
		e.toolShowSubcategory(ctx, st, contact, call.Args["nome_subcategoria"])

	case "mostrar_item":
		items, err := e.catalog.AllItems()
		if err != nil {
			log.Printf("engine: tool %s: %v", call.Name, err)
			e.reply(ctx, st, contact, msgTransientFail)
			return
		}
		item, ok := catalog.ResolveItem(items, call.Args["nome_item"])
		if !ok {
			e.reply(ctx, st, contact, msgToolMiss)
			return
		}
		e.showItem(ctx, st, contact, item)

	case "iniciar_formulario":
		formType, ok := resolveFormType(call.Args["tipo"])
		if !ok {
			e.reply(ctx, st, contact, msgToolMiss)
			return
		}
		st.ClearContext()
		e.startForm(ctx, st, contact, formType)

	case "falar_com_humano":
		e.dispatchSpecial(ctx, st, contact, catalog.SpecialHuman)

	case "enviar_faq":
		e.dispatchSpecial(ctx, st, contact, catalog.SpecialFAQ)

	default:
		log.Printf("engine: unknown tool %q", call.Name)
		e.reply(ctx, st, contact, msgToolMiss)
	}
}

// toolShowSubcategory resolves a subcategory by name and enters it through
// the same transition the numeric navigator uses, so the session index
// stays consistent for VOLTAR.
func (e *Engine) toolShowSubcategory(ctx context.Context, st *session.State, contact *models.Contact, query string) {
	subs, err := e.catalog.AllSubcategories()
	if err != nil {
		log.Printf("engine: tool mostrar_subcategoria: %v", err)
		e.reply(ctx, st, contact, msgTransientFail)
		return
	}
	sub, ok := catalog.ResolveSubcategory(subs, query)
	if !ok {
		e.reply(ctx, st, contact, msgToolMiss)
		return
	}
	cat, err := e.catalog.CategoryByID(sub.CategoryID)
	if err != nil {
		log.Printf("engine: tool mostrar_subcategoria: category %d: %v", sub.CategoryID, err)
		e.reply(ctx, st, contact, msgTransientFail)
		return
	}
	siblings, err := e.catalog.Subcategories(cat.ID)
	if err != nil {
		log.Printf("engine: tool mostrar_subcategoria: siblings of %d: %v", cat.ID, err)
		e.reply(ctx, st, contact, msgTransientFail)
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

// resolveFormType maps the model's loose "tipo" argument onto a form.
func resolveFormType(tipo string) (string, bool) {
	n := catalog.Normalize(tipo)
	switch {
	case strings.Contains(n, "simul") || strings.Contains(n, "financ"):
		return FormSimulation, true
	case strings.Contains(n, "corret") || strings.Contains(n, "creci"):
		return FormBroker, true
	case strings.Contains(n, "process") || strings.Contains(n, "acompanh"):
		return FormProcessLookup, true
	case strings.Contains(n, "anunc") || strings.Contains(n, "alug") || strings.Contains(n, "vend") || strings.Contains(n, "loca"):
		return FormRental, true
	}
	return "", false
}
