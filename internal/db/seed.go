package db

import (
	"fmt"

	"github.com/zapfield/zapfield/internal/models"
	"gorm.io/gorm"
)

// SeedDemo populates an empty database with a small demo catalog so the bot
// is usable right after `zapfield db seed`. It is a no-op when categories
// already exist.
func SeedDemo(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return fmt.Errorf("db: count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	categories := []models.Category{
		{
			Name: "Imóveis", Emoji: "🏠", Position: 1, Enabled: true,
			Subcategories: []models.Subcategory{
				{
					Name: "Lançamentos", Emoji: "✨", Position: 1, Enabled: true,
					Items: []models.Item{
						{
							Name: "Residencial Aurora", Emoji: "🌅", Position: 1, Enabled: true,
							Price:       "R$ 320.000",
							Description: "Apartamento de 2 quartos com varanda, 54m², pronto para morar.",
						},
						{
							Name: "Villa das Palmeiras", Emoji: "🌴", Position: 2, Enabled: true,
							Price:       "R$ 480.000",
							Description: "Casa em condomínio fechado, 3 quartos, quintal e 2 vagas.",
						},
					},
				},
				{Name: "Aluguel", Emoji: "🔑", Position: 2, Enabled: true},
			},
		},
		{
			Name: "Atendimento", Emoji: "💬", Position: 2, Enabled: true,
			Subcategories: []models.Subcategory{
				{Name: "Simulação de financiamento", Emoji: "🧮", Position: 1, Enabled: true},
				{Name: "Cadastro de corretor", Emoji: "📋", Position: 2, Enabled: true},
				{Name: "Acompanhar meu processo", Emoji: "🔎", Position: 3, Enabled: true},
				{Name: "Anunciar imóvel para venda ou locação", Emoji: "📢", Position: 4, Enabled: true},
				{Name: "Perguntas frequentes", Emoji: "❓", Position: 5, Enabled: true},
				{Name: "Falar com atendente", Emoji: "🧑‍💼", Position: 6, Enabled: true},
			},
		},
	}

	for i := range categories {
		if err := db.Create(&categories[i]).Error; err != nil {
			return fmt.Errorf("db: seed category %q: %w", categories[i].Name, err)
		}
	}

	aliases := []models.OperatorAlias{
		{Trigger: "!pausar", Action: models.AliasActionPauseAI},
		{Trigger: "!retomar", Action: models.AliasActionResumeAI},
		{Trigger: "!menu", Action: models.AliasActionMenu},
		{
			Trigger: "!tabela", Action: models.AliasActionText,
			ResponseText: "📄 Nossa tabela de valores atualizada segue em instantes.",
		},
	}
	for i := range aliases {
		if err := db.Create(&aliases[i]).Error; err != nil {
			return fmt.Errorf("db: seed alias %q: %w", aliases[i].Trigger, err)
		}
	}

	if _, err := EnsureBotConfig(db); err != nil {
		return err
	}
	return nil
}
