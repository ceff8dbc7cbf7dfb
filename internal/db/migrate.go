package db

import (
	"fmt"

	"github.com/zapfield/zapfield/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model for migration, catalog first so
// foreign keys resolve.
func AllModels() []interface{} {
	return []interface{}{
		&models.Category{},
		&models.Subcategory{},
		&models.Item{},
		&models.ItemMedia{},
		&models.BotConfig{},
		&models.OperatorAlias{},
		&models.AliasMedia{},
		&models.Contact{},
		&models.MessageLog{},
		&models.FormSubmission{},
		&models.Process{},
		&models.LeadTicket{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// EnsureBotConfig returns the singleton BotConfig row, creating a default
// one if the table is empty.
func EnsureBotConfig(db *gorm.DB) (*models.BotConfig, error) {
	var cfg models.BotConfig
	err := db.First(&cfg).Error
	if err == nil {
		return &cfg, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("db: load bot config: %w", err)
	}
	cfg = models.BotConfig{
		WelcomeText:  "Olá! 👋 Sou o assistente virtual. Escolha uma opção do menu abaixo.",
		FAQText:      "Ainda não cadastramos as perguntas frequentes.",
		HumanContact: "Um de nossos corretores vai falar com você em breve!",
		AIEnabled:    true,
	}
	if err := db.Create(&cfg).Error; err != nil {
		return nil, fmt.Errorf("db: create default bot config: %w", err)
	}
	return &cfg, nil
}
