package db

import (
	"fmt"

	"github.com/unlimited-chat/chatbilling/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema for all billing tables.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.AppConfig{},
		&models.UserWallet{},
		&models.VipSubscription{},
		&models.WalletLedger{},
		&models.ModelPricing{},
		&models.RedeemCard{},
		&models.CardRedemption{},
		&models.Admin{},
	)
}
