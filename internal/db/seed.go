package db

import (
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/brnno/brnno-api/internal/models"
)

// Seed loads a demo account with a client and a small catalog so a fresh
// environment has something to log into. It is a no-op once any user exists.
func Seed(db *gorm.DB) error {
	var users int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		user := models.User{Email: "demo@brnno.local", Password: string(hash), Name: "Demo Owner", BusinessName: "Demo Detailing"}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		client := models.Client{UserID: user.ID, Name: "Demo Client", Email: "client@brnno.local", Country: "FR"}
		if err := tx.Create(&client).Error; err != nil {
			return err
		}
		services := []models.Service{
			{UserID: user.ID, Name: "Exterior wash", UnitPrice: decimal.NewFromInt(40), Unit: "item"},
			{UserID: user.ID, Name: "Full detailing", UnitPrice: decimal.RequireFromString("120.50"), Unit: "item"},
		}
		return tx.Create(&services).Error
	})
}
