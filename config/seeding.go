package config

import (
	"errors"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"p9e.in/idfsurvey/models"
)

// SeedAdminUser provisions the bootstrap admin from ADMIN_PHONE /
// ADMIN_PASSWORD. Skips silently when the user already exists or the env
// vars are absent.
func SeedAdminUser() error {
	if DB == nil {
		return nil
	}
	phone := Getenv("ADMIN_PHONE", "")
	password := Getenv("ADMIN_PASSWORD", "")
	if phone == "" || password == "" {
		log.Println("ADMIN_PHONE/ADMIN_PASSWORD not set, skipping admin seeding")
		return nil
	}

	var existing models.User
	err := DB.Where("phone = ?", phone).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		Name:         Getenv("ADMIN_NAME", "Administrator"),
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         "Super Admin",
		IsActive:     true,
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}
	log.Println("Seeded admin user", phone)
	return nil
}
