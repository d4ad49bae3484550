// Bootstrap script to create or update an admin account
// cmd/seed-admin/main.go
package main

import (
	"flag"
	"log"
	"time"

	"idea-portal-api/config"
	"idea-portal-api/models"
	"idea-portal-api/utils"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	email := flag.String("email", "", "admin email address")
	password := flag.String("password", "", "admin password")
	displayName := flag.String("display-name", "Portal Admin", "display name")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("Both -email and -password are required")
	}

	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	normalized := utils.NormalizeEmail(*email)
	if !utils.ValidateEmail(normalized) {
		log.Fatal("Invalid email address")
	}
	if valid, message := utils.ValidatePassword(*password); !valid {
		log.Fatal(message)
	}

	// Initialize database
	config.InitDB()

	hashedPassword, err := utils.HashPassword(*password)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	now := time.Now()

	var user models.User
	err = config.DB.Where("email = ? AND delete_at IS NULL", normalized).First(&user).Error
	switch err {
	case nil:
		updates := map[string]interface{}{
			"password":  hashedPassword,
			"role":      models.RoleAdmin,
			"update_at": now,
		}
		if err := config.DB.Model(&user).Updates(updates).Error; err != nil {
			log.Fatal("Failed to update user:", err)
		}
		log.Printf("Updated existing user %s to admin\n", normalized)
	case gorm.ErrRecordNotFound:
		user = models.User{
			Email:        normalized,
			Password:     hashedPassword,
			Role:         models.RoleAdmin,
			DisplayName:  *displayName,
			AvatarAnimal: models.AvatarAnimals[0],
			CreateAt:     &now,
			UpdateAt:     &now,
		}
		if err := config.DB.Create(&user).Error; err != nil {
			log.Fatal("Failed to create user:", err)
		}
		log.Printf("Created admin user %s\n", normalized)
	default:
		log.Fatal("Failed to look up user:", err)
	}

	log.Println("Admin seed completed!")
}
