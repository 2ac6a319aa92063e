// database/seed.go
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"costmgt/config"
	"costmgt/models"
	"costmgt/utils"
)

// EnsureSeedData bootstraps a default organization and superadmin account
// when the users collection is empty, so a fresh deployment can log in.
// Credentials come from ADMIN_EMAIL / ADMIN_PASSWORD.
func EnsureSeedData() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	users := Collection("users")
	count, err := users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	org := models.Organization{
		ID:        primitive.NewObjectID(),
		Name:      "Default Organization",
		CreatedAt: now,
	}
	if _, err := Collection("organizations").InsertOne(ctx, org); err != nil {
		return fmt.Errorf("failed to seed organization: %w", err)
	}

	hash, err := utils.HashPassword(config.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := models.User{
		ID:             primitive.NewObjectID(),
		FirstName:      "System",
		LastName:       "Admin",
		Email:          config.AdminEmail,
		PasswordHash:   hash,
		Role:           models.RoleSuperadmin,
		Active:         true,
		OrganizationID: org.ID,
		CreatedAt:      now,
	}
	if _, err := users.InsertOne(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	log.Printf("✅ Seeded default organization and superadmin %s", config.AdminEmail)
	return nil
}
