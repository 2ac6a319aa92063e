// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Valid user roles. superadmin and admin are the high-privilege tier that
// bypasses dual-approval and policy blocking.
const (
	RoleSuperadmin     = "superadmin"
	RoleAdmin          = "admin"
	RoleFinanceManager = "finance_manager"
	RoleProjectManager = "project_manager"
	RoleViewer         = "viewer"
)

type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName      string             `bson:"firstName" json:"firstName"`
	LastName       string             `bson:"lastName" json:"lastName"`
	Email          string             `bson:"email" json:"email"`
	JobTitle       string             `bson:"jobTitle,omitempty" json:"jobTitle,omitempty"`
	PasswordHash   string             `bson:"passwordHash" json:"-"`
	Role           string             `bson:"role" json:"role"`
	Active         bool               `bson:"active" json:"active"`
	OrganizationID primitive.ObjectID `bson:"organizationId" json:"organizationId"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// ValidRole reports whether role is one of the known role names.
func ValidRole(role string) bool {
	switch role {
	case RoleSuperadmin, RoleAdmin, RoleFinanceManager, RoleProjectManager, RoleViewer:
		return true
	}
	return false
}
