// handlers/user_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"costmgt/models"
	"costmgt/utils"
)

// ListUsers returns the tenant's users. Admin tier only.
func ListUsers(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if !isAdminTier(act.Role) {
		utils.RespondWithErrorCode(w, http.StatusForbidden, utils.CodeForbidden, "Admin role required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := userCollection.Find(ctx, bson.M{"organizationId": act.OrgID}, opts)
	if err != nil {
		log.Printf("ListUsers - find error: %v", err)
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "failed to fetch users")
		return
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "failed to decode users")
		return
	}
	if users == nil {
		users = []models.User{}
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"users":   users,
		"total":   len(users),
		"success": true,
	})
}

type inviteEntry struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	JobTitle  string `json:"jobTitle,omitempty"`
	Role      string `json:"role"`
}

// InviteUsers creates accounts for a batch of invitees with generated
// passwords. Each entry succeeds or fails on its own; the response lists
// both outcomes. Admin tier only.
func InviteUsers(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if !isAdminTier(act.Role) {
		utils.RespondWithErrorCode(w, http.StatusForbidden, utils.CodeForbidden, "Admin role required")
		return
	}

	var req struct {
		Users []inviteEntry `json:"users"`
	}
	if err := utils.ParseJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload: "+err.Error())
		return
	}
	if len(req.Users) == 0 {
		utils.RespondWithErrorCode(w, http.StatusBadRequest, utils.CodeValidation, "At least one user is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var invited []map[string]interface{}
	var failed []map[string]string

	for _, entry := range req.Users {
		email := strings.ToLower(strings.TrimSpace(entry.Email))
		if email == "" || !strings.Contains(email, "@") {
			failed = append(failed, map[string]string{"email": entry.Email, "reason": "valid email required"})
			continue
		}
		if !models.ValidRole(entry.Role) {
			failed = append(failed, map[string]string{"email": email, "reason": "unknown role " + entry.Role})
			continue
		}
		if entry.Role == models.RoleSuperadmin && act.Role != models.RoleSuperadmin {
			failed = append(failed, map[string]string{"email": email, "reason": "only superadmins can invite superadmins"})
			continue
		}

		count, err := userCollection.CountDocuments(ctx, bson.M{"email": email})
		if err != nil {
			failed = append(failed, map[string]string{"email": email, "reason": "lookup failed"})
			continue
		}
		if count > 0 {
			failed = append(failed, map[string]string{"email": email, "reason": "email already registered"})
			continue
		}

		password := utils.GenerateRandomPassword(12)
		hash, err := utils.HashPassword(password)
		if err != nil {
			failed = append(failed, map[string]string{"email": email, "reason": "password hashing failed"})
			continue
		}

		user := models.User{
			ID:             primitive.NewObjectID(),
			FirstName:      strings.TrimSpace(entry.FirstName),
			LastName:       strings.TrimSpace(entry.LastName),
			Email:          email,
			JobTitle:       strings.TrimSpace(entry.JobTitle),
			PasswordHash:   hash,
			Role:           entry.Role,
			Active:         true,
			OrganizationID: act.OrgID,
			CreatedAt:      time.Now().UTC(),
		}

		if _, err := userCollection.InsertOne(ctx, user); err != nil {
			log.Printf("InviteUsers - insert error for %s: %v", email, err)
			failed = append(failed, map[string]string{"email": email, "reason": "insert failed"})
			continue
		}

		entryAudit := newAuditEntry(r, act, "user.invited", "user", user.ID, primitive.NilObjectID,
			nil, bson.M{"email": email, "role": entry.Role})
		recordAuditBestEffort(ctx, entryAudit)

		// The generated password is returned once to the inviter. There is
		// no outbound email path.
		invited = append(invited, map[string]interface{}{
			"id":                user.ID.Hex(),
			"email":             email,
			"role":              entry.Role,
			"temporaryPassword": password,
		})
	}

	if invited == nil {
		invited = []map[string]interface{}{}
	}
	if failed == nil {
		failed = []map[string]string{}
	}

	log.Printf("✅ Invited %d user(s), %d failed, by %s", len(invited), len(failed), act.Email)
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"invited": invited,
		"failed":  failed,
		"success": true,
	})
}
