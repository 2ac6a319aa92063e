// handlers/project_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"costmgt/models"
	"costmgt/utils"
)

// CreateProject creates a project with a budget that the governance
// overview ranks approved change orders against.
func CreateProject(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if act.Role == models.RoleViewer {
		utils.RespondWithErrorCode(w, http.StatusForbidden, utils.CodeForbidden, "Viewers cannot create projects")
		return
	}

	var req struct {
		Name   string  `json:"name"`
		Code   string  `json:"code,omitempty"`
		Budget float64 `json:"budget"`
	}
	if err := utils.ParseJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload: "+err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		utils.RespondWithErrorCode(w, http.StatusBadRequest, utils.CodeValidation, "Name is required")
		return
	}
	if req.Budget < 0 {
		utils.RespondWithErrorCode(w, http.StatusBadRequest, utils.CodeValidation, "Budget must be non-negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	project := models.Project{
		ID:             primitive.NewObjectID(),
		OrganizationID: act.OrgID,
		Name:           req.Name,
		Code:           strings.TrimSpace(req.Code),
		Budget:         req.Budget,
		Status:         "active",
		CreatedBy:      act.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := projectCollection.InsertOne(ctx, project); err != nil {
		log.Printf("CreateProject - insert error: %v", err)
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "Failed to create project")
		return
	}

	entry := newAuditEntry(r, act, "project.created", "project", project.ID, project.ID,
		nil, bson.M{"name": project.Name, "budget": project.Budget})
	recordAuditBestEffort(ctx, entry)

	log.Printf("✅ Created project %s: %s", project.ID.Hex(), project.Name)
	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"project": project,
		"message": "Project created successfully",
		"success": true,
	})
}

// ListProjects returns the tenant's projects, newest first.
func ListProjects(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	filter := bson.M{"organizationId": act.OrgID}
	if status := r.URL.Query().Get("status"); status != "" && status != "all" {
		filter["status"] = status
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := projectCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("ListProjects - find error: %v", err)
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "failed to fetch projects")
		return
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err = cursor.All(ctx, &projects); err != nil {
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "failed to decode projects")
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"projects": projects,
		"total":    len(projects),
		"success":  true,
	})
}

// GetProject returns a single project.
func GetProject(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	projectID, err := primitive.ObjectIDFromHex(mux.Vars(r)["projectId"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid project ID format")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var project models.Project
	err = projectCollection.FindOne(ctx, bson.M{"_id": projectID, "organizationId": act.OrgID}).Decode(&project)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithErrorCode(w, http.StatusNotFound, utils.CodeNotFound, "Project not found")
		} else {
			utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "failed to fetch project")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"project": project,
		"success": true,
	})
}
