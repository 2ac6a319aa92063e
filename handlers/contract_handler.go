// handlers/contract_handler.go
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

// CreateContract creates a contract under a project. Change orders,
// certificates and payments all hang off a contract.
func CreateContract(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if act.Role == models.RoleViewer {
		utils.RespondWithErrorCode(w, http.StatusForbidden, utils.CodeForbidden, "Viewers cannot create contracts")
		return
	}

	projectID, err := primitive.ObjectIDFromHex(mux.Vars(r)["projectId"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid project ID format")
		return
	}

	var req struct {
		Name       string  `json:"name"`
		Contractor string  `json:"contractor,omitempty"`
		Amount     float64 `json:"amount"`
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
	if req.Amount < 0 {
		utils.RespondWithErrorCode(w, http.StatusBadRequest, utils.CodeValidation, "Amount must be non-negative")
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

	now := time.Now().UTC()
	contract := models.Contract{
		ID:             primitive.NewObjectID(),
		OrganizationID: act.OrgID,
		ProjectID:      projectID,
		Name:           req.Name,
		Contractor:     strings.TrimSpace(req.Contractor),
		Amount:         req.Amount,
		CreatedBy:      act.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := contractCollection.InsertOne(ctx, contract); err != nil {
		log.Printf("CreateContract - insert error: %v", err)
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "Failed to create contract")
		return
	}

	entry := newAuditEntry(r, act, "contract.created", "contract", contract.ID, projectID,
		nil, bson.M{"name": contract.Name, "amount": contract.Amount})
	recordAuditBestEffort(ctx, entry)

	log.Printf("✅ Created contract %s: %s", contract.ID.Hex(), contract.Name)
	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"contract": contract,
		"message":  "Contract created successfully",
		"success":  true,
	})
}

// ListContracts returns the project's contracts, newest first.
func ListContracts(w http.ResponseWriter, r *http.Request) {
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

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := contractCollection.Find(ctx, bson.M{
		"organizationId": act.OrgID,
		"projectId":      projectID,
	}, opts)
	if err != nil {
		log.Printf("ListContracts - find error: %v", err)
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "failed to fetch contracts")
		return
	}
	defer cursor.Close(ctx)

	var contracts []models.Contract
	if err = cursor.All(ctx, &contracts); err != nil {
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "failed to decode contracts")
		return
	}
	if contracts == nil {
		contracts = []models.Contract{}
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"contracts": contracts,
		"total":     len(contracts),
		"success":   true,
	})
}

// GetContract returns a single contract.
func GetContract(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	vars := mux.Vars(r)
	projectID, err := primitive.ObjectIDFromHex(vars["projectId"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid project ID format")
		return
	}
	contractID, err := primitive.ObjectIDFromHex(vars["contractId"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid contract ID format")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var contract models.Contract
	err = contractCollection.FindOne(ctx, bson.M{
		"_id":            contractID,
		"organizationId": act.OrgID,
		"projectId":      projectID,
	}).Decode(&contract)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithErrorCode(w, http.StatusNotFound, utils.CodeNotFound, "Contract not found")
		} else {
			utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "failed to fetch contract")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"contract": contract,
		"success":  true,
	})
}
