// handlers/change_order_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"costmgt/models"
	"costmgt/utils"
	"costmgt/workflow"
)

// CreateChangeOrder creates a draft change order under a contract.
func CreateChangeOrder(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if act.Role == models.RoleViewer {
		utils.RespondWithErrorCode(w, http.StatusForbidden, utils.CodeForbidden, "Viewers cannot create change orders")
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

	var req struct {
		Title       string  `json:"title"`
		Reason      string  `json:"reason,omitempty"`
		AmountDelta float64 `json:"amountDelta"`
	}
	if err := utils.ParseJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload: "+err.Error())
		return
	}
	if req.Title == "" {
		utils.RespondWithErrorCode(w, http.StatusBadRequest, utils.CodeValidation, "Title is required")
		return
	}
	if req.AmountDelta == 0 {
		utils.RespondWithErrorCode(w, http.StatusBadRequest, utils.CodeValidation, "Amount delta must be non-zero")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// The contract anchors tenancy and project scope.
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

	now := time.Now().UTC()
	co := models.ChangeOrder{
		ID:             primitive.NewObjectID(),
		OrganizationID: act.OrgID,
		ProjectID:      projectID,
		ContractID:     contractID,
		Title:          req.Title,
		Reason:         req.Reason,
		AmountDelta:    req.AmountDelta,
		ApprovalFields: models.ApprovalFields{
			Status:    workflow.StatusDraft,
			Version:   1,
			CreatedBy: act.ID,
			UpdatedBy: act.ID,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	if _, err := changeOrderCollection.InsertOne(ctx, co); err != nil {
		log.Printf("CreateChangeOrder - insert error: %v", err)
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "Failed to create change order")
		return
	}

	entry := newAuditEntry(r, act, "change_order.created", "change_order", co.ID, projectID,
		nil, bson.M{"status": co.Status, "amount": co.AmountDelta, "title": co.Title})
	recordAuditBestEffort(ctx, entry)

	log.Printf("✅ Created change order %s: %s", co.ID.Hex(), co.Title)
	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"change_order": co,
		"message":      "Change order created successfully",
		"success":      true,
	})
}

// ListChangeOrders returns the contract's change orders, newest first.
func ListChangeOrders(w http.ResponseWriter, r *http.Request) {
	listCostEntities(w, r, changeOrderCollection, "change_orders")
}

// GetChangeOrder returns a single change order.
func GetChangeOrder(w http.ResponseWriter, r *http.Request) {
	getCostEntity(w, r, changeOrderCollection, "change_order", "Change order")
}

// ProposeChangeOrder moves draft -> proposed.
func ProposeChangeOrder(w http.ResponseWriter, r *http.Request) {
	runSimpleTransition(w, r, simpleTransition{
		entityType: "change_order",
		noun:       "change order",
		collection: changeOrderCollection,
		from:       workflow.StatusDraft,
		to:         workflow.StatusProposed,
		action:     "proposed",
	})
}

// ApproveChangeOrder runs the approval workflow for proposed -> approved,
// including policy blocking and dual approval.
func ApproveChangeOrder(w http.ResponseWriter, r *http.Request) {
	runApproval(w, r, approvalTarget{
		rule:       workflow.ApproveChangeOrder,
		entityType: "change_order",
		noun:       "change order",
		collection: changeOrderCollection,
		notifyType: "change_order_approved",
	})
}

// RejectChangeOrder moves proposed -> rejected and notifies the creator.
func RejectChangeOrder(w http.ResponseWriter, r *http.Request) {
	runSimpleTransition(w, r, simpleTransition{
		entityType:    "change_order",
		noun:          "change order",
		collection:    changeOrderCollection,
		from:          workflow.StatusProposed,
		to:            workflow.StatusRejected,
		action:        "rejected",
		notifyCreator: true,
		notifyType:    "change_order_rejected",
	})
}

// listCostEntities is the shared org/project/contract-scoped list used by all
// three approvable kinds.
func listCostEntities(w http.ResponseWriter, r *http.Request, col *mongo.Collection, key string) {
	act, ok := actorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	vars := mux.Vars(r)
	filter := bson.M{"organizationId": act.OrgID}
	if pidStr := vars["projectId"]; pidStr != "" {
		pid, err := primitive.ObjectIDFromHex(pidStr)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid project ID format")
			return
		}
		filter["projectId"] = pid
	}
	if cidStr := vars["contractId"]; cidStr != "" {
		cid, err := primitive.ObjectIDFromHex(cidStr)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid contract ID format")
			return
		}
		filter["contractId"] = cid
	}
	if status := r.URL.Query().Get("status"); status != "" && status != "all" {
		filter["status"] = status
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l >= 1 && l <= 100 {
			limit = l
		}
	}
	skip := 0
	if skipStr := r.URL.Query().Get("skip"); skipStr != "" {
		if s, err := strconv.Atoi(skipStr); err == nil && s >= 0 {
			skip = s
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(skip))

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("list %s error: %v", key, err)
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "failed to fetch "+key)
		return
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err = cursor.All(ctx, &docs); err != nil {
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "failed to decode "+key)
		return
	}
	if docs == nil {
		docs = []bson.M{}
	}

	total, _ := col.CountDocuments(ctx, filter)

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		key:       docs,
		"total":   total,
		"limit":   limit,
		"skip":    skip,
		"success": true,
	})
}

// getCostEntity is the shared single-document fetch for the three kinds.
func getCostEntity(w http.ResponseWriter, r *http.Request, col *mongo.Collection, key, noun string) {
	act, ok := actorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	filter, ok := approvableFilter(r, act.OrgID)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid ID format")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var doc bson.M
	if err := col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithErrorCode(w, http.StatusNotFound, utils.CodeNotFound, noun+" not found")
		} else {
			utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "failed to fetch "+key)
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{key: doc, "success": true})
}
