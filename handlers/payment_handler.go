// handlers/payment_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"costmgt/models"
	"costmgt/utils"
	"costmgt/workflow"
)

// CreatePayment creates a planned payment under a contract.
func CreatePayment(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if act.Role == models.RoleViewer {
		utils.RespondWithErrorCode(w, http.StatusForbidden, utils.CodeForbidden, "Viewers cannot create payments")
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
		Title  string  `json:"title"`
		Amount float64 `json:"amount"`
	}
	if err := utils.ParseJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload: "+err.Error())
		return
	}
	if req.Title == "" {
		utils.RespondWithErrorCode(w, http.StatusBadRequest, utils.CodeValidation, "Title is required")
		return
	}
	if req.Amount <= 0 {
		utils.RespondWithErrorCode(w, http.StatusBadRequest, utils.CodeValidation, "Amount must be positive")
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

	now := time.Now().UTC()
	payment := models.Payment{
		ID:             primitive.NewObjectID(),
		OrganizationID: act.OrgID,
		ProjectID:      projectID,
		ContractID:     contractID,
		Title:          req.Title,
		Amount:         req.Amount,
		ApprovalFields: models.ApprovalFields{
			Status:    workflow.StatusPlanned,
			Version:   1,
			CreatedBy: act.ID,
			UpdatedBy: act.ID,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	if _, err := paymentCollection.InsertOne(ctx, payment); err != nil {
		log.Printf("CreatePayment - insert error: %v", err)
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "Failed to create payment")
		return
	}

	entry := newAuditEntry(r, act, "payment.created", "payment", payment.ID, projectID,
		nil, bson.M{"status": payment.Status, "amount": payment.Amount, "title": payment.Title})
	recordAuditBestEffort(ctx, entry)

	log.Printf("✅ Created payment %s: %s", payment.ID.Hex(), payment.Title)
	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"payment": payment,
		"message": "Payment created successfully",
		"success": true,
	})
}

// ListPayments returns the contract's payments, newest first.
func ListPayments(w http.ResponseWriter, r *http.Request) {
	listCostEntities(w, r, paymentCollection, "payments")
}

// GetPayment returns a single payment.
func GetPayment(w http.ResponseWriter, r *http.Request) {
	getCostEntity(w, r, paymentCollection, "payment", "Payment")
}

// MarkPaymentPaid runs the approval workflow for planned -> paid. The paid
// date is stamped when the status lands on paid.
func MarkPaymentPaid(w http.ResponseWriter, r *http.Request) {
	runApproval(w, r, approvalTarget{
		rule:       workflow.MarkPaymentPaid,
		entityType: "payment",
		noun:       "payment",
		collection: paymentCollection,
		notifyType: "payment_paid",
		extraSet: func(now time.Time) bson.M {
			return bson.M{"paidDate": now}
		},
	})
}
