// handlers/certificate_handler.go
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

// CreatePaymentCertificate creates a draft certificate under a contract.
func CreatePaymentCertificate(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if act.Role == models.RoleViewer {
		utils.RespondWithErrorCode(w, http.StatusForbidden, utils.CodeForbidden, "Viewers cannot create payment certificates")
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
		Period string  `json:"period,omitempty"`
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
	cert := models.PaymentCertificate{
		ID:             primitive.NewObjectID(),
		OrganizationID: act.OrgID,
		ProjectID:      projectID,
		ContractID:     contractID,
		Title:          req.Title,
		Period:         req.Period,
		Amount:         req.Amount,
		ApprovalFields: models.ApprovalFields{
			Status:    workflow.StatusDraft,
			Version:   1,
			CreatedBy: act.ID,
			UpdatedBy: act.ID,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	if _, err := certificateCollection.InsertOne(ctx, cert); err != nil {
		log.Printf("CreatePaymentCertificate - insert error: %v", err)
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "Failed to create payment certificate")
		return
	}

	entry := newAuditEntry(r, act, "payment_certificate.created", "payment_certificate", cert.ID, projectID,
		nil, bson.M{"status": cert.Status, "amount": cert.Amount, "title": cert.Title})
	recordAuditBestEffort(ctx, entry)

	log.Printf("✅ Created payment certificate %s: %s", cert.ID.Hex(), cert.Title)
	utils.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"payment_certificate": cert,
		"message":             "Payment certificate created successfully",
		"success":             true,
	})
}

// ListPaymentCertificates returns the contract's certificates, newest first.
func ListPaymentCertificates(w http.ResponseWriter, r *http.Request) {
	listCostEntities(w, r, certificateCollection, "payment_certificates")
}

// GetPaymentCertificate returns a single certificate.
func GetPaymentCertificate(w http.ResponseWriter, r *http.Request) {
	getCostEntity(w, r, certificateCollection, "payment_certificate", "Payment certificate")
}

// SubmitPaymentCertificate moves draft -> submitted.
func SubmitPaymentCertificate(w http.ResponseWriter, r *http.Request) {
	runSimpleTransition(w, r, simpleTransition{
		entityType: "payment_certificate",
		noun:       "payment certificate",
		collection: certificateCollection,
		from:       workflow.StatusDraft,
		to:         workflow.StatusSubmitted,
		action:     "submitted",
	})
}

// ApprovePaymentCertificate runs the approval workflow for
// submitted -> approved.
func ApprovePaymentCertificate(w http.ResponseWriter, r *http.Request) {
	runApproval(w, r, approvalTarget{
		rule:       workflow.ApproveCertificate,
		entityType: "payment_certificate",
		noun:       "payment certificate",
		collection: certificateCollection,
		notifyType: "payment_certificate_approved",
	})
}
