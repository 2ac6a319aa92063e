// handlers/policy_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"costmgt/models"
	"costmgt/utils"
	"costmgt/workflow"
)

// findCostPolicy returns the tenant's policy, or nil when none is configured
// (which disables every threshold gate).
func findCostPolicy(ctx context.Context, orgID primitive.ObjectID) (*models.CostPolicy, error) {
	var p models.CostPolicy
	err := costPolicyCollection.FindOne(ctx, bson.M{"organizationId": orgID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func isAdminTier(role string) bool {
	return workflow.IsHighPrivilege(role)
}

// GetCostPolicy returns the tenant's cost approval policy. Admin tier only.
func GetCostPolicy(w http.ResponseWriter, r *http.Request) {
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

	policy, err := findCostPolicy(ctx, act.OrgID)
	if err != nil {
		log.Printf("GetCostPolicy - find error: %v", err)
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "failed to fetch cost policy")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"policy":     policy, // null when the tenant has no policy configured
		"configured": policy != nil,
		"success":    true,
	})
}

type costPolicyRequest struct {
	CODualThresholdAmount          *float64 `json:"coDualThresholdAmount"`
	CertificateDualThresholdAmount *float64 `json:"certificateDualThresholdAmount"`
	PaymentDualThresholdAmount     *float64 `json:"paymentDualThresholdAmount"`

	COBlockThresholdAmount          *float64 `json:"coBlockThresholdAmount"`
	CertificateBlockThresholdAmount *float64 `json:"certificateBlockThresholdAmount"`
	PaymentBlockThresholdAmount     *float64 `json:"paymentBlockThresholdAmount"`

	OverBudgetThresholdPercent *float64 `json:"overBudgetThresholdPercent"`
}

func (req *costPolicyRequest) validate() string {
	amounts := map[string]*float64{
		"coDualThresholdAmount":           req.CODualThresholdAmount,
		"certificateDualThresholdAmount":  req.CertificateDualThresholdAmount,
		"paymentDualThresholdAmount":      req.PaymentDualThresholdAmount,
		"coBlockThresholdAmount":          req.COBlockThresholdAmount,
		"certificateBlockThresholdAmount": req.CertificateBlockThresholdAmount,
		"paymentBlockThresholdAmount":     req.PaymentBlockThresholdAmount,
	}
	for name, v := range amounts {
		if v != nil && *v < 0 {
			return name + " must be non-negative"
		}
	}
	if p := req.OverBudgetThresholdPercent; p != nil && (*p < 0 || *p > 100) {
		return "overBudgetThresholdPercent must be between 0 and 100"
	}
	return ""
}

// UpdateCostPolicy upserts the tenant's cost approval policy. Omitted or
// null fields switch the corresponding gate off. Admin tier only.
func UpdateCostPolicy(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if !isAdminTier(act.Role) {
		utils.RespondWithErrorCode(w, http.StatusForbidden, utils.CodeForbidden, "Admin role required")
		return
	}

	var req costPolicyRequest
	if err := utils.ParseJSON(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payload: "+err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		utils.RespondWithErrorCode(w, http.StatusBadRequest, utils.CodeValidation, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	existing, err := findCostPolicy(ctx, act.OrgID)
	if err != nil {
		log.Printf("UpdateCostPolicy - find error: %v", err)
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "failed to fetch cost policy")
		return
	}

	now := time.Now().UTC()
	set := bson.M{
		"organizationId":                  act.OrgID,
		"coDualThresholdAmount":           req.CODualThresholdAmount,
		"certificateDualThresholdAmount":  req.CertificateDualThresholdAmount,
		"paymentDualThresholdAmount":      req.PaymentDualThresholdAmount,
		"coBlockThresholdAmount":          req.COBlockThresholdAmount,
		"certificateBlockThresholdAmount": req.CertificateBlockThresholdAmount,
		"paymentBlockThresholdAmount":     req.PaymentBlockThresholdAmount,
		"overBudgetThresholdPercent":      req.OverBudgetThresholdPercent,
		"updatedBy":                       act.ID,
		"updatedAt":                       now,
	}

	_, err = costPolicyCollection.UpdateOne(ctx,
		bson.M{"organizationId": act.OrgID},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		log.Printf("UpdateCostPolicy - upsert error: %v", err)
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "failed to update cost policy")
		return
	}

	var before bson.M
	if existing != nil {
		before = policySnapshot(existing)
	}
	updated, err := findCostPolicy(ctx, act.OrgID)
	if err != nil || updated == nil {
		log.Printf("UpdateCostPolicy - re-fetch error: %v", err)
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "policy updated but failed to fetch it")
		return
	}

	entry := newAuditEntry(r, act, "cost_policy.updated", "cost_policy", updated.ID, primitive.NilObjectID,
		before, policySnapshot(updated))
	recordAuditBestEffort(ctx, entry)

	log.Printf("✅ Cost policy updated for org %s by %s", act.OrgID.Hex(), act.Email)
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"policy":  updated,
		"message": "Cost approval policy updated",
		"success": true,
	})
}

func policySnapshot(p *models.CostPolicy) bson.M {
	return bson.M{
		"coDualThresholdAmount":           p.CODualThresholdAmount,
		"certificateDualThresholdAmount":  p.CertificateDualThresholdAmount,
		"paymentDualThresholdAmount":      p.PaymentDualThresholdAmount,
		"coBlockThresholdAmount":          p.COBlockThresholdAmount,
		"certificateBlockThresholdAmount": p.CertificateBlockThresholdAmount,
		"paymentBlockThresholdAmount":     p.PaymentBlockThresholdAmount,
		"overBudgetThresholdPercent":      p.OverBudgetThresholdPercent,
	}
}
