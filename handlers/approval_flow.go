// handlers/approval_flow.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"costmgt/database"
	"costmgt/models"
	"costmgt/utils"
	"costmgt/workflow"
)

var errConcurrentUpdate = errors.New("entity modified concurrently")

// approvableDoc is the common projection the approval flow reads for any of
// the three cost entity kinds. All kinds store their monetary value under
// the "amount" key.
type approvableDoc struct {
	ID                    primitive.ObjectID `bson:"_id"`
	OrganizationID        primitive.ObjectID `bson:"organizationId"`
	ProjectID             primitive.ObjectID `bson:"projectId"`
	ContractID            primitive.ObjectID `bson:"contractId"`
	Title                 string             `bson:"title"`
	Amount                float64            `bson:"amount"`
	models.ApprovalFields `bson:",inline"`
}

// approvalTarget binds the generic flow to one entity kind.
type approvalTarget struct {
	rule       workflow.Rule
	entityType string            // audit entity type and response key
	noun       string            // human label for messages
	collection *mongo.Collection // resolved per call, after InitCollections
	notifyType string
	// extraSet merges kind-specific fields into the terminal update
	// (payments stamp paidDate when the status lands on paid).
	extraSet func(now time.Time) bson.M
}

func (d *approvableDoc) workflowState() workflow.State {
	st := workflow.State{Status: d.Status}
	if d.FirstApprovedBy != nil {
		st.FirstApprovedBy = d.FirstApprovedBy.Hex()
	}
	if d.SecondApprovedBy != nil {
		st.SecondApprovedBy = d.SecondApprovedBy.Hex()
	}
	return st
}

func (d *approvableDoc) approvalSnapshot() bson.M {
	snap := bson.M{
		"status":               d.Status,
		"requiresDualApproval": d.RequiresDualApproval,
		"amount":               d.Amount,
		"version":              d.Version,
	}
	if d.FirstApprovedBy != nil {
		snap["firstApprovedBy"] = d.FirstApprovedBy.Hex()
	}
	if d.SecondApprovedBy != nil {
		snap["secondApprovedBy"] = d.SecondApprovedBy.Hex()
	}
	return snap
}

// approvableFilter builds the lookup filter scoped to the caller's
// organization and, when the route carries them, the project/contract path
// segments. Returns false when any path id is malformed.
func approvableFilter(r *http.Request, orgID primitive.ObjectID) (bson.M, bool) {
	vars := mux.Vars(r)

	entityID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		return nil, false
	}

	filter := bson.M{"_id": entityID, "organizationId": orgID}
	if pidStr := vars["projectId"]; pidStr != "" {
		pid, err := primitive.ObjectIDFromHex(pidStr)
		if err != nil {
			return nil, false
		}
		filter["projectId"] = pid
	}
	if cidStr := vars["contractId"]; cidStr != "" {
		cid, err := primitive.ObjectIDFromHex(cidStr)
		if err != nil {
			return nil, false
		}
		filter["contractId"] = cid
	}
	return filter, true
}

// applyDecision translates a mutating decision into the conditional write and
// the audit actions describing it. Pure: the caller executes the write inside
// a transaction. The CAS filter pins the expected status, the approver slot
// being claimed, and the version; the after map mirrors what the document
// looks like once the write lands.
func (t approvalTarget) applyDecision(dec workflow.Decision, doc *approvableDoc, act actor, now time.Time) (casFilter, update bson.M, auditActions []string, after bson.M) {
	before := doc.approvalSnapshot()

	casFilter = bson.M{
		"_id":            doc.ID,
		"organizationId": doc.OrganizationID,
		"version":        doc.Version,
	}
	update = bson.M{
		"updatedBy": act.ID,
		"updatedAt": now,
	}

	switch dec.Outcome {
	case workflow.OutcomeDirect:
		casFilter["status"] = t.rule.From
		update["status"] = dec.NewStatus
		if t.extraSet != nil {
			for k, v := range t.extraSet(now) {
				update[k] = v
			}
		}
		auditActions = []string{t.entityType + "." + t.rule.Action}

	case workflow.OutcomeFirstStage:
		casFilter["status"] = t.rule.From
		casFilter["firstApprovedBy"] = nil
		update["status"] = dec.NewStatus
		update["requiresDualApproval"] = true
		update["firstApprovedBy"] = act.ID
		update["firstApprovedAt"] = now
		if t.extraSet != nil {
			for k, v := range t.extraSet(now) {
				update[k] = v
			}
		}
		auditActions = []string{t.entityType + ".first_approved"}

	case workflow.OutcomeSecondStage:
		casFilter["status"] = t.rule.To
		casFilter["firstApprovedBy"] = *doc.FirstApprovedBy
		casFilter["secondApprovedBy"] = nil
		update["secondApprovedBy"] = act.ID
		update["secondApprovedAt"] = now
		// second-approval row plus the plain terminal row, kept separate
		// deliberately so forensic replay sees both steps
		auditActions = []string{
			t.entityType + ".second_approved",
			t.entityType + "." + t.rule.Action,
		}
	}

	after = bson.M{}
	for k, v := range before {
		after[k] = v
	}
	after["version"] = doc.Version + 1
	if s, ok := update["status"]; ok {
		after["status"] = s
	}
	if dec.RequiresDual {
		after["requiresDualApproval"] = true
	}
	if _, ok := update["firstApprovedBy"]; ok {
		after["firstApprovedBy"] = act.IDHex
	}
	if _, ok := update["secondApprovedBy"]; ok {
		after["secondApprovedBy"] = act.IDHex
	}
	return casFilter, update, auditActions, after
}

// policyBlockedAudit builds the audit row for a policy-blocked attempt. The
// entity never moves, so before and after carry the same snapshot.
func (t approvalTarget) policyBlockedAudit(r *http.Request, act actor, doc *approvableDoc) models.AuditLog {
	snap := doc.approvalSnapshot()
	return newAuditEntry(r, act, t.entityType+".policy_blocked", t.entityType, doc.ID, doc.ProjectID, snap, snap)
}

// runApproval executes one approve (or mark-paid) call end to end: load,
// decide, apply with a version-fenced conditional write, audit, notify.
// The entity update and its audit rows share one transaction; the creator
// notification runs after commit and is best-effort.
func runApproval(w http.ResponseWriter, r *http.Request, t approvalTarget) {
	act, ok := actorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if act.Role == models.RoleViewer {
		utils.RespondWithErrorCode(w, http.StatusForbidden, utils.CodeForbidden, "Viewers cannot approve cost entities")
		return
	}

	filter, ok := approvableFilter(r, act.OrgID)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid ID format")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 12*time.Second)
	defer cancel()

	var doc approvableDoc
	if err := t.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithErrorCode(w, http.StatusNotFound, utils.CodeNotFound, t.noun+" not found")
		} else {
			log.Printf("%s lookup error: %v", t.entityType, err)
			utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "failed to fetch "+t.noun)
		}
		return
	}

	policy, err := findCostPolicy(ctx, act.OrgID)
	if err != nil {
		log.Printf("cost policy lookup error: %v", err)
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "failed to evaluate cost policy")
		return
	}

	dec := workflow.Decide(t.rule, doc.workflowState(), doc.Amount, workflow.PolicyFromModel(policy), act.IDHex, act.Role)

	switch dec.Outcome {
	case workflow.OutcomeInvalidTransition:
		utils.RespondWithErrorCode(w, http.StatusUnprocessableEntity, utils.CodeInvalidTransition,
			fmt.Sprintf("%s cannot move from status %q to %q", t.noun, doc.Status, t.rule.To))
		return

	case workflow.OutcomeAlreadyApproved:
		utils.RespondWithErrorCode(w, http.StatusConflict, utils.CodeAlreadyApproved,
			t.noun+" has already completed this transition")
		return

	case workflow.OutcomeSameUserConflict:
		utils.RespondWithErrorCode(w, http.StatusForbidden, utils.CodeDualSameUser,
			"second approval must come from a different user than the first")
		return

	case workflow.OutcomeBlocked:
		// Hard policy block: no state change, one audit row per attempt
		// for governance visibility, then reject.
		entry := t.policyBlockedAudit(r, act, &doc)
		recordAuditBestEffort(ctx, entry)
		utils.RespondWithErrorCode(w, http.StatusForbidden, utils.CodePolicyBlocked,
			fmt.Sprintf("amount %.2f exceeds the tenant approval ceiling for %ss", doc.Amount, t.noun))
		return
	}

	now := time.Now().UTC()
	before := doc.approvalSnapshot()
	casFilter, update, auditActions, after := t.applyDecision(dec, &doc, act, now)

	entries := make([]models.AuditLog, 0, len(auditActions))
	for _, action := range auditActions {
		entries = append(entries, newAuditEntry(r, act, action, t.entityType, doc.ID, doc.ProjectID, before, after))
	}

	err = database.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		res, err := t.collection.UpdateOne(sessCtx, casFilter, bson.M{
			"$set": update,
			"$inc": bson.M{"version": 1},
		})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return errConcurrentUpdate
		}
		for _, entry := range entries {
			if err := insertAudit(sessCtx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errConcurrentUpdate) {
			utils.RespondWithErrorCode(w, http.StatusConflict, utils.CodeConflict,
				t.noun+" was modified concurrently, retry the request")
			return
		}
		log.Printf("%s approval transaction failed: %v", t.entityType, err)
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "failed to apply approval")
		return
	}

	for i := range entries {
		BroadcastAudit(&entries[i])
	}

	// Creator notification only on terminal completion, never on the first
	// dual stage, and skipped when the creator is the acting user.
	terminal := dec.Outcome == workflow.OutcomeDirect || dec.Outcome == workflow.OutcomeSecondStage
	if terminal && doc.CreatedBy != act.ID && !doc.CreatedBy.IsZero() {
		NotifyUser(act.OrgID, doc.CreatedBy, t.notifyType,
			fmt.Sprintf("%s %s", t.noun, t.rule.Action),
			fmt.Sprintf("%q (%.2f) was %s by %s", doc.Title, doc.Amount, t.rule.Action, act.Email),
			t.entityType, doc.ID,
			bson.M{"projectId": doc.ProjectID.Hex(), "contractId": doc.ContractID.Hex()})
	}

	var updated bson.M
	if err := t.collection.FindOne(ctx, bson.M{"_id": doc.ID}).Decode(&updated); err != nil {
		log.Printf("%s re-fetch after approval failed: %v", t.entityType, err)
	}

	resp := map[string]interface{}{
		"success":    true,
		"message":    fmt.Sprintf("%s %s", t.noun, stageMessage(dec)),
		t.entityType: updated,
	}
	if dec.Stage != "" {
		resp["dual_approval_stage"] = dec.Stage
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// simpleTransition is a single-step guarded status move outside the
// dual-approval protocol (draft->proposed, draft->submitted,
// proposed->rejected).
type simpleTransition struct {
	entityType    string
	noun          string
	collection    *mongo.Collection
	from          string
	to            string
	action        string // audit verb: "proposed", "submitted", "rejected"
	notifyCreator bool   // terminal transitions notify the creator
	notifyType    string
}

func runSimpleTransition(w http.ResponseWriter, r *http.Request, t simpleTransition) {
	act, ok := actorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if act.Role == models.RoleViewer {
		utils.RespondWithErrorCode(w, http.StatusForbidden, utils.CodeForbidden, "Viewers cannot modify cost entities")
		return
	}

	filter, ok := approvableFilter(r, act.OrgID)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid ID format")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 12*time.Second)
	defer cancel()

	var doc approvableDoc
	if err := t.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.RespondWithErrorCode(w, http.StatusNotFound, utils.CodeNotFound, t.noun+" not found")
		} else {
			log.Printf("%s lookup error: %v", t.entityType, err)
			utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "failed to fetch "+t.noun)
		}
		return
	}

	if doc.Status != t.from {
		utils.RespondWithErrorCode(w, http.StatusUnprocessableEntity, utils.CodeInvalidTransition,
			fmt.Sprintf("%s cannot move from status %q to %q", t.noun, doc.Status, t.to))
		return
	}

	now := time.Now().UTC()
	before := doc.approvalSnapshot()
	after := bson.M{}
	for k, v := range before {
		after[k] = v
	}
	after["status"] = t.to
	after["version"] = doc.Version + 1

	entry := newAuditEntry(r, act, t.entityType+"."+t.action, t.entityType, doc.ID, doc.ProjectID, before, after)

	err := database.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		res, err := t.collection.UpdateOne(sessCtx,
			bson.M{"_id": doc.ID, "organizationId": act.OrgID, "status": t.from, "version": doc.Version},
			bson.M{
				"$set": bson.M{"status": t.to, "updatedBy": act.ID, "updatedAt": now},
				"$inc": bson.M{"version": 1},
			})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return errConcurrentUpdate
		}
		return insertAudit(sessCtx, entry)
	})
	if err != nil {
		if errors.Is(err, errConcurrentUpdate) {
			utils.RespondWithErrorCode(w, http.StatusConflict, utils.CodeConflict,
				t.noun+" was modified concurrently, retry the request")
			return
		}
		log.Printf("%s transition failed: %v", t.entityType, err)
		utils.RespondWithErrorCode(w, http.StatusInternalServerError, utils.CodeInternal, "failed to apply transition")
		return
	}

	BroadcastAudit(&entry)

	if t.notifyCreator && doc.CreatedBy != act.ID && !doc.CreatedBy.IsZero() {
		NotifyUser(act.OrgID, doc.CreatedBy, t.notifyType,
			fmt.Sprintf("%s %s", t.noun, t.action),
			fmt.Sprintf("%q (%.2f) was %s by %s", doc.Title, doc.Amount, t.action, act.Email),
			t.entityType, doc.ID,
			bson.M{"projectId": doc.ProjectID.Hex(), "contractId": doc.ContractID.Hex()})
	}

	var updated bson.M
	if err := t.collection.FindOne(ctx, bson.M{"_id": doc.ID}).Decode(&updated); err != nil {
		log.Printf("%s re-fetch after transition failed: %v", t.entityType, err)
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"message":    fmt.Sprintf("%s %s", t.noun, t.action),
		t.entityType: updated,
	})
}

func stageMessage(dec workflow.Decision) string {
	switch dec.Stage {
	case "first":
		return "first approval recorded, awaiting second approver"
	case "second":
		return "second approval recorded, transition complete"
	}
	return "transition complete"
}
