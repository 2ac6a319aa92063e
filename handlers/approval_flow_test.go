// handlers/approval_flow_test.go
package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"costmgt/models"
	"costmgt/workflow"
)

func requestWithVars(t *testing.T, vars map[string]string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/api/test", nil)
	return mux.SetURLVars(r, vars)
}

func TestApprovableFilter(t *testing.T) {
	orgID := primitive.NewObjectID()
	entityID := primitive.NewObjectID()
	projectID := primitive.NewObjectID()
	contractID := primitive.NewObjectID()

	t.Run("id only", func(t *testing.T) {
		r := requestWithVars(t, map[string]string{"id": entityID.Hex()})
		filter, ok := approvableFilter(r, orgID)
		require.True(t, ok)
		assert.Equal(t, entityID, filter["_id"])
		assert.Equal(t, orgID, filter["organizationId"])
		assert.NotContains(t, filter, "projectId")
	})

	t.Run("full path scope", func(t *testing.T) {
		r := requestWithVars(t, map[string]string{
			"id":         entityID.Hex(),
			"projectId":  projectID.Hex(),
			"contractId": contractID.Hex(),
		})
		filter, ok := approvableFilter(r, orgID)
		require.True(t, ok)
		assert.Equal(t, projectID, filter["projectId"])
		assert.Equal(t, contractID, filter["contractId"])
	})

	t.Run("malformed entity id", func(t *testing.T) {
		r := requestWithVars(t, map[string]string{"id": "not-an-oid"})
		_, ok := approvableFilter(r, orgID)
		assert.False(t, ok)
	})

	t.Run("malformed project id", func(t *testing.T) {
		r := requestWithVars(t, map[string]string{
			"id":        entityID.Hex(),
			"projectId": "xyz",
		})
		_, ok := approvableFilter(r, orgID)
		assert.False(t, ok)
	})
}

func TestActorFromRequest(t *testing.T) {
	userID := primitive.NewObjectID()
	orgID := primitive.NewObjectID()

	t.Run("fully populated context", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/test", nil)
		ctx := context.WithValue(r.Context(), "userID", userID.Hex())
		ctx = context.WithValue(ctx, "userName", "pm@example.com")
		ctx = context.WithValue(ctx, "userRole", models.RoleProjectManager)
		ctx = context.WithValue(ctx, "orgID", orgID.Hex())

		act, ok := actorFromRequest(r.WithContext(ctx))
		require.True(t, ok)
		assert.Equal(t, userID, act.ID)
		assert.Equal(t, userID.Hex(), act.IDHex)
		assert.Equal(t, "pm@example.com", act.Email)
		assert.Equal(t, models.RoleProjectManager, act.Role)
		assert.Equal(t, orgID, act.OrgID)
	})

	t.Run("missing user id", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/test", nil)
		_, ok := actorFromRequest(r)
		assert.False(t, ok)
	})

	t.Run("malformed org id", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/test", nil)
		ctx := context.WithValue(r.Context(), "userID", userID.Hex())
		ctx = context.WithValue(ctx, "orgID", "garbage")
		_, ok := actorFromRequest(r.WithContext(ctx))
		assert.False(t, ok)
	})
}

func TestWorkflowState(t *testing.T) {
	first := primitive.NewObjectID()

	doc := approvableDoc{
		ApprovalFields: models.ApprovalFields{
			Status:          workflow.StatusApproved,
			FirstApprovedBy: &first,
		},
	}

	st := doc.workflowState()
	assert.Equal(t, workflow.StatusApproved, st.Status)
	assert.Equal(t, first.Hex(), st.FirstApprovedBy)
	assert.Empty(t, st.SecondApprovedBy)
}

func TestApprovalSnapshot(t *testing.T) {
	first := primitive.NewObjectID()
	doc := approvableDoc{
		Amount: 125000,
		ApprovalFields: models.ApprovalFields{
			Status:               workflow.StatusApproved,
			RequiresDualApproval: true,
			FirstApprovedBy:      &first,
			Version:              3,
		},
	}

	snap := doc.approvalSnapshot()
	assert.Equal(t, workflow.StatusApproved, snap["status"])
	assert.Equal(t, true, snap["requiresDualApproval"])
	assert.Equal(t, 125000.0, snap["amount"])
	assert.Equal(t, int64(3), snap["version"])
	assert.Equal(t, first.Hex(), snap["firstApprovedBy"])
	assert.NotContains(t, snap, "secondApprovedBy")
}

func TestApplyDecision(t *testing.T) {
	first := primitive.NewObjectID()
	act := actor{
		ID:    primitive.NewObjectID(),
		Email: "fm@example.com",
		Role:  models.RoleFinanceManager,
		OrgID: primitive.NewObjectID(),
	}
	act.IDHex = act.ID.Hex()

	target := approvalTarget{
		rule:       workflow.ApproveChangeOrder,
		entityType: "change_order",
		noun:       "change order",
	}

	newDoc := func(status string, firstBy *primitive.ObjectID) *approvableDoc {
		return &approvableDoc{
			ID:             primitive.NewObjectID(),
			OrganizationID: act.OrgID,
			Amount:         250000,
			ApprovalFields: models.ApprovalFields{
				Status:          status,
				FirstApprovedBy: firstBy,
				Version:         2,
			},
		}
	}
	now := time.Now().UTC()

	t.Run("direct emits the terminal action only", func(t *testing.T) {
		doc := newDoc(workflow.StatusProposed, nil)
		dec := workflow.Decision{Outcome: workflow.OutcomeDirect, NewStatus: workflow.StatusApproved}

		casFilter, update, actions, after := target.applyDecision(dec, doc, act, now)

		assert.Equal(t, []string{"change_order.approved"}, actions)
		assert.Equal(t, workflow.StatusProposed, casFilter["status"])
		assert.Equal(t, int64(2), casFilter["version"])
		assert.Equal(t, workflow.StatusApproved, update["status"])
		assert.Equal(t, workflow.StatusProposed, doc.approvalSnapshot()["status"])
		assert.Equal(t, workflow.StatusApproved, after["status"])
		assert.Equal(t, int64(3), after["version"])
	})

	t.Run("first stage claims the empty first slot", func(t *testing.T) {
		doc := newDoc(workflow.StatusProposed, nil)
		dec := workflow.Decision{
			Outcome:      workflow.OutcomeFirstStage,
			NewStatus:    workflow.StatusApproved,
			RequiresDual: true,
			Stage:        "first",
		}

		casFilter, update, actions, after := target.applyDecision(dec, doc, act, now)

		assert.Equal(t, []string{"change_order.first_approved"}, actions)
		assert.Equal(t, workflow.StatusProposed, casFilter["status"])
		require.Contains(t, casFilter, "firstApprovedBy")
		assert.Nil(t, casFilter["firstApprovedBy"])
		assert.Equal(t, act.ID, update["firstApprovedBy"])
		assert.Equal(t, true, update["requiresDualApproval"])
		assert.Equal(t, workflow.StatusApproved, after["status"])
		assert.Equal(t, act.IDHex, after["firstApprovedBy"])
		assert.Equal(t, true, after["requiresDualApproval"])
	})

	t.Run("second stage emits both rows", func(t *testing.T) {
		doc := newDoc(workflow.StatusApproved, &first)
		dec := workflow.Decision{
			Outcome:      workflow.OutcomeSecondStage,
			NewStatus:    workflow.StatusApproved,
			RequiresDual: true,
			Stage:        "second",
		}

		casFilter, update, actions, after := target.applyDecision(dec, doc, act, now)

		assert.Equal(t, []string{"change_order.second_approved", "change_order.approved"}, actions)
		assert.Equal(t, workflow.StatusApproved, casFilter["status"])
		assert.Equal(t, first, casFilter["firstApprovedBy"])
		require.Contains(t, casFilter, "secondApprovedBy")
		assert.Nil(t, casFilter["secondApprovedBy"])
		assert.Equal(t, act.ID, update["secondApprovedBy"])
		assert.NotContains(t, update, "status")
		// status already carried the terminal value from stage one
		assert.Equal(t, workflow.StatusApproved, doc.approvalSnapshot()["status"])
		assert.Equal(t, workflow.StatusApproved, after["status"])
		assert.Equal(t, act.IDHex, after["secondApprovedBy"])
		assert.Equal(t, first.Hex(), after["firstApprovedBy"])
	})

	t.Run("extra fields merge into the terminal update", func(t *testing.T) {
		payTarget := approvalTarget{
			rule:       workflow.MarkPaymentPaid,
			entityType: "payment",
			noun:       "payment",
			extraSet: func(ts time.Time) bson.M {
				return bson.M{"paidDate": ts}
			},
		}
		doc := newDoc(workflow.StatusPlanned, nil)
		dec := workflow.Decision{Outcome: workflow.OutcomeDirect, NewStatus: workflow.StatusPaid}

		_, update, actions, after := payTarget.applyDecision(dec, doc, act, now)

		assert.Equal(t, []string{"payment.paid"}, actions)
		assert.Equal(t, now, update["paidDate"])
		assert.Equal(t, workflow.StatusPaid, after["status"])
	})
}

func TestPolicyBlockedAuditKeepsSnapshotsIdentical(t *testing.T) {
	act := actor{
		ID:    primitive.NewObjectID(),
		Email: "pm@example.com",
		Role:  models.RoleProjectManager,
		OrgID: primitive.NewObjectID(),
	}
	act.IDHex = act.ID.Hex()

	target := approvalTarget{
		rule:       workflow.ApproveChangeOrder,
		entityType: "change_order",
		noun:       "change order",
	}
	doc := &approvableDoc{
		ID:             primitive.NewObjectID(),
		OrganizationID: act.OrgID,
		ProjectID:      primitive.NewObjectID(),
		Amount:         900000,
		ApprovalFields: models.ApprovalFields{
			Status:  workflow.StatusProposed,
			Version: 1,
		},
	}

	r := httptest.NewRequest(http.MethodPost, "/api/test", nil)
	entry := target.policyBlockedAudit(r, act, doc)

	assert.Equal(t, "change_order.policy_blocked", entry.Action)
	assert.Equal(t, doc.ID, entry.EntityID)
	assert.Equal(t, doc.ProjectID, entry.ProjectID)
	// a block changes nothing, so the payloads describe the same state
	assert.Equal(t, entry.PayloadBefore, entry.PayloadAfter)
	assert.Equal(t, workflow.StatusProposed, entry.PayloadAfter["status"])
	assert.NotContains(t, entry.PayloadAfter, "blockedByPolicy")
}

func TestStageMessage(t *testing.T) {
	assert.Contains(t, stageMessage(workflow.Decision{Stage: "first"}), "awaiting second approver")
	assert.Contains(t, stageMessage(workflow.Decision{Stage: "second"}), "complete")
	assert.Equal(t, "transition complete", stageMessage(workflow.Decision{}))
}
