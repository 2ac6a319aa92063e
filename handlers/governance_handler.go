// handlers/governance_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"costmgt/models"
	"costmgt/utils"
	"costmgt/workflow"
)

// kindCounts is one row of the governance overview, per entity kind.
type kindCounts struct {
	PendingApproval int64 `json:"pendingApproval"`
	AwaitingDual    int64 `json:"awaitingDualApproval"`
	BlockedByPolicy int64 `json:"blockedByPolicy"`
}

type projectRisk struct {
	ProjectID       string  `json:"projectId"`
	ProjectName     string  `json:"projectName"`
	Budget          float64 `json:"budget"`
	ApprovedCOTotal float64 `json:"approvedChangeOrderTotal"`
	OverrunPercent  float64 `json:"overrunPercent"`
	Flagged         bool    `json:"flagged"`
}

// GetCostGovernanceOverview aggregates per-kind workflow counters and a
// budget risk ranking for the tenant. Counts are gathered concurrently and
// each failed sub-query degrades to zero rather than failing the whole
// dashboard. Admin tier only.
func GetCostGovernanceOverview(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if !isAdminTier(act.Role) {
		utils.RespondWithErrorCode(w, http.StatusForbidden, utils.CodeForbidden, "Admin role required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	kinds := []struct {
		key        string
		entityType string
		collection *mongo.Collection
		pending    string
		terminal   string
	}{
		{"changeOrders", "change_order", changeOrderCollection, workflow.StatusProposed, workflow.StatusApproved},
		{"paymentCertificates", "payment_certificate", certificateCollection, workflow.StatusSubmitted, workflow.StatusApproved},
		{"payments", "payment", paymentCollection, workflow.StatusPlanned, workflow.StatusPaid},
	}

	counts := make(map[string]*kindCounts, len(kinds))
	for _, k := range kinds {
		counts[k.key] = &kindCounts{}
	}

	blockedSince := time.Now().UTC().AddDate(0, 0, -30)

	var wg sync.WaitGroup
	for _, k := range kinds {
		k := k
		row := counts[k.key]

		wg.Add(3)
		go func() {
			defer wg.Done()
			n, err := k.collection.CountDocuments(ctx, bson.M{
				"organizationId": act.OrgID,
				"status":         k.pending,
			})
			if err != nil {
				log.Printf("governance overview - pending count for %s: %v", k.entityType, err)
				return
			}
			row.PendingApproval = n
		}()
		go func() {
			defer wg.Done()
			// Tentative terminal status with only the first signature in
			// place marks an in-flight dual run.
			n, err := k.collection.CountDocuments(ctx, bson.M{
				"organizationId":       act.OrgID,
				"status":               k.terminal,
				"requiresDualApproval": true,
				"firstApprovedBy":      bson.M{"$ne": nil},
				"secondApprovedBy":     nil,
			})
			if err != nil {
				log.Printf("governance overview - dual count for %s: %v", k.entityType, err)
				return
			}
			row.AwaitingDual = n
		}()
		go func() {
			defer wg.Done()
			n, err := auditLogCollection.CountDocuments(ctx, bson.M{
				"organizationId": act.OrgID,
				"action":         k.entityType + ".policy_blocked",
				"createdAt":      bson.M{"$gte": blockedSince},
			})
			if err != nil {
				log.Printf("governance overview - blocked count for %s: %v", k.entityType, err)
				return
			}
			row.BlockedByPolicy = n
		}()
	}

	var (
		risks   []projectRisk
		riskErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		risks, riskErr = projectRiskRanking(ctx, act.OrgID)
	}()

	wg.Wait()

	if riskErr != nil {
		log.Printf("governance overview - risk ranking: %v", riskErr)
		risks = []projectRisk{}
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"counts":             counts,
		"projectRiskRanking": risks,
		"blockedWindowDays":  30,
		"generatedAt":        time.Now().UTC(),
		"success":            true,
	})
}

// projectRiskRanking sums approved change order deltas per project and ranks
// projects by budget overrun, worst first. A project is flagged when the
// tenant policy sets overBudgetThresholdPercent and the overrun exceeds it.
func projectRiskRanking(ctx context.Context, orgID primitive.ObjectID) ([]projectRisk, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"organizationId": orgID,
			"status":         workflow.StatusApproved,
		}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   "$projectId",
			"total": bson.M{"$sum": "$amount"},
		}}},
	}

	cursor, err := changeOrderCollection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ProjectID primitive.ObjectID `bson:"_id"`
		Total     float64            `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	totals := make(map[primitive.ObjectID]float64, len(rows))
	for _, row := range rows {
		totals[row.ProjectID] = row.Total
	}

	projCursor, err := projectCollection.Find(ctx, bson.M{"organizationId": orgID})
	if err != nil {
		return nil, err
	}
	defer projCursor.Close(ctx)

	var projects []models.Project
	if err := projCursor.All(ctx, &projects); err != nil {
		return nil, err
	}

	policy, err := findCostPolicy(ctx, orgID)
	if err != nil {
		return nil, err
	}

	risks := make([]projectRisk, 0, len(projects))
	for _, p := range projects {
		approved := totals[p.ID]
		overrun := 0.0
		if p.Budget > 0 {
			overrun = approved / p.Budget * 100
		}
		flagged := policy != nil && policy.OverBudgetThresholdPercent != nil &&
			overrun > *policy.OverBudgetThresholdPercent
		risks = append(risks, projectRisk{
			ProjectID:       p.ID.Hex(),
			ProjectName:     p.Name,
			Budget:          p.Budget,
			ApprovedCOTotal: approved,
			OverrunPercent:  overrun,
			Flagged:         flagged,
		})
	}

	sort.Slice(risks, func(i, j int) bool {
		return risks[i].OverrunPercent > risks[j].OverrunPercent
	})
	return risks, nil
}
