// handlers/audit_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"costmgt/models"
	"costmgt/utils"
)

// ListAuditLogs returns the organization's audit trail, newest first.
// Filters: entityType, action (regex, case-insensitive), projectId, userId,
// timeRange (24h/7d/30d/90d), limit/skip.
func ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
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

	filter := bson.M{"organizationId": act.OrgID}

	if entityType := r.URL.Query().Get("entityType"); entityType != "" && entityType != "all" {
		filter["entityType"] = entityType
	}
	if action := r.URL.Query().Get("action"); action != "" && action != "all" {
		filter["action"] = bson.M{"$regex": action, "$options": "i"}
	}
	if projectID := r.URL.Query().Get("projectId"); projectID != "" {
		if pid, err := primitive.ObjectIDFromHex(projectID); err == nil {
			filter["projectId"] = pid
		}
	}
	if userID := r.URL.Query().Get("userId"); userID != "" && userID != "all" {
		if uid, err := primitive.ObjectIDFromHex(userID); err == nil {
			filter["userId"] = uid
		}
	}
	if timeRange := r.URL.Query().Get("timeRange"); timeRange != "" {
		startDate := calculateStartDate(timeRange)
		if !startDate.IsZero() {
			filter["createdAt"] = bson.M{"$gte": startDate}
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(skip))

	cursor, err := auditLogCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("audit find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to fetch audit logs")
		return
	}
	defer cursor.Close(ctx)

	var logs []models.AuditLog
	if err = cursor.All(ctx, &logs); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode audit logs")
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}

	total, _ := auditLogCollection.CountDocuments(ctx, filter)

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"auditLogs": logs,
		"total":     total,
		"limit":     limit,
		"skip":      skip,
		"success":   true,
	})
}

func calculateStartDate(timeRange string) time.Time {
	now := time.Now().UTC()
	switch timeRange {
	case "24h":
		return now.Add(-24 * time.Hour)
	case "7d":
		return now.AddDate(0, 0, -7)
	case "30d":
		return now.AddDate(0, 0, -30)
	case "90d":
		return now.AddDate(0, 0, -90)
	}
	return time.Time{}
}
