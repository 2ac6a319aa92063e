// handlers/audit_recorder.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"costmgt/models"
)

// newAuditEntry builds one append-only audit row for a workflow event. The
// recorder does no validation beyond what the struct carries; forensic
// completeness comes from callers writing one row per transition step.
func newAuditEntry(r *http.Request, act actor, action, entityType string, entityID, projectID primitive.ObjectID, before, after bson.M) models.AuditLog {
	return models.AuditLog{
		ID:             primitive.NewObjectID(),
		OrganizationID: act.OrgID,
		UserID:         act.ID,
		UserEmail:      act.Email,
		UserRole:       act.Role,
		Action:         action,
		EntityType:     entityType,
		EntityID:       entityID,
		ProjectID:      projectID,
		PayloadBefore:  before,
		PayloadAfter:   after,
		IPAddress:      r.RemoteAddr,
		UserAgent:      r.UserAgent(),
		RequestID:      requestID(r),
		CreatedAt:      time.Now().UTC(),
	}
}

// insertAudit appends one row. ctx may be a session context so the row
// commits atomically with the entity mutation it describes.
func insertAudit(ctx context.Context, entry models.AuditLog) error {
	_, err := auditLogCollection.InsertOne(ctx, entry)
	return err
}

// recordAuditBestEffort is for events with no accompanying state change
// (policy blocks, creates outside a transaction). A write failure is logged
// and swallowed.
func recordAuditBestEffort(ctx context.Context, entry models.AuditLog) {
	if err := insertAudit(ctx, entry); err != nil {
		log.Printf("WARN: failed to write audit row %s: %v", entry.Action, err)
		return
	}
	BroadcastAudit(&entry)
}
