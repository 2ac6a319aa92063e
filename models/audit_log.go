// models/audit_log.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditLog is an append-only record of one state transition or governance
// event. Rows are never updated or deleted and are not owned by the entity
// they describe. A dual-approval run of a single conceptual approve emits
// separate first_approved / second_approved rows plus the plain terminal
// action row.
type AuditLog struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organizationId" json:"organizationId"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	UserEmail      string             `bson:"userEmail,omitempty" json:"userEmail,omitempty"`
	UserRole       string             `bson:"userRole,omitempty" json:"userRole,omitempty"`
	Action         string             `bson:"action" json:"action"` // e.g. "change_order.approved", "payment.policy_blocked"
	EntityType     string             `bson:"entityType" json:"entityType"`
	EntityID       primitive.ObjectID `bson:"entityId,omitempty" json:"entityId,omitempty"`
	ProjectID      primitive.ObjectID `bson:"projectId,omitempty" json:"projectId,omitempty"`
	PayloadBefore  bson.M             `bson:"payloadBefore,omitempty" json:"payloadBefore,omitempty"`
	PayloadAfter   bson.M             `bson:"payloadAfter,omitempty" json:"payloadAfter,omitempty"`
	IPAddress      string             `bson:"ipAddress,omitempty" json:"ipAddress,omitempty"`
	UserAgent      string             `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	RequestID      string             `bson:"requestId,omitempty" json:"requestId,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
