// models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Notification struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organizationId" json:"organizationId"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	Module         string             `bson:"module" json:"module"` // always "cost" for workflow events
	Type           string             `bson:"type" json:"type"`     // e.g. "change_order_approved"
	Title          string             `bson:"title" json:"title"`
	Message        string             `bson:"message" json:"message"`
	EntityType     string             `bson:"entityType,omitempty" json:"entityType,omitempty"`
	EntityID       primitive.ObjectID `bson:"entityId,omitempty" json:"entityId,omitempty"`
	Metadata       bson.M             `bson:"metadata,omitempty" json:"metadata,omitempty"`
	Read           bool               `bson:"read" json:"read"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
