// models/contract.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Contract struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organizationId" json:"organizationId"`
	ProjectID      primitive.ObjectID `bson:"projectId" json:"projectId"`
	Name           string             `bson:"name" json:"name"`
	Contractor     string             `bson:"contractor,omitempty" json:"contractor,omitempty"`
	Amount         float64            `bson:"amount" json:"amount"`
	CreatedBy      primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
