// models/change_order.go
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChangeOrder is a contract amendment. AmountDelta may be negative for
// deductive orders; threshold gating compares the raw delta.
// Status graph: draft -> proposed -> approved | rejected.
type ChangeOrder struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organizationId" json:"organizationId"`
	ProjectID      primitive.ObjectID `bson:"projectId" json:"projectId"`
	ContractID     primitive.ObjectID `bson:"contractId" json:"contractId"`
	Title          string             `bson:"title" json:"title"`
	Reason         string             `bson:"reason,omitempty" json:"reason,omitempty"`
	AmountDelta    float64            `bson:"amount" json:"amountDelta"`
	ApprovalFields `bson:",inline"`
}
