// models/payment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment is an actual disbursement against a contract.
// Status graph: planned -> paid. PaidDate is set when the transition
// completes; unlike the historical data model there is always a status
// field, paid_date presence is never used as the state marker.
type Payment struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organizationId" json:"organizationId"`
	ProjectID      primitive.ObjectID `bson:"projectId" json:"projectId"`
	ContractID     primitive.ObjectID `bson:"contractId" json:"contractId"`
	Title          string             `bson:"title" json:"title"`
	Amount         float64            `bson:"amount" json:"amount"`
	PaidDate       *time.Time         `bson:"paidDate,omitempty" json:"paidDate,omitempty"`
	ApprovalFields `bson:",inline"`
}
