// models/payment_certificate.go
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentCertificate certifies work completed in a billing period.
// Status graph: draft -> submitted -> approved.
type PaymentCertificate struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organizationId" json:"organizationId"`
	ProjectID      primitive.ObjectID `bson:"projectId" json:"projectId"`
	ContractID     primitive.ObjectID `bson:"contractId" json:"contractId"`
	Title          string             `bson:"title" json:"title"`
	Period         string             `bson:"period,omitempty" json:"period,omitempty"` // e.g. "2026-07"
	Amount         float64            `bson:"amount" json:"amount"`
	ApprovalFields `bson:",inline"`
}
