// models/cost_policy.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CostPolicy holds the per-tenant cost governance thresholds. At most one
// document per organization. Every threshold is optional: a nil field means
// that gate is off for that entity kind. Dual thresholds and block ceilings
// are configured independently; exceeding a dual threshold demands a second
// approver, exceeding a block ceiling rejects the approval outright for
// non-privileged users.
type CostPolicy struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organizationId" json:"organizationId"`

	CODualThresholdAmount          *float64 `bson:"coDualThresholdAmount,omitempty" json:"coDualThresholdAmount,omitempty"`
	CertificateDualThresholdAmount *float64 `bson:"certificateDualThresholdAmount,omitempty" json:"certificateDualThresholdAmount,omitempty"`
	PaymentDualThresholdAmount     *float64 `bson:"paymentDualThresholdAmount,omitempty" json:"paymentDualThresholdAmount,omitempty"`

	COBlockThresholdAmount          *float64 `bson:"coBlockThresholdAmount,omitempty" json:"coBlockThresholdAmount,omitempty"`
	CertificateBlockThresholdAmount *float64 `bson:"certificateBlockThresholdAmount,omitempty" json:"certificateBlockThresholdAmount,omitempty"`
	PaymentBlockThresholdAmount     *float64 `bson:"paymentBlockThresholdAmount,omitempty" json:"paymentBlockThresholdAmount,omitempty"`

	// Overrun percentage past which a project is flagged in the governance
	// overview. Does not block approvals.
	OverBudgetThresholdPercent *float64 `bson:"overBudgetThresholdPercent,omitempty" json:"overBudgetThresholdPercent,omitempty"`

	UpdatedBy primitive.ObjectID `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
