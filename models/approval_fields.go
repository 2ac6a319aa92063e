// models/approval_fields.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ApprovalFields are shared by every approvable cost entity (change orders,
// payment certificates, actual payments).
//
// Invariants enforced by the workflow:
//   - secondApprovedBy is only ever set after firstApprovedBy, by a
//     different user
//   - status only moves forward along the entity's transition graph
//   - version increases by one on every successful transition (used as the
//     compare-and-swap fence for racing approvers)
type ApprovalFields struct {
	Status               string              `bson:"status" json:"status"`
	RequiresDualApproval bool                `bson:"requiresDualApproval" json:"requiresDualApproval"`
	FirstApprovedBy      *primitive.ObjectID `bson:"firstApprovedBy,omitempty" json:"firstApprovedBy,omitempty"`
	FirstApprovedAt      *time.Time          `bson:"firstApprovedAt,omitempty" json:"firstApprovedAt,omitempty"`
	SecondApprovedBy     *primitive.ObjectID `bson:"secondApprovedBy,omitempty" json:"secondApprovedBy,omitempty"`
	SecondApprovedAt     *time.Time          `bson:"secondApprovedAt,omitempty" json:"secondApprovedAt,omitempty"`
	Version              int64               `bson:"version" json:"version"`
	CreatedBy            primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	UpdatedBy            primitive.ObjectID  `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	CreatedAt            time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time           `bson:"updatedAt" json:"updatedAt"`
}
