// workflow/policy.go
package workflow

import "costmgt/models"

// Kind identifies an approvable cost entity.
type Kind string

const (
	KindChangeOrder        Kind = "change_order"
	KindPaymentCertificate Kind = "payment_certificate"
	KindPayment            Kind = "payment"
)

// Policy is the tenant threshold snapshot a decision runs against. A nil
// *Policy (no document for the tenant) disables every gate, which keeps
// tenants without configuration on the legacy single-approval behavior.
type Policy struct {
	CODualThreshold          *float64
	CertificateDualThreshold *float64
	PaymentDualThreshold     *float64

	COBlockThreshold          *float64
	CertificateBlockThreshold *float64
	PaymentBlockThreshold     *float64

	OverBudgetPercent *float64
}

// PolicyFromModel converts a stored CostPolicy. Returns nil for nil input so
// callers can pass through a missing-document lookup unchanged.
func PolicyFromModel(p *models.CostPolicy) *Policy {
	if p == nil {
		return nil
	}
	return &Policy{
		CODualThreshold:           p.CODualThresholdAmount,
		CertificateDualThreshold:  p.CertificateDualThresholdAmount,
		PaymentDualThreshold:      p.PaymentDualThresholdAmount,
		COBlockThreshold:          p.COBlockThresholdAmount,
		CertificateBlockThreshold: p.CertificateBlockThresholdAmount,
		PaymentBlockThreshold:     p.PaymentBlockThresholdAmount,
		OverBudgetPercent:         p.OverBudgetThresholdPercent,
	}
}

// DualThreshold returns the dual-approval threshold for kind, nil when the
// gate is off.
func (p *Policy) DualThreshold(kind Kind) *float64 {
	if p == nil {
		return nil
	}
	switch kind {
	case KindChangeOrder:
		return p.CODualThreshold
	case KindPaymentCertificate:
		return p.CertificateDualThreshold
	case KindPayment:
		return p.PaymentDualThreshold
	}
	return nil
}

// BlockThreshold returns the hard ceiling for kind, nil when the gate is off.
func (p *Policy) BlockThreshold(kind Kind) *float64 {
	if p == nil {
		return nil
	}
	switch kind {
	case KindChangeOrder:
		return p.COBlockThreshold
	case KindPaymentCertificate:
		return p.CertificateBlockThreshold
	case KindPayment:
		return p.PaymentBlockThreshold
	}
	return nil
}

// RequiresDualApproval reports whether amount demands a second approver.
// True iff a threshold is configured and the amount strictly exceeds it.
func RequiresDualApproval(amount float64, threshold *float64) bool {
	return threshold != nil && amount > *threshold
}

// ExceedsBlockThreshold reports whether amount trips the hard policy block.
func ExceedsBlockThreshold(amount float64, threshold *float64) bool {
	return threshold != nil && amount > *threshold
}

// IsHighPrivilege reports whether role bypasses threshold gating entirely.
func IsHighPrivilege(role string) bool {
	return role == models.RoleSuperadmin || role == models.RoleAdmin
}
