package workflow

import (
	"testing"

	"costmgt/models"
)

func fp(v float64) *float64 { return &v }

func TestRequiresDualApproval(t *testing.T) {
	if RequiresDualApproval(500, nil) {
		t.Error("nil threshold must never require dual approval")
	}
	if RequiresDualApproval(100, fp(100)) {
		t.Error("amount equal to the threshold must not require dual approval")
	}
	if !RequiresDualApproval(100.01, fp(100)) {
		t.Error("amount above the threshold must require dual approval")
	}
	if RequiresDualApproval(-50, fp(100)) {
		t.Error("deductive amount below the threshold must not require dual approval")
	}
}

func TestExceedsBlockThreshold(t *testing.T) {
	if ExceedsBlockThreshold(1e9, nil) {
		t.Error("nil ceiling must never block")
	}
	if ExceedsBlockThreshold(200000, fp(200000)) {
		t.Error("amount equal to the ceiling must not block")
	}
	if !ExceedsBlockThreshold(200001, fp(200000)) {
		t.Error("amount above the ceiling must block")
	}
}

func TestIsHighPrivilege(t *testing.T) {
	for _, role := range []string{models.RoleSuperadmin, models.RoleAdmin} {
		if !IsHighPrivilege(role) {
			t.Errorf("role %s should be high privilege", role)
		}
	}
	for _, role := range []string{models.RoleFinanceManager, models.RoleProjectManager, models.RoleViewer, ""} {
		if IsHighPrivilege(role) {
			t.Errorf("role %q should not be high privilege", role)
		}
	}
}

func TestPolicyKindSelectors(t *testing.T) {
	pol := &Policy{
		CODualThreshold:          fp(1),
		CertificateDualThreshold: fp(2),
		PaymentDualThreshold:     fp(3),
		COBlockThreshold:         fp(4),
	}

	if got := pol.DualThreshold(KindChangeOrder); got == nil || *got != 1 {
		t.Errorf("change order dual threshold: got %v", got)
	}
	if got := pol.DualThreshold(KindPaymentCertificate); got == nil || *got != 2 {
		t.Errorf("certificate dual threshold: got %v", got)
	}
	if got := pol.DualThreshold(KindPayment); got == nil || *got != 3 {
		t.Errorf("payment dual threshold: got %v", got)
	}
	if got := pol.BlockThreshold(KindPaymentCertificate); got != nil {
		t.Errorf("unconfigured certificate ceiling should be nil, got %v", got)
	}

	// nil policy disables every gate
	var none *Policy
	if none.DualThreshold(KindChangeOrder) != nil || none.BlockThreshold(KindPayment) != nil {
		t.Error("nil policy must return nil thresholds")
	}
}

func TestPolicyFromModel(t *testing.T) {
	if PolicyFromModel(nil) != nil {
		t.Error("nil model must map to nil policy")
	}

	m := &models.CostPolicy{
		CODualThresholdAmount:       fp(100000),
		PaymentBlockThresholdAmount: fp(750000),
		OverBudgetThresholdPercent:  fp(10),
	}
	p := PolicyFromModel(m)
	if p.CODualThreshold == nil || *p.CODualThreshold != 100000 {
		t.Errorf("co dual threshold not carried over: %v", p.CODualThreshold)
	}
	if p.PaymentBlockThreshold == nil || *p.PaymentBlockThreshold != 750000 {
		t.Errorf("payment ceiling not carried over: %v", p.PaymentBlockThreshold)
	}
	if p.CertificateDualThreshold != nil {
		t.Error("unset certificate threshold should stay nil")
	}
	if p.OverBudgetPercent == nil || *p.OverBudgetPercent != 10 {
		t.Errorf("over-budget percent not carried over: %v", p.OverBudgetPercent)
	}
}
