// handlers/policy_handler_test.go
package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"costmgt/models"
)

func fptr(v float64) *float64 { return &v }

func TestCostPolicyRequestValidate(t *testing.T) {
	t.Run("empty request is valid", func(t *testing.T) {
		req := costPolicyRequest{}
		assert.Empty(t, req.validate())
	})

	t.Run("all gates set", func(t *testing.T) {
		req := costPolicyRequest{
			CODualThresholdAmount:           fptr(50000),
			CertificateDualThresholdAmount:  fptr(100000),
			PaymentDualThresholdAmount:      fptr(100000),
			COBlockThresholdAmount:          fptr(500000),
			CertificateBlockThresholdAmount: fptr(750000),
			PaymentBlockThresholdAmount:     fptr(750000),
			OverBudgetThresholdPercent:      fptr(10),
		}
		assert.Empty(t, req.validate())
	})

	t.Run("zero threshold is allowed", func(t *testing.T) {
		req := costPolicyRequest{CODualThresholdAmount: fptr(0)}
		assert.Empty(t, req.validate())
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		req := costPolicyRequest{PaymentBlockThresholdAmount: fptr(-1)}
		msg := req.validate()
		assert.Contains(t, msg, "paymentBlockThresholdAmount")
		assert.Contains(t, msg, "non-negative")
	})

	t.Run("percent out of range rejected", func(t *testing.T) {
		req := costPolicyRequest{OverBudgetThresholdPercent: fptr(150)}
		assert.Contains(t, req.validate(), "between 0 and 100")

		req = costPolicyRequest{OverBudgetThresholdPercent: fptr(-5)}
		assert.Contains(t, req.validate(), "between 0 and 100")
	})
}

func TestIsAdminTier(t *testing.T) {
	assert.True(t, isAdminTier(models.RoleSuperadmin))
	assert.True(t, isAdminTier(models.RoleAdmin))
	assert.False(t, isAdminTier(models.RoleFinanceManager))
	assert.False(t, isAdminTier(models.RoleProjectManager))
	assert.False(t, isAdminTier(models.RoleViewer))
}
