package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userA = "64f000000000000000000a01"
	userB = "64f000000000000000000b02"
	userC = "64f000000000000000000c03"
)

func TestDecideNoPolicyConfigured(t *testing.T) {
	// No tenant policy: approval from the predecessor state always
	// completes in one step, for any role and any amount.
	for _, rule := range []Rule{ApproveChangeOrder, ApproveCertificate, MarkPaymentPaid} {
		d := Decide(rule, State{Status: rule.From}, 10_000_000, nil, userA, "finance_manager")
		assert.Equal(t, OutcomeDirect, d.Outcome, "rule %s", rule.Kind)
		assert.Equal(t, rule.To, d.NewStatus)
		assert.False(t, d.RequiresDual)
		assert.Empty(t, d.Stage)
	}
}

func TestDecideInvalidTransition(t *testing.T) {
	d := Decide(ApproveChangeOrder, State{Status: StatusDraft}, 100, nil, userA, "finance_manager")
	assert.Equal(t, OutcomeInvalidTransition, d.Outcome)

	d = Decide(ApproveCertificate, State{Status: StatusRejected}, 100, nil, userA, "admin")
	assert.Equal(t, OutcomeInvalidTransition, d.Outcome)
}

func TestDecidePolicyBlocked(t *testing.T) {
	pol := &Policy{COBlockThreshold: fp(200_000)}

	d := Decide(ApproveChangeOrder, State{Status: StatusProposed}, 500_000, pol, userA, "finance_manager")
	assert.Equal(t, OutcomeBlocked, d.Outcome)

	// High privilege bypasses the ceiling entirely.
	d = Decide(ApproveChangeOrder, State{Status: StatusProposed}, 500_000, pol, userC, "admin")
	assert.Equal(t, OutcomeDirect, d.Outcome)

	// Ceilings are per kind: a certificate is not gated by the CO ceiling.
	d = Decide(ApproveCertificate, State{Status: StatusSubmitted}, 500_000, pol, userA, "finance_manager")
	assert.Equal(t, OutcomeDirect, d.Outcome)
}

func TestDecideDualApprovalRun(t *testing.T) {
	// Dual threshold 100k, change order of 500k, two distinct
	// non-privileged approvers.
	pol := &Policy{CODualThreshold: fp(100_000)}

	d := Decide(ApproveChangeOrder, State{Status: StatusProposed}, 500_000, pol, userA, "finance_manager")
	require.Equal(t, OutcomeFirstStage, d.Outcome)
	assert.Equal(t, StatusApproved, d.NewStatus)
	assert.True(t, d.RequiresDual)
	assert.Equal(t, "first", d.Stage)

	// After stage one the status already carries the terminal value.
	inFlight := State{Status: StatusApproved, FirstApprovedBy: userA}

	// Same user cannot provide the second signature.
	d = Decide(ApproveChangeOrder, inFlight, 500_000, pol, userA, "finance_manager")
	assert.Equal(t, OutcomeSameUserConflict, d.Outcome)

	// A different user finalizes.
	d = Decide(ApproveChangeOrder, inFlight, 500_000, pol, userB, "finance_manager")
	require.Equal(t, OutcomeSecondStage, d.Outcome)
	assert.Equal(t, "second", d.Stage)
	assert.True(t, d.RequiresDual)

	// A third call after both signatures is a conflict, not a replay.
	done := State{Status: StatusApproved, FirstApprovedBy: userA, SecondApprovedBy: userB}
	d = Decide(ApproveChangeOrder, done, 500_000, pol, userC, "finance_manager")
	assert.Equal(t, OutcomeAlreadyApproved, d.Outcome)
}

func TestDecideHighPrivilegeSkipsDual(t *testing.T) {
	pol := &Policy{CODualThreshold: fp(100_000)}

	d := Decide(ApproveChangeOrder, State{Status: StatusProposed}, 500_000, pol, userC, "superadmin")
	require.Equal(t, OutcomeDirect, d.Outcome)
	assert.Equal(t, StatusApproved, d.NewStatus)
	assert.False(t, d.RequiresDual)
}

func TestDecideHighPrivilegeCanSecondSign(t *testing.T) {
	// A dual run opened by a non-privileged user stays dual even when an
	// admin provides the second signature.
	pol := &Policy{CODualThreshold: fp(100_000)}
	inFlight := State{Status: StatusApproved, FirstApprovedBy: userA}

	d := Decide(ApproveChangeOrder, inFlight, 500_000, pol, userC, "admin")
	require.Equal(t, OutcomeSecondStage, d.Outcome)
	assert.Equal(t, "second", d.Stage)
}

func TestDecideTightenedCeilingBlocksInFlightRun(t *testing.T) {
	// A ceiling introduced while a dual run is in flight blocks any further
	// signature, even a retry by the first approver (the ceiling is
	// evaluated before the same-user guard).
	pol := &Policy{
		CODualThreshold:  fp(100_000),
		COBlockThreshold: fp(200_000),
	}
	inFlight := State{Status: StatusApproved, FirstApprovedBy: userA}

	d := Decide(ApproveChangeOrder, inFlight, 500_000, pol, userA, "finance_manager")
	assert.Equal(t, OutcomeBlocked, d.Outcome)

	d = Decide(ApproveChangeOrder, inFlight, 500_000, pol, userB, "finance_manager")
	assert.Equal(t, OutcomeBlocked, d.Outcome)
}

func TestDecideAmountEqualToThresholdIsSingleStep(t *testing.T) {
	pol := &Policy{PaymentDualThreshold: fp(50_000)}

	d := Decide(MarkPaymentPaid, State{Status: StatusPlanned}, 50_000, pol, userA, "finance_manager")
	assert.Equal(t, OutcomeDirect, d.Outcome)
	assert.Equal(t, StatusPaid, d.NewStatus)
}

func TestDecideBlockAndDualIndependent(t *testing.T) {
	// Both gates configured on the same kind: the ceiling wins first, the
	// dual threshold only matters for amounts the ceiling lets through.
	pol := &Policy{
		CODualThreshold:  fp(100_000),
		COBlockThreshold: fp(400_000),
	}

	d := Decide(ApproveChangeOrder, State{Status: StatusProposed}, 500_000, pol, userA, "finance_manager")
	assert.Equal(t, OutcomeBlocked, d.Outcome)

	d = Decide(ApproveChangeOrder, State{Status: StatusProposed}, 300_000, pol, userA, "finance_manager")
	assert.Equal(t, OutcomeFirstStage, d.Outcome)

	d = Decide(ApproveChangeOrder, State{Status: StatusProposed}, 90_000, pol, userA, "finance_manager")
	assert.Equal(t, OutcomeDirect, d.Outcome)
}

func TestDecideDirectApprovalThenReapprove(t *testing.T) {
	// Entity approved on the single-approval path, then approved again:
	// conflict, no dual fields were ever touched.
	d := Decide(ApproveCertificate, State{Status: StatusApproved}, 100, nil, userA, "admin")
	assert.Equal(t, OutcomeAlreadyApproved, d.Outcome)
}

func TestDecideBlockedRepeatable(t *testing.T) {
	// Repeating a blocked call never progresses the workflow.
	pol := &Policy{PaymentBlockThreshold: fp(10_000)}
	st := State{Status: StatusPlanned}
	for i := 0; i < 3; i++ {
		d := Decide(MarkPaymentPaid, st, 25_000, pol, userA, "project_manager")
		require.Equal(t, OutcomeBlocked, d.Outcome)
	}
}
