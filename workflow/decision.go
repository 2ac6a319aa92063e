// workflow/decision.go
package workflow

// Entity status values across the three kinds.
const (
	StatusDraft     = "draft"
	StatusProposed  = "proposed"
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusPlanned   = "planned"
	StatusPaid      = "paid"
)

// Rule describes the terminal transition an approve call performs.
type Rule struct {
	Kind   Kind
	From   string // exact predecessor state
	To     string // terminal state
	Action string // audit verb, e.g. "approved" or "paid"
}

// Approval rules for the three kinds. Rejection of a change order is a plain
// guarded transition handled outside the dual-approval protocol.
var (
	ApproveChangeOrder = Rule{Kind: KindChangeOrder, From: StatusProposed, To: StatusApproved, Action: "approved"}
	ApproveCertificate = Rule{Kind: KindPaymentCertificate, From: StatusSubmitted, To: StatusApproved, Action: "approved"}
	MarkPaymentPaid    = Rule{Kind: KindPayment, From: StatusPlanned, To: StatusPaid, Action: "paid"}
)

// State is the dual-approval snapshot of an entity at decision time.
// Approver ids are hex strings, empty when unset.
type State struct {
	Status           string
	FirstApprovedBy  string
	SecondApprovedBy string
}

// Outcome of deciding one approve call.
type Outcome int

const (
	// OutcomeInvalidTransition: entity is not in the rule's predecessor
	// state and no dual run is in flight.
	OutcomeInvalidTransition Outcome = iota
	// OutcomeBlocked: amount exceeds the tenant's block ceiling and the
	// actor is not high-privilege. No state change.
	OutcomeBlocked
	// OutcomeDirect: single-approval path, transition completes now.
	OutcomeDirect
	// OutcomeFirstStage: dual protocol, first approver recorded, status
	// tentatively set to the terminal value, completion pending.
	OutcomeFirstStage
	// OutcomeSecondStage: dual protocol, second distinct approver recorded,
	// transition completes now.
	OutcomeSecondStage
	// OutcomeSameUserConflict: the first approver tried to sign twice.
	OutcomeSameUserConflict
	// OutcomeAlreadyApproved: the transition already completed.
	OutcomeAlreadyApproved
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInvalidTransition:
		return "invalid_transition"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeDirect:
		return "direct"
	case OutcomeFirstStage:
		return "first_stage"
	case OutcomeSecondStage:
		return "second_stage"
	case OutcomeSameUserConflict:
		return "same_user_conflict"
	case OutcomeAlreadyApproved:
		return "already_approved"
	}
	return "unknown"
}

// Decision is what the caller must persist for the call.
type Decision struct {
	Outcome      Outcome
	NewStatus    string // set for Direct and FirstStage
	RequiresDual bool   // true on the dual path
	Stage        string // "first" or "second" on the dual path, else empty
}

// Decide evaluates one approve call against the transition rule, the tenant
// policy and the actor. It is pure: the caller threads the actor in
// explicitly and applies the returned decision with a conditional write.
//
// Gate order: predecessor-state check, then the policy block ceiling, then
// the dual-approval branch. A dual run already in flight (status carries the
// terminal value, first approver set, second unset) skips the state check
// and the high-privilege shortcut so the second signature is always recorded
// against the run that opened it.
func Decide(rule Rule, st State, amount float64, pol *Policy, actorID, actorRole string) Decision {
	dualInFlight := st.Status == rule.To && st.FirstApprovedBy != "" && st.SecondApprovedBy == ""

	if dualInFlight {
		// The ceiling is rechecked before the same-user guard: a policy
		// tightened mid-run blocks every further signature, including a
		// retry by the first approver.
		if !IsHighPrivilege(actorRole) && ExceedsBlockThreshold(amount, pol.BlockThreshold(rule.Kind)) {
			return Decision{Outcome: OutcomeBlocked}
		}
		if actorID == st.FirstApprovedBy {
			return Decision{Outcome: OutcomeSameUserConflict}
		}
		return Decision{Outcome: OutcomeSecondStage, NewStatus: rule.To, RequiresDual: true, Stage: "second"}
	}

	if st.Status != rule.From {
		if st.Status == rule.To {
			return Decision{Outcome: OutcomeAlreadyApproved}
		}
		return Decision{Outcome: OutcomeInvalidTransition}
	}

	if !IsHighPrivilege(actorRole) && ExceedsBlockThreshold(amount, pol.BlockThreshold(rule.Kind)) {
		return Decision{Outcome: OutcomeBlocked}
	}

	if IsHighPrivilege(actorRole) || !RequiresDualApproval(amount, pol.DualThreshold(rule.Kind)) {
		return Decision{Outcome: OutcomeDirect, NewStatus: rule.To}
	}

	return Decision{Outcome: OutcomeFirstStage, NewStatus: rule.To, RequiresDual: true, Stage: "first"}
}
