package membership

import "errors"

// Member statuses. A freshly registered member is always PENDING; the status
// only ever changes through a recorded verification decision.
const (
	StatusPending  = "PENDING"
	StatusVerified = "VERIFIED"
	StatusRejected = "REJECTED"
)

// Decision outcomes. Re-deciding is allowed in any direction; the member's
// status reflects the latest outcome while prior decisions stay in history.
const (
	OutcomeVerified = "VERIFIED"
	OutcomeRejected = "REJECTED"
)

var (
	ErrMemberNotFound = errors.New("member not found")
	// ErrIneligibleMember is returned when an operation requires a VERIFIED
	// member and the member's current status is anything else.
	ErrIneligibleMember = errors.New("member must be VERIFIED")
	ErrInvalidOutcome   = errors.New("outcome must be VERIFIED or REJECTED")
	ErrRateLimited      = errors.New("registration rate limit exceeded")
)

// Member is the identity record for a dispensary member.
type Member struct {
	ID           string `json:"id"`
	MemberNumber string `json:"member_number"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	DateOfBirth  string `json:"date_of_birth,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// Profile carries the editable identity fields. Profile edits never touch
// Status; only RecordDecision does.
type Profile struct {
	MemberNumber string `json:"member_number"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	DateOfBirth  string `json:"date_of_birth"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
}

// Verification is one immutable verification decision. Rows are append-only:
// re-verifying a member adds a record, it never rewrites an old one.
type Verification struct {
	ID          string `json:"id"`
	MemberID    string `json:"member_id"`
	Outcome     string `json:"outcome"`
	VerifiedBy  string `json:"verified_by_staff_id"`
	Notes       string `json:"notes,omitempty"`
	DocumentRef string `json:"document_ref,omitempty"`
	VerifiedAt  string `json:"verified_at"`
	CreatedAt   string `json:"created_at"`
}

// Decision is the input to RecordDecision.
type Decision struct {
	Outcome     string
	ActorID     string
	Notes       string
	DocumentRef string
}
