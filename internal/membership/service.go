package membership

import "context"

// Service defines the interface for the membership service.
type Service interface {
	Register(ctx context.Context, profile Profile) (*Member, error)
	GetMember(ctx context.Context, id string) (*Member, error)
	ListMembers(ctx context.Context) ([]Member, error)
	UpdateProfile(ctx context.Context, id string, profile Profile) (*Member, error)
	DeleteMember(ctx context.Context, id string) error

	// RecordDecision appends one immutable verification record and sets the
	// member's status to the decision outcome, atomically.
	RecordDecision(ctx context.Context, memberID string, decision Decision) (*Member, error)
	ListVerifications(ctx context.Context, memberID string) ([]Verification, error)

	// RequireVerified reports whether the member may be fulfilled: nil for a
	// VERIFIED member, ErrMemberNotFound or ErrIneligibleMember otherwise.
	RequireVerified(ctx context.Context, memberID string) error
}
