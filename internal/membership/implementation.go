package membership

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"dispensaryhub/internal/store"
)

// service implements the Service interface.
type service struct {
	db      *sql.DB
	tracer  trace.Tracer
	limiter *rate.Limiter
}

// NewService creates a new membership service instance.
func NewService(db *sql.DB) Service {
	return &service{
		db:      db,
		tracer:  otel.Tracer("dispensaryhub/membership"),
		limiter: rate.NewLimiter(rate.Every(time.Second), 30),
	}
}

const memberColumns = `id, member_number, first_name, last_name,
	COALESCE(date_of_birth, ''), COALESCE(phone, ''), COALESCE(email, ''),
	status, created_at, updated_at`

func scanMember(row *sql.Row) (*Member, error) {
	m := &Member{}
	err := row.Scan(
		&m.ID,
		&m.MemberNumber,
		&m.FirstName,
		&m.LastName,
		&m.DateOfBirth,
		&m.Phone,
		&m.Email,
		&m.Status,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Register creates a new member. The initial status is always PENDING; a
// caller cannot smuggle a status through the profile.
func (s *service) Register(ctx context.Context, profile Profile) (*Member, error) {
	if !s.limiter.Allow() {
		return nil, ErrRateLimited
	}

	id := uuid.NewString()
	now := store.UTCNow()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (id, member_number, first_name, last_name, date_of_birth, phone, email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, id, profile.MemberNumber, profile.FirstName, profile.LastName,
		profile.DateOfBirth, profile.Phone, profile.Email, StatusPending, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}

	return s.GetMember(ctx, id)
}

// GetMember retrieves a member by ID.
func (s *service) GetMember(ctx context.Context, id string) (*Member, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *service) ListMembers(ctx context.Context) ([]Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+memberColumns+` FROM members ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(
			&m.ID, &m.MemberNumber, &m.FirstName, &m.LastName,
			&m.DateOfBirth, &m.Phone, &m.Email,
			&m.Status, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// UpdateProfile replaces the editable fields. Status is deliberately absent
// from the UPDATE: the only path that changes it is RecordDecision.
func (s *service) UpdateProfile(ctx context.Context, id string, profile Profile) (*Member, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE members
		SET member_number = $1, first_name = $2, last_name = $3,
		    date_of_birth = $4, phone = $5, email = $6, updated_at = $7
		WHERE id = $8
	`, profile.MemberNumber, profile.FirstName, profile.LastName,
		profile.DateOfBirth, profile.Phone, profile.Email, store.UTCNow(), id)
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	if affected == 0 {
		return nil, ErrMemberNotFound
	}
	return s.GetMember(ctx, id)
}

func (s *service) DeleteMember(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if affected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// RecordDecision appends one verification record and moves the member's
// status to the outcome. Both writes share one transaction: a crash between
// them leaves neither applied.
func (s *service) RecordDecision(ctx context.Context, memberID string, decision Decision) (*Member, error) {
	ctx, span := s.tracer.Start(ctx, "membership.record_decision",
		trace.WithAttributes(
			attribute.String("member.id", memberID),
			attribute.String("decision.outcome", decision.Outcome),
		),
	)
	defer span.End()

	if decision.Outcome != OutcomeVerified && decision.Outcome != OutcomeRejected {
		return nil, ErrInvalidOutcome
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists string
	err = tx.QueryRowContext(ctx, `SELECT id FROM members WHERE id = $1`, memberID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup member: %w", err)
	}

	now := store.UTCNow()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO member_verifications (id, member_id, outcome, verified_by_staff_id, notes, document_ref, verified_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.NewString(), memberID, decision.Outcome, decision.ActorID,
		decision.Notes, decision.DocumentRef, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert verification: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE members SET status = $1, updated_at = $2 WHERE id = $3`,
		decision.Outcome, now, memberID)
	if err != nil {
		return nil, fmt.Errorf("update member status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "verification decision recorded",
		"member_id", memberID, "outcome", decision.Outcome, "actor_id", decision.ActorID)

	return s.GetMember(ctx, memberID)
}

func (s *service) ListVerifications(ctx context.Context, memberID string) ([]Verification, error) {
	if _, err := s.GetMember(ctx, memberID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, member_id, outcome, verified_by_staff_id,
		       COALESCE(notes, ''), COALESCE(document_ref, ''), verified_at, created_at
		FROM member_verifications
		WHERE member_id = $1
		ORDER BY verified_at DESC, id
	`, memberID)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	verifications := []Verification{}
	for rows.Next() {
		var v Verification
		if err := rows.Scan(&v.ID, &v.MemberID, &v.Outcome, &v.VerifiedBy,
			&v.Notes, &v.DocumentRef, &v.VerifiedAt, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		verifications = append(verifications, v)
	}
	return verifications, rows.Err()
}

func (s *service) RequireVerified(ctx context.Context, memberID string) error {
	return RequireVerified(ctx, s.db, memberID)
}

// Querier is the subset of *sql.DB and *sql.Tx the eligibility check needs.
// Callers running their own transaction (order creation and finalization)
// pass their *sql.Tx so the check is read under the same isolation as the
// writes it is guarding.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RequireVerified fails with ErrMemberNotFound if the member does not exist
// and ErrIneligibleMember if its current status is not VERIFIED. It performs
// no mutation.
func RequireVerified(ctx context.Context, q Querier, memberID string) error {
	var status string
	err := q.QueryRowContext(ctx, `SELECT status FROM members WHERE id = $1`, memberID).Scan(&status)
	if err == sql.ErrNoRows {
		return ErrMemberNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup member status: %w", err)
	}
	if status != StatusVerified {
		return ErrIneligibleMember
	}
	return nil
}
