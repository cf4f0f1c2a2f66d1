package service

import (
	"context"
	"fmt"

	"github.com/lenterailmu/ujian-backend/internal/model"
)

// MembershipStore is the cohort/access registry boundary.
type MembershipStore interface {
	IsMember(ctx context.Context, cohortID, studentID int) (bool, error)
}

// AccessService decides which students may start which exams. Windowed exams
// require cohort membership; always-available practice exams are open to any
// authenticated student. Time-window compliance is not decided here; the
// session state machine re-validates it on every entry, since access rules
// and time rules can change between check and use.
type AccessService struct {
	members MembershipStore
}

// NewAccessService creates a new AccessService.
func NewAccessService(members MembershipStore) *AccessService {
	return &AccessService{members: members}
}

// CanEnter implements AccessChecker.
func (s *AccessService) CanEnter(ctx context.Context, studentID int, exam *model.Exam) (bool, error) {
	if exam.AccessMode != model.AccessModeWindowed {
		return true, nil
	}
	if exam.CohortID == nil {
		// Windowed exam without a cohort targets nobody.
		return false, nil
	}
	ok, err := s.members.IsMember(ctx, *exam.CohortID, studentID)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return ok, nil
}
