package service

import (
	"context"
	"errors"
	"testing"

	"github.com/lenterailmu/ujian-backend/internal/model"
)

type fakeMembers struct {
	members map[[2]int]bool
	err     error
}

func (f *fakeMembers) IsMember(ctx context.Context, cohortID, studentID int) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.members[[2]int{cohortID, studentID}], nil
}

func TestCanEnter(t *testing.T) {
	cohort := 5
	members := &fakeMembers{members: map[[2]int]bool{{5, 7}: true}}
	svc := NewAccessService(members)
	ctx := context.Background()

	t.Run("always mode is open to anyone", func(t *testing.T) {
		exam := &model.Exam{AccessMode: model.AccessModeAlways}
		ok, err := svc.CanEnter(ctx, 999, exam)
		if err != nil || !ok {
			t.Errorf("ok=%v err=%v, want true/nil", ok, err)
		}
	})

	t.Run("windowed requires membership", func(t *testing.T) {
		exam := &model.Exam{AccessMode: model.AccessModeWindowed, CohortID: &cohort}
		if ok, _ := svc.CanEnter(ctx, 7, exam); !ok {
			t.Error("member rejected")
		}
		if ok, _ := svc.CanEnter(ctx, 8, exam); ok {
			t.Error("non-member admitted")
		}
	})

	t.Run("windowed without cohort targets nobody", func(t *testing.T) {
		exam := &model.Exam{AccessMode: model.AccessModeWindowed}
		if ok, _ := svc.CanEnter(ctx, 7, exam); ok {
			t.Error("cohort-less windowed exam admitted a student")
		}
	})

	t.Run("store errors propagate", func(t *testing.T) {
		broken := NewAccessService(&fakeMembers{err: errors.New("down")})
		exam := &model.Exam{AccessMode: model.AccessModeWindowed, CohortID: &cohort}
		if _, err := broken.CanEnter(ctx, 7, exam); err == nil {
			t.Error("expected error")
		}
	})
}
